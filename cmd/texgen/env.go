package main

import (
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/alnah/go-texgen/internal/compile"
	"github.com/alnah/go-texgen/internal/llm"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now     func() time.Time
	Stdout  io.Writer
	Stderr  io.Writer
	Getenv  func(string) string
	Environ func() []string
	// NewClient builds the generation backend from resolved settings.
	NewClient func(llm.Settings) (llm.Client, error)
	// Runner executes external compilers. Chrome ignores it.
	Runner   compile.CommandRunner
	LookPath func(string) (string, error)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:       time.Now,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Getenv:    os.Getenv,
		Environ:   os.Environ,
		NewClient: llm.New,
		Runner:    &compile.ExecRunner{},
		LookPath:  exec.LookPath,
	}
}
