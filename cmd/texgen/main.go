package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	if slices.Contains(os.Args, "--verbose") || slices.Contains(os.Args, "-v") {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	ctx, stop := notifyContext(context.Background())
	code := run(ctx, os.Args[1:], DefaultEnv())
	stop()
	os.Exit(code)
}

// run dispatches a subcommand and returns the process exit code.
func run(ctx context.Context, args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "generate", "gen":
		return runGenerateCmd(ctx, rest, env)
	case "compile":
		return runCompileCmd(ctx, rest, env)
	case "validate":
		return runValidateCmd(ctx, rest, env)
	case "history":
		return runHistoryCmd(ctx, rest, env)
	case "doctor":
		return runDoctorCmd(ctx, rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "texgen %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(rest, env.Stdout)
	default:
		fmt.Fprintf(env.Stderr, "unknown command %q\n\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}
}

// runHelp prints help for a command, or the main usage.
func runHelp(args []string, w io.Writer) int {
	if len(args) == 0 {
		printUsage(w)
		return ExitSuccess
	}
	switch args[0] {
	case "generate", "gen":
		printGenerateUsage(w)
	case "compile":
		printCompileUsage(w)
	case "validate":
		printValidateUsage(w)
	case "history":
		printHistoryUsage(w)
	case "doctor":
		printDoctorUsage(w)
	default:
		fmt.Fprintf(w, "unknown command %q\n\n", args[0])
		printUsage(w)
		return ExitUsage
	}
	return ExitSuccess
}
