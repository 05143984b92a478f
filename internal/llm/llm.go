// Package llm provides the text generation backends used by the generator.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for backend construction and calls.
var (
	ErrMissingAPIKey   = errors.New("openai api key missing")
	ErrMissingModel    = errors.New("llm model is required")
	ErrUnknownProvider = errors.New("unknown llm provider")
	ErrEmptyChoices    = errors.New("response has no choices")
)

// Providers.
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Client generates text for a prompt. Implementations must honor ctx.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, prompt string) (string, error)

func (f ClientFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Settings configures a backend.
type Settings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration // per request; zero means none
}

// New builds the backend selected by s.Provider.
func New(s Settings) (Client, error) {
	switch s.Provider {
	case ProviderOpenAI, "":
		return NewOpenAI(s)
	case ProviderMock:
		return Mock{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, s.Provider)
	}
}
