package llm

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI implements Client with the chat completions API.
type OpenAI struct {
	model  string
	client openai.Client
}

// NewOpenAI creates an OpenAI backend. The SDK's own retries are disabled:
// the generator owns the retry policy.
func NewOpenAI(s Settings) (*OpenAI, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("%w: set OPENAI_API_KEY", ErrMissingAPIKey)
	}
	if s.Model == "" {
		return nil, ErrMissingModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	if s.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(s.Timeout))
	}

	return &OpenAI{model: s.Model, client: openai.NewClient(opts...)}, nil
}

// Model returns the configured model name.
func (o *OpenAI) Model() string { return o.model }

func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", ErrEmptyChoices)
	}
	return resp.Choices[0].Message.Content, nil
}
