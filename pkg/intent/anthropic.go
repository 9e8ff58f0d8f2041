package intent

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"
)

// AnthropicCollaborator calls the Anthropic Messages API.
type AnthropicCollaborator struct {
	cfg  ProviderConfig
	opts []option.RequestOption
}

// NewAnthropicCollaborator creates a collaborator for cfg. Extra request
// options are appended after the API key and base URL.
func NewAnthropicCollaborator(cfg ProviderConfig, opts ...option.RequestOption) *AnthropicCollaborator {
	return &AnthropicCollaborator{cfg: cfg.withDefaults(), opts: opts}
}

// Complete sends prompt as a single user message and returns the first text
// block. The SDK's automatic retries are disabled; a failed call fails the turn.
func (a *AnthropicCollaborator) Complete(ctx context.Context, prompt string) (string, error) {
	if a.cfg.APIKey == "" {
		return "", errors.Wrap(ErrMissingCredential, "ANTHROPIC_API_KEY not found; add it to .claude/hooks/.env")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(a.cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if a.cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(a.cfg.BaseURL))
	}
	opts = append(opts, a.opts...)
	client := anthropic.NewClient(opts...)

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.cfg.Model),
		MaxTokens:   int64(a.cfg.MaxTokens),
		Temperature: anthropic.Float(a.cfg.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "anthropic request failed")
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.New("unexpected response type from Anthropic API")
}
