package intent

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// OpenAICollaborator calls an OpenAI-compatible chat completions endpoint.
type OpenAICollaborator struct {
	cfg ProviderConfig
}

// NewOpenAICollaborator creates a collaborator for cfg.
func NewOpenAICollaborator(cfg ProviderConfig) *OpenAICollaborator {
	return &OpenAICollaborator{cfg: cfg}
}

// Complete sends prompt as a single user message.
func (o *OpenAICollaborator) Complete(ctx context.Context, prompt string) (string, error) {
	if o.cfg.APIKey == "" {
		return "", errors.Wrap(ErrMissingCredential, "OPENAI_API_KEY not found")
	}

	config := openai.DefaultConfig(o.cfg.APIKey)
	if o.cfg.BaseURL != "" {
		config.BaseURL = o.cfg.BaseURL
	}
	client := openai.NewClientWithConfig(config)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.cfg.Model,
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: float32(o.cfg.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "openai request failed")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
