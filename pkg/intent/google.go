package intent

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/genai"
)

// GoogleCollaborator calls the Gemini API.
type GoogleCollaborator struct {
	cfg ProviderConfig
}

// NewGoogleCollaborator creates a collaborator for cfg.
func NewGoogleCollaborator(cfg ProviderConfig) *GoogleCollaborator {
	return &GoogleCollaborator{cfg: cfg}
}

// Complete sends prompt as a single user turn and returns the response text.
func (g *GoogleCollaborator) Complete(ctx context.Context, prompt string) (string, error) {
	if g.cfg.APIKey == "" {
		return "", errors.Wrap(ErrMissingCredential, "GOOGLE_API_KEY or GEMINI_API_KEY not found")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to create Google GenAI client")
	}

	resp, err := client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(g.cfg.Temperature)),
		MaxOutputTokens: int32(g.cfg.MaxTokens),
	})
	if err != nil {
		return "", errors.Wrap(err, "google request failed")
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("google response has no text")
	}
	return text, nil
}
