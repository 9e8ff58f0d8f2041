package intent

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// Providers understood by NewCollaborator.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
)

// Defaults for the analysis request.
const (
	DefaultModel       = "claude-haiku-4-5"
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.1
)

// Collaborator sends a single user message to an LLM and returns its text.
type Collaborator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderConfig selects and configures a Collaborator.
type ProviderConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

func (c ProviderConfig) withDefaults() ProviderConfig {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderAnthropic
	}
	if c.Model == "" && c.Provider == ProviderAnthropic {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature < 0 {
		c.Temperature = DefaultTemperature
	}
	return c
}

// NewCollaborator builds the collaborator for cfg.Provider. A missing API
// key is not an error here; it surfaces as ErrMissingCredential on the
// first Complete so short prompts never need a credential.
func NewCollaborator(cfg ProviderConfig) (Collaborator, error) {
	cfg = cfg.withDefaults()
	switch cfg.Provider {
	case ProviderAnthropic:
		return NewAnthropicCollaborator(cfg), nil
	case ProviderOpenAI:
		if cfg.Model == "" {
			return nil, errors.New("classifier.model is required for the openai provider")
		}
		return NewOpenAICollaborator(cfg), nil
	case ProviderGoogle:
		if cfg.Model == "" {
			return nil, errors.New("classifier.model is required for the google provider")
		}
		return NewGoogleCollaborator(cfg), nil
	default:
		return nil, errors.Errorf("unsupported classifier provider: %s", cfg.Provider)
	}
}
