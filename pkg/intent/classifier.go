// Package intent turns a user prompt and the skill catalog into confidence
// scores. Short prompts are matched against descriptions locally; longer
// prompts are sent to an LLM collaborator whose JSON answer is parsed and
// re-tiered against the configured thresholds.
package intent

import (
	"context"
	"fmt"

	"github.com/jingkaihe/skillgate/pkg/logger"
	"github.com/jingkaihe/skillgate/pkg/skills"
	intenttypes "github.com/jingkaihe/skillgate/pkg/types/intent"
	"github.com/pkg/errors"
)

// Defaults for the classifier thresholds.
const (
	DefaultHighThreshold    = 0.65
	DefaultLowThreshold     = 0.50
	DefaultShortPromptWords = 6
)

// Analyzer produces an analysis for a prompt against a catalog.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string, catalog *skills.Catalog) (intenttypes.Analysis, error)
}

// Classifier is the uncached Analyzer.
type Classifier struct {
	collaborator     Collaborator
	template         Template
	highThreshold    float64
	lowThreshold     float64
	shortPromptWords int
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithTemplate sets the analysis prompt template.
func WithTemplate(t Template) ClassifierOption {
	return func(c *Classifier) {
		c.template = t
	}
}

// WithThresholds sets the required (high) and suggested (low) confidence
// thresholds.
func WithThresholds(high, low float64) ClassifierOption {
	return func(c *Classifier) {
		c.highThreshold = high
		c.lowThreshold = low
	}
}

// WithShortPromptWords sets the word count below which the keyword heuristic
// is used instead of the collaborator.
func WithShortPromptWords(n int) ClassifierOption {
	return func(c *Classifier) {
		c.shortPromptWords = n
	}
}

// NewClassifier creates a Classifier backed by collaborator.
func NewClassifier(collaborator Collaborator, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		collaborator:     collaborator,
		template:         Default(),
		highThreshold:    DefaultHighThreshold,
		lowThreshold:     DefaultLowThreshold,
		shortPromptWords: DefaultShortPromptWords,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SettingsFingerprint identifies the configuration that shapes Analyze's
// output beyond the prompt and catalog.
func (c *Classifier) SettingsFingerprint() string {
	return fmt.Sprintf("high=%g;low=%g;short=%d;template=%s\x00%s",
		c.highThreshold, c.lowThreshold, c.shortPromptWords, c.template.Source, c.template.Text)
}

// Analyze classifies prompt. Errors are always *ClassifierError.
func (c *Classifier) Analyze(ctx context.Context, prompt string, catalog *skills.Catalog) (intenttypes.Analysis, error) {
	log := logger.G(ctx)

	if WordCount(prompt) < c.shortPromptWords {
		analysis := KeywordAnalysis(prompt, catalog)
		log.WithField("matches", len(analysis.Suggested)).Debug("short prompt classified by keywords")
		return analysis, nil
	}

	if c.collaborator == nil {
		return intenttypes.Analysis{}, classifierError(ReasonCredential, ErrMissingCredential)
	}

	text, err := c.collaborator.Complete(ctx, c.template.Render(prompt, catalog))
	if err != nil {
		if errors.Is(err, ErrMissingCredential) {
			return intenttypes.Analysis{}, classifierError(ReasonCredential, err)
		}
		return intenttypes.Analysis{}, classifierError(ReasonCollaborator, err)
	}

	analysis, err := ParseResponse(text)
	if err != nil {
		return intenttypes.Analysis{}, err
	}
	return c.retier(analysis), nil
}

// retier re-buckets names by score so the configured thresholds decide the
// tier. Names without a score keep the tier the collaborator gave them.
// Names below the low threshold are dropped and duplicates are removed.
func (c *Classifier) retier(in intenttypes.Analysis) intenttypes.Analysis {
	out := intenttypes.Analysis{
		PrimaryIntent: in.PrimaryIntent,
		Scores:        map[string]float64{},
	}
	seen := make(map[string]bool)

	place := func(name string, defaultRequired bool) {
		if name == "" || seen[name] {
			return
		}
		score, scored := in.Scores[name]
		required := defaultRequired
		if scored {
			if score < c.lowThreshold {
				return
			}
			required = score >= c.highThreshold
			out.Scores[name] = score
		}
		seen[name] = true
		if required {
			out.Required = append(out.Required, name)
		} else {
			out.Suggested = append(out.Suggested, name)
		}
	}

	for _, name := range in.Required {
		place(name, true)
	}
	for _, name := range in.Suggested {
		place(name, false)
	}
	return out
}
