package activation

import (
	"context"

	"github.com/jingkaihe/skillgate/pkg/cache"
	"github.com/jingkaihe/skillgate/pkg/config"
	"github.com/jingkaihe/skillgate/pkg/intent"
	"github.com/jingkaihe/skillgate/pkg/logger"
	"github.com/jingkaihe/skillgate/pkg/selection"
	"github.com/pkg/errors"
)

// Build assembles an Engine from resolved configuration. The returned
// function releases the response cache and must be called before exit.
func Build(ctx context.Context, cfg config.Config, paths config.Paths) (*Engine, func() error, error) {
	log := logger.G(ctx)

	tmpl, err := intent.LoadTemplate(paths.TemplatePath)
	switch {
	case err == nil:
	case errors.Is(err, intent.ErrTemplateNotFound):
		tmpl = intent.Default()
	default:
		log.WithError(err).Warn("failed to load intent prompt template, using built-in")
		tmpl = intent.Default()
	}
	log.WithField("template", tmpl.Source).Debug("intent prompt template")

	collaborator, err := intent.NewCollaborator(intent.ProviderConfig{
		Provider:    cfg.Classifier.Provider,
		Model:       cfg.Classifier.Model,
		APIKey:      cfg.Classifier.ResolveAPIKey(),
		BaseURL:     cfg.Classifier.BaseURL,
		MaxTokens:   cfg.Classifier.MaxTokens,
		Temperature: cfg.Classifier.Temperature,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to configure classifier")
	}

	classifier := intent.NewClassifier(collaborator,
		intent.WithTemplate(tmpl),
		intent.WithThresholds(cfg.HighThreshold, cfg.LowThreshold),
		intent.WithShortPromptWords(cfg.ShortPromptWords),
	)

	store, closeStore, err := cache.Open(ctx, cfg.Cache.Backend, cfg.Cache.Path)
	if err != nil {
		log.WithError(err).Warn("response cache unavailable, falling back to memory")
		store, closeStore, _ = cache.Open(ctx, cache.BackendMemory, "")
	}
	responses := cache.New(store, cache.WithTTL(cfg.Cache.TTL()))

	engine := NewEngine(intent.NewCachedClassifier(classifier, responses), Options{
		RulesPath:  paths.RulesPath,
		SkillsBase: paths.SkillsBase,
		StateDir:   paths.StateDir,
		Limits: selection.Limits{
			MaxRequired:  cfg.MaxRequired,
			MaxSuggested: cfg.MaxSuggested,
		},
		Timeout: cfg.Classifier.Timeout,
	})
	return engine, closeStore, nil
}
