package intent

import (
	"context"

	"github.com/jingkaihe/skillgate/pkg/cache"
	"github.com/jingkaihe/skillgate/pkg/logger"
	"github.com/jingkaihe/skillgate/pkg/skills"
	intenttypes "github.com/jingkaihe/skillgate/pkg/types/intent"
)

// CachedClassifier wraps an Analyzer with a ResponseCache. Stale entries
// are evicted on every call; only successful analyses are stored.
type CachedClassifier struct {
	next  Analyzer
	cache *cache.ResponseCache
}

// settingsFingerprinter is implemented by analyzers whose output depends on
// their own configuration.
type settingsFingerprinter interface {
	SettingsFingerprint() string
}

// NewCachedClassifier wraps next with c.
func NewCachedClassifier(next Analyzer, c *cache.ResponseCache) *CachedClassifier {
	return &CachedClassifier{next: next, cache: c}
}

// Analyze serves prompt from the cache when possible.
func (c *CachedClassifier) Analyze(ctx context.Context, prompt string, catalog *skills.Catalog) (intenttypes.Analysis, error) {
	log := logger.G(ctx)

	if removed := c.cache.EvictExpired(ctx, c.cache.Now()); removed > 0 {
		log.WithField("removed", removed).Debug("evicted stale intent cache entries")
	}

	scope := catalog.Fingerprint()
	if f, ok := c.next.(settingsFingerprinter); ok {
		scope += "|" + f.SettingsFingerprint()
	}
	key := cache.Key(prompt, scope)
	if analysis, ok := c.cache.Get(ctx, key); ok {
		log.Debug("intent cache hit")
		return analysis, nil
	}

	analysis, err := c.next.Analyze(ctx, prompt, catalog)
	if err != nil {
		return intenttypes.Analysis{}, err
	}
	c.cache.Put(ctx, key, analysis)
	return analysis, nil
}
