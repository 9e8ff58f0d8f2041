// Package cache memoizes intent analyses per (prompt, catalog) pair so that a
// repeated prompt does not pay for a second classification within the TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/jingkaihe/skillgate/pkg/logger"
	intenttypes "github.com/jingkaihe/skillgate/pkg/types/intent"
)

const (
	// DefaultTTL bounds how long an entry is served as a hit.
	DefaultTTL = time.Hour
	// CleanupAge is the age past which entries are removed by EvictExpired.
	CleanupAge = 24 * time.Hour
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now returns f().
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Entry is one cached analysis.
type Entry struct {
	Key       string
	Analysis  intenttypes.Analysis
	CreatedAt time.Time
}

// Store persists cache entries.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, entry Entry) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	Clear(ctx context.Context) (int, error)
}

// ResponseCache applies TTL and eviction policy on top of a Store. Store
// failures are logged and treated as misses; the cache never fails a run.
type ResponseCache struct {
	store Store
	clock Clock
	ttl   time.Duration
}

// Option configures a ResponseCache.
type Option func(*ResponseCache)

// WithClock sets the clock used for TTL checks.
func WithClock(clock Clock) Option {
	return func(c *ResponseCache) {
		c.clock = clock
	}
}

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *ResponseCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// New creates a ResponseCache over store.
func New(store Store, opts ...Option) *ResponseCache {
	c := &ResponseCache{
		store: store,
		clock: SystemClock,
		ttl:   DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key derives the cache key for a prompt against a catalog fingerprint.
func Key(prompt, catalogFingerprint string) string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(len(prompt))))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	h.Write([]byte{0})
	h.Write([]byte(catalogFingerprint))
	return hex.EncodeToString(h.Sum(nil))
}

// TTL returns the configured time-to-live.
func (c *ResponseCache) TTL() time.Duration {
	return c.ttl
}

// Now reads the cache clock.
func (c *ResponseCache) Now() time.Time {
	return c.clock.Now()
}

// Get returns the analysis stored under key if it is younger than the TTL.
func (c *ResponseCache) Get(ctx context.Context, key string) (intenttypes.Analysis, bool) {
	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("intent cache read failed")
		return intenttypes.Analysis{}, false
	}
	if !ok {
		return intenttypes.Analysis{}, false
	}
	if c.clock.Now().Sub(entry.CreatedAt) >= c.ttl {
		return intenttypes.Analysis{}, false
	}
	return entry.Analysis.Clone(), true
}

// Put stores analysis under key, stamped with the current time.
func (c *ResponseCache) Put(ctx context.Context, key string, analysis intenttypes.Analysis) {
	entry := Entry{Key: key, Analysis: analysis.Clone(), CreatedAt: c.clock.Now()}
	if err := c.store.Put(ctx, entry); err != nil {
		logger.G(ctx).WithError(err).Warn("intent cache write failed")
	}
}

// EvictExpired removes entries older than CleanupAge relative to now and
// returns how many were removed.
func (c *ResponseCache) EvictExpired(ctx context.Context, now time.Time) int {
	removed, err := c.store.DeleteOlderThan(ctx, now.Add(-CleanupAge))
	if err != nil {
		logger.G(ctx).WithError(err).Warn("intent cache eviction failed")
		return 0
	}
	return removed
}

// Clear removes every entry.
func (c *ResponseCache) Clear(ctx context.Context) (int, error) {
	return c.store.Clear(ctx)
}
