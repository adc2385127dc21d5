package news

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cltagora/cltagora/internal/types"
)

// Cache is a single-slot TTL cache over the aggregated feed. The
// mutex is held across the fetch so concurrent misses coalesce into
// one scrape instead of hammering the sources.
type Cache struct {
	mu        sync.Mutex
	articles  []types.Article
	fetchedAt time.Time

	fetch  func(ctx context.Context) []types.Article
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewCache(fetch func(ctx context.Context) []types.Article, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		fetch:  fetch,
		ttl:    ttl,
		logger: logger.With("component", "news_cache"),
		now:    time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (c *Cache) WithNow(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Get returns the cached feed, refetching when the entry is stale or
// was never filled.
func (c *Cache) Get(ctx context.Context) []types.Article {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.fetchedAt.IsZero() && c.now().Sub(c.fetchedAt) < c.ttl {
		c.logger.Debug("cache hit", "age", c.now().Sub(c.fetchedAt))
		return cloneAll(c.articles)
	}
	return c.refill(ctx)
}

// Refresh bypasses the TTL and rescrapes immediately.
func (c *Cache) Refresh(ctx context.Context) []types.Article {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refill(ctx)
}

func (c *Cache) refill(ctx context.Context) []types.Article {
	c.articles = c.fetch(ctx)
	c.fetchedAt = c.now()
	c.logger.Info("cache refilled", "articles", len(c.articles))
	return cloneAll(c.articles)
}

// cloneAll copies the slice so callers cannot mutate the cached
// entries.
func cloneAll(articles []types.Article) []types.Article {
	out := make([]types.Article, len(articles))
	for i := range articles {
		out[i] = articles[i].Clone()
	}
	return out
}
