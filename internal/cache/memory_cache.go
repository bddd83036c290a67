package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/kelly-calculator-service/internal/models"
)

// MemoryCache keeps evaluations in process memory, for running without Redis
type MemoryCache struct {
	cache  *gocache.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// MemoryCacheConfig holds in-memory cache configuration
type MemoryCacheConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(config MemoryCacheConfig, logger zerolog.Logger) *MemoryCache {
	cleanup := config.CleanupInterval
	if cleanup <= 0 {
		cleanup = config.TTL * 2
	}

	return &MemoryCache{
		cache:  gocache.New(config.TTL, cleanup),
		ttl:    config.TTL,
		logger: logger.With().Str("component", "memory_cache").Logger(),
	}
}

// Set caches an evaluation
func (c *MemoryCache) Set(ctx context.Context, ev *models.Evaluation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.cache.Set(Key(ev.Match), ev, c.ttl)
	return nil
}

// Get retrieves the cached evaluation of a match
func (c *MemoryCache) Get(ctx context.Context, match string) (*models.Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, found := c.cache.Get(Key(match))
	if !found {
		return nil, ErrNotFound
	}
	return v.(*models.Evaluation), nil
}

// SetBatch caches multiple evaluations
func (c *MemoryCache) SetBatch(ctx context.Context, evs []*models.Evaluation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, ev := range evs {
		c.cache.Set(Key(ev.Match), ev, c.ttl)
	}

	c.logger.Debug().Int("count", len(evs)).Msg("cached batch of evaluations")
	return nil
}

// List retrieves every unexpired evaluation
func (c *MemoryCache) List(ctx context.Context) ([]*models.Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items := c.cache.Items()
	evs := make([]*models.Evaluation, 0, len(items))
	for _, item := range items {
		if ev, ok := item.Object.(*models.Evaluation); ok {
			evs = append(evs, ev)
		}
	}
	return evs, nil
}

// Ping always succeeds
func (c *MemoryCache) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close drops every entry
func (c *MemoryCache) Close() error {
	c.cache.Flush()
	return nil
}
