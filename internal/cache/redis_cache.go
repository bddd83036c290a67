package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/kelly-calculator-service/internal/models"
)

const keyPrefix = "kelly:"

// ErrNotFound is returned when no evaluation is cached for a match
var ErrNotFound = errors.New("evaluation not found in cache")

// RedisCache caches match evaluations in Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// RedisCacheConfig holds Redis cache configuration
type RedisCacheConfig struct {
	Addr     string // e.g., "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // e.g., 15 * time.Minute
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(config RedisCacheConfig, logger zerolog.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisCache{
		client: client,
		ttl:    config.TTL,
		logger: logger.With().Str("component", "redis_cache").Logger(),
	}
}

// Key returns the cache key of a match: kelly:{match}, case-insensitive
func Key(match string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(match))
}

// Set caches an evaluation, replacing any previous one for the same match
func (c *RedisCache) Set(ctx context.Context, ev *models.Evaluation) error {
	key := Key(ev.Match)

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in Redis: %w", err)
	}

	c.logger.Debug().
		Str("key", key).
		Dur("ttl", c.ttl).
		Msg("cached evaluation")

	return nil
}

// Get retrieves the cached evaluation of a match
func (c *RedisCache) Get(ctx context.Context, match string) (*models.Evaluation, error) {
	data, err := c.client.Get(ctx, Key(match)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get from Redis: %w", err)
	}

	var ev models.Evaluation
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("failed to unmarshal evaluation: %w", err)
	}

	return &ev, nil
}

// SetBatch caches multiple evaluations in one pipeline
func (c *RedisCache) SetBatch(ctx context.Context, evs []*models.Evaluation) error {
	if len(evs) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()

	for _, ev := range evs {
		data, err := json.Marshal(ev)
		if err != nil {
			c.logger.Error().Err(err).Str("match", ev.Match).Msg("failed to marshal evaluation")
			continue
		}
		pipe.Set(ctx, Key(ev.Match), data, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute pipeline: %w", err)
	}

	c.logger.Info().
		Int("count", len(evs)).
		Msg("cached batch of evaluations")

	return nil
}

// List retrieves every cached evaluation
func (c *RedisCache) List(ctx context.Context) ([]*models.Evaluation, error) {
	var cursor uint64
	var keys []string

	for {
		var scanKeys []string
		var err error
		scanKeys, cursor, err = c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}

		keys = append(keys, scanKeys...)

		if cursor == 0 {
			break
		}
	}

	evs := make([]*models.Evaluation, 0, len(keys))
	for _, key := range keys {
		data, err := c.client.Get(ctx, key).Bytes()
		if err != nil {
			// Expired between SCAN and GET
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to get key")
			continue
		}

		var ev models.Evaluation
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to unmarshal evaluation")
			continue
		}

		evs = append(evs, &ev)
	}

	return evs, nil
}

// Ping checks Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
