package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/kelly-calculator-service/internal/models"
)

func newTestMemoryCache(ttl time.Duration) *MemoryCache {
	return NewMemoryCache(MemoryCacheConfig{TTL: ttl, CleanupInterval: time.Minute}, zerolog.Nop())
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := newTestMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	ev := testEvaluation("Team A vs Team B")
	require.NoError(t, c.Set(ctx, ev))

	got, err := c.Get(ctx, "TEAM A VS TEAM B")
	require.NoError(t, err)
	assert.Same(t, ev, got)
}

func TestMemoryCache_NotFound(t *testing.T) {
	c := newTestMemoryCache(time.Minute)

	_, err := c.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := newTestMemoryCache(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testEvaluation("A")))
	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "A")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCache_BatchAndList(t *testing.T) {
	c := newTestMemoryCache(time.Minute)
	ctx := context.Background()

	require.NoError(t, c.SetBatch(ctx, []*models.Evaluation{testEvaluation("A"), testEvaluation("B")}))
	// Same match replaces the previous entry
	require.NoError(t, c.Set(ctx, testEvaluation("a")))

	evs, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, evs, 2)
}

func TestMemoryCache_CanceledContext(t *testing.T) {
	c := newTestMemoryCache(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, c.Set(ctx, testEvaluation("A")))
	assert.Error(t, c.SetBatch(ctx, nil))
	assert.Error(t, c.Ping(ctx))
	_, err := c.List(ctx)
	assert.Error(t, err)
}

func TestMemoryCache_Close(t *testing.T) {
	c := newTestMemoryCache(time.Minute)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, testEvaluation("A")))

	require.NoError(t, c.Close())

	evs, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, evs)
	assert.NoError(t, c.Ping(ctx))
}
