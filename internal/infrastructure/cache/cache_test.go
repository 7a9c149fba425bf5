package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summary struct {
	Pool  string          `json:"pool"`
	Total decimal.Decimal `json:"total"`
}

func TestMemoryStockCache_GetSetInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryStockCache()

	var got summary
	ok, err := c.Get(ctx, "summary", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "summary", summary{Pool: "shop", Total: decimal.NewFromInt(12)}, time.Minute))
	ok, err = c.Get(ctx, "summary", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "shop", got.Pool)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(12)))

	require.NoError(t, c.Invalidate(ctx))
	ok, err = c.Get(ctx, "summary", &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryStockCache_RemplissagePerimeIgnore(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryStockCache()

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx))

	require.NoError(t, c.Fill(ctx, gen, "summary", summary{Pool: "shop"}, time.Minute))
	assert.Equal(t, 0, c.Len(), "lecture antérieure à l'invalidation")

	gen, err = c.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Fill(ctx, gen, "summary", summary{Pool: "shop"}, time.Minute))
	assert.Equal(t, 1, c.Len())
}

func TestMemoryStockCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	c := NewMemoryStockCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "balances:p1", summary{Pool: "raw"}, time.Second))
	now = now.Add(2 * time.Second)

	var got summary
	ok, err := c.Get(ctx, "balances:p1", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNoopStockCache(t *testing.T) {
	ctx := context.Background()
	var c NoopStockCache
	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	require.NoError(t, c.Fill(ctx, 0, "k", 1, time.Minute))
	var v int
	ok, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(ctx))
}
