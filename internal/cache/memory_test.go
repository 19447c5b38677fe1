package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/piratesdroid/travel-guide/internal/cache"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory[string](10, time.Minute)

	_, ok, err := c.Get(ctx, "alpha")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "alpha", "411001"))
	v, ok, err := c.Get(ctx, "alpha")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "411001", v)
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory[int](10, 20*time.Millisecond)
	require.NoError(t, c.Set(ctx, "beta", 1))
	time.Sleep(25 * time.Millisecond)
	_, ok, _ := c.Get(ctx, "beta")
	require.False(t, ok)
}

func TestMemoryCapacityEvictsOldest(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory[int](1, time.Minute)
	require.NoError(t, c.Set(ctx, "first", 1))
	require.NoError(t, c.Set(ctx, "second", 2))

	_, ok, _ := c.Get(ctx, "first")
	require.False(t, ok)
	v, ok, _ := c.Get(ctx, "second")
	require.True(t, ok)
	require.Equal(t, 2, v)
	require.Equal(t, 1, c.Len())
}

func TestMemoryOverwriteKeepsLatest(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory[int](2, time.Minute)
	require.NoError(t, c.Set(ctx, "k", 1))
	require.NoError(t, c.Set(ctx, "k", 2))
	require.NoError(t, c.Set(ctx, "other", 3))

	v, ok, _ := c.Get(ctx, "k")
	require.True(t, ok)
	require.Equal(t, 2, v)
}
