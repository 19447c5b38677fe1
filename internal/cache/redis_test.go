package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/piratesdroid/travel-guide/internal/cache"
)

type office struct {
	Name    string `json:"name"`
	Pincode string `json:"pincode"`
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	c := cache.NewRedis[office](client, "pincode:", time.Hour)

	require.NoError(t, c.Ping(ctx))

	_, ok, err := c.Get(ctx, "Pune")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "Pune", office{Name: "Pune H.O", Pincode: "411001"}))
	require.True(t, mr.Exists("pincode:Pune"))

	got, ok, err := c.Get(ctx, "Pune")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "411001", got.Pincode)

	mr.FastForward(2 * time.Hour)
	_, ok, err = c.Get(ctx, "Pune")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCorruptValue(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	c := cache.NewRedis[office](client, "pincode:", time.Hour)

	require.NoError(t, mr.Set("pincode:bad", "{not json"))
	_, ok, err := c.Get(ctx, "bad")
	require.Error(t, err)
	require.False(t, ok)
}
