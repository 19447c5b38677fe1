package pincode

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/piratesdroid/travel-guide/internal/cache"
	"github.com/piratesdroid/travel-guide/internal/config"
)

// Stack is the postal client with a cached resolver built on top of it.
type Stack struct {
	Client   *Client
	Resolver *Resolver
	redis    *redis.Client
}

// NewStack builds the client, picks the Redis cache when REDIS_ADDR is set
// and the in-memory cache otherwise, and wraps both in a resolver.
func NewStack(ctx context.Context, cfg config.Postal, log *slog.Logger) (*Stack, error) {
	client := NewClient(cfg.BaseURL, cfg.Timeout, rate.Limit(cfg.Rate), cfg.Burst)

	s := &Stack{Client: client}
	var store Store
	if cfg.RedisAddr != "" {
		s.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		rc := cache.NewRedis[Outcome](s.redis, "pincode:", cfg.CacheTTL)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rc.Ping(pingCtx); err != nil {
			_ = s.redis.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		store = rc
		log.Info("postal cache on redis", slog.String("addr", cfg.RedisAddr))
	} else {
		store = cache.NewMemory[Outcome](cfg.CacheCapacity, cfg.CacheTTL)
	}

	s.Resolver = NewResolver(Cached(client.Lookup, store, log), log, cfg.ResolveTimeout)
	return s, nil
}

// Close releases the Redis connection, if any.
func (s *Stack) Close() error {
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}
