package services

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rpupo63/myblog-backend/config"
)

// RenderCache stores rendered HTML by key.
type RenderCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, html string) error
}

type RedisRenderCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRenderCache connects to REDIS_ADDR. It returns nil when no address is configured.
func NewRedisRenderCache(cfg map[string]string) *RedisRenderCache {
	addr := config.GetString(cfg, "REDIS_ADDR", "")
	if addr == "" {
		return nil
	}
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.GetString(cfg, "REDIS_PASSWORD", ""),
		DB:       config.GetInt(cfg, "REDIS_DB", 0),
	})
	return &RedisRenderCache{
		client: c,
		ttl:    config.GetSeconds(cfg, "RENDER_CACHE_TTL_SECONDS", time.Hour),
	}
}

func (r *RedisRenderCache) Close() error { return r.client.Close() }

func (r *RedisRenderCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisRenderCache) Set(ctx context.Context, key, html string) error {
	return r.client.Set(ctx, key, html, r.ttl).Err()
}
