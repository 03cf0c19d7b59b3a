package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KV is the subset of a key/value cache used by CachedFetcher.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisKV adapts a go-redis client to KV.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV connects to Redis and verifies the connection.
func NewRedisKV(ctx context.Context, addr, password string, db int) (*RedisKV, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisKV{client: client}, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Close() error {
	return r.client.Close()
}

// CachedFetcher serves resources from a KV cache and falls back to the wrapped fetcher.
type CachedFetcher struct {
	next   Fetcher
	kv     KV
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedFetcher(next Fetcher, kv KV, prefix string, ttl time.Duration, logger *zap.Logger) *CachedFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedFetcher{next: next, kv: kv, prefix: prefix, ttl: ttl, logger: logger}
}

func (c *CachedFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	key := c.prefix + name
	if data, ok, err := c.kv.Get(ctx, key); err != nil {
		c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return data, nil
	}

	data, err := c.next.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := c.kv.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return data, nil
}
