package censor

import (
	"context"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

type RedisVerdictCache struct {
	Data *cache.Cache
	TTL  time.Duration
}

var _ VerdictCache = (*RedisVerdictCache)(nil)

func NewRedisVerdictCache(redisURL string, ttl time.Duration) (*RedisVerdictCache, error) {
	ctx := context.Background()
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}
	data := cache.New(&cache.Options{
		Redis:      rdb,
		LocalCache: cache.NewTinyLFU(10_000, ttl),
	})
	return &RedisVerdictCache{
		Data: data,
		TTL:  ttl,
	}, nil
}

func redisCacheKey(kind, key string) string {
	return "verdict/" + kind + "/" + key
}

func (c *RedisVerdictCache) Get(ctx context.Context, kind, key string) (*RawResult, error) {
	var res RawResult
	err := c.Data.Get(ctx, redisCacheKey(kind, key), &res)
	if err == cache.ErrCacheMiss {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *RedisVerdictCache) Set(ctx context.Context, kind, key string, res *RawResult) error {
	return c.Data.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisCacheKey(kind, key),
		Value: res,
		TTL:   c.TTL,
	})
}
