package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache keeps responses in Redis so several API replicas share them.
type RedisCache struct {
	cli    redis.UniversalClient
	prefix string
}

func NewRedisCache(cli redis.UniversalClient, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "coinstrat:resp"
	}
	return &RedisCache{cli: cli, prefix: prefix}
}

func (r *RedisCache) key(k string) string { return r.prefix + ":" + k }

func (r *RedisCache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.cli.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (r *RedisCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.cli.Set(ctx, r.key(key), value, ttl).Err()
}

// Purge drops every response under the prefix. Called after a snapshot refresh.
func (r *RedisCache) Purge(ctx context.Context) error {
	iter := r.cli.Scan(ctx, 0, r.prefix+":*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.cli.Del(ctx, keys...).Err()
}
