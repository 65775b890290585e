package fakts

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "herre:fakts:"

// RedisSource reads fakts stored as plain string keys, e.g.
// SET herre:fakts:lok.userinfo_url https://idp.example/userinfo
type RedisSource struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisSource(rdb redis.Cmdable, prefix string) *RedisSource {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisSource{rdb: rdb, prefix: prefix}
}

func (r *RedisSource) Get(ctx context.Context, key string) (any, error) {
	v, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Put stores value under key.
func (r *RedisSource) Put(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, r.prefix+key, value, 0).Err()
}
