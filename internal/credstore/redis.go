package credstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BuzzLyutic/taskdesk/internal/model"
)

// RedisStore keeps tokens under <prefix>:<kind> keys. The TTL bounds the
// lifetime of a session the same way a browser session would.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStore) key(kind Kind) string {
	return r.prefix + ":" + string(kind)
}

func (r *RedisStore) Get(ctx context.Context, kind Kind) (string, error) {
	v, err := r.client.Get(ctx, r.key(kind)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (r *RedisStore) Set(ctx context.Context, kind Kind, value string) error {
	return r.client.Set(ctx, r.key(kind), value, r.ttl).Err()
}

func (r *RedisStore) SetPair(ctx context.Context, pair model.TokenPair) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(Access), pair.Access, r.ttl)
		pipe.Set(ctx, r.key(Refresh), pair.Refresh, r.ttl)
		return nil
	})
	return err
}

func (r *RedisStore) Clear(ctx context.Context, kind Kind) error {
	return r.client.Del(ctx, r.key(kind)).Err()
}

func (r *RedisStore) ClearAll(ctx context.Context) error {
	return r.client.Del(ctx, r.key(Access), r.key(Refresh)).Err()
}
