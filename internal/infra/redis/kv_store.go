package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"ham-practice/internal/domain"
)

// KVStore persists learner progress as plain Redis strings under a key prefix.
type KVStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration // 0 keeps keys forever
}

func NewKVStore(client *redis.Client, prefix string, ttl time.Duration) *KVStore {
	return &KVStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrKeyNotFound
	}
	return v, err
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.key(key), value, s.ttl).Err()
}

func (s *KVStore) key(key string) string {
	return s.prefix + key
}
