package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/masterylab/internal/storage"
	"github.com/redis/go-redis/v9"
)

// KVStore implements storage.KV on a Redis server. Keys are namespaced with
// prefix so the slot can share a database with other applications.
type KVStore struct {
	client *redis.Client
	prefix string
}

// NewKVStore wraps an existing client
func NewKVStore(client *redis.Client, prefix string) *KVStore {
	return &KVStore{client: client, prefix: prefix}
}

// Open parses a redis:// URL, connects and verifies the server responds
func Open(ctx context.Context, url, prefix string) (*KVStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewKVStore(client, prefix), nil
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return value, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	n, err := s.client.Del(ctx, s.prefix+key).Result()
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *KVStore) Close() error {
	return s.client.Close()
}

var _ storage.KV = (*KVStore)(nil)
