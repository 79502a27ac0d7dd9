package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"yd-go/internal/yd"
)

const (
	defaultRedisPrefix = "yd:"
	opTimeout          = 10 * time.Second
)

// RedisStorage keeps each item in a plain Redis string under a prefix.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStorage connects to addr and checks the connection.
func NewRedisStorage(ctx context.Context, addr, prefix string) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return NewRedisStorageFromClient(client, prefix), nil
}

// NewRedisStorageFromClient wraps an existing client.
func NewRedisStorageFromClient(client redis.UniversalClient, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStorage{client: client, prefix: prefix}
}

func (r *RedisStorage) redisKey(key string) string {
	return r.prefix + key
}

func (r *RedisStorage) GetItem(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	v, err := r.client.Get(ctx, r.redisKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading item %q: %w", key, err)
	}
	return v, true, nil
}

func (r *RedisStorage) SetItem(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := r.client.Set(ctx, r.redisKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("writing item %q: %w", key, err)
	}
	return nil
}

func (r *RedisStorage) RemoveItem(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("removing item %q: %w", key, err)
	}
	return nil
}

// Keys walks the prefix with SCAN rather than KEYS so large databases are
// not blocked.
func (r *RedisStorage) Keys() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the client.
func (r *RedisStorage) Close() error {
	return r.client.Close()
}

var _ yd.Storage = (*RedisStorage)(nil)
