package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRegistry is a read-only Registry backed by Redis/Valkey, used when
// the harvesting procedures publish thresholds into a shared cache tier
// instead of a local bbolt file.
type RedisRegistry struct {
	client *redis.Client
}

// NewRedisRegistry parses url and verifies connectivity before returning.
func NewRedisRegistry(url string) (*RedisRegistry, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing registry redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to registry redis: %w", err)
	}

	return &RedisRegistry{client: client}, nil
}

// NewRedisRegistryFromClient wraps an already-constructed client, letting
// tests point it at a miniredis instance.
func NewRedisRegistryFromClient(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client}
}

// Get implements Registry. Connection errors, timeouts, and a genuine key
// miss are all reported as absent.
func (r *RedisRegistry) Get(ctx context.Context, key string) (string, bool) {
	v, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

// Close implements Registry.
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}
