package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhk/storefront/internal/domain/cart"
	"github.com/redis/go-redis/v9"
)

const defaultSnapshotKeyPrefix = "storefront:cart:"

// RedisSnapshotStore implements cart.SnapshotStore using Redis.
// Instances sharing a Redis see each other's carts; concurrent writers to one
// key resolve last-write-wins.
type RedisSnapshotStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisSnapshotStore connects to Redis and creates a snapshot store
func NewRedisSnapshotStore(cfg RedisConfig, ttl time.Duration) (*RedisSnapshotStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisSnapshotStoreWithClient(client, defaultSnapshotKeyPrefix, ttl), nil
}

// NewRedisSnapshotStoreWithClient creates a store with an existing Redis client
func NewRedisSnapshotStoreWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisSnapshotStore {
	if keyPrefix == "" {
		keyPrefix = defaultSnapshotKeyPrefix
	}
	return &RedisSnapshotStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Load returns the snapshot stored under key
func (s *RedisSnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cart.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to load cart snapshot: %w", err)
	}
	return data, nil
}

// Save stores data under key and refreshes its TTL
func (s *RedisSnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart snapshot: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisSnapshotStore) Close() error {
	return s.client.Close()
}

var _ cart.SnapshotStore = (*RedisSnapshotStore)(nil)
