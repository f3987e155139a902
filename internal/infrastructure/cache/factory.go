package cache

import (
	"fmt"
	"io"

	"github.com/jhk/storefront/internal/domain/cart"
	"github.com/jhk/storefront/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SnapshotProvider builds a snapshot store for a backend this package does not own
// (database, s3). The returned closer may be nil.
type SnapshotProvider func() (cart.SnapshotStore, io.Closer, error)

// SnapshotStoreFactory creates cart snapshot stores based on configuration
type SnapshotStoreFactory struct {
	cartConfig            config.CartConfig
	redisConfig           config.RedisConfig
	providers             map[string]SnapshotProvider
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SnapshotStoreFactoryOption is a functional option for configuring the factory
type SnapshotStoreFactoryOption func(*SnapshotStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SnapshotStoreFactoryOption {
	return func(f *SnapshotStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store when
// the configured backend is unavailable. Default is true.
func WithInMemoryFallback(allow bool) SnapshotStoreFactoryOption {
	return func(f *SnapshotStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithProvider registers a provider for a backend name
func WithProvider(backend string, provider SnapshotProvider) SnapshotStoreFactoryOption {
	return func(f *SnapshotStoreFactory) {
		f.providers[backend] = provider
	}
}

// NewSnapshotStoreFactory creates a new factory
func NewSnapshotStoreFactory(cartCfg config.CartConfig, redisCfg config.RedisConfig, opts ...SnapshotStoreFactoryOption) *SnapshotStoreFactory {
	f := &SnapshotStoreFactory{
		cartConfig:            cartCfg,
		redisConfig:           redisCfg,
		providers:             make(map[string]SnapshotProvider),
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisStore creates a Redis-based snapshot store
func (f *SnapshotStoreFactory) CreateRedisStore() (*RedisSnapshotStore, error) {
	store, err := NewRedisSnapshotStore(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.cartConfig.SnapshotTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis snapshot store: %w", err)
	}
	return store, nil
}

// CreateInMemoryStore creates an in-memory snapshot store.
// WARNING: carts kept here are lost on restart and are not visible to other instances.
func (f *SnapshotStoreFactory) CreateInMemoryStore() *InMemorySnapshotStore {
	return NewInMemorySnapshotStore(f.cartConfig.SnapshotTTL)
}

// CreateStore creates the store for the configured backend. When the backend cannot
// be reached and fallback is allowed, an in-memory store is returned instead.
// The returned closer releases the store's resources.
func (f *SnapshotStoreFactory) CreateStore() (cart.SnapshotStore, io.Closer, error) {
	backend := f.cartConfig.SnapshotBackend
	if backend == "" || backend == config.SnapshotBackendMemory {
		f.logger.Info("Using in-memory cart snapshot store")
		store := f.CreateInMemoryStore()
		return store, store, nil
	}

	store, closer, err := f.createBackend(backend)
	if err == nil {
		f.logger.Info("Using cart snapshot store", zap.String("backend", backend))
		return store, closer, nil
	}

	if !f.allowInMemoryFallback {
		return nil, nil, fmt.Errorf("cart snapshot backend %q unavailable: %w", backend, err)
	}

	f.logger.Warn("Cart snapshot backend unavailable, falling back to in-memory store. "+
		"Carts will not survive a restart.",
		zap.String("backend", backend),
		zap.Error(err),
	)
	mem := f.CreateInMemoryStore()
	return mem, mem, nil
}

func (f *SnapshotStoreFactory) createBackend(backend string) (cart.SnapshotStore, io.Closer, error) {
	if backend == config.SnapshotBackendRedis {
		store, err := f.CreateRedisStore()
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}

	provider, ok := f.providers[backend]
	if !ok {
		return nil, nil, fmt.Errorf("no provider registered for backend %q", backend)
	}
	store, closer, err := provider()
	if err != nil {
		return nil, nil, err
	}
	if closer == nil {
		closer = nopCloser{}
	}
	return store, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
