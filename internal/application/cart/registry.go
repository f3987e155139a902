package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jhk/storefront/internal/domain/cart"
	"github.com/jhk/storefront/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultKeyPrefix is prepended to session ids to form snapshot keys
const DefaultKeyPrefix = cart.DefaultSnapshotKey

// rehydrateTimeout bounds the first snapshot read of a session
const rehydrateTimeout = 5 * time.Second

type session struct {
	store       *cart.Store
	ready       sync.Once
	lastUsed    time.Time
	unsubscribe func()
}

// Registry keeps one cart store per shopper session in memory.
// Stores are created and rehydrated on first use and dropped after being
// idle; their durable snapshot outlives them.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session

	snapshots     cart.SnapshotStore
	publisher     shared.EventPublisher
	keyPrefix     string
	idleTimeout   time.Duration
	now           func() time.Time
	logger        *zap.Logger
	onPersistFail func(ctx context.Context, err error)
}

// RegistryOption is a functional option for configuring the registry
type RegistryOption func(*Registry)

// WithKeyPrefix sets the snapshot key prefix
func WithKeyPrefix(prefix string) RegistryOption {
	return func(r *Registry) {
		if prefix != "" {
			r.keyPrefix = prefix
		}
	}
}

// WithIdleTimeout sets how long an unused store stays in memory
func WithIdleTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.idleTimeout = d
	}
}

// WithPublisher sets where cart.updated events are published
func WithPublisher(p shared.EventPublisher) RegistryOption {
	return func(r *Registry) {
		r.publisher = p
	}
}

// WithRegistryLogger sets the logger
func WithRegistryLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithRegistryClock sets the time source used for idleness
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

// WithPersistFailureHook is passed to every store the registry creates
func WithPersistFailureHook(fn func(ctx context.Context, err error)) RegistryOption {
	return func(r *Registry) {
		r.onPersistFail = fn
	}
}

// NewRegistry creates an empty registry over snapshots
func NewRegistry(snapshots cart.SnapshotStore, opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions:    make(map[uuid.UUID]*session),
		snapshots:   snapshots,
		keyPrefix:   DefaultKeyPrefix,
		idleTimeout: 30 * time.Minute,
		now:         time.Now,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SnapshotKey returns the durable key of a session cart
func (r *Registry) SnapshotKey(sessionID uuid.UUID) string {
	return r.keyPrefix + ":" + sessionID.String()
}

// Open returns the store of a session, creating and rehydrating it on first use
func (r *Registry) Open(ctx context.Context, sessionID uuid.UUID) *cart.Store {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if !ok {
		s = r.newSession(sessionID)
		r.sessions[sessionID] = s
	}
	s.lastUsed = r.now()
	r.mu.Unlock()

	// Runs once per store; it must not inherit the caller's cancellation.
	s.ready.Do(func() {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rehydrateTimeout)
		defer cancel()
		s.store.Rehydrate(loadCtx)
	})
	return s.store
}

func (r *Registry) newSession(sessionID uuid.UUID) *session {
	opts := []cart.StoreOption{
		cart.WithSnapshotKey(r.SnapshotKey(sessionID)),
		cart.WithLogger(r.logger.With(zap.String("cart_session", sessionID.String()))),
	}
	if r.onPersistFail != nil {
		opts = append(opts, cart.WithPersistFailureHook(r.onPersistFail))
	}
	store := cart.NewStore(r.snapshots, opts...)

	s := &session{store: store, unsubscribe: func() {}}
	if r.publisher != nil {
		s.unsubscribe = store.Subscribe(func(ctx context.Context, change cart.Change) {
			if err := r.publisher.Publish(ctx, cart.NewUpdatedEvent(sessionID, change)); err != nil {
				r.logger.Warn("Failed to publish cart update",
					zap.String("cart_session", sessionID.String()),
					zap.Error(err),
				)
			}
		})
	}
	return s
}

// Len returns the number of stores held in memory
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle drops stores unused for longer than the idle timeout and
// returns how many were dropped
func (r *Registry) EvictIdle() int {
	if r.idleTimeout <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.Lock()
	var evicted []*session
	for id, s := range r.sessions {
		if s.lastUsed.Before(cutoff) {
			evicted = append(evicted, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range evicted {
		s.unsubscribe()
	}
	if len(evicted) > 0 {
		r.logger.Debug("Evicted idle carts", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}
