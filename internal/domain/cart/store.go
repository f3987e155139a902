package cart

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/jhk/storefront/internal/domain/catalog"
	"go.uber.org/zap"
)

// Change is delivered to listeners after every dispatched intent
type Change struct {
	Intent IntentKind
	State  State
}

// Listener receives cart changes. Listeners run on the dispatching goroutine
// and must not call mutating Store methods.
type Listener func(ctx context.Context, change Change)

type subscription struct {
	id       int
	listener Listener
}

// Store owns one cart State. All mutations go through dispatch, which
// applies Reduce, persists content changes and notifies listeners in
// subscription order.
type Store struct {
	dispatchMu sync.Mutex // serializes dispatch, persistence and notification
	stateMu    sync.RWMutex
	state      State

	listenersMu sync.RWMutex
	listeners   []subscription
	nextID      int

	snapshots     SnapshotStore
	key           string
	logger        *zap.Logger
	now           func() time.Time
	onPersistFail func(ctx context.Context, err error)
}

// StoreOption is a functional option for configuring the store
type StoreOption func(*Store)

// WithSnapshotKey sets the durable slot key
func WithSnapshotKey(key string) StoreOption {
	return func(s *Store) {
		s.key = key
	}
}

// WithLogger sets the logger for the store
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock sets the time source used for AddedAt
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithPersistFailureHook registers a callback for swallowed write errors
func WithPersistFailureHook(fn func(ctx context.Context, err error)) StoreOption {
	return func(s *Store) {
		s.onPersistFail = fn
	}
}

// NewStore creates an empty, closed cart backed by snapshots.
// A nil snapshots store keeps the cart in memory only.
func NewStore(snapshots SnapshotStore, opts ...StoreOption) *Store {
	s := &Store{
		state:     Empty(),
		snapshots: snapshots,
		key:       DefaultSnapshotKey,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the durable slot key of this cart
func (s *Store) Key() string {
	return s.key
}

// State returns a copy of the current state
func (s *Store) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers a listener and returns the function that removes it
func (s *Store) Subscribe(listener Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, listener: listener})
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			s.listeners = slices.DeleteFunc(s.listeners, func(sub subscription) bool {
				return sub.id == id
			})
			s.listenersMu.Unlock()
		})
	}
}

// AddItem adds one unit of product. Products with invalid prices are ignored.
func (s *Store) AddItem(ctx context.Context, product catalog.Product) State {
	if err := product.Validate(); err != nil {
		s.logger.Warn("Ignoring product with invalid prices",
			zap.Int64("product_id", product.ID),
			zap.String("cart_key", s.key),
			zap.Error(err),
		)
		return s.State()
	}
	return s.dispatch(ctx, AddItem{Product: product})
}

// RemoveItem removes the line for productID; absent ids are a no-op
func (s *Store) RemoveItem(ctx context.Context, productID int64) State {
	return s.dispatch(ctx, RemoveItem{ProductID: productID})
}

// UpdateQuantity sets the quantity for productID; quantity <= 0 removes the line
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) State {
	return s.dispatch(ctx, UpdateQuantity{ProductID: productID, Quantity: quantity})
}

// ClearCart empties the cart and overwrites the durable snapshot
func (s *Store) ClearCart(ctx context.Context) State {
	return s.dispatch(ctx, ClearCart{})
}

// ToggleCart flips panel visibility
func (s *Store) ToggleCart(ctx context.Context) State {
	return s.dispatch(ctx, ToggleCart{})
}

// OpenCart shows the panel
func (s *Store) OpenCart(ctx context.Context) State {
	return s.dispatch(ctx, OpenCart{})
}

// CloseCart hides the panel
func (s *Store) CloseCart(ctx context.Context) State {
	return s.dispatch(ctx, CloseCart{})
}

// Rehydrate restores the durable snapshot, if it holds at least one item.
// Missing, unreadable or malformed snapshots leave the cart as it is.
func (s *Store) Rehydrate(ctx context.Context) State {
	if s.snapshots == nil {
		return s.State()
	}

	data, err := s.snapshots.Load(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrSnapshotNotFound) {
			s.logger.Warn("Failed to read cart snapshot, starting empty",
				zap.String("cart_key", s.key),
				zap.Error(err),
			)
		}
		return s.State()
	}

	items, err := DecodeSnapshot(data)
	if err != nil {
		s.logger.Warn("Discarding malformed cart snapshot",
			zap.String("cart_key", s.key),
			zap.Error(err),
		)
		return s.State()
	}
	if len(items) == 0 {
		return s.State()
	}

	return s.dispatch(ctx, LoadCart{Items: items})
}

func (s *Store) dispatch(ctx context.Context, intent Intent) State {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.stateMu.Lock()
	next := Reduce(s.state, intent, s.now())
	s.state = next
	s.stateMu.Unlock()

	if intent.Kind().Persists() {
		s.persist(ctx, next)
	}

	s.notify(ctx, Change{Intent: intent.Kind(), State: next})
	return next.Clone()
}

func (s *Store) persist(ctx context.Context, state State) {
	if s.snapshots == nil {
		return
	}

	data, err := EncodeSnapshot(state)
	if err == nil {
		err = s.snapshots.Save(ctx, s.key, data)
	}
	if err != nil {
		s.logger.Error("Failed to persist cart snapshot",
			zap.String("cart_key", s.key),
			zap.Int("items", len(state.Items)),
			zap.Error(err),
		)
		if s.onPersistFail != nil {
			s.onPersistFail(ctx, err)
		}
	}
}

func (s *Store) notify(ctx context.Context, change Change) {
	s.listenersMu.RLock()
	subs := slices.Clone(s.listeners)
	s.listenersMu.RUnlock()

	for _, sub := range subs {
		sub.listener(ctx, Change{Intent: change.Intent, State: change.State.Clone()})
	}
}
