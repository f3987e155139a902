package cart

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jhk/storefront/internal/domain/cart"
	"github.com/jhk/storefront/internal/domain/catalog"
	"github.com/jhk/storefront/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductSource resolves the product a shopper adds by id
type ProductSource interface {
	FetchByID(ctx context.Context, id int64) (*catalog.Product, error)
}

// CartService runs cart intents against the store of a session.
// Cart operations never fail; only product lookups can.
type CartService struct {
	registry   *Registry
	products   ProductSource
	subscriber shared.EventSubscriber
	logger     *zap.Logger
}

// CartServiceOption is a functional option for configuring the service
type CartServiceOption func(*CartService)

// WithSubscriber enables Watch through the given event subscriber
func WithSubscriber(s shared.EventSubscriber) CartServiceOption {
	return func(svc *CartService) {
		svc.subscriber = s
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) CartServiceOption {
	return func(svc *CartService) {
		svc.logger = logger
	}
}

// NewCartService creates a new CartService
func NewCartService(registry *Registry, products ProductSource, opts ...CartServiceOption) *CartService {
	svc := &CartService{
		registry: registry,
		products: products,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// State returns the raw cart state of a session
func (s *CartService) State(ctx context.Context, sessionID uuid.UUID) cart.State {
	return s.registry.Open(ctx, sessionID).State()
}

// Get returns the cart view of a session
func (s *CartService) Get(ctx context.Context, sessionID uuid.UUID) CartResponse {
	return ToCartResponse(s.State(ctx, sessionID))
}

// AddProduct looks the product up in the catalog and adds one unit of it
func (s *CartService) AddProduct(ctx context.Context, sessionID uuid.UUID, productID int64) (CartResponse, error) {
	product, err := s.products.FetchByID(ctx, productID)
	if err != nil {
		return CartResponse{}, err
	}
	if !product.IsVisible() {
		return CartResponse{}, shared.ErrNotFound
	}
	return ToCartResponse(s.registry.Open(ctx, sessionID).AddItem(ctx, *product)), nil
}

// RemoveItem drops a product line
func (s *CartService) RemoveItem(ctx context.Context, sessionID uuid.UUID, productID int64) CartResponse {
	return ToCartResponse(s.registry.Open(ctx, sessionID).RemoveItem(ctx, productID))
}

// UpdateQuantity sets a line quantity; quantity <= 0 removes the line
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID uuid.UUID, productID int64, quantity int) CartResponse {
	return ToCartResponse(s.registry.Open(ctx, sessionID).UpdateQuantity(ctx, productID, quantity))
}

// Clear empties the cart of a session
func (s *CartService) Clear(ctx context.Context, sessionID uuid.UUID) CartResponse {
	return ToCartResponse(s.registry.Open(ctx, sessionID).ClearCart(ctx))
}

// Toggle flips panel visibility
func (s *CartService) Toggle(ctx context.Context, sessionID uuid.UUID) CartResponse {
	return ToCartResponse(s.registry.Open(ctx, sessionID).ToggleCart(ctx))
}

// Open shows the panel
func (s *CartService) Open(ctx context.Context, sessionID uuid.UUID) CartResponse {
	return ToCartResponse(s.registry.Open(ctx, sessionID).OpenCart(ctx))
}

// Close hides the panel
func (s *CartService) Close(ctx context.Context, sessionID uuid.UUID) CartResponse {
	return ToCartResponse(s.registry.Open(ctx, sessionID).CloseCart(ctx))
}

// Watch streams the cart view of a session after every change, starting
// with the current view. The channel is closed by the returned stop
// function. Slow readers miss intermediate views, never the latest one.
func (s *CartService) Watch(ctx context.Context, sessionID uuid.UUID) (<-chan CartResponse, func()) {
	updates := make(chan CartResponse, 1)
	if s.subscriber == nil {
		updates <- s.Get(ctx, sessionID)
		var once sync.Once
		return updates, func() { once.Do(func() { close(updates) }) }
	}

	// Opened up front: the first view is read from the store directly
	store := s.registry.Open(ctx, sessionID)
	w := &sessionWatcher{sessionID: sessionID, updates: updates}
	s.subscriber.Subscribe(w)
	w.offer(func() CartResponse { return ToCartResponse(store.State()) })
	return updates, func() {
		s.subscriber.Unsubscribe(w)
		w.close()
	}
}

// sessionWatcher forwards cart.updated events of one session to a channel
type sessionWatcher struct {
	sessionID uuid.UUID
	mu        sync.Mutex
	closed    bool
	updates   chan CartResponse
}

func (w *sessionWatcher) EventTypes() []string {
	return []string{cart.EventTypeCartUpdated}
}

func (w *sessionWatcher) Handle(ctx context.Context, evt shared.DomainEvent) error {
	updated, ok := evt.(*cart.UpdatedEvent)
	if !ok || updated.SessionID != w.sessionID {
		return nil
	}
	view := ToCartResponse(updated.State)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	// keep only the newest view when the reader lags
	select {
	case <-w.updates:
	default:
	}
	w.updates <- view
	return nil
}

// offer queues the current view unless an update already arrived. The view
// is built under the lock so it cannot overtake a newer update.
func (w *sessionWatcher) offer(current func() CartResponse) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || len(w.updates) > 0 {
		return
	}
	w.updates <- current()
}

func (w *sessionWatcher) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.updates)
	}
}
