package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	cartapp "github.com/jhk/storefront/internal/application/cart"
	"github.com/jhk/storefront/internal/domain/catalog"
	"github.com/jhk/storefront/internal/domain/checkout"
	"github.com/jhk/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var checkoutNow = time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC)

// MockPaymentGateway is a mock implementation of checkout.PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) Name() string {
	return "mock"
}

func (m *MockPaymentGateway) Create(ctx context.Context, req checkout.PaymentRequest) (*checkout.PaymentRedirect, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.PaymentRedirect), args.Error(1)
}

func (m *MockPaymentGateway) Commit(ctx context.Context, token string) (*checkout.PaymentResult, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.PaymentResult), args.Error(1)
}

// memoryOrders is an in-memory OrderRepository
type memoryOrders struct {
	mu     sync.Mutex
	orders map[string]checkout.Order
	saves  int
}

func newMemoryOrders() *memoryOrders {
	return &memoryOrders{orders: make(map[string]checkout.Order)}
}

func (r *memoryOrders) Save(_ context.Context, o *checkout.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.Number] = *o
	r.saves++
	return nil
}

func (r *memoryOrders) FindByNumber(_ context.Context, number string) (*checkout.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[number]
	if !ok {
		return nil, shared.ErrNotFound
	}
	o.ClearDomainEvents()
	return &o, nil
}

func (r *memoryOrders) ExistsByNumber(_ context.Context, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.orders[number]
	return ok, nil
}

// memoryTransactions is an in-memory TransactionRepository
type memoryTransactions struct {
	mu  sync.Mutex
	txs map[string]checkout.PaymentTransaction
}

func newMemoryTransactions() *memoryTransactions {
	return &memoryTransactions{txs: make(map[string]checkout.PaymentTransaction)}
}

func (r *memoryTransactions) Save(_ context.Context, tx *checkout.PaymentTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs[tx.Token] = *tx
	return nil
}

func (r *memoryTransactions) FindByToken(_ context.Context, token string) (*checkout.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[token]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &tx, nil
}

// recordingPublisher collects published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type fixture struct {
	registry *cartapp.Registry
	carts    *cartapp.CartService
	orders   *memoryOrders
	txs      *memoryTransactions
	gateway  *MockPaymentGateway
	events   *recordingPublisher
	svc      *CheckoutService
	session  uuid.UUID
}

func newFixture() *fixture {
	registry := cartapp.NewRegistry(nil)
	f := &fixture{
		registry: registry,
		carts:    cartapp.NewCartService(registry, nil),
		orders:   newMemoryOrders(),
		txs:      newMemoryTransactions(),
		gateway:  new(MockPaymentGateway),
		events:   &recordingPublisher{},
		session:  uuid.New(),
	}
	numbers := []string{"100000001", "100000002", "100000003"}
	next := 0
	f.svc = NewCheckoutService(f.carts, f.orders, f.txs, f.gateway,
		URLs{
			Return:  "http://localhost:3000/webpay/callback",
			Success: "http://localhost:3000/checkout/exito",
			Failure: "http://localhost:3000/checkout/error",
		},
		WithPublisher(f.events),
		WithClock(func() time.Time { return checkoutNow }),
		WithOrderNumbers(func() (string, error) {
			n := numbers[next%len(numbers)]
			next++
			return n, nil
		}),
	)
	return f
}

// fillCart puts two units of a discounted sofa and one bed in the session cart
func (f *fixture) fillCart(ctx context.Context) {
	sofa := catalog.Product{
		ID:              1,
		SKU:             "SOF-001",
		Name:            "Sofá Capri",
		Type:            catalog.ProductTypeSofas,
		ListPrice:       decimal.NewFromInt(400000),
		DiscountedPrice: decimal.NewNullDecimal(decimal.NewFromInt(350000)),
		SaleChannel:     catalog.SaleChannelLocal,
	}
	bed := catalog.Product{
		ID:          2,
		SKU:         "CAM-002",
		Name:        "Cama Roble",
		Type:        catalog.ProductTypeBeds,
		ListPrice:   decimal.NewFromInt(250000),
		SaleChannel: catalog.SaleChannelLocal,
	}
	store := f.registry.Open(ctx, f.session)
	store.AddItem(ctx, sofa)
	store.AddItem(ctx, sofa)
	store.AddItem(ctx, bed)
}

func customerForm() CustomerRequest {
	return CustomerRequest{
		Name:    "Camila Soto",
		RUT:     "12.345.678-5",
		Email:   " Camila.Soto@Example.CL ",
		Phone:   "+56912345678",
		Commune: "Providencia",
		Address: "Av. Providencia 1234",
		Region:  "Metropolitana",
	}
}
