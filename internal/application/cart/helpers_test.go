package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jhk/storefront/internal/domain/catalog"
	"github.com/jhk/storefront/internal/domain/shared"
	"github.com/jhk/storefront/internal/infrastructure/cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockProductSource is a mock implementation of ProductSource
type MockProductSource struct {
	mock.Mock
}

func (m *MockProductSource) FetchByID(ctx context.Context, id int64) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

// fakeClock is advanced by tests to drive idle eviction
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
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

func (p *recordingPublisher) Events() []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]shared.DomainEvent(nil), p.events...)
}

func newSnapshots(t *testing.T) *cache.InMemorySnapshotStore {
	t.Helper()
	store := cache.NewInMemorySnapshotStore(0)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sofa(id, price int64) *catalog.Product {
	return &catalog.Product{
		ID:          id,
		SKU:         "SOF-" + decimal.NewFromInt(id).String(),
		Name:        "Sofá " + decimal.NewFromInt(id).String(),
		Type:        catalog.ProductTypeSofas,
		ListPrice:   decimal.NewFromInt(price),
		Images:      []string{"/static/productos/sofa.jpg"},
		SaleChannel: catalog.SaleChannelLocal,
	}
}
