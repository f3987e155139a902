package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jhk/storefront/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

func product(id, listPrice int64) catalog.Product {
	return catalog.Product{
		ID:          id,
		SKU:         fmt.Sprintf("SKU-%d", id),
		Name:        fmt.Sprintf("Producto %d", id),
		Type:        catalog.ProductTypeSofas,
		ListPrice:   decimal.NewFromInt(listPrice),
		Images:      []string{"/static/productos/p.jpg"},
		SaleChannel: catalog.SaleChannelLocal,
	}
}

func discounted(id, listPrice, discount int64) catalog.Product {
	p := product(id, listPrice)
	p.DiscountedPrice = decimal.NewNullDecimal(decimal.NewFromInt(discount))
	return p
}

// memorySlot is a SnapshotStore test double that records writes
type memorySlot struct {
	mu      sync.Mutex
	data    map[string][]byte
	saves   int
	loadErr error
	saveErr error
}

func newMemorySlot() *memorySlot {
	return &memorySlot{data: make(map[string][]byte)}
}

func (m *memorySlot) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	data, ok := m.data[key]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *memorySlot) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *memorySlot) raw(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

func (m *memorySlot) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

var errStorageDown = errors.New("storage unavailable")
