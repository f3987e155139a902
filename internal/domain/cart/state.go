package cart

import (
	"time"

	"github.com/jhk/storefront/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// LineItem is one product in the cart. Quantity is always at least 1.
type LineItem struct {
	ProductID int64           `json:"id"`
	Product   catalog.Product `json:"product"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"addedAt"`
}

// Subtotal returns the effective unit price times the quantity
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Product.EffectivePrice().Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// State is the full cart state. TotalItems and TotalAmount are derived from
// Items and only ever written by recompute.
type State struct {
	Items       []LineItem      `json:"items"`
	TotalItems  int             `json:"totalItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	IsOpen      bool            `json:"isOpen"`
}

// Empty returns a closed cart with no items
func Empty() State {
	return State{Items: []LineItem{}, TotalAmount: decimal.Zero}
}

// IsEmpty reports whether the cart holds no items
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

// Find returns the line item for productID, if present
func (s State) Find(productID int64) (LineItem, bool) {
	if i := s.indexOf(productID); i >= 0 {
		return s.Items[i], true
	}
	return LineItem{}, false
}

// Clone returns a deep copy that can be handed to readers
func (s State) Clone() State {
	c := s
	c.Items = make([]LineItem, len(s.Items))
	for i, item := range s.Items {
		item.Product = item.Product.Clone()
		c.Items[i] = item
	}
	return c
}

func (s State) indexOf(productID int64) int {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// withItems returns s with new items and freshly derived aggregates
func (s State) withItems(items []LineItem) State {
	s.Items = items
	s.TotalItems, s.TotalAmount = totals(items)
	return s
}

func totals(items []LineItem) (int, decimal.Decimal) {
	count := 0
	amount := decimal.Zero
	for _, item := range items {
		count += item.Quantity
		amount = amount.Add(item.Subtotal())
	}
	return count, amount
}
