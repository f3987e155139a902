package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultSnapshotKey is the durable slot used when a cart has no session of its own
const DefaultSnapshotKey = "jerkhome_cart"

var (
	// ErrSnapshotNotFound is returned by a SnapshotStore when the key holds no record
	ErrSnapshotNotFound = errors.New("cart snapshot not found")

	// ErrMalformedSnapshot is returned by DecodeSnapshot for records that cannot be trusted
	ErrMalformedSnapshot = errors.New("malformed cart snapshot")
)

// SnapshotStore is a durable key-value slot holding one encoded cart per key
type SnapshotStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// snapshotRecord is the persisted shape of a cart. Visibility is never stored.
type snapshotRecord struct {
	Items       []LineItem      `json:"items"`
	TotalItems  int             `json:"totalItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// EncodeSnapshot serializes the persistent part of state
func EncodeSnapshot(state State) ([]byte, error) {
	items := state.Items
	if items == nil {
		items = []LineItem{}
	}
	data, err := json.Marshal(snapshotRecord{
		Items:       items,
		TotalItems:  state.TotalItems,
		TotalAmount: state.TotalAmount,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode cart snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a persisted record and returns its line items.
// Stored aggregates are ignored; callers derive them from the items.
func DecodeSnapshot(data []byte) ([]LineItem, error) {
	var record struct {
		Items []LineItem `json:"items"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	seen := make(map[int64]struct{}, len(record.Items))
	for i := range record.Items {
		item := &record.Items[i]
		if item.Product.ID == 0 {
			item.Product.ID = item.ProductID
		}
		if item.Product.ID != item.ProductID {
			return nil, fmt.Errorf("%w: item %d does not match its product %d", ErrMalformedSnapshot, item.ProductID, item.Product.ID)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: item %d has quantity %d", ErrMalformedSnapshot, item.ProductID, item.Quantity)
		}
		if _, dup := seen[item.ProductID]; dup {
			return nil, fmt.Errorf("%w: duplicate item %d", ErrMalformedSnapshot, item.ProductID)
		}
		if err := item.Product.Validate(); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrMalformedSnapshot, item.ProductID, err)
		}
		seen[item.ProductID] = struct{}{}
	}
	return record.Items, nil
}
