package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Listing limits
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// SortOrder names a supported listing order
type SortOrder string

const (
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortName      SortOrder = "name"
	SortPopular   SortOrder = "popular"
	SortNewest    SortOrder = "newest"
)

// IsValid reports whether s is a supported order (empty means default)
func (s SortOrder) IsValid() bool {
	switch s {
	case "", SortPriceAsc, SortPriceDesc, SortName, SortPopular, SortNewest:
		return true
	}
	return false
}

// ProductFilter narrows a product listing.
// Price bounds compare against the effective price.
type ProductFilter struct {
	Type     ProductType
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	Skip     int
	Limit    int
	SortBy   SortOrder
}

// Normalize clamps pagination values into their allowed ranges
func (f ProductFilter) Normalize() ProductFilter {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if !f.SortBy.IsValid() {
		f.SortBy = ""
	}
	return f
}

// ProductRepository reads storefront-visible products
type ProductRepository interface {
	// FindByID returns a visible product or shared.ErrNotFound
	FindByID(ctx context.Context, id int64) (*Product, error)

	// List returns one page of visible products and the total match count
	List(ctx context.Context, filter ProductFilter) ([]Product, int64, error)

	// IncrementVisits bumps the visit counter of a product
	IncrementVisits(ctx context.Context, id int64) error
}
