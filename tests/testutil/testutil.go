// Package testutil provides common helpers for storefront tests: catalog
// fixtures, a session-aware HTTP client and an event recorder.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jhk/storefront/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ProductOption customizes a fixture product
type ProductOption func(*catalog.Product)

// WithDiscount sets the discounted price
func WithDiscount(price int64) ProductOption {
	return func(p *catalog.Product) {
		p.DiscountedPrice = decimal.NewNullDecimal(decimal.NewFromInt(price))
	}
}

// WithType sets the product type
func WithType(t catalog.ProductType) ProductOption {
	return func(p *catalog.Product) {
		p.Type = t
	}
}

// Hidden moves the product out of the storefront sale channel
func Hidden() ProductOption {
	return func(p *catalog.Product) {
		p.SaleChannel = "mayorista"
	}
}

// NewProduct returns an unsaved sofa sold in the storefront
func NewProduct(sku, name string, listPrice int64, opts ...ProductOption) *catalog.Product {
	p := &catalog.Product{
		SKU:         sku,
		Name:        name,
		Type:        catalog.ProductTypeSofas,
		Description: name + " tapizado en lino",
		ListPrice:   decimal.NewFromInt(listPrice),
		Images:      []string{"/static/productos/" + sku + "-1.jpg"},
		Material:    "Lino",
		SaleChannel: catalog.SaleChannelLocal,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckoutForm returns a valid customer form for POST /checkout
func CheckoutForm() map[string]string {
	return map[string]string{
		"nombre":      "Valentina Rojas",
		"rut":         "12345678-5",
		"email":       "valentina@example.cl",
		"telefono":    "+56912345678",
		"comuna":      "Providencia",
		"direccion":   "Av. Providencia 1234",
		"region":      "Metropolitana",
		"metodo_pago": "webpay",
	}
}

// ContextWithTimeout returns a context cancelled when the test ends
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
