package catalog

import (
	"github.com/jhk/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductType is the furniture family a product belongs to
type ProductType string

const (
	ProductTypeSectionals ProductType = "seccionales"
	ProductTypeArmchairs  ProductType = "poltronas"
	ProductTypeSofas      ProductType = "sofas"
	ProductTypeBeds       ProductType = "camas"
)

// IsValid reports whether t is a known product type
func (t ProductType) IsValid() bool {
	switch t {
	case ProductTypeSectionals, ProductTypeArmchairs, ProductTypeSofas, ProductTypeBeds:
		return true
	}
	return false
}

// SaleChannelLocal marks products sold through the online storefront
const SaleChannelLocal = "local"

// MaxImages is the number of image slots a product row carries
const MaxImages = 10

// Product is a catalog entry as exposed to the storefront.
// The cart keeps a value copy of it captured when the item was added.
type Product struct {
	ID              int64               `json:"id"`
	SKU             string              `json:"sku"`
	Name            string              `json:"nombre"`
	Type            ProductType         `json:"tipo_producto"`
	Description     string              `json:"descripcion_producto,omitempty"`
	ListPrice       decimal.Decimal     `json:"precio_venta"`
	DiscountedPrice decimal.NullDecimal `json:"precio_descuento"`
	Images          []string            `json:"imagenes"`
	Dimensions      string              `json:"dimensiones,omitempty"`
	Material        string              `json:"material,omitempty"`
	Colors          string              `json:"colores_disponibles,omitempty"`
	ColorsHex       string              `json:"colores_hex,omitempty"`
	DeliveryTime    string              `json:"tiempo_entrega,omitempty"`
	Visits          int64               `json:"visitas"`
	SaleChannel     string              `json:"-"`
}

// HasDiscount reports whether a usable discounted price is set.
// A zero discount is treated as absent.
func (p Product) HasDiscount() bool {
	return p.DiscountedPrice.Valid && p.DiscountedPrice.Decimal.IsPositive()
}

// EffectivePrice returns the price the shopper pays for one unit
func (p Product) EffectivePrice() decimal.Decimal {
	if p.HasDiscount() {
		return p.DiscountedPrice.Decimal
	}
	return p.ListPrice
}

// IsVisible reports whether the storefront may show and sell the product
func (p Product) IsVisible() bool {
	return p.SaleChannel == SaleChannelLocal
}

// Validate checks the price invariants a product must satisfy to enter a cart
func (p Product) Validate() error {
	if p.ListPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "List price cannot be negative")
	}
	if p.DiscountedPrice.Valid {
		if p.DiscountedPrice.Decimal.IsNegative() {
			return shared.NewDomainError("INVALID_PRICE", "Discounted price cannot be negative")
		}
		if p.DiscountedPrice.Decimal.GreaterThan(p.ListPrice) {
			return shared.NewDomainError("INVALID_PRICE", "Discounted price cannot exceed the list price")
		}
	}
	return nil
}

// Clone returns a copy that shares no slices with p
func (p Product) Clone() Product {
	c := p
	if p.Images != nil {
		c.Images = append([]string(nil), p.Images...)
	}
	return c
}
