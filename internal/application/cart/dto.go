package cart

import (
	"time"

	"github.com/jhk/storefront/internal/domain/cart"
	"github.com/jhk/storefront/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// LineItemResponse is one cart line as shown to shoppers
type LineItemResponse struct {
	ProductID       int64            `json:"id"`
	SKU             string           `json:"sku"`
	Name            string           `json:"nombre"`
	Type            string           `json:"tipo_producto"`
	Image           string           `json:"imagen,omitempty"`
	ListPrice       decimal.Decimal  `json:"precio_venta"`
	DiscountedPrice *decimal.Decimal `json:"precio_descuento"`
	UnitPrice       decimal.Decimal  `json:"precio_unitario"`
	Quantity        int              `json:"quantity"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	SubtotalDisplay string           `json:"subtotalDisplay"`
	AddedAt         time.Time        `json:"addedAt"`
}

// CartResponse is the full cart view
type CartResponse struct {
	Items        []LineItemResponse `json:"items"`
	TotalItems   int                `json:"totalItems"`
	TotalAmount  decimal.Decimal    `json:"totalAmount"`
	TotalDisplay string             `json:"totalDisplay"`
	IsOpen       bool               `json:"isOpen"`
}

// ToCartResponse converts a cart state to its response form
func ToCartResponse(state cart.State) CartResponse {
	items := make([]LineItemResponse, len(state.Items))
	for i, item := range state.Items {
		p := item.Product
		line := LineItemResponse{
			ProductID:       item.ProductID,
			SKU:             p.SKU,
			Name:            p.Name,
			Type:            string(p.Type),
			ListPrice:       p.ListPrice,
			UnitPrice:       p.EffectivePrice(),
			Quantity:        item.Quantity,
			Subtotal:        item.Subtotal(),
			SubtotalDisplay: valueobject.NewCLP(item.Subtotal()).Display(),
			AddedAt:         item.AddedAt,
		}
		if len(p.Images) > 0 {
			line.Image = p.Images[0]
		}
		if p.HasDiscount() {
			d := p.DiscountedPrice.Decimal
			line.DiscountedPrice = &d
		}
		items[i] = line
	}
	return CartResponse{
		Items:        items,
		TotalItems:   state.TotalItems,
		TotalAmount:  state.TotalAmount,
		TotalDisplay: valueobject.NewCLP(state.TotalAmount).Display(),
		IsOpen:       state.IsOpen,
	}
}
