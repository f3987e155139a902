package catalog

import (
	"github.com/jhk/storefront/internal/domain/catalog"
	"github.com/jhk/storefront/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ListProductsRequest holds the storefront listing query
type ListProductsRequest struct {
	Type     string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	Skip     int
	Limit    int
	Sort     string
}

// ProductResponse is a product as shown to shoppers
type ProductResponse struct {
	ID              int64            `json:"id"`
	SKU             string           `json:"sku"`
	Name            string           `json:"nombre"`
	Type            string           `json:"tipo_producto"`
	Description     string           `json:"descripcion_producto,omitempty"`
	ListPrice       decimal.Decimal  `json:"precio_venta"`
	DiscountedPrice *decimal.Decimal `json:"precio_descuento"`
	EffectivePrice  decimal.Decimal  `json:"precio_efectivo"`
	PriceDisplay    string           `json:"precio_display"`
	Images          []string         `json:"imagenes"`
	Dimensions      string           `json:"dimensiones,omitempty"`
	Material        string           `json:"material,omitempty"`
	Colors          string           `json:"colores_disponibles,omitempty"`
	ColorsHex       string           `json:"colores_hex,omitempty"`
	DeliveryTime    string           `json:"tiempo_entrega,omitempty"`
	Visits          int64            `json:"visitas"`
}

// ProductListResponse is one page of products
type ProductListResponse struct {
	Products []ProductResponse `json:"productos"`
	Total    int64             `json:"total"`
	Skip     int               `json:"skip"`
	Limit    int               `json:"limit"`
}

// ToProductResponse converts a domain product to its response form
func ToProductResponse(p *catalog.Product) ProductResponse {
	resp := ProductResponse{
		ID:             p.ID,
		SKU:            p.SKU,
		Name:           p.Name,
		Type:           string(p.Type),
		Description:    p.Description,
		ListPrice:      p.ListPrice,
		EffectivePrice: p.EffectivePrice(),
		PriceDisplay:   valueobject.NewCLP(p.EffectivePrice()).Display(),
		Images:         p.Images,
		Dimensions:     p.Dimensions,
		Material:       p.Material,
		Colors:         p.Colors,
		ColorsHex:      p.ColorsHex,
		DeliveryTime:   p.DeliveryTime,
		Visits:         p.Visits,
	}
	if p.HasDiscount() {
		d := p.DiscountedPrice.Decimal
		resp.DiscountedPrice = &d
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	return resp
}
