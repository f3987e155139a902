package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/jhk/storefront/internal/domain/checkout"
	"github.com/shopspring/decimal"
)

// CustomerRequest is the checkout form
type CustomerRequest struct {
	Name          string `json:"nombre" binding:"required,max=200"`
	RUT           string `json:"rut" binding:"required,min=8,max=12"`
	Email         string `json:"email" binding:"required,email,max=200"`
	Phone         string `json:"telefono" binding:"required,max=30"`
	Commune       string `json:"comuna" binding:"required,max=100"`
	Address       string `json:"direccion" binding:"required,max=300"`
	Region        string `json:"region" binding:"required,max=100"`
	PaymentMethod string `json:"metodo_pago" binding:"omitempty,oneof=webpay"`
}

// ToDomain converts the form to a normalized customer
func (r CustomerRequest) ToDomain() checkout.Customer {
	return checkout.Customer{
		Name:          r.Name,
		RUT:           r.RUT,
		Email:         r.Email,
		Phone:         r.Phone,
		Commune:       r.Commune,
		Address:       r.Address,
		Region:        r.Region,
		PaymentMethod: r.PaymentMethod,
	}.Normalize()
}

// BeginResponse tells the shopper where to pay
type BeginResponse struct {
	OrderNumber  string          `json:"numero_orden"`
	Token        string          `json:"token"`
	URL          string          `json:"url"`
	RedirectURL  string          `json:"redirect_url"`
	Amount       decimal.Decimal `json:"monto"`
	AmountLabel  string          `json:"monto_display"`
	DeliveryDate string          `json:"fecha_entrega"`
}

// ConfirmResponse is the outcome of a payment confirmation
type ConfirmResponse struct {
	OrderNumber       string          `json:"numero_orden"`
	AuthorizationCode string          `json:"codigo_autorizacion"`
	Amount            decimal.Decimal `json:"monto"`
	RedirectURL       string          `json:"redirect_url"`
}

// OrderLineResponse is one order line
type OrderLineResponse struct {
	ProductID int64           `json:"producto_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"producto"`
	UnitPrice decimal.Decimal `json:"precio"`
	Quantity  int             `json:"unidades"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderResponse is an order as shown on the confirmation page
type OrderResponse struct {
	ID                uuid.UUID           `json:"id"`
	Number            string              `json:"numero_orden"`
	CustomerName      string              `json:"nombre"`
	Email             string              `json:"email"`
	Commune           string              `json:"comuna"`
	Address           string              `json:"direccion"`
	Region            string              `json:"region"`
	Lines             []OrderLineResponse `json:"productos"`
	Total             decimal.Decimal     `json:"total"`
	TotalDisplay      string              `json:"total_display"`
	PurchasedAt       time.Time           `json:"fecha_compra"`
	DeliveryDate      string              `json:"fecha_entrega"`
	Status            string              `json:"estado"`
	PaymentStatus     string              `json:"estado_pago"`
	AuthorizationCode string              `json:"codigo_autorizacion,omitempty"`
	PaidAt            *time.Time          `json:"fecha_pago,omitempty"`
}

// ToOrderResponse converts a domain order to its response form
func ToOrderResponse(o *checkout.Order) OrderResponse {
	lines := make([]OrderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = OrderLineResponse{
			ProductID: l.ProductID,
			SKU:       l.SKU,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal(),
		}
	}
	return OrderResponse{
		ID:                o.ID,
		Number:            o.Number,
		CustomerName:      o.Customer.Name,
		Email:             o.Customer.Email,
		Commune:           o.Customer.Commune,
		Address:           o.Customer.Address,
		Region:            o.Customer.Region,
		Lines:             lines,
		Total:             o.Total.Amount(),
		TotalDisplay:      o.Total.Display(),
		PurchasedAt:       o.PurchasedAt,
		DeliveryDate:      o.DeliveryDate.Format(time.DateOnly),
		Status:            string(o.Status),
		PaymentStatus:     string(o.PaymentStatus),
		AuthorizationCode: o.AuthorizationCode,
		PaidAt:            o.PaidAt,
	}
}
