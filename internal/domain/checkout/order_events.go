package checkout

import (
	"github.com/google/uuid"
	"github.com/jhk/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeOrderPlaced        = "checkout.order_placed"
	EventTypeOrderPaid          = "checkout.order_paid"
	EventTypeOrderPaymentFailed = "checkout.order_payment_failed"
)

// AggregateTypeOrder is the aggregate type for orders
const AggregateTypeOrder = "Order"

// OrderLineInfo describes a line in event payloads
type OrderLineInfo struct {
	ProductID int64           `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func lineInfos(o *Order) []OrderLineInfo {
	out := make([]OrderLineInfo, len(o.Lines))
	for i, l := range o.Lines {
		out[i] = OrderLineInfo{
			ProductID: l.ProductID,
			SKU:       l.SKU,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		}
	}
	return out
}

// OrderPlacedEvent is raised when an order is created from a cart
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string          `json:"order_number"`
	SessionID   uuid.UUID       `json:"session_id"`
	Total       decimal.Decimal `json:"total"`
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID),
		OrderNumber:     o.Number,
		SessionID:       o.SessionID,
		Total:           o.Total.Amount(),
	}
}

// OrderPaidEvent is raised when the payment of an order is authorized
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderNumber       string          `json:"order_number"`
	SessionID         uuid.UUID       `json:"session_id"`
	CustomerName      string          `json:"customer_name"`
	CustomerEmail     string          `json:"customer_email"`
	Lines             []OrderLineInfo `json:"lines"`
	Total             decimal.Decimal `json:"total"`
	Currency          string          `json:"currency"`
	AuthorizationCode string          `json:"authorization_code"`
	DeliveryDate      string          `json:"delivery_date"`
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeOrderPaid, AggregateTypeOrder, o.ID),
		OrderNumber:       o.Number,
		SessionID:         o.SessionID,
		CustomerName:      o.Customer.Name,
		CustomerEmail:     o.Customer.Email,
		Lines:             lineInfos(o),
		Total:             o.Total.Amount(),
		Currency:          string(o.Total.Currency()),
		AuthorizationCode: o.AuthorizationCode,
		DeliveryDate:      o.DeliveryDate.Format("2006-01-02"),
	}
}

// OrderPaymentFailedEvent is raised when the gateway rejects the payment
type OrderPaymentFailedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string    `json:"order_number"`
	SessionID   uuid.UUID `json:"session_id"`
}

// NewOrderPaymentFailedEvent creates a new OrderPaymentFailedEvent
func NewOrderPaymentFailedEvent(o *Order) *OrderPaymentFailedEvent {
	return &OrderPaymentFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaymentFailed, AggregateTypeOrder, o.ID),
		OrderNumber:     o.Number,
		SessionID:       o.SessionID,
	}
}
