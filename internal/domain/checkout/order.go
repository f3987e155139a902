package checkout

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jhk/storefront/internal/domain/cart"
	"github.com/jhk/storefront/internal/domain/shared"
	"github.com/jhk/storefront/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderNumberLength is the number of digits in an order number
const OrderNumberLength = 9

// DeliveryBusinessDays is how many working days after purchase an order is delivered
const DeliveryBusinessDays = 3

// OrderStatus is the fulfilment status of an order
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "nueva"
	OrderStatusCancelled OrderStatus = "anulada"
)

// PaymentStatus is the payment status of an order
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pendiente"
	PaymentStatusPaid    PaymentStatus = "pagada"
	PaymentStatusFailed  PaymentStatus = "fallida"
)

// Errors raised by order transitions
var (
	ErrEmptyCart       = shared.NewDomainError("EMPTY_CART", "Cannot check out an empty cart")
	ErrInvalidTotal    = shared.NewDomainError("INVALID_TOTAL", "Order total must be positive")
	ErrOrderNotPending = shared.NewDomainError("ORDER_NOT_PENDING", "Order payment is no longer pending")
)

// OrderLine is one product of an order at the price captured from the cart
type OrderLine struct {
	ProductID int64
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal returns UnitPrice * Quantity
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a purchase placed from a cart session
type Order struct {
	shared.BaseAggregateRoot
	Number            string
	SessionID         uuid.UUID
	Customer          Customer
	Lines             []OrderLine
	Total             valueobject.Money
	PurchasedAt       time.Time
	DeliveryDate      time.Time
	Status            OrderStatus
	PaymentStatus     PaymentStatus
	AuthorizationCode string
	PaidAt            *time.Time
}

// NewOrder creates a pending order from the items of a cart
func NewOrder(number string, sessionID uuid.UUID, customer Customer, items []cart.LineItem, now time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	if !IsValidOrderNumber(number) {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number must have 9 digits")
	}

	lines := make([]OrderLine, 0, len(items))
	total := decimal.Zero
	for _, it := range items {
		line := OrderLine{
			ProductID: it.ProductID,
			SKU:       it.Product.SKU,
			Name:      it.Product.Name,
			UnitPrice: it.Product.EffectivePrice(),
			Quantity:  it.Quantity,
		}
		lines = append(lines, line)
		total = total.Add(line.Subtotal())
	}
	if !total.IsPositive() {
		return nil, ErrInvalidTotal
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		SessionID:         sessionID,
		Customer:          customer.Normalize(),
		Lines:             lines,
		Total:             valueobject.NewCLP(total),
		PurchasedAt:       now,
		DeliveryDate:      AddBusinessDays(now, DeliveryBusinessDays),
		Status:            OrderStatusNew,
		PaymentStatus:     PaymentStatusPending,
	}
	o.CreatedAt = now
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return o, nil
}

// Units returns the number of units across all lines
func (o *Order) Units() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// IsPaid reports whether payment was confirmed
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// MarkPaid records a confirmed payment
func (o *Order) MarkPaid(authorizationCode string, at time.Time) error {
	if o.PaymentStatus != PaymentStatusPending {
		return ErrOrderNotPending
	}
	o.PaymentStatus = PaymentStatusPaid
	o.AuthorizationCode = authorizationCode
	o.PaidAt = &at
	o.UpdatedAt = at
	o.AddDomainEvent(NewOrderPaidEvent(o))
	return nil
}

// MarkPaymentFailed records a rejected or aborted payment
func (o *Order) MarkPaymentFailed(at time.Time) error {
	if o.PaymentStatus != PaymentStatusPending {
		return ErrOrderNotPending
	}
	o.PaymentStatus = PaymentStatusFailed
	o.UpdatedAt = at
	o.AddDomainEvent(NewOrderPaymentFailedEvent(o))
	return nil
}

// AddBusinessDays returns t moved forward by n weekdays; weekends are skipped
func AddBusinessDays(t time.Time, n int) time.Time {
	d := t
	for added := 0; added < n; {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return d
}

// GenerateOrderNumber returns a random order number of OrderNumberLength digits
func GenerateOrderNumber() (string, error) {
	buf := make([]byte, OrderNumberLength)
	ten := big.NewInt(10)
	for i := range buf {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}

// IsValidOrderNumber reports whether s has exactly OrderNumberLength digits
func IsValidOrderNumber(s string) bool {
	if len(s) != OrderNumberLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
