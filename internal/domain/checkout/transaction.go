package checkout

import (
	"time"

	"github.com/jhk/storefront/internal/domain/shared"
	"github.com/jhk/storefront/internal/domain/shared/valueobject"
)

// TransactionStatus is the state of a gateway payment transaction
type TransactionStatus string

const (
	TransactionStatusInitiated TransactionStatus = "iniciada"
	TransactionStatusCompleted TransactionStatus = "completada"
	TransactionStatusFailed    TransactionStatus = "fallida"
)

// IsFinal reports whether the transaction was already committed
func (s TransactionStatus) IsFinal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// PaymentTransaction tracks one payment attempt for an order
type PaymentTransaction struct {
	shared.BaseEntity
	OrderNumber       string
	Token             string
	SessionID         string
	Amount            valueobject.Money
	Status            TransactionStatus
	AuthorizationCode string
	PaymentTypeCode   string
	ResponseCode      string
	Result            string // raw gateway commit response
}

// NewPaymentTransaction creates an initiated transaction for a gateway token
func NewPaymentTransaction(orderNumber, token, sessionID string, amount valueobject.Money, now time.Time) *PaymentTransaction {
	tx := &PaymentTransaction{
		BaseEntity:  shared.NewBaseEntity(),
		OrderNumber: orderNumber,
		Token:       token,
		SessionID:   sessionID,
		Amount:      amount,
		Status:      TransactionStatusInitiated,
	}
	tx.CreatedAt = now
	tx.UpdatedAt = now
	return tx
}

// Apply records the outcome of a gateway commit
func (t *PaymentTransaction) Apply(result *PaymentResult, at time.Time) {
	if result.Authorized() {
		t.Status = TransactionStatusCompleted
	} else {
		t.Status = TransactionStatusFailed
	}
	t.AuthorizationCode = result.AuthorizationCode
	t.PaymentTypeCode = result.PaymentTypeCode
	t.ResponseCode = result.ResponseCodeString()
	t.Result = string(result.Raw)
	t.UpdatedAt = at
}

// Fail marks the transaction failed without a gateway response
func (t *PaymentTransaction) Fail(at time.Time) {
	t.Status = TransactionStatusFailed
	t.UpdatedAt = at
}
