package checkout

import (
	"context"
	"strconv"

	"github.com/jhk/storefront/internal/domain/shared/valueobject"
)

// StatusAuthorized is the gateway status of an approved payment
const StatusAuthorized = "AUTHORIZED"

// PaymentRequest starts a payment at the gateway
type PaymentRequest struct {
	BuyOrder  string
	SessionID string
	Amount    valueobject.Money
	ReturnURL string
}

// PaymentRedirect is where the shopper is sent to pay
type PaymentRedirect struct {
	Token string
	URL   string
}

// RedirectURL returns the URL with the token appended the way the gateway expects
func (r PaymentRedirect) RedirectURL() string {
	return r.URL + "?token_ws=" + r.Token
}

// PaymentResult is the outcome of committing a payment
type PaymentResult struct {
	Status            string
	ResponseCode      int
	AuthorizationCode string
	PaymentTypeCode   string
	BuyOrder          string
	Amount            int64
	Raw               []byte
}

// Authorized reports whether the gateway approved the payment
func (r *PaymentResult) Authorized() bool {
	return r.Status == StatusAuthorized && r.ResponseCode == 0
}

// ResponseCodeString returns the response code as text
func (r *PaymentResult) ResponseCodeString() string {
	return strconv.Itoa(r.ResponseCode)
}

// PaymentGateway is a payment provider able to start and commit payments
type PaymentGateway interface {
	// Name identifies the gateway in logs and metrics
	Name() string
	Create(ctx context.Context, req PaymentRequest) (*PaymentRedirect, error)
	Commit(ctx context.Context, token string) (*PaymentResult, error)
}
