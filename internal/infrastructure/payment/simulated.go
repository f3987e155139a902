package payment

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/google/uuid"
	"github.com/jhk/storefront/internal/domain/checkout"
	"github.com/jhk/storefront/internal/domain/shared"
	"go.uber.org/zap"
)

// SimulatedGateway is a development gateway that authorizes every payment it created.
// The shopper is redirected straight back to the return URL with the token.
type SimulatedGateway struct {
	mu      sync.Mutex
	pending map[string]checkout.PaymentRequest
	logger  *zap.Logger
}

// NewSimulatedGateway creates a new simulated gateway
func NewSimulatedGateway(logger *zap.Logger) *SimulatedGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulatedGateway{
		pending: make(map[string]checkout.PaymentRequest),
		logger:  logger,
	}
}

// Name returns the gateway name
func (g *SimulatedGateway) Name() string {
	return "simulated"
}

// Create registers the payment and returns the return URL as redirect target
func (g *SimulatedGateway) Create(ctx context.Context, req checkout.PaymentRequest) (*checkout.PaymentRedirect, error) {
	token := uuid.NewString()

	g.mu.Lock()
	g.pending[token] = req
	g.mu.Unlock()

	g.logger.Debug("Simulated payment created", zap.String("buy_order", req.BuyOrder))
	return &checkout.PaymentRedirect{Token: token, URL: req.ReturnURL}, nil
}

// Commit authorizes a payment created by this gateway
func (g *SimulatedGateway) Commit(ctx context.Context, token string) (*checkout.PaymentResult, error) {
	g.mu.Lock()
	req, ok := g.pending[token]
	delete(g.pending, token)
	g.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: simulated: unknown token", shared.ErrGatewayFailure)
	}

	code, err := authorizationCode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrGatewayFailure, err)
	}

	result := &checkout.PaymentResult{
		Status:            checkout.StatusAuthorized,
		ResponseCode:      0,
		AuthorizationCode: code,
		PaymentTypeCode:   "VD",
		BuyOrder:          req.BuyOrder,
		Amount:            req.Amount.MinorUnits(),
	}
	result.Raw, _ = json.Marshal(map[string]any{
		"status":             result.Status,
		"response_code":      result.ResponseCode,
		"authorization_code": result.AuthorizationCode,
		"buy_order":          result.BuyOrder,
		"amount":             result.Amount,
	})
	return result, nil
}

// authorizationCode returns "AUTH" followed by six random digits
func authorizationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("AUTH%d", 100000+n.Int64()), nil
}

var _ checkout.PaymentGateway = (*SimulatedGateway)(nil)
