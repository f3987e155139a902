package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	cartapp "github.com/jhk/storefront/internal/application/cart"
	"github.com/jhk/storefront/internal/domain/cart"
	"github.com/jhk/storefront/internal/domain/checkout"
	"github.com/jhk/storefront/internal/domain/shared"
	"go.uber.org/zap"
)

// maxOrderNumberAttempts bounds the search for an unused order number
const maxOrderNumberAttempts = 5

// CartSessions is the view of shopper carts checkout needs
type CartSessions interface {
	State(ctx context.Context, sessionID uuid.UUID) cart.State
	Clear(ctx context.Context, sessionID uuid.UUID) cartapp.CartResponse
}

// URLs are the shopper-facing pages of the payment flow
type URLs struct {
	Return  string // gateway sends the shopper back here with token_ws
	Success string
	Failure string
}

// CheckoutService turns a session cart into an order and drives its payment.
// The cart is only ever cleared after the gateway authorizes the payment.
type CheckoutService struct {
	carts        CartSessions
	orders       checkout.OrderRepository
	transactions checkout.TransactionRepository
	gateway      checkout.PaymentGateway
	publisher    shared.EventPublisher
	urls         URLs
	validate     *validator.Validate
	now          func() time.Time
	newNumber    func() (string, error)
	logger       *zap.Logger

	confirmMu sync.Mutex
}

// CheckoutServiceOption is a functional option for configuring the service
type CheckoutServiceOption func(*CheckoutService)

// WithPublisher sets where order events are published
func WithPublisher(p shared.EventPublisher) CheckoutServiceOption {
	return func(s *CheckoutService) {
		s.publisher = p
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) CheckoutServiceOption {
	return func(s *CheckoutService) {
		s.logger = logger
	}
}

// WithClock sets the time source
func WithClock(now func() time.Time) CheckoutServiceOption {
	return func(s *CheckoutService) {
		s.now = now
	}
}

// WithOrderNumbers overrides order number generation
func WithOrderNumbers(fn func() (string, error)) CheckoutServiceOption {
	return func(s *CheckoutService) {
		s.newNumber = fn
	}
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	carts CartSessions,
	orders checkout.OrderRepository,
	transactions checkout.TransactionRepository,
	gateway checkout.PaymentGateway,
	urls URLs,
	opts ...CheckoutServiceOption,
) *CheckoutService {
	s := &CheckoutService{
		carts:        carts,
		orders:       orders,
		transactions: transactions,
		gateway:      gateway,
		urls:         urls,
		validate:     newValidator(),
		now:          time.Now,
		newNumber:    checkout.GenerateOrderNumber,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newValidator reads the same tags gin binding reads, reporting JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Begin creates a pending order from the session cart and opens a gateway
// transaction for it. The cart itself is left untouched.
func (s *CheckoutService) Begin(ctx context.Context, sessionID uuid.UUID, req CustomerRequest) (*BeginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	state := s.carts.State(ctx, sessionID)
	if state.IsEmpty() {
		return nil, checkout.ErrEmptyCart
	}

	number, err := s.uniqueOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order, err := checkout.NewOrder(number, sessionID, req.ToDomain(), state.Items, now)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	redirect, err := s.gateway.Create(ctx, checkout.PaymentRequest{
		BuyOrder:  order.Number,
		SessionID: sessionID.String(),
		Amount:    order.Total,
		ReturnURL: s.urls.Return,
	})
	if err != nil {
		s.logger.Error("Failed to open payment transaction",
			zap.String("order_number", order.Number),
			zap.String("gateway", s.gateway.Name()),
			zap.Error(err),
		)
		s.abandon(ctx, order)
		return nil, err
	}

	tx := checkout.NewPaymentTransaction(order.Number, redirect.Token, sessionID.String(), order.Total, now)
	if err := s.transactions.Save(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to save payment transaction: %w", err)
	}

	s.publish(ctx, order)
	s.logger.Info("Checkout started",
		zap.String("order_number", order.Number),
		zap.String("cart_session", sessionID.String()),
		zap.String("amount", order.Total.String()),
	)

	return &BeginResponse{
		OrderNumber:  order.Number,
		Token:        redirect.Token,
		URL:          redirect.URL,
		RedirectURL:  redirect.RedirectURL(),
		Amount:       order.Total.Amount(),
		AmountLabel:  order.Total.Display(),
		DeliveryDate: order.DeliveryDate.Format(time.DateOnly),
	}, nil
}

// Confirm commits the gateway transaction behind token. On authorization the
// order is marked paid and the owning cart is cleared. Confirming a token
// that was already committed replays the stored outcome.
func (s *CheckoutService) Confirm(ctx context.Context, token string) (*ConfirmResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, shared.NewDomainError("MISSING_TOKEN", "token_ws is required")
	}

	s.confirmMu.Lock()
	defer s.confirmMu.Unlock()

	tx, err := s.transactions.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByNumber(ctx, tx.OrderNumber)
	if err != nil {
		return nil, err
	}

	if tx.Status.IsFinal() {
		if tx.Status == checkout.TransactionStatusCompleted {
			return s.confirmed(order, tx), nil
		}
		return nil, shared.ErrPaymentRejected
	}

	result, commitErr := s.gateway.Commit(ctx, token)
	now := s.now()
	if commitErr != nil {
		tx.Fail(now)
	} else {
		tx.Apply(result, now)
	}

	authorized := commitErr == nil && result.Authorized()
	if authorized {
		err = order.MarkPaid(tx.AuthorizationCode, now)
	} else {
		err = order.MarkPaymentFailed(now)
	}
	if err != nil {
		return nil, err
	}

	if err := s.transactions.Save(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to save payment transaction: %w", err)
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	if !authorized {
		s.publish(ctx, order)
		s.logger.Warn("Payment not authorized",
			zap.String("order_number", order.Number),
			zap.String("response_code", tx.ResponseCode),
			zap.Error(commitErr),
		)
		if commitErr != nil {
			return nil, commitErr
		}
		return nil, shared.ErrPaymentRejected
	}

	s.carts.Clear(ctx, order.SessionID)
	s.publish(ctx, order)
	s.logger.Info("Payment confirmed",
		zap.String("order_number", order.Number),
		zap.String("authorization_code", order.AuthorizationCode),
	)
	return s.confirmed(order, tx), nil
}

// GetOrder returns an order by its number
func (s *CheckoutService) GetOrder(ctx context.Context, number string) (*OrderResponse, error) {
	if !checkout.IsValidOrderNumber(number) {
		return nil, shared.ErrNotFound
	}
	order, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// FailureURL returns the page shoppers are sent to when payment fails
func (s *CheckoutService) FailureURL(reason string) string {
	return withQuery(s.urls.Failure, "mensaje", reason)
}

func (s *CheckoutService) confirmed(order *checkout.Order, tx *checkout.PaymentTransaction) *ConfirmResponse {
	return &ConfirmResponse{
		OrderNumber:       order.Number,
		AuthorizationCode: tx.AuthorizationCode,
		Amount:            tx.Amount.Amount(),
		RedirectURL:       withQuery(s.urls.Success, "orden", order.Number),
	}
}

func (s *CheckoutService) uniqueOrderNumber(ctx context.Context) (string, error) {
	for i := 0; i < maxOrderNumberAttempts; i++ {
		number, err := s.newNumber()
		if err != nil {
			return "", fmt.Errorf("failed to generate order number: %w", err)
		}
		exists, err := s.orders.ExistsByNumber(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", shared.NewDomainError("ORDER_NUMBER_EXHAUSTED", "Could not allocate an order number")
}

// abandon marks an order whose payment could not be opened
func (s *CheckoutService) abandon(ctx context.Context, order *checkout.Order) {
	if err := order.MarkPaymentFailed(s.now()); err != nil {
		return
	}
	if err := s.orders.Save(ctx, order); err != nil {
		s.logger.Warn("Failed to mark abandoned order",
			zap.String("order_number", order.Number),
			zap.Error(err),
		)
	}
	order.ClearDomainEvents()
}

func (s *CheckoutService) publish(ctx context.Context, order *checkout.Order) {
	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish order events",
			zap.String("order_number", order.Number),
			zap.Error(err),
		)
	}
}

func withQuery(base, key, value string) string {
	if base == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

// IsValidationError reports whether err came from the checkout form validator
func IsValidationError(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}
