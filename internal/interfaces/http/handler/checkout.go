package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	checkoutapp "github.com/jhk/storefront/internal/application/checkout"
	"github.com/jhk/storefront/internal/domain/shared"
	"github.com/jhk/storefront/internal/infrastructure/logger"
	"github.com/jhk/storefront/internal/infrastructure/telemetry"
	"github.com/jhk/storefront/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Failure reasons passed to the storefront error page
const (
	reasonRejected = "pago_rechazado"
	reasonError    = "error_pago"
)

// CheckoutHandler starts and confirms payments and looks up orders
type CheckoutHandler struct {
	BaseHandler
	checkout *checkoutapp.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkout *checkoutapp.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// ConfirmRequest carries the gateway token in a JSON body
type ConfirmRequest struct {
	Token  string `json:"token_ws"`
	Legacy string `json:"token"`
}

// Begin creates a pending order from the session cart.
// POST /api/v1/checkout
func (h *CheckoutHandler) Begin(c *gin.Context) {
	var req checkoutapp.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, err)
		return
	}

	sessionID := middleware.GetCartSessionID(c)
	ctx, span := telemetry.StartServiceSpan(c.Request.Context(), "checkout", "Begin",
		telemetry.SpanAttrSessionID, sessionID.String(),
	)
	defer span.End()

	resp, err := h.checkout.Begin(ctx, sessionID, req)
	if err != nil {
		telemetry.RecordError(span, err)
		h.HandleError(c, err)
		return
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderNumber, resp.OrderNumber,
		telemetry.SpanAttrAmount, resp.Amount.IntPart(),
	)
	h.Created(c, resp)
}

// Confirm commits the payment behind token_ws. The gateway sends the
// shopper's browser here, so HTML clients are redirected to the result page
// while API clients get JSON.
// GET|POST /api/v1/checkout/confirm
func (h *CheckoutHandler) Confirm(c *gin.Context) {
	token, err := confirmToken(c)
	if err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	ctx, span := telemetry.StartServiceSpan(c.Request.Context(), "checkout", "Confirm")
	defer span.End()

	resp, err := h.checkout.Confirm(ctx, token)
	if err != nil {
		telemetry.RecordError(span, err)
		if wantsHTML(c) {
			logger.GetGinLogger(c).Info("Redirecting failed payment", zap.Error(err))
			c.Redirect(http.StatusSeeOther, h.checkout.FailureURL(failureReason(err)))
			return
		}
		h.HandleError(c, err)
		return
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderNumber, resp.OrderNumber,
		telemetry.SpanAttrAmount, resp.Amount.IntPart(),
	)
	if wantsHTML(c) {
		c.Redirect(http.StatusSeeOther, resp.RedirectURL)
		return
	}
	h.Success(c, resp)
}

// GetOrder returns an order by its public number.
// GET /api/v1/checkout/orders/:number
func (h *CheckoutHandler) GetOrder(c *gin.Context) {
	order, err := h.checkout.GetOrder(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// confirmToken reads the token from the query string, a form post or a JSON
// body, in that order. "token" is accepted as an alias of "token_ws".
func confirmToken(c *gin.Context) (string, error) {
	if token := firstNonEmpty(c.Query("token_ws"), c.Query("token")); token != "" {
		return token, nil
	}
	if c.Request.Method != http.MethodPost || c.Request.ContentLength == 0 {
		return "", nil
	}

	if c.ContentType() == gin.MIMEJSON {
		var req ConfirmRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return "", err
		}
		return firstNonEmpty(req.Token, req.Legacy), nil
	}
	return firstNonEmpty(c.PostForm("token_ws"), c.PostForm("token")), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// wantsHTML reports whether the client prefers a page over JSON
func wantsHTML(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML
}

func failureReason(err error) string {
	if errors.Is(err, shared.ErrPaymentRejected) {
		return reasonRejected
	}
	return reasonError
}
