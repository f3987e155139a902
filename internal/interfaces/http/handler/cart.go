package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	cartapp "github.com/jhk/storefront/internal/application/cart"
	"github.com/jhk/storefront/internal/infrastructure/logger"
	"github.com/jhk/storefront/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// CartHandler serves the shopper's cart. Every route answers with the full
// cart view so the storefront can re-render from a single response.
type CartHandler struct {
	BaseHandler
	carts     *cartapp.CartService
	heartbeat time.Duration
}

// CartHandlerOption is a functional option for configuring the handler
type CartHandlerOption func(*CartHandler)

// WithStreamHeartbeat sets how often an idle cart stream sends a keep-alive
func WithStreamHeartbeat(d time.Duration) CartHandlerOption {
	return func(h *CartHandler) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts *cartapp.CartService, opts ...CartHandlerOption) *CartHandler {
	h := &CartHandler{
		carts:     carts,
		heartbeat: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AddItemRequest adds one unit of a catalog product
type AddItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
}

// UpdateQuantityRequest sets a line quantity; zero or less removes the line.
// Quantity is kept raw so non-integers can be ignored instead of rejected.
type UpdateQuantityRequest struct {
	Quantity json.RawMessage `json:"quantity" binding:"required"`
}

// Get returns the current cart.
// GET /api/v1/cart
func (h *CartHandler) Get(c *gin.Context) {
	h.Success(c, h.carts.Get(c.Request.Context(), middleware.GetCartSessionID(c)))
}

// AddItem adds a product looked up in the catalog.
// POST /api/v1/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, err)
		return
	}

	view, err := h.carts.AddProduct(c.Request.Context(), middleware.GetCartSessionID(c), req.ProductID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// UpdateItem sets the quantity of a line.
// PUT /api/v1/cart/items/:product_id
func (h *CartHandler) UpdateItem(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := middleware.GetCartSessionID(c)

	productID, ok := productIDParam(c)
	if !ok {
		h.Success(c, h.carts.Get(ctx, sessionID))
		return
	}

	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, err)
		return
	}
	quantity, ok := quantityValue(req.Quantity)
	if !ok {
		logger.GetGinLogger(c).Debug("Ignoring non-integer quantity", zap.ByteString("quantity", req.Quantity))
		h.Success(c, h.carts.Get(ctx, sessionID))
		return
	}
	h.Success(c, h.carts.UpdateQuantity(ctx, sessionID, productID, quantity))
}

// RemoveItem drops a line.
// DELETE /api/v1/cart/items/:product_id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := middleware.GetCartSessionID(c)

	productID, ok := productIDParam(c)
	if !ok {
		h.Success(c, h.carts.Get(ctx, sessionID))
		return
	}
	h.Success(c, h.carts.RemoveItem(ctx, sessionID, productID))
}

// Clear empties the cart.
// DELETE /api/v1/cart
func (h *CartHandler) Clear(c *gin.Context) {
	h.Success(c, h.carts.Clear(c.Request.Context(), middleware.GetCartSessionID(c)))
}

// Toggle flips the cart panel.
// POST /api/v1/cart/toggle
func (h *CartHandler) Toggle(c *gin.Context) {
	h.Success(c, h.carts.Toggle(c.Request.Context(), middleware.GetCartSessionID(c)))
}

// Open shows the cart panel.
// POST /api/v1/cart/open
func (h *CartHandler) Open(c *gin.Context) {
	h.Success(c, h.carts.Open(c.Request.Context(), middleware.GetCartSessionID(c)))
}

// Close hides the cart panel.
// POST /api/v1/cart/close
func (h *CartHandler) Close(c *gin.Context) {
	h.Success(c, h.carts.Close(c.Request.Context(), middleware.GetCartSessionID(c)))
}

// Stream pushes the cart view as server-sent "cart" events: the current
// view first, then one per change made from any tab of the same session.
// GET /api/v1/cart/stream
func (h *CartHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := middleware.GetCartSessionID(c)
	log := logger.GetGinLogger(c)

	updates, stop := h.carts.Watch(ctx, sessionID)
	defer stop()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	log.Debug("Cart stream opened")
	for {
		select {
		case <-ctx.Done():
			log.Debug("Cart stream closed")
			return
		case <-ticker.C:
			fmt.Fprint(c.Writer, ": ping\n\n")
			c.Writer.Flush()
		case view, ok := <-updates:
			if !ok {
				return
			}
			c.SSEvent("cart", view)
			c.Writer.Flush()
		}
	}
}

// maxExactQuantity is the largest integer a JSON number holds exactly
const maxExactQuantity = 1 << 53

// quantityValue reads an integral JSON number. Strings, booleans, fractions
// and other values are not quantities.
func quantityValue(raw json.RawMessage) (int, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if i, err := strconv.Atoi(n.String()); err == nil {
		return i, true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactQuantity {
		return 0, false
	}
	return int(f), true
}

// productIDParam parses the product id path segment. Ids that are not
// positive integers match no line.
func productIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil || id <= 0 {
		logger.GetGinLogger(c).Debug("Ignoring invalid product id", zap.String("product_id", c.Param("product_id")))
		return 0, false
	}
	return id, true
}
