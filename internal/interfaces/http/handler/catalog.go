package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/jhk/storefront/internal/application/catalog"
	"github.com/shopspring/decimal"
)

// CatalogHandler serves the read-only product catalog
type CatalogHandler struct {
	BaseHandler
	products *catalogapp.ProductService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(products *catalogapp.ProductService) *CatalogHandler {
	return &CatalogHandler{products: products}
}

// ListProducts lists visible products.
// GET /api/v1/catalog/products?tipo=&precio_min=&precio_max=&search=&skip=&limit=&sort=
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	req := catalogapp.ListProductsRequest{
		Type:   c.Query("tipo"),
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
	}

	var ok bool
	if req.MinPrice, ok = h.priceQuery(c, "precio_min"); !ok {
		return
	}
	if req.MaxPrice, ok = h.priceQuery(c, "precio_max"); !ok {
		return
	}
	if req.Skip, ok = h.intQuery(c, "skip"); !ok {
		return
	}
	if req.Limit, ok = h.intQuery(c, "limit"); !ok {
		return
	}

	resp, err := h.products.ListProducts(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, resp.Products, resp.Total, resp.Skip, resp.Limit)
}

// GetProduct returns a product and counts the visit.
// GET /api/v1/catalog/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.NotFound(c, "Product not found")
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

func (h *CatalogHandler) priceQuery(c *gin.Context, key string) (*decimal.Decimal, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	price, err := decimal.NewFromString(raw)
	if err != nil || price.IsNegative() {
		h.BadRequest(c, key+" must be a non-negative number")
		return nil, false
	}
	return &price, true
}

func (h *CatalogHandler) intQuery(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		h.BadRequest(c, key+" must be an integer")
		return 0, false
	}
	return n, true
}
