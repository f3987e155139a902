package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhk/storefront/internal/domain/catalog"
	"github.com/jhk/storefront/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductService serves the storefront catalog. It is also the product
// source the cart uses when a shopper adds an item by id.
type ProductService struct {
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// GetProduct returns a product detail and counts the visit.
// A failed visit update never fails the read.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*ProductResponse, error) {
	product, err := s.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.IncrementVisits(ctx, id); err != nil {
		s.logger.Warn("Failed to record product visit",
			zap.Int64("product_id", id),
			zap.Error(err),
		)
	} else {
		product.Visits++
	}

	resp := ToProductResponse(product)
	return &resp, nil
}

// FetchByID returns a visible product without side effects
func (s *ProductService) FetchByID(ctx context.Context, id int64) (*catalog.Product, error) {
	if id <= 0 {
		return nil, shared.ErrNotFound
	}
	return s.productRepo.FindByID(ctx, id)
}

// ListProducts returns one page of visible products
func (s *ProductService) ListProducts(ctx context.Context, req ListProductsRequest) (*ProductListResponse, error) {
	filter, err := toFilter(req)
	if err != nil {
		return nil, err
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]ProductResponse, len(products))
	for i := range products {
		items[i] = ToProductResponse(&products[i])
	}
	return &ProductListResponse{
		Products: items,
		Total:    total,
		Skip:     filter.Skip,
		Limit:    filter.Limit,
	}, nil
}

func toFilter(req ListProductsRequest) (catalog.ProductFilter, error) {
	filter := catalog.ProductFilter{
		Type:     catalog.ProductType(strings.ToLower(strings.TrimSpace(req.Type))),
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		Search:   strings.TrimSpace(req.Search),
		Skip:     req.Skip,
		Limit:    req.Limit,
		SortBy:   catalog.SortOrder(req.Sort),
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		return filter, shared.NewDomainError("INVALID_PRODUCT_TYPE", fmt.Sprintf("Unknown product type %q", req.Type))
	}
	if !filter.SortBy.IsValid() {
		return filter, shared.NewDomainError("INVALID_SORT", fmt.Sprintf("Unknown sort order %q", req.Sort))
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return filter, shared.NewDomainError("INVALID_PRICE_RANGE", "precio_min cannot exceed precio_max")
	}
	return filter.Normalize(), nil
}
