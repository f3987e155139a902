package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/jhk/storefront/internal/domain/catalog"
	"github.com/jhk/storefront/internal/domain/shared"
	"github.com/jhk/storefront/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// effectivePriceExpr mirrors catalog.Product.EffectivePrice: a zero discount counts as none
const effectivePriceExpr = "CASE WHEN precio_descuento IS NOT NULL AND precio_descuento > 0 THEN precio_descuento ELSE precio_venta END"

// productSortClauses maps listing orders to ORDER BY clauses; id breaks ties
var productSortClauses = map[catalog.SortOrder]string{
	"":                    "id ASC",
	catalog.SortPriceAsc:  effectivePriceExpr + " ASC, id ASC",
	catalog.SortPriceDesc: effectivePriceExpr + " DESC, id ASC",
	catalog.SortName:      "nombre ASC, id ASC",
	catalog.SortPopular:   "visitas DESC, id ASC",
	catalog.SortNewest:    "id DESC",
}

// GormProductRepository implements catalog.ProductRepository using GORM.
// Only products sold through the local channel are ever returned.
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) visible(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("tipo_producto_venta = ?", catalog.SaleChannelLocal)
}

// FindByID finds a visible product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id int64) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.visible(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns one page of visible products and the total number of matches
func (r *GormProductRepository) List(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	filter = filter.Normalize()
	query := r.applyFilter(r.visible(ctx), filter)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductModel
	if err := query.
		Order(productSortClauses[filter.SortBy]).
		Offset(filter.Skip).
		Limit(filter.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, total, nil
}

// IncrementVisits bumps the visit counter of a visible product
func (r *GormProductRepository) IncrementVisits(ctx context.Context, id int64) error {
	result := r.visible(ctx).
		Where("id = ?", id).
		UpdateColumn("visitas", gorm.Expr("visitas + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Save creates or updates a product row, including products hidden from the storefront
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	product.ID = model.ID
	return nil
}

// applyFilter applies filter options to the query
func (r *GormProductRepository) applyFilter(query *gorm.DB, filter catalog.ProductFilter) *gorm.DB {
	if filter.Type != "" {
		query = query.Where("tipo_producto = ?", string(filter.Type))
	}
	if filter.MinPrice != nil {
		query = query.Where(effectivePriceExpr+" >= ?", r.priceArg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		query = query.Where(effectivePriceExpr+" <= ?", r.priceArg(*filter.MaxPrice))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		op := "ILIKE"
		if r.db.Dialector.Name() == "sqlite" {
			// sqlite LIKE is already case-insensitive for ASCII
			op = "LIKE"
		}
		query = query.Where("(nombre "+op+" ? ESCAPE '\\' OR sku "+op+" ? ESCAPE '\\' OR descripcion_producto "+op+" ? ESCAPE '\\')",
			pattern, pattern, pattern)
	}
	return query
}

// priceArg binds a price for comparison with the CASE expression. sqlite gives the
// expression no affinity, so a text-encoded decimal would never compare numerically.
func (r *GormProductRepository) priceArg(d decimal.Decimal) any {
	if r.db.Dialector.Name() == "sqlite" {
		return d.InexactFloat64()
	}
	return d
}

// escapeLike escapes LIKE wildcards in user input
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
