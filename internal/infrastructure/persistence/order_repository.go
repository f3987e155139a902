package persistence

import (
	"context"
	"errors"

	"github.com/jhk/storefront/internal/domain/checkout"
	"github.com/jhk/storefront/internal/domain/shared"
	"github.com/jhk/storefront/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements checkout.OrderRepository using GORM.
// An order is stored as one ventas_retail row per line.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save replaces all rows of the order in one transaction
func (r *GormOrderRepository) Save(ctx context.Context, order *checkout.Order) error {
	rows := models.OrderLineModelsFromDomain(order)
	if len(rows) == 0 {
		return checkout.ErrEmptyCart
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderLineModel{}).Error; err != nil {
			return err
		}
		return tx.Create(&rows).Error
	})
}

// FindByNumber finds an order by its number
func (r *GormOrderRepository) FindByNumber(ctx context.Context, number string) (*checkout.Order, error) {
	var rows []models.OrderLineModel
	if err := r.db.WithContext(ctx).
		Where("numero_orden = ?", number).
		Order("linea ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.ErrNotFound
	}
	return models.OrderFromLineModels(rows), nil
}

// ExistsByNumber checks whether an order number is taken
func (r *GormOrderRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderLineModel{}).
		Where("numero_orden = ?", number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GormTransactionRepository implements checkout.TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Save creates or updates a transaction
func (r *GormTransactionRepository) Save(ctx context.Context, tx *checkout.PaymentTransaction) error {
	return r.db.WithContext(ctx).Save(models.PaymentTransactionModelFromDomain(tx)).Error
}

// FindByToken finds a transaction by its gateway token
func (r *GormTransactionRepository) FindByToken(ctx context.Context, token string) (*checkout.PaymentTransaction, error) {
	if token == "" {
		return nil, shared.ErrNotFound
	}
	var model models.PaymentTransactionModel
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var (
	_ checkout.OrderRepository       = (*GormOrderRepository)(nil)
	_ checkout.TransactionRepository = (*GormTransactionRepository)(nil)
)
