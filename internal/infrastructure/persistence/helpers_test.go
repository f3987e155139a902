package persistence

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jhk/storefront/internal/domain/catalog"
	"github.com/jhk/storefront/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newSQLiteDB opens a throwaway sqlite database with the storefront tables
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// newMockGormDB opens a postgres dialect GORM DB on top of sqlmock
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

type productSeed struct {
	name    string
	typ     catalog.ProductType
	list    int64
	disc    int64
	visits  int64
	channel string
}

func seedProducts(t *testing.T, repo *GormProductRepository, seeds ...productSeed) []catalog.Product {
	t.Helper()
	out := make([]catalog.Product, 0, len(seeds))
	for _, s := range seeds {
		channel := s.channel
		if channel == "" {
			channel = catalog.SaleChannelLocal
		}
		p := catalog.Product{
			SKU:         "SKU-" + s.name,
			Name:        s.name,
			Type:        s.typ,
			ListPrice:   decimal.NewFromInt(s.list),
			Visits:      s.visits,
			SaleChannel: channel,
			Images:      []string{models.ImagePathPrefix + s.name + ".jpg"},
		}
		if s.disc > 0 {
			p.DiscountedPrice = decimal.NewNullDecimal(decimal.NewFromInt(s.disc))
		}
		require.NoError(t, repo.Save(context.Background(), &p))
		out = append(out, p)
	}
	return out
}

func productForCart(id, price int64) catalog.Product {
	return catalog.Product{
		ID:          id,
		SKU:         "SKU",
		Name:        "Poltrona",
		Type:        catalog.ProductTypeArmchairs,
		ListPrice:   decimal.NewFromInt(price),
		SaleChannel: catalog.SaleChannelLocal,
	}
}
