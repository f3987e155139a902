package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jhk/storefront/internal/domain/catalog"
	"github.com/jhk/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormProductRepository_FindByID_Query(t *testing.T) {
	t.Run("filters by sale channel", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db)

		rows := sqlmock.NewRows([]string{"id", "sku", "nombre", "precio_venta", "tipo_producto", "img_1", "tipo_producto_venta"}).
			AddRow(7, "SOF-007", "Sofá Milán", "499990", "sofas", "milan.jpg", "local")

		mock.ExpectQuery(`SELECT \* FROM "productos" WHERE tipo_producto_venta = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs("local", 7, 1).
			WillReturnRows(rows)

		p, err := repo.FindByID(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, "Sofá Milán", p.Name)
		assert.Equal(t, []string{"/static/productos/milan.jpg"}, p.Images)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps record not found", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "productos" WHERE tipo_producto_venta = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs("local", 99, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		p, err := repo.FindByID(context.Background(), 99)
		assert.Nil(t, p)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_FindByID(t *testing.T) {
	repo := NewGormProductRepository(newSQLiteDB(t))
	seeded := seedProducts(t, repo,
		productSeed{name: "milan", typ: catalog.ProductTypeSofas, list: 499990, disc: 449990},
		productSeed{name: "bodega", typ: catalog.ProductTypeSofas, list: 100000, channel: "mayorista"},
	)
	ctx := context.Background()

	p, err := repo.FindByID(ctx, seeded[0].ID)
	require.NoError(t, err)
	assert.True(t, p.EffectivePrice().Equal(decimal.NewFromInt(449990)))
	assert.Equal(t, []string{"/static/productos/milan.jpg"}, p.Images)

	_, err = repo.FindByID(ctx, seeded[1].ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormProductRepository_List(t *testing.T) {
	repo := NewGormProductRepository(newSQLiteDB(t))
	seedProducts(t, repo,
		productSeed{name: "milan", typ: catalog.ProductTypeSofas, list: 500000, disc: 300000, visits: 5},
		productSeed{name: "roma", typ: catalog.ProductTypeBeds, list: 400000, visits: 50},
		productSeed{name: "oslo", typ: catalog.ProductTypeSofas, list: 350000, disc: 0, visits: 1},
		productSeed{name: "berna", typ: catalog.ProductTypeArmchairs, list: 120000, visits: 9},
		productSeed{name: "oculto", typ: catalog.ProductTypeSofas, list: 1000, channel: "mayorista"},
	)
	ctx := context.Background()

	names := func(ps []catalog.Product) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.Name
		}
		return out
	}
	price := func(v int64) *decimal.Decimal {
		d := decimal.NewFromInt(v)
		return &d
	}

	tests := []struct {
		name      string
		filter    catalog.ProductFilter
		want      []string
		wantTotal int64
	}{
		{"default order hides other channels", catalog.ProductFilter{}, []string{"milan", "roma", "oslo", "berna"}, 4},
		{"by type", catalog.ProductFilter{Type: catalog.ProductTypeSofas}, []string{"milan", "oslo"}, 2},
		{"price ascending uses effective price", catalog.ProductFilter{SortBy: catalog.SortPriceAsc}, []string{"berna", "milan", "oslo", "roma"}, 4},
		{"price descending", catalog.ProductFilter{SortBy: catalog.SortPriceDesc}, []string{"roma", "oslo", "milan", "berna"}, 4},
		{"by name", catalog.ProductFilter{SortBy: catalog.SortName}, []string{"berna", "milan", "oslo", "roma"}, 4},
		{"popular", catalog.ProductFilter{SortBy: catalog.SortPopular}, []string{"roma", "berna", "milan", "oslo"}, 4},
		{"newest", catalog.ProductFilter{SortBy: catalog.SortNewest}, []string{"berna", "oslo", "roma", "milan"}, 4},
		{"min price on effective price", catalog.ProductFilter{MinPrice: price(340000), SortBy: catalog.SortPriceAsc}, []string{"oslo", "roma"}, 2},
		{"max price on effective price", catalog.ProductFilter{MaxPrice: price(300000), SortBy: catalog.SortPriceAsc}, []string{"berna", "milan"}, 2},
		{"search", catalog.ProductFilter{Search: "MIL"}, []string{"milan"}, 1},
		{"search escapes wildcards", catalog.ProductFilter{Search: "%"}, []string{}, 0},
		{"pagination keeps total", catalog.ProductFilter{Skip: 1, Limit: 2}, []string{"roma", "oslo"}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, total, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(products))
			assert.Equal(t, tt.wantTotal, total)
		})
	}
}

func TestGormProductRepository_IncrementVisits(t *testing.T) {
	repo := NewGormProductRepository(newSQLiteDB(t))
	seeded := seedProducts(t, repo,
		productSeed{name: "milan", typ: catalog.ProductTypeSofas, list: 10, visits: 3},
		productSeed{name: "oculto", typ: catalog.ProductTypeSofas, list: 10, channel: "mayorista"},
	)
	ctx := context.Background()

	require.NoError(t, repo.IncrementVisits(ctx, seeded[0].ID))
	require.NoError(t, repo.IncrementVisits(ctx, seeded[0].ID))

	p, err := repo.FindByID(ctx, seeded[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.Visits)

	assert.ErrorIs(t, repo.IncrementVisits(ctx, seeded[1].ID), shared.ErrNotFound)
	assert.ErrorIs(t, repo.IncrementVisits(ctx, 4242), shared.ErrNotFound)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}
