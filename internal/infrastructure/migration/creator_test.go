package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jhk/storefront/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add cart snapshots", "add_cart_snapshots"},
		{"Add-Cart-Snapshots", "add_cart_snapshots"},
		{"ADD__CART__SNAPSHOTS", "add_cart_snapshots"},
		{"   spaces   ", "spaces"},
		{"precio!@#descuento", "preciodescuento"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")
	now := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

	mf, err := createMigrationAt(dir, "add order notes", "Free text notes on ventas_retail", now)
	require.NoError(t, err)

	assert.Equal(t, "20261019093000", mf.Version)
	assert.Equal(t, filepath.Join(dir, "20261019093000_add_order_notes.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "20261019093000_add_order_notes.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add order notes\n")
	assert.Contains(t, string(up), "Free text notes on ventas_retail")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(rollback)")

	t.Run("same version twice fails", func(t *testing.T) {
		_, err := createMigrationAt(dir, "add order notes", "", now)
		assert.Error(t, err)
	})

	t.Run("unusable name", func(t *testing.T) {
		_, err := createMigrationAt(dir, "!!!", "", now)
		assert.Error(t, err)
	})
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_create_cart_snapshots.up.sql",
		"000002_create_cart_snapshots.down.sql",
		"000001_create_productos.up.sql",
		"000001_create_productos.down.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- test"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.up.sql"), 0o755))

	got, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_create_productos", "000002_create_cart_snapshots"}, got)

	missing, err := ListMigrations(filepath.Join(dir, "absent"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := migrations.FS.ReadDir(".")
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		if base, ok := strings.CutSuffix(e.Name(), ".up.sql"); ok {
			ups[base] = true
		} else if base, ok := strings.CutSuffix(e.Name(), ".down.sql"); ok {
			downs[base] = true
		}
	}
	assert.Len(t, ups, 4)
	assert.Equal(t, ups, downs)
}

