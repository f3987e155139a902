// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: BaseModel shared by uuid keyed tables
// - product.go: storefront catalog (productos)
// - cart.go: durable cart snapshots (cart_snapshots)
// - checkout.go: order lines (ventas_retail) and payment transactions (transacciones_webpay)
package models

// All lists every storefront model, in dependency order
func All() []any {
	return []any{
		&ProductModel{},
		&CartSnapshotModel{},
		&OrderLineModel{},
		&PaymentTransactionModel{},
	}
}
