package checkout

import "context"

// OrderRepository persists orders
type OrderRepository interface {
	// Save inserts or updates the order and its lines
	Save(ctx context.Context, order *Order) error
	FindByNumber(ctx context.Context, number string) (*Order, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
}

// TransactionRepository persists payment transactions
type TransactionRepository interface {
	Save(ctx context.Context, tx *PaymentTransaction) error
	FindByToken(ctx context.Context, token string) (*PaymentTransaction, error)
}
