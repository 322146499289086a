package transaction

import "context"

// Repository defines the interface for transaction data access.
type Repository interface {
	// GetByID retrieves a transaction by its ID.
	GetByID(ctx context.Context, id string) (*Transaction, error)

	// ListByAccountID retrieves transactions for an account, newest first.
	ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*Transaction, error)

	// ExistsByExternalID reports whether the account already carries a
	// transaction with this exact external ID.
	ExistsByExternalID(ctx context.Context, accountID, externalID string) (bool, error)

	// ExistsSimilar reports whether the account carries a transaction
	// matching the fallback duplicate criteria.
	ExistsSimilar(ctx context.Context, criteria SimilarCriteria) (bool, error)
}
