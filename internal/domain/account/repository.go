package account

import "context"

// Repository defines the interface for account data access.
// This interface is defined in the domain layer, but implemented in the
// infrastructure layer.
type Repository interface {
	// Create creates a new account.
	Create(ctx context.Context, params CreateParams) (*Account, error)

	// GetByID retrieves an account by its ID.
	GetByID(ctx context.Context, id string) (*Account, error)

	// ListByUserID retrieves all accounts for a specific user, across banks.
	ListByUserID(ctx context.Context, userID int64) ([]*Account, error)

	// ListByUserAndBank retrieves the user's accounts at one bank.
	ListByUserAndBank(ctx context.Context, userID int64, bankID string) ([]*Account, error)

	// FindByIdentifier finds the user's account at a bank whose IBAN or
	// account number equals the identifier exactly.
	FindByIdentifier(ctx context.Context, userID int64, bankID, identifier string) (*Account, error)

	// UpdateOnImport refreshes balance/identifier/name after a statement
	// import. Nil params fields are left untouched.
	UpdateOnImport(ctx context.Context, id string, params ImportUpdateParams) error
}
