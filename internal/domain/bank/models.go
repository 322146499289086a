// Package bank holds the read-only bank directory consulted during imports.
package bank

import (
	"context"
	"errors"
)

// ErrBankNotFound is returned when the referenced bank does not exist.
var ErrBankNotFound = errors.New("bank not found")

// Bank represents a banking institution the user holds accounts with.
type Bank struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Repository defines the interface for bank directory access.
type Repository interface {
	// GetByID retrieves a bank by its ID.
	GetByID(ctx context.Context, id string) (*Bank, error)

	// ListByUserID retrieves the banks the user holds accounts with.
	ListByUserID(ctx context.Context, userID int64) ([]*Bank, error)

	// FindOrCreateByName finds a bank by name or creates it if missing.
	FindOrCreateByName(ctx context.Context, name string) (*Bank, error)
}
