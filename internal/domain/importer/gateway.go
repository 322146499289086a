package importer

import (
	"context"

	"centime/internal/domain/account"
	"centime/internal/domain/transaction"
)

// ImportTx is the write surface available inside one commit transaction.
type ImportTx interface {
	// CreateAccount persists a new account.
	CreateAccount(ctx context.Context, params account.CreateParams) (*account.Account, error)

	// UpdateAccountOnImport refreshes a matched account's balance and
	// backfills its identifier.
	UpdateAccountOnImport(ctx context.Context, id string, params account.ImportUpdateParams) error

	// InsertTransaction inserts one statement transaction, silently
	// skipping rows that violate the per-account external-ID uniqueness
	// constraint. Returns whether a row was actually inserted.
	InsertTransaction(ctx context.Context, params transaction.ImportParams) (bool, error)

	// AppendImportLog records the audit entry for the run.
	AppendImportLog(ctx context.Context, entry LogEntry) error
}

// Store executes commit work inside a single database transaction: either
// every write in fn is persisted, or none is.
type Store interface {
	WithinImport(ctx context.Context, fn func(tx ImportTx) error) error
}
