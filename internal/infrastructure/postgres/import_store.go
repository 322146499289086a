package postgres

import (
	"context"
	"fmt"

	"centime/internal/domain/account"
	"centime/internal/domain/importer"
	"centime/internal/domain/transaction"
)

// ImportStore implements importer.Store: it opens one database transaction
// per commit run and hands the domain a transaction-scoped write surface.
type ImportStore struct {
	db *DB
}

func NewImportStore(db *DB) *ImportStore {
	return &ImportStore{db: db}
}

func (s *ImportStore) WithinImport(ctx context.Context, fn func(tx importer.ImportTx) error) error {
	return s.db.WithinTx(ctx, func(tx *Tx) error {
		return fn(&importTx{
			accounts:     NewAccountRepository(s.db).withTx(tx),
			transactions: NewTransactionRepository(s.db).withTx(tx),
			tx:           tx,
		})
	})
}

// importTx adapts the transaction-scoped repositories to importer.ImportTx.
type importTx struct {
	accounts     *AccountRepository
	transactions *TransactionRepository
	tx           *Tx
}

func (t *importTx) CreateAccount(ctx context.Context, params account.CreateParams) (*account.Account, error) {
	return t.accounts.Create(ctx, params)
}

func (t *importTx) UpdateAccountOnImport(ctx context.Context, id string, params account.ImportUpdateParams) error {
	return t.accounts.UpdateOnImport(ctx, id, params)
}

func (t *importTx) InsertTransaction(ctx context.Context, params transaction.ImportParams) (bool, error) {
	return t.transactions.insertIgnoreConflict(ctx, params)
}

func (t *importTx) AppendImportLog(ctx context.Context, entry importer.LogEntry) error {
	query := `
		INSERT INTO import_logs (id, user_id, bank_id, file_name, total_count, imported_count, duplicate_count, error_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`

	_, err := t.tx.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.BankID,
		entry.FileName,
		entry.Total,
		entry.Imported,
		entry.Duplicates,
		entry.Errors,
	)
	if err != nil {
		return fmt.Errorf("failed to append import log: %w", err)
	}
	return nil
}
