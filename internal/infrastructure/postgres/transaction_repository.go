package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"centime/internal/domain/transaction"
)

type TransactionRepository struct {
	db executor
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) withTx(tx *Tx) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

const transactionColumns = `id, account_id, amount, description, date, kind, external_id, created_at, updated_at`

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	var t transaction.Transaction
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.AccountID,
		&t.Amount,
		&t.Description,
		&t.Date,
		&t.Kind,
		&t.ExternalID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &t, nil
}

func (r *TransactionRepository) ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY date DESC, created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*transaction.Transaction
	for rows.Next() {
		var t transaction.Transaction
		err := rows.Scan(
			&t.ID,
			&t.AccountID,
			&t.Amount,
			&t.Description,
			&t.Date,
			&t.Kind,
			&t.ExternalID,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &t)
	}

	return transactions, rows.Err()
}

func (r *TransactionRepository) ExistsByExternalID(ctx context.Context, accountID, externalID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM transactions WHERE account_id = $1 AND external_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, accountID, externalID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check external ID: %w", err)
	}
	return exists, nil
}

// ExistsSimilar implements the fallback duplicate probe: same account, same
// exact description, amount inside the tolerance band, date inside the
// half-open day interval.
func (r *TransactionRepository) ExistsSimilar(ctx context.Context, criteria transaction.SimilarCriteria) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE account_id = $1
			  AND description = $2
			  AND amount BETWEEN $3 AND $4
			  AND date >= $5 AND date < $6
		)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query,
		criteria.AccountID,
		criteria.Description,
		criteria.AmountLow,
		criteria.AmountHigh,
		criteria.DayStart,
		criteria.DayEnd,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check similar transaction: %w", err)
	}
	return exists, nil
}

// insertIgnoreConflict inserts one imported transaction, relying on the
// (account_id, external_id) unique constraint to silently skip rows a
// concurrent import already persisted. Returns whether a row was inserted.
func (r *TransactionRepository) insertIgnoreConflict(ctx context.Context, params transaction.ImportParams) (bool, error) {
	query := `
		INSERT INTO transactions (id, account_id, amount, description, date, kind, external_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (account_id, external_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query,
		params.ID,
		params.AccountID,
		params.Amount,
		params.Description,
		params.Date,
		params.Kind,
		params.ExternalID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}
