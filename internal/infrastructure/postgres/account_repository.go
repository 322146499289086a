package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"centime/internal/domain/account"
)

type AccountRepository struct {
	db executor
}

func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// withTx returns a copy of the repository scoped to the given transaction.
func (r *AccountRepository) withTx(tx *Tx) *AccountRepository {
	return &AccountRepository{db: tx}
}

const accountColumns = `id, user_id, bank_id, name, COALESCE(iban, ''), COALESCE(account_number, ''), currency, balance, created_at, updated_at`

func (r *AccountRepository) Create(ctx context.Context, params account.CreateParams) (*account.Account, error) {
	query := `
		INSERT INTO accounts (id, user_id, bank_id, name, iban, currency, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, NOW(), NOW())
		RETURNING ` + accountColumns

	row := r.db.QueryRowContext(ctx, query,
		params.ID,
		params.UserID,
		params.BankID,
		params.Name,
		params.IBAN,
		params.Currency,
		params.Balance,
	)

	acct, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return acct, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acct, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acct, nil
}

func (r *AccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

func (r *AccountRepository) ListByUserAndBank(ctx context.Context, userID int64, bankID string) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 AND bank_id = $2 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, userID, bankID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

func (r *AccountRepository) FindByIdentifier(ctx context.Context, userID int64, bankID, identifier string) (*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE user_id = $1 AND bank_id = $2 AND (iban = $3 OR account_number = $3)
		LIMIT 1`

	acct, err := scanAccount(r.db.QueryRowContext(ctx, query, userID, bankID, identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account by identifier: %w", err)
	}
	return acct, nil
}

func (r *AccountRepository) UpdateOnImport(ctx context.Context, id string, params account.ImportUpdateParams) error {
	query := `
		UPDATE accounts
		SET balance = COALESCE($2, balance),
		    iban = COALESCE(iban, NULLIF($3, '')),
		    name = COALESCE($4, name),
		    updated_at = NOW()
		WHERE id = $1`

	var iban string
	if params.IBAN != nil {
		iban = *params.IBAN
	}

	result, err := r.db.ExecContext(ctx, query, id, params.Balance, iban, params.Name)
	if err != nil {
		return fmt.Errorf("failed to update account on import: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}

func scanAccount(row *tracedRow) (*account.Account, error) {
	var a account.Account
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.BankID,
		&a.Name,
		&a.IBAN,
		&a.AccountNumber,
		&a.Currency,
		&a.Balance,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAccounts(rows *sql.Rows) ([]*account.Account, error) {
	var accounts []*account.Account
	for rows.Next() {
		var a account.Account
		err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.BankID,
			&a.Name,
			&a.IBAN,
			&a.AccountNumber,
			&a.Currency,
			&a.Balance,
			&a.CreatedAt,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &a)
	}
	return accounts, rows.Err()
}
