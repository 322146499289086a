package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"centime/internal/domain/bank"
)

type BankRepository struct {
	db executor
}

func NewBankRepository(db *DB) *BankRepository {
	return &BankRepository{db: db}
}

func (r *BankRepository) GetByID(ctx context.Context, id string) (*bank.Bank, error) {
	query := `SELECT id, name FROM banks WHERE id = $1`

	var b bank.Bank
	err := r.db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bank.ErrBankNotFound
		}
		return nil, fmt.Errorf("failed to get bank: %w", err)
	}

	return &b, nil
}

func (r *BankRepository) ListByUserID(ctx context.Context, userID int64) ([]*bank.Bank, error) {
	query := `
		SELECT DISTINCT b.id, b.name
		FROM banks b
		JOIN accounts a ON a.bank_id = b.id
		WHERE a.user_id = $1
		ORDER BY b.name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list banks: %w", err)
	}
	defer rows.Close()

	var banks []*bank.Bank
	for rows.Next() {
		var b bank.Bank
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("failed to scan bank: %w", err)
		}
		banks = append(banks, &b)
	}

	return banks, rows.Err()
}

// FindOrCreateByName resolves a bank by its case-insensitive name, creating
// it when absent. Imports reference banks by name before any account exists.
func (r *BankRepository) FindOrCreateByName(ctx context.Context, name string) (*bank.Bank, error) {
	query := `SELECT id, name FROM banks WHERE LOWER(name) = LOWER($1)`

	var b bank.Bank
	err := r.db.QueryRowContext(ctx, query, name).Scan(&b.ID, &b.Name)
	if err == nil {
		return &b, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to find bank: %w", err)
	}

	b = bank.Bank{ID: uuid.NewString(), Name: name}
	insert := `INSERT INTO banks (id, name) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, insert, b.ID, b.Name); err != nil {
		return nil, fmt.Errorf("failed to create bank: %w", err)
	}

	return &b, nil
}
