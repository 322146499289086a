package transaction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type MockTransactionRepo struct {
	GetByIDFunc            func(ctx context.Context, id string) (*Transaction, error)
	ListByAccountIDFunc    func(ctx context.Context, accountID string, limit, offset int) ([]*Transaction, error)
	ExistsByExternalIDFunc func(ctx context.Context, accountID, externalID string) (bool, error)
	ExistsSimilarFunc      func(ctx context.Context, criteria SimilarCriteria) (bool, error)
}

func (m *MockTransactionRepo) GetByID(ctx context.Context, id string) (*Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}
func (m *MockTransactionRepo) ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*Transaction, error) {
	if m.ListByAccountIDFunc != nil {
		return m.ListByAccountIDFunc(ctx, accountID, limit, offset)
	}
	return nil, nil
}
func (m *MockTransactionRepo) ExistsByExternalID(ctx context.Context, accountID, externalID string) (bool, error) {
	if m.ExistsByExternalIDFunc != nil {
		return m.ExistsByExternalIDFunc(ctx, accountID, externalID)
	}
	return false, nil
}
func (m *MockTransactionRepo) ExistsSimilar(ctx context.Context, criteria SimilarCriteria) (bool, error) {
	if m.ExistsSimilarFunc != nil {
		return m.ExistsSimilarFunc(ctx, criteria)
	}
	return false, nil
}

func TestIsDuplicateExternalIDShortCircuits(t *testing.T) {
	similarCalled := false
	repo := &MockTransactionRepo{
		ExistsByExternalIDFunc: func(ctx context.Context, accountID, externalID string) (bool, error) {
			if accountID != "acc-1" || externalID != "TXN-1" {
				t.Errorf("unexpected lookup: account=%q external=%q", accountID, externalID)
			}
			return true, nil
		},
		ExistsSimilarFunc: func(ctx context.Context, criteria SimilarCriteria) (bool, error) {
			similarCalled = true
			return false, nil
		},
	}

	resolver := NewDuplicateResolver(repo)
	dup, err := resolver.IsDuplicate(context.Background(), "acc-1", Candidate{
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.RequireFromString("-750.00"),
		Description: "LOYER MARS",
		ExternalID:  "TXN-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dup {
		t.Error("expected duplicate")
	}
	if similarCalled {
		t.Error("similarity fallback must not run after an external ID hit")
	}
}

func TestIsDuplicateFallbackCriteria(t *testing.T) {
	var got SimilarCriteria
	repo := &MockTransactionRepo{
		ExistsSimilarFunc: func(ctx context.Context, criteria SimilarCriteria) (bool, error) {
			got = criteria
			return true, nil
		},
	}

	resolver := NewDuplicateResolver(repo)
	candidateDate := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	dup, err := resolver.IsDuplicate(context.Background(), "acc-1", Candidate{
		Date:        candidateDate,
		Amount:      decimal.RequireFromString("-750.00"),
		Description: "LOYER MARS",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dup {
		t.Error("expected duplicate")
	}

	if got.AccountID != "acc-1" {
		t.Errorf("account = %q, want acc-1", got.AccountID)
	}
	if got.Description != "LOYER MARS" {
		t.Errorf("description = %q", got.Description)
	}
	if !got.AmountLow.Equal(decimal.RequireFromString("-750.01")) {
		t.Errorf("amount low = %s, want -750.01", got.AmountLow)
	}
	if !got.AmountHigh.Equal(decimal.RequireFromString("-749.99")) {
		t.Errorf("amount high = %s, want -749.99", got.AmountHigh)
	}

	wantStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.DayStart.Equal(wantStart) {
		t.Errorf("day start = %s, want %s", got.DayStart, wantStart)
	}
	if !got.DayEnd.Equal(wantStart.AddDate(0, 0, 1)) {
		t.Errorf("day end = %s, want %s", got.DayEnd, wantStart.AddDate(0, 0, 1))
	}
}

func TestIsDuplicateNotFound(t *testing.T) {
	resolver := NewDuplicateResolver(&MockTransactionRepo{})
	dup, err := resolver.IsDuplicate(context.Background(), "acc-1", Candidate{
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.RequireFromString("-10.00"),
		Description: "COFFEE",
		ExternalID:  "TXN-9",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup {
		t.Error("expected no duplicate")
	}
}

func TestIsDuplicatePropagatesError(t *testing.T) {
	wantErr := errors.New("db down")
	repo := &MockTransactionRepo{
		ExistsByExternalIDFunc: func(ctx context.Context, accountID, externalID string) (bool, error) {
			return false, wantErr
		},
	}

	resolver := NewDuplicateResolver(repo)
	_, err := resolver.IsDuplicate(context.Background(), "acc-1", Candidate{ExternalID: "TXN-1"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}
}
