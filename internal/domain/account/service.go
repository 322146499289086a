package account

import (
	"context"
	"errors"
)

// Service contains the business logic for account operations.
type Service struct {
	repo Repository
}

// NewService creates a new account service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetAccount retrieves an account by ID and verifies user ownership.
func (s *Service) GetAccount(ctx context.Context, accountID string, userID int64) (*Account, error) {
	acct, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrAccountNotFound
	}
	if acct.UserID != userID {
		return nil, ErrForbidden
	}
	return acct, nil
}

// ListAccountsByUserID retrieves all accounts for a specific user.
func (s *Service) ListAccountsByUserID(ctx context.Context, userID int64) ([]*Account, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}
	return s.repo.ListByUserID(ctx, userID)
}

// ResolveImportTarget matches a parsed statement account against the user's
// stored accounts at the target bank. Resolution order:
//  1. the explicitly selected target always wins over auto-detection;
//  2. exact identifier match (IBAN or account number);
//  3. if exactly one account exists for the bank and it has no identifier
//     recorded yet, assume it is the import target (first-time imports
//     commonly lack a reference identifier to match against).
//
// A nil result is not an error: the import treats it as a new account.
func (s *Service) ResolveImportTarget(ctx context.Context, userID int64, bankID, externalAccountID, explicitAccountID string) (*Account, error) {
	if explicitAccountID != "" {
		return s.GetAccount(ctx, explicitAccountID, userID)
	}

	if externalAccountID != "" {
		acct, err := s.repo.FindByIdentifier(ctx, userID, bankID, externalAccountID)
		if err != nil && !errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		if acct != nil {
			return acct, nil
		}
	}

	candidates, err := s.repo.ListByUserAndBank(ctx, userID, bankID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 1 && !candidates[0].HasIdentifier() {
		return candidates[0], nil
	}

	return nil, nil
}
