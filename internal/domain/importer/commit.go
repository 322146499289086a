package importer

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"centime/internal/domain/account"
	"centime/internal/domain/transaction"
	"centime/internal/statement"
)

// Commit replays a confirmed preview as durable writes inside one database
// transaction: new accounts are created, matched accounts refreshed, and
// every transaction not flagged duplicate is inserted with skip-on-conflict
// semantics. Either everything is persisted, including the audit entry, or
// the whole run rolls back.
//
// Preview and Commit are not serialized against each other: a concurrent
// import (or any write between the two phases) can make both believe the
// same external transaction is new. The unique-constraint skip on insert is
// the safety net for that window, not a substitute for concurrency control.
func (s *Service) Commit(ctx context.Context, in CommitInput) (*CommitResult, error) {
	if len(in.Preview.Accounts) == 0 {
		return nil, ErrEmptyPreview
	}

	var result CommitResult
	err := s.store.WithinImport(ctx, func(tx ImportTx) error {
		accountIDs, err := s.syncAccounts(ctx, tx, in)
		if err != nil {
			return err
		}
		result.AccountsSynced = len(accountIDs)

		imported, duplicates, errored, err := s.insertTransactions(ctx, tx, in, accountIDs)
		if err != nil {
			return err
		}
		result.ImportedCount = imported

		return tx.AppendImportLog(ctx, LogEntry{
			ID:         uuid.NewString(),
			UserID:     in.UserID,
			BankID:     in.BankID,
			FileName:   in.FileName,
			Total:      len(in.Preview.Transactions),
			Imported:   imported,
			Duplicates: duplicates,
			Errors:     errored,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("import commit failed: %w", err)
	}

	log.Printf("Import committed for user %d: imported=%d, accounts=%d",
		in.UserID, result.ImportedCount, result.AccountsSynced)

	return &result, nil
}

// syncAccounts creates the accounts flagged isNew and refreshes matched
// ones, returning the external-ID → stored-ID mapping used by the
// transaction inserts. The caller may have edited display names or
// remapped matches before confirming; the echoed preview is authoritative.
func (s *Service) syncAccounts(ctx context.Context, tx ImportTx, in CommitInput) (map[string]string, error) {
	accountIDs := make(map[string]string, len(in.Preview.Accounts))

	for _, entry := range in.Preview.Accounts {
		if entry.IsNew {
			params := account.CreateParams{
				ID:       uuid.NewString(),
				UserID:   in.UserID,
				BankID:   in.BankID,
				Name:     entry.DisplayName,
				Currency: entry.Currency,
			}
			if params.Name == "" {
				params.Name = "Imported account"
			}
			if params.Currency == "" {
				params.Currency = s.baseCurrency
			}
			if entry.ExternalAccountID != statement.UnattributedAccountID {
				params.IBAN = entry.ExternalAccountID
			}
			if entry.Balance != nil {
				params.Balance = *entry.Balance
			}
			if err := params.Validate(); err != nil {
				return nil, fmt.Errorf("invalid account %q: %w", entry.ExternalAccountID, err)
			}

			created, err := tx.CreateAccount(ctx, params)
			if err != nil {
				return nil, fmt.Errorf("failed to create account %q: %w", entry.ExternalAccountID, err)
			}
			accountIDs[entry.ExternalAccountID] = created.ID
			continue
		}

		if entry.MatchedAccountID == "" {
			return nil, fmt.Errorf("account %q: %w", entry.ExternalAccountID, ErrUnmappedAccount)
		}

		update := account.ImportUpdateParams{Balance: entry.Balance}
		if entry.ExternalAccountID != statement.UnattributedAccountID {
			iban := entry.ExternalAccountID
			update.IBAN = &iban
		}
		if err := tx.UpdateAccountOnImport(ctx, entry.MatchedAccountID, update); err != nil {
			return nil, fmt.Errorf("failed to update account %s: %w", entry.MatchedAccountID, err)
		}
		accountIDs[entry.ExternalAccountID] = entry.MatchedAccountID
	}

	return accountIDs, nil
}

// insertTransactions inserts every non-duplicate preview transaction. Rows
// skipped by the uniqueness constraint are counted as duplicates caught by
// the race safety net, not as errors.
func (s *Service) insertTransactions(ctx context.Context, tx ImportTx, in CommitInput, accountIDs map[string]string) (imported, duplicates, errored int, err error) {
	for _, entry := range in.Preview.Transactions {
		if entry.IsDuplicate {
			duplicates++
			continue
		}

		// The caller may have pruned an account entry while editing the
		// preview; its transactions are recorded as errors, not imported.
		accountID, ok := accountIDs[entry.AccountExternalID]
		if !ok {
			log.Printf("Skipping transaction %q: %v (%s)", entry.Description, ErrUnmappedAccount, entry.AccountExternalID)
			errored++
			continue
		}

		kind := entry.Kind
		if kind == "" {
			kind = string(statement.KindOther)
		}

		inserted, err := tx.InsertTransaction(ctx, transaction.ImportParams{
			ID:          uuid.NewString(),
			AccountID:   accountID,
			Amount:      entry.Amount,
			Description: entry.Description,
			Date:        entry.Date,
			Kind:        kind,
			ExternalID:  entry.SourceExternalID,
		})
		if err != nil {
			return 0, 0, 0, fmt.Errorf("failed to insert transaction %q: %w", entry.Description, err)
		}
		if inserted {
			imported++
		} else {
			duplicates++
		}
	}
	return imported, duplicates, errored, nil
}
