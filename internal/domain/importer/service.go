package importer

import (
	"context"
	"fmt"
	"log"

	"centime/internal/domain/account"
	"centime/internal/domain/transaction"
	"centime/internal/domain/transfer"
	"centime/internal/statement"
)

// Service orchestrates the preview and commit phases.
type Service struct {
	registry       *statement.Registry
	accountService *account.Service
	accountRepo    account.Repository
	dedup          *transaction.DuplicateResolver
	store          Store
	baseCurrency   string
}

// NewService creates a new import service. baseCurrency is the deployment
// default applied when the source file carries no currency.
func NewService(
	registry *statement.Registry,
	accountService *account.Service,
	accountRepo account.Repository,
	dedup *transaction.DuplicateResolver,
	store Store,
	baseCurrency string,
) *Service {
	return &Service{
		registry:       registry,
		accountService: accountService,
		accountRepo:    accountRepo,
		dedup:          dedup,
		store:          store,
		baseCurrency:   baseCurrency,
	}
}

// Preview parses the uploaded file, resolves each parsed account against
// stored accounts, classifies and dedup-checks every transaction, and
// returns the resulting preview. Strictly read-only: it writes nothing,
// reserves nothing, and is a pure function of the input and the stored
// state at call time. It is safe to call repeatedly and concurrently.
func (s *Service) Preview(ctx context.Context, in PreviewInput) (*Preview, error) {
	if len(in.Data) == 0 {
		return nil, ErrEmptyFile
	}

	parser, err := s.registry.ParserFor(in.FileName)
	if err != nil {
		return nil, err
	}

	parsed, err := parser.Parse(in.Data)
	if err != nil {
		return nil, err
	}

	directory, err := s.accountRepo.ListByUserID(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account directory: %w", err)
	}

	preview := &Preview{}
	for i := range parsed.Accounts {
		parsedAcct := &parsed.Accounts[i]

		// An explicit target selection only makes sense for single-account
		// statements; a multi-account OFX keeps auto-detection per account.
		explicit := ""
		if len(parsed.Accounts) == 1 {
			explicit = in.TargetAccountID
		}

		matched, err := s.accountService.ResolveImportTarget(ctx, in.UserID, in.BankID, parsedAcct.ExternalAccountID, explicit)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve import target for %q: %w", parsedAcct.ExternalAccountID, err)
		}

		entry := buildAccountEntry(parsedAcct, matched, s.baseCurrency)
		preview.Accounts = append(preview.Accounts, entry)

		for _, raw := range parsedAcct.Transactions {
			txnEntry, err := s.buildTransactionEntry(ctx, in.BankID, parsedAcct, raw, matched, directory)
			if err != nil {
				return nil, err
			}
			preview.Transactions = append(preview.Transactions, txnEntry)

			preview.Summary.Total++
			if txnEntry.IsDuplicate {
				preview.Summary.Duplicates++
			} else {
				preview.Summary.New++
			}
		}
	}

	log.Printf("Import preview for user %d: accounts=%d, total=%d, new=%d, duplicates=%d",
		in.UserID, len(preview.Accounts), preview.Summary.Total, preview.Summary.New, preview.Summary.Duplicates)

	return preview, nil
}

// buildAccountEntry maps a parsed account onto stored state. An unmatched
// account is a soft condition, not an error: it is surfaced as isNew for
// the caller to confirm or remap.
func buildAccountEntry(parsedAcct *statement.ParsedAccount, matched *account.Account, baseCurrency string) AccountPreviewEntry {
	entry := AccountPreviewEntry{
		IsNew:             matched == nil,
		ExternalAccountID: parsedAcct.ExternalAccountID,
		Currency:          parsedAcct.Currency,
		Balance:           parsedAcct.StatementBalance,
	}
	if entry.Currency == "" {
		entry.Currency = baseCurrency
	}

	if matched != nil {
		entry.MatchedAccountID = matched.ID
		entry.DisplayName = matched.Name
		if entry.Balance == nil {
			bal := matched.Balance
			entry.Balance = &bal
		}
		return entry
	}

	if parsedAcct.ExternalAccountID == statement.UnattributedAccountID {
		entry.DisplayName = "Imported account"
	} else {
		entry.DisplayName = fmt.Sprintf("Imported account %s", tailOf(parsedAcct.ExternalAccountID, 4))
	}
	return entry
}

func (s *Service) buildTransactionEntry(
	ctx context.Context,
	bankID string,
	parsedAcct *statement.ParsedAccount,
	raw statement.RawTransactionRecord,
	matched *account.Account,
	directory []*account.Account,
) (TransactionPreviewEntry, error) {
	result := transfer.Classify(transfer.Input{
		Description:  raw.Description,
		Amount:       raw.Amount,
		SourceBankID: bankID,
		UserAccounts: directory,
	})

	entry := TransactionPreviewEntry{
		Date:              raw.Date,
		Amount:            raw.Amount,
		Description:       raw.Description,
		Classification:    result.Classification,
		Confidence:        result.Confidence,
		AccountExternalID: parsedAcct.ExternalAccountID,
		SourceExternalID:  raw.ExternalID,
		MatchedAccountID:  result.MatchedAccountID,
		Kind:              string(raw.Kind),
	}

	// Duplicates can only exist on an account that already has stored
	// transactions; a brand new account has nothing to collide with.
	if matched != nil {
		dup, err := s.dedup.IsDuplicate(ctx, matched.ID, transaction.Candidate{
			Date:        raw.Date,
			Amount:      raw.Amount,
			Description: raw.Description,
			ExternalID:  raw.ExternalID,
		})
		if err != nil {
			return TransactionPreviewEntry{}, fmt.Errorf("duplicate check failed: %w", err)
		}
		entry.IsDuplicate = dup
	}

	return entry, nil
}

func tailOf(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
