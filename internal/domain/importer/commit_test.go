package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func balancePtr(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func newAccountPreview() Preview {
	return Preview{
		Accounts: []AccountPreviewEntry{{
			IsNew:             true,
			DisplayName:       "Imported account 0143",
			ExternalAccountID: "FR7630004000031234567890143",
			Balance:           balancePtr("1650.00"),
			Currency:          "EUR",
		}},
		Transactions: []TransactionPreviewEntry{
			{
				Date:              time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				Amount:            decimal.RequireFromString("-750.00"),
				Description:       "LOYER MARS",
				AccountExternalID: "FR7630004000031234567890143",
				SourceExternalID:  "TXN-1",
				Kind:              "DEBIT",
			},
			{
				Date:              time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
				Amount:            decimal.RequireFromString("2400.00"),
				Description:       "VIREMENT SALAIRE",
				AccountExternalID: "FR7630004000031234567890143",
				SourceExternalID:  "TXN-2",
				IsDuplicate:       true,
				Kind:              "CREDIT",
			},
		},
		Summary: Summary{Total: 2, New: 1, Duplicates: 1},
	}
}

func TestCommitCreatesAccountAndInsertsTransactions(t *testing.T) {
	store := &FakeStore{Tx: NewFakeImportTx()}
	service := newTestService(&MockAccountRepo{}, &MockTransactionRepo{}, store)

	result, err := service.Commit(context.Background(), CommitInput{
		UserID:   1,
		BankID:   "bank-a",
		FileName: "export.ofx",
		Preview:  newAccountPreview(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ImportedCount != 1 {
		t.Errorf("imported = %d, want 1 (the flagged duplicate is skipped)", result.ImportedCount)
	}
	if result.AccountsSynced != 1 {
		t.Errorf("accounts synced = %d, want 1", result.AccountsSynced)
	}

	if len(store.Tx.Created) != 1 {
		t.Fatalf("created accounts = %d, want 1", len(store.Tx.Created))
	}
	created := store.Tx.Created[0]
	if created.UserID != 1 || created.BankID != "bank-a" {
		t.Errorf("created account has wrong ownership: %+v", created)
	}
	if created.IBAN != "FR7630004000031234567890143" {
		t.Errorf("IBAN = %q, want the external account ID", created.IBAN)
	}
	if !created.Balance.Equal(decimal.RequireFromString("1650.00")) {
		t.Errorf("balance = %s, want 1650", created.Balance)
	}

	if len(store.Tx.Inserted) != 1 {
		t.Fatalf("inserted transactions = %d, want 1", len(store.Tx.Inserted))
	}
	inserted := store.Tx.Inserted[0]
	if inserted.ExternalID != "TXN-1" {
		t.Errorf("external ID = %q, want TXN-1", inserted.ExternalID)
	}
	if inserted.AccountID != created.ID {
		t.Errorf("transaction bound to %q, want the created account %q", inserted.AccountID, created.ID)
	}

	if len(store.Tx.Logged) != 1 {
		t.Fatalf("log entries = %d, want 1", len(store.Tx.Logged))
	}
	entry := store.Tx.Logged[0]
	if entry.Total != 2 || entry.Imported != 1 || entry.Duplicates != 1 || entry.Errors != 0 {
		t.Errorf("log entry = %+v, want total=2 imported=1 duplicates=1 errors=0", entry)
	}
	if entry.FileName != "export.ofx" {
		t.Errorf("file name = %q", entry.FileName)
	}
}

func TestCommitMatchedAccountIsUpdated(t *testing.T) {
	store := &FakeStore{Tx: NewFakeImportTx()}
	service := newTestService(&MockAccountRepo{}, &MockTransactionRepo{}, store)

	preview := newAccountPreview()
	preview.Accounts[0].IsNew = false
	preview.Accounts[0].MatchedAccountID = "acc-1"

	result, err := service.Commit(context.Background(), CommitInput{
		UserID: 1, BankID: "bank-a", FileName: "export.ofx", Preview: preview,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.Tx.Created) != 0 {
		t.Errorf("created accounts = %d, want 0", len(store.Tx.Created))
	}
	update, ok := store.Tx.Updated["acc-1"]
	if !ok {
		t.Fatal("matched account was not updated")
	}
	if update.Balance == nil || !update.Balance.Equal(decimal.RequireFromString("1650.00")) {
		t.Errorf("balance update = %v, want 1650", update.Balance)
	}
	if update.IBAN == nil || *update.IBAN != "FR7630004000031234567890143" {
		t.Errorf("IBAN backfill = %v", update.IBAN)
	}

	if store.Tx.Inserted[0].AccountID != "acc-1" {
		t.Errorf("transaction bound to %q, want acc-1", store.Tx.Inserted[0].AccountID)
	}
	if result.ImportedCount != 1 {
		t.Errorf("imported = %d, want 1", result.ImportedCount)
	}
}

func TestCommitMatchedWithoutIDFails(t *testing.T) {
	store := &FakeStore{Tx: NewFakeImportTx()}
	service := newTestService(&MockAccountRepo{}, &MockTransactionRepo{}, store)

	preview := newAccountPreview()
	preview.Accounts[0].IsNew = false
	preview.Accounts[0].MatchedAccountID = ""

	_, err := service.Commit(context.Background(), CommitInput{
		UserID: 1, BankID: "bank-a", Preview: preview,
	})
	if !errors.Is(err, ErrUnmappedAccount) {
		t.Fatalf("expected ErrUnmappedAccount, got %v", err)
	}
	if !store.RolledBack {
		t.Error("failed commit must roll back")
	}
}

func TestCommitEmptyPreview(t *testing.T) {
	store := &FakeStore{Tx: NewFakeImportTx()}
	service := newTestService(&MockAccountRepo{}, &MockTransactionRepo{}, store)

	_, err := service.Commit(context.Background(), CommitInput{UserID: 1, BankID: "bank-a"})
	if !errors.Is(err, ErrEmptyPreview) {
		t.Fatalf("expected ErrEmptyPreview, got %v", err)
	}
	if store.Calls != 0 {
		t.Error("empty preview must not open a transaction")
	}
}

func TestCommitRollsBackOnCreateFailure(t *testing.T) {
	tx := NewFakeImportTx()
	tx.CreateErr = errors.New("constraint violation")
	store := &FakeStore{Tx: tx}
	service := newTestService(&MockAccountRepo{}, &MockTransactionRepo{}, store)

	_, err := service.Commit(context.Background(), CommitInput{
		UserID: 1, BankID: "bank-a", Preview: newAccountPreview(),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !store.RolledBack {
		t.Error("create failure must roll the whole run back")
	}
	if len(tx.Inserted) != 0 {
		t.Errorf("transactions inserted after a failed account create: %d", len(tx.Inserted))
	}
	if len(tx.Logged) != 0 {
		t.Errorf("log appended after a failed account create: %d", len(tx.Logged))
	}
}

func TestCommitCountsConflictSkipsAsDuplicates(t *testing.T) {
	// A concurrent import already persisted TXN-1; the unique-constraint skip
	// surfaces as inserted=false and must be counted as a duplicate.
	tx := NewFakeImportTx()
	tx.seenExternalIDs["pre|TXN-1"] = true
	store := &FakeStore{Tx: tx}
	service := newTestService(&MockAccountRepo{}, &MockTransactionRepo{}, store)

	preview := newAccountPreview()
	preview.Accounts[0].IsNew = false
	preview.Accounts[0].MatchedAccountID = "pre"
	preview.Transactions[1].IsDuplicate = false

	result, err := service.Commit(context.Background(), CommitInput{
		UserID: 1, BankID: "bank-a", Preview: preview,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ImportedCount != 1 {
		t.Errorf("imported = %d, want 1", result.ImportedCount)
	}
	entry := store.Tx.Logged[0]
	if entry.Imported != 1 || entry.Duplicates != 1 {
		t.Errorf("log entry = %+v, want imported=1 duplicates=1", entry)
	}
}

func TestCommitCountsUnmappedTransactionsAsErrors(t *testing.T) {
	store := &FakeStore{Tx: NewFakeImportTx()}
	service := newTestService(&MockAccountRepo{}, &MockTransactionRepo{}, store)

	preview := newAccountPreview()
	preview.Transactions[1].IsDuplicate = false
	preview.Transactions[1].AccountExternalID = "SOMETHING-ELSE"

	result, err := service.Commit(context.Background(), CommitInput{
		UserID: 1, BankID: "bank-a", Preview: preview,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ImportedCount != 1 {
		t.Errorf("imported = %d, want 1", result.ImportedCount)
	}
	entry := store.Tx.Logged[0]
	if entry.Errors != 1 {
		t.Errorf("errors = %d, want 1", entry.Errors)
	}
}
