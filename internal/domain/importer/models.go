// Package importer drives the two-phase statement import: a read-only
// Preview over parsed input and stored state, and an atomic Commit that
// replays the confirmed preview as durable writes.
package importer

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"centime/internal/domain/transfer"
)

// Domain errors
var (
	ErrEmptyFile       = errors.New("uploaded file is empty")
	ErrEmptyPreview    = errors.New("preview contains no accounts")
	ErrUnmappedAccount = errors.New("transaction references an account missing from the preview")
)

// AccountPreviewEntry describes how one parsed statement account maps onto
// stored state. Nothing is persisted at preview time.
type AccountPreviewEntry struct {
	IsNew             bool             `json:"isNew"`
	DisplayName       string           `json:"displayName"`
	ExternalAccountID string           `json:"externalAccountId"`
	Balance           *decimal.Decimal `json:"balance,omitempty"`
	Currency          string           `json:"currency"`
	// MatchedAccountID identifies the stored account this import will
	// update; set only when IsNew is false.
	MatchedAccountID string `json:"matchedAccountId,omitempty"`
}

// TransactionPreviewEntry is one classified, dedup-checked transaction.
type TransactionPreviewEntry struct {
	Date           time.Time               `json:"date"`
	Amount         decimal.Decimal         `json:"amount"`
	Description    string                  `json:"description"`
	Classification transfer.Classification `json:"classification"`
	Confidence     float64                 `json:"confidence"`
	// AccountExternalID links back to the AccountPreviewEntry it belongs to.
	AccountExternalID string `json:"accountExternalId"`
	IsDuplicate       bool   `json:"isDuplicate"`
	// SourceExternalID is the parser-provided external ID, carried through
	// for persistence and future dedup.
	SourceExternalID string `json:"sourceExternalId"`
	MatchedAccountID string `json:"matchedAccountId,omitempty"`
	Kind             string `json:"kind"`
}

// Summary aggregates the preview counts.
type Summary struct {
	Total      int `json:"total"`
	New        int `json:"new"`
	Duplicates int `json:"duplicates"`
}

// Preview is the hand-off artifact between the two phases: the caller
// displays it, possibly edits account mappings, and echoes it back to
// Commit. There is no server-side preview cache or TTL; regenerating a
// preview is always safe.
type Preview struct {
	Accounts     []AccountPreviewEntry     `json:"accounts"`
	Transactions []TransactionPreviewEntry `json:"transactions"`
	Summary      Summary                   `json:"summary"`
}

// PreviewInput is one import request.
type PreviewInput struct {
	UserID   int64
	BankID   string
	FileName string
	Data     []byte
	// TargetAccountID is the caller's pre-selected import target; it wins
	// over auto-detection. Honored when the statement yields one account.
	TargetAccountID string
}

// CommitInput replays a (possibly edited) preview.
type CommitInput struct {
	UserID   int64
	BankID   string
	FileName string
	Preview  Preview
}

// CommitResult is returned to the caller on successful commit.
type CommitResult struct {
	ImportedCount  int `json:"importedCount"`
	AccountsSynced int `json:"accountsSynced"`
}

// LogEntry is the audit record appended for every committed import run.
type LogEntry struct {
	ID         string
	UserID     int64
	BankID     string
	FileName   string
	Total      int
	Imported   int
	Duplicates int
	Errors     int
}
