package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrTransactionNotFound is returned when the transaction does not exist.
var ErrTransactionNotFound = errors.New("transaction not found")

// Transaction is a statement-sourced movement on one of the user's
// accounts. ExternalID is the financial institution's transaction ID when
// the source format carries one (OFX FITID), or a deterministic fingerprint
// otherwise; it is unique per account, not globally.
type Transaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"accountId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	Kind        string          `json:"kind"` // CREDIT, DEBIT or OTHER
	ExternalID  string          `json:"externalId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ImportParams carries one row of a statement import insert.
type ImportParams struct {
	ID          string
	AccountID   string
	Amount      decimal.Decimal
	Description string
	Date        time.Time
	Kind        string
	ExternalID  string
}

// SimilarCriteria defines the fallback duplicate search: same account, same
// exact description, amount within an absolute tolerance, and a date inside
// the half-open day interval [DayStart, DayEnd).
type SimilarCriteria struct {
	AccountID   string
	Description string
	AmountLow   decimal.Decimal
	AmountHigh  decimal.Decimal
	DayStart    time.Time
	DayEnd      time.Time
}
