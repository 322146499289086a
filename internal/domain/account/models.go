package account

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// Common ISO 4217 currency codes accepted on account creation.
	validCurrencies = map[string]struct{}{
		"EUR": {}, "USD": {}, "GBP": {}, "CHF": {}, "JPY": {},
		"CAD": {}, "AUD": {}, "NZD": {}, "CNY": {}, "SEK": {},
		"NOK": {}, "DKK": {}, "PLN": {}, "CZK": {}, "HUF": {},
		"RON": {}, "BGN": {}, "TRY": {}, "BRL": {}, "MXN": {},
		"SGD": {}, "HKD": {}, "INR": {}, "ZAR": {}, "KRW": {},
	}
)

// Domain errors
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrForbidden       = errors.New("access forbidden")
	ErrInvalidCurrency = errors.New("valid ISO 4217 currency is required")
)

// Account represents a financial account the user owns at a bank. IBAN and
// AccountNumber are the identifiers that statement imports and transfer
// classification match against; either may be empty until a first import
// backfills it.
type Account struct {
	ID            string          `json:"id"`
	UserID        int64           `json:"userId"`
	BankID        string          `json:"bankId"`
	Name          string          `json:"name"`
	IBAN          string          `json:"iban"`
	AccountNumber string          `json:"accountNumber"`
	Currency      string          `json:"currency"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Identifiers returns the non-empty matching identifiers of the account.
func (a *Account) Identifiers() []string {
	ids := make([]string, 0, 2)
	if a.IBAN != "" {
		ids = append(ids, a.IBAN)
	}
	if a.AccountNumber != "" {
		ids = append(ids, a.AccountNumber)
	}
	return ids
}

// HasIdentifier reports whether any identifier is recorded yet. First-time
// imports commonly target accounts created without one.
func (a *Account) HasIdentifier() bool {
	return a.IBAN != "" || a.AccountNumber != ""
}

// CreateParams contains parameters for creating a new account.
type CreateParams struct {
	ID       string
	UserID   int64
	BankID   string
	Name     string
	IBAN     string
	Currency string
	Balance  decimal.Decimal
}

// Validate validates the create parameters.
func (p CreateParams) Validate() error {
	if p.ID == "" {
		return errors.New("account ID is required")
	}
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.BankID == "" {
		return errors.New("bank ID is required")
	}
	if p.Name == "" {
		return errors.New("account name is required")
	}
	if p.Currency == "" || !IsValidCurrency(p.Currency) {
		return ErrInvalidCurrency
	}
	return nil
}

// ImportUpdateParams carries the fields a statement import may refresh on a
// matched account. Nil fields are left untouched.
type ImportUpdateParams struct {
	Balance *decimal.Decimal
	IBAN    *string
	Name    *string
}

// IsValidCurrency checks if the provided currency is a valid ISO 4217 code.
func IsValidCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	_, ok := validCurrencies[strings.ToUpper(c)]
	return ok
}
