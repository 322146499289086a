// Package transfer classifies statement transactions as internal transfers
// between the user's own accounts or external movements. Classification is a
// pure function of its inputs, with no I/O and no clock.
package transfer

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"centime/internal/domain/account"
)

// Classification is the closed set of transfer relationships.
type Classification string

const (
	// InternalIntraBank: both ends belong to the user, same bank.
	InternalIntraBank Classification = "INTERNAL_INTRA_BANK"
	// InternalInterBank: both ends belong to the user, different banks.
	InternalInterBank Classification = "INTERNAL_INTER_BANK"
	// External: one end is outside the user's own accounts.
	External Classification = "EXTERNAL"
	// Unknown: insufficient information to classify.
	Unknown Classification = "UNKNOWN"
)

// Confidence tiers. Matching a concrete account is not a heuristic, hence
// the high fixed score; the two EXTERNAL tiers must stay distinct so that
// keyword presence is observable in the output.
const (
	ConfidenceAccountMatched  = 0.95
	ConfidenceExternalKeyword = 0.75
	ConfidenceExternalPlain   = 0.55
	ConfidenceUnknown         = 0.20
)

// minIdentifierLength guards the suffix fallback: shorter fragments match
// too many stored identifiers to be meaningful.
const minIdentifierLength = 4

// transferKeywords is the wire-transfer vocabulary in the deployment's
// operating languages. Keyword presence only influences confidence, never
// the primary classification branch.
var transferKeywords = []string{
	"virement",
	"transfer",
	"transfert",
	"wire",
	"vir ",
	"sepa",
}

// ibanPattern is the generic IBAN shape: two letters, two check digits,
// then alphanumeric blocks, scanned anywhere in the description.
var ibanPattern = regexp.MustCompile(`[A-Za-z]{2}[0-9]{2}(?:[ ]?[A-Za-z0-9]{4})+(?:[ ]?[A-Za-z0-9]{1,4})?`)

// Input is everything Classify looks at.
type Input struct {
	Description string
	Amount      decimal.Decimal
	// SourceBankID is the bank of the account the statement belongs to.
	SourceBankID string
	// ExplicitBeneficiaryID is the counterparty identifier when the source
	// format supplies one; otherwise it is extracted from the description.
	ExplicitBeneficiaryID string
	// UserAccounts is the user's full account directory, across banks.
	UserAccounts []*account.Account
}

// Result pairs the classification with its confidence. MatchedAccountID is
// set only for the two INTERNAL classifications.
type Result struct {
	Classification   Classification `json:"classification"`
	Confidence       float64        `json:"confidence"`
	BeneficiaryID    string         `json:"beneficiaryId,omitempty"`
	MatchedAccountID string         `json:"matchedAccountId,omitempty"`
}

// Classify determines whether a movement is a transfer between the user's
// own accounts. Deterministic: identical inputs yield identical results.
func Classify(in Input) Result {
	hasKeyword := containsTransferKeyword(in.Description)

	beneficiary := normalizeIdentifier(in.ExplicitBeneficiaryID)
	if beneficiary == "" {
		beneficiary = extractIBAN(in.Description)
	}

	if len(beneficiary) < minIdentifierLength {
		return Result{
			Classification: Unknown,
			Confidence:     ConfidenceUnknown,
			BeneficiaryID:  beneficiary,
		}
	}

	if matched := matchAccount(beneficiary, in.UserAccounts); matched != nil {
		classification := InternalInterBank
		if matched.BankID == in.SourceBankID {
			classification = InternalIntraBank
		}
		return Result{
			Classification:   classification,
			Confidence:       ConfidenceAccountMatched,
			BeneficiaryID:    beneficiary,
			MatchedAccountID: matched.ID,
		}
	}

	confidence := ConfidenceExternalPlain
	if hasKeyword {
		confidence = ConfidenceExternalKeyword
	}
	return Result{
		Classification: External,
		Confidence:     confidence,
		BeneficiaryID:  beneficiary,
	}
}

// containsTransferKeyword checks the description for wire-transfer terms,
// case-insensitively.
func containsTransferKeyword(description string) bool {
	lower := strings.ToLower(description)
	for _, kw := range transferKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// extractIBAN returns the first IBAN-shaped token in the description,
// normalized, or "".
func extractIBAN(description string) string {
	return normalizeIdentifier(ibanPattern.FindString(description))
}

// normalizeIdentifier strips spaces and uppercases for comparison.
func normalizeIdentifier(id string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(id), " ", ""))
}

// matchAccount resolves the beneficiary against the user's own accounts:
// exact IBAN/account-number equality first, then a suffix match in either
// direction to tolerate the partial or obfuscated identifiers some exports
// provide. First match wins; when several stored accounts share a suffix
// the earliest one in directory order is taken.
func matchAccount(beneficiary string, accounts []*account.Account) *account.Account {
	for _, acct := range accounts {
		for _, id := range acct.Identifiers() {
			if normalizeIdentifier(id) == beneficiary {
				return acct
			}
		}
	}

	for _, acct := range accounts {
		for _, id := range acct.Identifiers() {
			stored := normalizeIdentifier(id)
			if len(stored) < minIdentifierLength {
				continue
			}
			if strings.HasSuffix(stored, beneficiary) || strings.HasSuffix(beneficiary, stored) {
				return acct
			}
		}
	}

	return nil
}
