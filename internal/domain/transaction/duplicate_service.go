package transaction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DuplicateAmountTolerance is the absolute amount tolerance of the fallback
// duplicate check, absorbing rounding differences between export formats.
var DuplicateAmountTolerance = decimal.NewFromFloat(0.01)

// Candidate is an incoming statement transaction checked against stored data.
type Candidate struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	ExternalID  string
}

// DuplicateResolver decides whether a candidate transaction already exists
// on a given account. Both checks are scoped to the target account only; a
// transaction is never deduplicated against a record on a different account.
type DuplicateResolver struct {
	repo Repository
}

// NewDuplicateResolver creates a new duplicate resolver.
func NewDuplicateResolver(repo Repository) *DuplicateResolver {
	return &DuplicateResolver{repo: repo}
}

// IsDuplicate runs the two-tier check, short-circuiting on the first hit:
//  1. identical external ID on the same account, authoritative when the
//     source format carries a stable ID (OFX FITID; the fingerprint IDs of
//     CSV/XLSX are stable across re-imports of the same file);
//  2. same exact description, amount within DuplicateAmountTolerance, and a
//     date on the same calendar day (half-open interval, since formats vary
//     in whether they carry time-of-day).
func (r *DuplicateResolver) IsDuplicate(ctx context.Context, accountID string, c Candidate) (bool, error) {
	if c.ExternalID != "" {
		found, err := r.repo.ExistsByExternalID(ctx, accountID, c.ExternalID)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}

	dayStart := time.Date(c.Date.Year(), c.Date.Month(), c.Date.Day(), 0, 0, 0, 0, c.Date.Location())
	return r.repo.ExistsSimilar(ctx, SimilarCriteria{
		AccountID:   accountID,
		Description: c.Description,
		AmountLow:   c.Amount.Sub(DuplicateAmountTolerance),
		AmountHigh:  c.Amount.Add(DuplicateAmountTolerance),
		DayStart:    dayStart,
		DayEnd:      dayStart.AddDate(0, 0, 1),
	})
}
