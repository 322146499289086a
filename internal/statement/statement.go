// Package statement turns raw bank export files (CSV, XLSX, OFX) into a
// format-agnostic ParsedStatement. Parsers are selected by file extension;
// each one either returns a complete statement or a ParseError, never a
// partial result.
package statement

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TransactionKind is informational only; the sign of the amount is
// authoritative for direction.
type TransactionKind string

const (
	KindCredit TransactionKind = "CREDIT"
	KindDebit  TransactionKind = "DEBIT"
	KindOther  TransactionKind = "OTHER"
)

// UnattributedAccountID is the placeholder external account ID used when a
// format carries no account identifier (flat CSV/XLSX exports).
const UnattributedAccountID = "UNATTRIBUTED"

// RawTransactionRecord is the parser output unit. Amount is signed:
// positive for credits, negative for debits.
type RawTransactionRecord struct {
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	ExternalID  string          `json:"externalId"`
	Kind        TransactionKind `json:"kind"`
}

// ParsedAccount groups the transactions attributed to one account in the
// source file.
type ParsedAccount struct {
	ExternalAccountID string                 `json:"externalAccountId"`
	Currency          string                 `json:"currency"`
	StatementBalance  *decimal.Decimal       `json:"statementBalance,omitempty"`
	Transactions      []RawTransactionRecord `json:"transactions"`
}

// ParsedStatement is never empty on a successful parse: a file yielding zero
// accounts or zero transactions fails with a ParseError instead.
type ParsedStatement struct {
	Accounts []ParsedAccount `json:"accounts"`
}

// TransactionCount returns the total number of transactions across accounts.
func (s *ParsedStatement) TransactionCount() int {
	n := 0
	for i := range s.Accounts {
		n += len(s.Accounts[i].Transactions)
	}
	return n
}

// ParseError reports a malformed or unsupported file, or a structurally
// valid file that yields no usable transactions.
type ParseError struct {
	Format string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Reason)
}

func newParseError(format, reason string, args ...any) *ParseError {
	return &ParseError{Format: format, Reason: fmt.Sprintf(reason, args...)}
}

// IsParseError reports whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// ErrUnsupportedExtension is wrapped by the registry when no parser claims
// the file extension.
var ErrUnsupportedExtension = errors.New("unsupported file extension")

// Parser converts a raw file buffer into a ParsedStatement.
type Parser interface {
	// Name identifies the parser in errors and logs.
	Name() string
	// Parse operates on the full buffer in memory; size limits are an
	// ingress concern, enforced before the buffer reaches the parser.
	Parse(buf []byte) (*ParsedStatement, error)
}

// Registry maps file extensions to parsers.
type Registry struct {
	byExt map[string]Parser
}

// NewRegistry returns a registry with all built-in parsers wired.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Parser)}
	r.Register(NewCSVParser(), ".csv")
	r.Register(NewXLSXParser(), ".xlsx", ".xls")
	r.Register(NewOFXParser(), ".ofx", ".qfx")
	return r
}

// Register binds a parser to one or more file extensions (with leading dot).
func (r *Registry) Register(p Parser, exts ...string) {
	for _, ext := range exts {
		r.byExt[strings.ToLower(ext)] = p
	}
}

// ParserFor selects a parser by the file name's extension. The extension is
// the only selection signal: parsers do not auto-detect mismatched formats.
func (r *Registry) ParserFor(fileName string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if p, ok := r.byExt[ext]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w %q (accepted: %s)", ErrUnsupportedExtension, ext, strings.Join(r.Extensions(), ", "))
}

// Extensions returns the accepted extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeDescription collapses whitespace runs to single spaces and trims.
func NormalizeDescription(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// Fingerprint derives a deterministic pseudo external ID from the
// (date, description, amount) tuple, for formats that carry no stable
// transaction ID. Distinct same-day, same-amount, same-description
// transactions collide; that is an accepted limitation of the fallback.
func Fingerprint(date time.Time, description string, amount decimal.Decimal) string {
	input := fmt.Sprintf("%s|%s|%s",
		date.Format("2006-01-02"),
		strings.ToLower(NormalizeDescription(description)),
		amount.StringFixed(2),
	)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// parseAmount converts a localized numeric string into a decimal. It strips
// regular, non-breaking and narrow spaces and accepts a decimal comma, so
// "1 234,56" and "-750.00" both parse.
func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		case ',':
			return '.'
		}
		return r
	}, strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(cleaned)
}

// dateLayouts are tried in order after the day-first European convention.
var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"2006/01/02",
	"02.01.2006",
	time.RFC3339,
}

// parseDate favors DD/MM/YYYY and falls back through common layouts.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldKey lowercases and strips diacritics so header matching treats
// "Libellé" and "libelle" the same.
func foldKey(s string) string {
	folded, _, err := transform.String(accentFolder, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// headerVocabulary drives column resolution for the tabular parsers: each
// field lists the header substrings that identify it. New bank export
// layouts are added here, not in code.
var headerVocabulary = map[string][]string{
	"date":        {"date"},
	"description": {"libelle", "description", "memo"},
	"amount":      {"montant", "amount"},
	"debit":       {"debit"},
	"credit":      {"credit"},
}

// resolveColumns maps vocabulary fields to column indexes by case- and
// accent-insensitive substring match against the header row. The first
// matching column per field wins.
func resolveColumns(header []string) map[string]int {
	cols := make(map[string]int)
	for idx, cell := range header {
		key := foldKey(cell)
		if key == "" {
			continue
		}
		for field, candidates := range headerVocabulary {
			if _, done := cols[field]; done {
				continue
			}
			for _, candidate := range candidates {
				if strings.Contains(key, candidate) {
					cols[field] = idx
					break
				}
			}
		}
	}
	return cols
}

// kindForAmount derives the informational kind from the sign.
func kindForAmount(amount decimal.Decimal) TransactionKind {
	if amount.IsNegative() {
		return KindDebit
	}
	return KindCredit
}
