package statement

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CSVParser parses delimiter-inferred bank CSV exports. Stateless, safe for
// concurrent use.
type CSVParser struct{}

var csvParserInstance = &CSVParser{}

// NewCSVParser returns the shared CSV parser instance.
func NewCSVParser() *CSVParser {
	return csvParserInstance
}

// Name returns the parser identifier.
func (p *CSVParser) Name() string {
	return "csv"
}

// Parse reads a headered CSV export. The delimiter is inferred from the
// header line (European exports favor ';'), columns are resolved by
// vocabulary match, and rows missing a date or description are skipped.
// CSV exports rarely carry a stable transaction ID, so every accepted row
// gets a synthetic fingerprint external ID. The output always contains a
// single placeholder account: a flat CSV is not reliably attributable to a
// specific IBAN.
func (p *CSVParser) Parse(buf []byte) (*ParsedStatement, error) {
	if len(bytes.TrimSpace(buf)) == 0 {
		return nil, newParseError(p.Name(), "file is empty")
	}

	reader := csv.NewReader(bytes.NewReader(buf))
	reader.Comma = inferDelimiter(buf)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, newParseError(p.Name(), "unreadable CSV content: %v", err)
	}
	if len(records) < 2 {
		return nil, newParseError(p.Name(), "no data rows below the header")
	}

	cols := resolveColumns(records[0])
	if err := validateColumns(cols); err != nil {
		return nil, newParseError(p.Name(), "header %v: %v", records[0], err)
	}

	transactions := make([]RawTransactionRecord, 0, len(records)-1)
	for _, record := range records[1:] {
		txn, ok := parseTabularRow(record, cols)
		if !ok {
			continue
		}
		transactions = append(transactions, txn)
	}

	if len(transactions) == 0 {
		return nil, newParseError(p.Name(), "file readable but no row yielded a usable transaction")
	}

	return &ParsedStatement{
		Accounts: []ParsedAccount{{
			ExternalAccountID: UnattributedAccountID,
			Transactions:      transactions,
		}},
	}, nil
}

// inferDelimiter picks ';' when the first line contains one, ',' otherwise.
func inferDelimiter(buf []byte) rune {
	firstLine := buf
	if idx := bytes.IndexByte(buf, '\n'); idx >= 0 {
		firstLine = buf[:idx]
	}
	if bytes.ContainsRune(firstLine, ';') {
		return ';'
	}
	return ','
}

// validateColumns checks that the resolved columns can produce transactions:
// a date, a description, and either a single amount column or a
// debit/credit pair.
func validateColumns(cols map[string]int) error {
	var missing []string
	if _, ok := cols["date"]; !ok {
		missing = append(missing, "date")
	}
	if _, ok := cols["description"]; !ok {
		missing = append(missing, "description")
	}
	_, hasAmount := cols["amount"]
	_, hasDebit := cols["debit"]
	_, hasCredit := cols["credit"]
	if !hasAmount && !hasDebit && !hasCredit {
		missing = append(missing, "amount or debit/credit")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// parseTabularRow converts one row into a transaction using the resolved
// column map. Shared between the CSV and XLSX parsers, which follow the same
// sign convention: amount = credit − |debit|. Returns ok=false for rows that
// must be silently skipped (missing date/description, unparsable values).
func parseTabularRow(record []string, cols map[string]int) (RawTransactionRecord, bool) {
	cell := func(field string) string {
		idx, ok := cols[field]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	dateStr := cell("date")
	description := NormalizeDescription(cell("description"))
	if dateStr == "" || description == "" {
		return RawTransactionRecord{}, false
	}

	date, err := parseDate(dateStr)
	if err != nil {
		return RawTransactionRecord{}, false
	}

	amount, ok := combineAmount(cell("amount"), cell("debit"), cell("credit"), cols)
	if !ok {
		return RawTransactionRecord{}, false
	}

	return RawTransactionRecord{
		Date:        date,
		Amount:      amount,
		Description: description,
		ExternalID:  Fingerprint(date, description, amount),
		Kind:        kindForAmount(amount),
	}, true
}

// combineAmount resolves the signed amount from either the single amount
// column or the debit/credit pair (credit − |debit|). A row where every
// relevant cell is empty or unparsable is dropped, never defaulted to zero.
func combineAmount(amountStr, debitStr, creditStr string, cols map[string]int) (decimal.Decimal, bool) {
	if _, hasAmount := cols["amount"]; hasAmount && amountStr != "" {
		v, err := parseAmount(amountStr)
		if err != nil {
			return decimal.Zero, false
		}
		return v, true
	}

	parsedAny := false
	total := decimal.Zero
	if debitStr != "" {
		v, err := parseAmount(debitStr)
		if err != nil {
			return decimal.Zero, false
		}
		total = total.Sub(v.Abs())
		parsedAny = true
	}
	if creditStr != "" {
		v, err := parseAmount(creditStr)
		if err != nil {
			return decimal.Zero, false
		}
		total = total.Add(v)
		parsedAny = true
	}
	if !parsedAny {
		return decimal.Zero, false
	}
	return total, true
}
