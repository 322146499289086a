package statement

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	// headerScanLimit bounds the search for a header row.
	headerScanLimit = 20

	// excelEpochOffsetDays is the serial number of the Unix epoch in the
	// 1899-12-30 based Excel date system.
	excelEpochOffsetDays = 25569
)

// XLSXParser parses spreadsheet exports (XLSX/XLS). Stateless, safe for
// concurrent use.
type XLSXParser struct{}

var xlsxParserInstance = &XLSXParser{}

// NewXLSXParser returns the shared spreadsheet parser instance.
func NewXLSXParser() *XLSXParser {
	return xlsxParserInstance
}

// Name returns the parser identifier.
func (p *XLSXParser) Name() string {
	return "xlsx"
}

// Parse converts the first sheet to a row grid, locates the header row by
// scanning for date and amount/debit/credit tokens, and reads transactions
// with the same sign convention as the CSV parser. When no header row is
// found within the first rows, a fixed column guess (date, description,
// amount) is used; that fallback is best effort, not a correctness
// guarantee. A file yielding zero transactions is a hard error.
func (p *XLSXParser) Parse(buf []byte) (*ParsedStatement, error) {
	file, err := excelize.OpenReader(bytes.NewReader(buf))
	if err != nil {
		return nil, newParseError(p.Name(), "file unreadable as a spreadsheet: %v", err)
	}
	defer file.Close()

	sheet := file.GetSheetName(0)
	if sheet == "" {
		return nil, newParseError(p.Name(), "workbook has no sheets")
	}

	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, newParseError(p.Name(), "failed to read sheet %q: %v", sheet, err)
	}

	cols, firstDataRow := locateHeader(rows)

	transactions := make([]RawTransactionRecord, 0, len(rows))
	for _, row := range rows[firstDataRow:] {
		txn, ok := parseSheetRow(row, cols)
		if !ok {
			continue
		}
		transactions = append(transactions, txn)
	}

	if len(transactions) == 0 {
		return nil, newParseError(p.Name(), "sheet %q readable but no row yielded a usable transaction", sheet)
	}

	return &ParsedStatement{
		Accounts: []ParsedAccount{{
			ExternalAccountID: UnattributedAccountID,
			Transactions:      transactions,
		}},
	}, nil
}

// locateHeader scans the first rows for one containing both a date-like and
// an amount/debit/credit-like token, and resolves its columns. Falls back to
// a fixed guess (0=date, 1=description, 2=amount) from the top of the sheet.
func locateHeader(rows [][]string) (map[string]int, int) {
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	for i := 0; i < limit; i++ {
		cols := resolveColumns(rows[i])
		_, hasDate := cols["date"]
		_, hasAmount := cols["amount"]
		_, hasDebit := cols["debit"]
		_, hasCredit := cols["credit"]
		if hasDate && (hasAmount || hasDebit || hasCredit) {
			if _, ok := cols["description"]; !ok {
				// Common layouts put the label right after the date.
				cols["description"] = cols["date"] + 1
			}
			return cols, i + 1
		}
	}
	return map[string]int{"date": 0, "description": 1, "amount": 2}, 0
}

// parseSheetRow parses one grid row, accepting Excel serial dates in
// addition to locale date strings.
func parseSheetRow(row []string, cols map[string]int) (RawTransactionRecord, bool) {
	cell := func(field string) string {
		idx, ok := cols[field]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	description := NormalizeDescription(cell("description"))
	dateStr := cell("date")
	if dateStr == "" || description == "" {
		return RawTransactionRecord{}, false
	}

	date, ok := parseSheetDate(dateStr)
	if !ok {
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

// parseSheetDate accepts locale date strings and Excel serial numbers
// (days since 1899-12-30).
func parseSheetDate(s string) (time.Time, bool) {
	if t, err := parseDate(s); err == nil {
		return t, true
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial <= 0 {
		return time.Time{}, false
	}
	seconds := (serial - excelEpochOffsetDays) * 86400
	return time.Unix(int64(seconds), 0).UTC().Truncate(24 * time.Hour), true
}
