package statement

import (
	"bytes"
	"time"

	"github.com/shopspring/decimal"
)

// OFXParser parses OFX/QFX exports, both the SGML (v1) and XML (v2)
// dialects. Stateless, safe for concurrent use.
type OFXParser struct{}

var ofxParserInstance = &OFXParser{}

// NewOFXParser returns the shared OFX parser instance.
func NewOFXParser() *OFXParser {
	return ofxParserInstance
}

// Name returns the parser identifier.
func (p *OFXParser) Name() string {
	return "ofx"
}

// Parse strips any bytes preceding the <OFX> tag (real-world exports often
// prepend non-standard headers), builds a dynamic tree, and locates STMTTRN
// nodes by recursive search rather than a fixed nesting depth. FITID is the
// one reliably stable transaction ID across formats and is carried through
// verbatim. The error message distinguishes an unreadable file (no <OFX>
// element) from a readable but structurally incompatible one (no STMTTRN
// anywhere in the tree).
func (p *OFXParser) Parse(buf []byte) (*ParsedStatement, error) {
	body, ok := stripOFXHeader(buf)
	if !ok {
		return nil, newParseError(p.Name(), "file unreadable: no <OFX> element found")
	}

	root := parseOFXTree(body)

	scopes := statementScopes(root)
	accounts := make([]ParsedAccount, 0, len(scopes))
	for _, scope := range scopes {
		acct := ParsedAccount{
			ExternalAccountID: scope.firstDescendantText("ACCTID"),
			Currency:          scope.firstDescendantText("CURDEF"),
		}
		if acct.ExternalAccountID == "" {
			acct.ExternalAccountID = UnattributedAccountID
		}
		if balStr := ledgerBalance(scope); balStr != "" {
			if bal, err := parseAmount(balStr); err == nil {
				acct.StatementBalance = &bal
			}
		}

		for node := range scope.Descendants("STMTTRN") {
			txn, ok := parseOFXTransaction(node)
			if !ok {
				continue
			}
			acct.Transactions = append(acct.Transactions, txn)
		}
		if len(acct.Transactions) > 0 {
			accounts = append(accounts, acct)
		}
	}

	if len(accounts) == 0 {
		return nil, newParseError(p.Name(), "file readable but structurally incompatible: no STMTTRN transaction found at any depth")
	}

	return &ParsedStatement{Accounts: accounts}, nil
}

// stripOFXHeader drops everything before the case-insensitive <OFX> tag.
func stripOFXHeader(buf []byte) ([]byte, bool) {
	idx := bytes.Index(bytes.ToUpper(buf), []byte("<OFX>"))
	if idx < 0 {
		return nil, false
	}
	return buf[idx:], true
}

// statementScopes returns the subtrees to treat as per-account statements:
// every STMTRS/CCSTMTRS descendant, or the whole tree when a bank's export
// skips those wrappers entirely.
func statementScopes(root *ofxNode) []*ofxNode {
	var scopes []*ofxNode
	for _, name := range []string{"STMTRS", "CCSTMTRS"} {
		for node := range root.Descendants(name) {
			scopes = append(scopes, node)
		}
	}
	if len(scopes) == 0 {
		scopes = append(scopes, root)
	}
	return scopes
}

// ledgerBalance returns the reported ledger balance string, if present.
func ledgerBalance(scope *ofxNode) string {
	for node := range scope.Descendants("LEDGERBAL") {
		return node.Text("BALAMT")
	}
	return ""
}

// parseOFXTransaction converts a STMTTRN node. The date field is the first
// 8 characters read as YYYYMMDD (the remainder is timezone noise); the
// signed TRNAMT is authoritative regardless of TRNTYPE. Nodes with an
// unparsable date or amount are dropped.
func parseOFXTransaction(node *ofxNode) (RawTransactionRecord, bool) {
	dateStr := node.Text("DTPOSTED")
	if len(dateStr) < 8 {
		return RawTransactionRecord{}, false
	}
	date, err := time.Parse("20060102", dateStr[:8])
	if err != nil {
		return RawTransactionRecord{}, false
	}

	amount, err := parseAmount(node.Text("TRNAMT"))
	if err != nil {
		return RawTransactionRecord{}, false
	}

	description := node.Text("NAME")
	if description == "" {
		description = node.Text("MEMO")
	}
	description = NormalizeDescription(description)

	externalID := node.Text("FITID")
	if externalID == "" {
		externalID = Fingerprint(date, description, amount)
	}

	return RawTransactionRecord{
		Date:        date,
		Amount:      amount,
		Description: description,
		ExternalID:  externalID,
		Kind:        ofxKind(node.Text("TRNTYPE"), amount),
	}, true
}

// ofxKind maps TRNTYPE to the informational kind; unknown types fall back
// to the sign of the amount.
func ofxKind(trnType string, amount decimal.Decimal) TransactionKind {
	switch trnType {
	case "CREDIT", "DEP", "INT", "DIV":
		return KindCredit
	case "DEBIT", "FEE", "SRVCHG", "CHECK", "ATM", "POS", "PAYMENT":
		return KindDebit
	case "":
		if amount.IsNegative() {
			return KindDebit
		}
		return KindCredit
	default:
		return KindOther
	}
}
