package transfer

import (
	"testing"

	"github.com/shopspring/decimal"

	"centime/internal/domain/account"
)

func directory() []*account.Account {
	return []*account.Account{
		{ID: "acc-1", BankID: "bank-a", IBAN: "FR7630004000031234567890143"},
		{ID: "acc-2", BankID: "bank-b", IBAN: "DE89370400440532013000"},
		{ID: "acc-3", BankID: "bank-a", AccountNumber: "00098765432"},
	}
}

func TestClassifyInternalIntraBank(t *testing.T) {
	result := Classify(Input{
		Description:  "VIREMENT VERS FR76 3000 4000 0312 3456 7890 143",
		Amount:       decimal.RequireFromString("-200.00"),
		SourceBankID: "bank-a",
		UserAccounts: directory(),
	})

	if result.Classification != InternalIntraBank {
		t.Fatalf("classification = %s, want %s", result.Classification, InternalIntraBank)
	}
	if result.Confidence != ConfidenceAccountMatched {
		t.Errorf("confidence = %v, want %v", result.Confidence, ConfidenceAccountMatched)
	}
	if result.MatchedAccountID != "acc-1" {
		t.Errorf("matched account = %q, want acc-1", result.MatchedAccountID)
	}
}

func TestClassifyInternalInterBank(t *testing.T) {
	result := Classify(Input{
		Description:  "TRANSFER TO DE89370400440532013000",
		Amount:       decimal.RequireFromString("-50.00"),
		SourceBankID: "bank-a",
		UserAccounts: directory(),
	})

	if result.Classification != InternalInterBank {
		t.Fatalf("classification = %s, want %s", result.Classification, InternalInterBank)
	}
	if result.MatchedAccountID != "acc-2" {
		t.Errorf("matched account = %q, want acc-2", result.MatchedAccountID)
	}
}

func TestClassifyExplicitBeneficiaryWins(t *testing.T) {
	// The description mentions a different IBAN; the explicit ID takes
	// precedence.
	result := Classify(Input{
		Description:           "PAYMENT REF GB33BUKB20201555555555",
		ExplicitBeneficiaryID: "DE89 3704 0044 0532 0130 00",
		SourceBankID:          "bank-a",
		UserAccounts:          directory(),
	})

	if result.Classification != InternalInterBank {
		t.Fatalf("classification = %s, want %s", result.Classification, InternalInterBank)
	}
	if result.BeneficiaryID != "DE89370400440532013000" {
		t.Errorf("beneficiary = %q, want the normalized explicit ID", result.BeneficiaryID)
	}
}

func TestClassifySuffixMatch(t *testing.T) {
	// Exports often carry only the tail of the counterparty account number.
	result := Classify(Input{
		Description:           "VIR RECU",
		ExplicitBeneficiaryID: "8765432",
		SourceBankID:          "bank-a",
		UserAccounts:          directory(),
	})

	if result.Classification != InternalIntraBank {
		t.Fatalf("classification = %s, want %s", result.Classification, InternalIntraBank)
	}
	if result.MatchedAccountID != "acc-3" {
		t.Errorf("matched account = %q, want acc-3", result.MatchedAccountID)
	}
}

func TestClassifyExternalConfidenceTiers(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        float64
	}{
		{
			name:        "keyword present",
			description: "VIREMENT SEPA GB33BUKB20201555555555",
			want:        ConfidenceExternalKeyword,
		},
		{
			name:        "no keyword",
			description: "PRLV GB33BUKB20201555555555",
			want:        ConfidenceExternalPlain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(Input{
				Description:  tt.description,
				SourceBankID: "bank-a",
				UserAccounts: directory(),
			})
			if result.Classification != External {
				t.Fatalf("classification = %s, want %s", result.Classification, External)
			}
			if result.Confidence != tt.want {
				t.Errorf("confidence = %v, want %v", result.Confidence, tt.want)
			}
			if result.MatchedAccountID != "" {
				t.Errorf("external result must not carry a matched account, got %q", result.MatchedAccountID)
			}
		})
	}
}

func TestClassifyUnknown(t *testing.T) {
	tests := []struct {
		name        string
		description string
		explicit    string
	}{
		{name: "no identifier at all", description: "CARTE 01/03 SUPERMARCHE"},
		{name: "identifier too short", description: "VIR", explicit: "123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(Input{
				Description:           tt.description,
				ExplicitBeneficiaryID: tt.explicit,
				SourceBankID:          "bank-a",
				UserAccounts:          directory(),
			})
			if result.Classification != Unknown {
				t.Fatalf("classification = %s, want %s", result.Classification, Unknown)
			}
			if result.Confidence != ConfidenceUnknown {
				t.Errorf("confidence = %v, want %v", result.Confidence, ConfidenceUnknown)
			}
			if result.MatchedAccountID != "" {
				t.Errorf("unknown result must not carry a matched account, got %q", result.MatchedAccountID)
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	in := Input{
		Description:  "VIREMENT VERS FR7630004000031234567890143",
		Amount:       decimal.RequireFromString("-10.00"),
		SourceBankID: "bank-a",
		UserAccounts: directory(),
	}

	first := Classify(in)
	for i := 0; i < 10; i++ {
		if got := Classify(in); got != first {
			t.Fatalf("iteration %d: result %+v differs from %+v", i, got, first)
		}
	}
}
