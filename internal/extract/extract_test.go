package extract

import (
	"testing"

	"expense-audit-service/internal/models"
	apperrors "expense-audit-service/pkg/errors"
)

func validExpenseCandidate() ExpenseCandidate {
	return ExpenseCandidate{
		Merchant: "Starbucks",
		Amount:   "4.500",
		Currency: "OMR",
		Date:     "2025-03-10",
		Source:   "receipt",
	}
}

func TestExpenseCandidateConversion(t *testing.T) {
	cv := NewCandidateValidator()

	expense, err := cv.Expense(validExpenseCandidate())
	if err != nil {
		t.Fatalf("valid candidate rejected: %v", err)
	}

	if expense.ID == "" {
		t.Error("missing candidate id should be generated")
	}
	if expense.Currency != "OMR" {
		t.Errorf("currency should be normalized, got %q", expense.Currency)
	}
	if expense.Source != models.SourceReceipt {
		t.Errorf("source = %q, want receipt", expense.Source)
	}
	if models.FormatDate(expense.Date) != "2025-03-10" {
		t.Errorf("date parsed as %s", models.FormatDate(expense.Date))
	}
}

func TestExpenseCandidateRejections(t *testing.T) {
	cv := NewCandidateValidator()

	tests := []struct {
		name   string
		mutate func(c *ExpenseCandidate)
		code   apperrors.ErrorCode
	}{
		{"missing merchant", func(c *ExpenseCandidate) { c.Merchant = "" }, apperrors.CodeMissingField},
		{"two-letter currency", func(c *ExpenseCandidate) { c.Currency = "OM" }, apperrors.CodeMissingField},
		{"numeric currency", func(c *ExpenseCandidate) { c.Currency = "123" }, apperrors.CodeMissingField},
		{"garbage amount", func(c *ExpenseCandidate) { c.Amount = "4,50 OMR" }, apperrors.CodeInvalidAmount},
		{"garbage date", func(c *ExpenseCandidate) { c.Date = "10/03/2025" }, apperrors.CodeInvalidDate},
		{"unknown source", func(c *ExpenseCandidate) { c.Source = "carrier_pigeon" }, apperrors.CodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := validExpenseCandidate()
			tt.mutate(&candidate)

			_, err := cv.Expense(candidate)
			if err == nil {
				t.Fatal("expected rejection")
			}
			if !apperrors.IsCode(err, tt.code) {
				t.Errorf("expected code %s, got %v", tt.code, err)
			}
		})
	}
}

func TestTravelCandidateConversion(t *testing.T) {
	cv := NewCandidateValidator()

	record, err := cv.TravelLog(TravelCandidate{
		TravelType:      "flight",
		DestinationCity: "Dubai",
		StartDate:       "2025-03-10",
		EndDate:         "2025-03-14",
		ReferenceNumber: " PNR-123 ",
	})
	if err != nil {
		t.Fatalf("valid candidate rejected: %v", err)
	}

	if record.TravelType != models.TravelFlight {
		t.Errorf("travel type = %q", record.TravelType)
	}
	if record.ReferenceNumber != "PNR-123" {
		t.Errorf("reference should be trimmed, got %q", record.ReferenceNumber)
	}
	if !record.IsRoundTrip() {
		t.Error("start and end dates should make this a round trip")
	}
}

func TestTravelCandidateRejections(t *testing.T) {
	cv := NewCandidateValidator()

	if _, err := cv.TravelLog(TravelCandidate{
		TravelType:      "cruise",
		DestinationCity: "Dubai",
		StartDate:       "2025-03-10",
	}); err == nil {
		t.Error("unknown travel type should be rejected")
	}

	if _, err := cv.TravelLog(TravelCandidate{
		TravelType:      "flight",
		DestinationCity: "Dubai",
		StartDate:       "2025-03-10",
		EndDate:         "2025-03-01",
	}); err == nil {
		t.Error("end date before start date should be rejected")
	}

	if _, err := cv.TravelLog(TravelCandidate{
		TravelType: "flight",
		StartDate:  "2025-03-10",
	}); err == nil {
		t.Error("missing destination city should be rejected")
	}
}
