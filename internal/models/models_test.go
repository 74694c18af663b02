package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"valid date", "2025-03-15", date(2025, time.March, 15), false},
		{"padded input", "  2025-03-15", time.Time{}, true},
		{"empty", "", time.Time{}, true},
		{"wrong layout", "15/03/2025", time.Time{}, true},
		{"datetime rejected", "2025-03-15T10:00:00Z", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{"same day", date(2025, time.March, 10), date(2025, time.March, 10), 0},
		{"one day apart", date(2025, time.March, 10), date(2025, time.March, 11), 1},
		{"order independent", date(2025, time.March, 20), date(2025, time.March, 10), 10},
		{"across month boundary", date(2025, time.February, 27), date(2025, time.March, 2), 3},
		{"time of day ignored", time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC), date(2025, time.March, 11), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.a, tt.b); got != tt.want {
				t.Errorf("DaysBetween = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInclusiveDays(t *testing.T) {
	// A stay from the 10th to the 14th counts five days
	if got := InclusiveDays(date(2025, time.March, 10), date(2025, time.March, 14)); got != 5 {
		t.Errorf("InclusiveDays = %d, want 5", got)
	}
	if got := InclusiveDays(date(2025, time.March, 10), date(2025, time.March, 10)); got != 1 {
		t.Errorf("InclusiveDays same day = %d, want 1", got)
	}
}

func TestExpenseRole(t *testing.T) {
	tests := []struct {
		source ExpenseSource
		want   Role
	}{
		{SourceBankStatement, RoleAnchor},
		{SourceCreditCardStatement, RoleAnchor},
		{SourceReceipt, RoleProof},
		{SourceTelegram, RoleProof},
		{SourceEmail, RoleProof},
		{SourceWebUpload, RoleProof},
	}

	for _, tt := range tests {
		t.Run(string(tt.source), func(t *testing.T) {
			e := &Expense{Source: tt.source}
			if got := e.Role(); got != tt.want {
				t.Errorf("Role() for %s = %s, want %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestExpenseIsLodging(t *testing.T) {
	tests := []struct {
		name    string
		expense Expense
		want    bool
	}{
		{"hotel category", Expense{Category: "Hotel"}, true},
		{"accommodation category", Expense{Category: "accommodation"}, true},
		{"hotel in merchant", Expense{Merchant: "Grand Hotel Muscat"}, true},
		{"plain transaction", Expense{Merchant: "Carrefour", Category: "groceries"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expense.IsLodging(); got != tt.want {
				t.Errorf("IsLodging() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpenseValidate(t *testing.T) {
	valid := Expense{
		ID:       "e1",
		Merchant: "Oman Air",
		Amount:   decimal.NewFromFloat(120.50),
		Currency: "OMR",
		Date:     date(2025, time.March, 10),
		Source:   SourceBankStatement,
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(e *Expense)
	}{
		{"missing id", func(e *Expense) { e.ID = " " }},
		{"missing merchant", func(e *Expense) { e.Merchant = "" }},
		{"missing currency", func(e *Expense) { e.Currency = "" }},
		{"bad source", func(e *Expense) { e.Source = "fax" }},
		{"zero date", func(e *Expense) { e.Date = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			if err := e.Validate(); err == nil {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}
}

func TestExpenseJSONRoundTrip(t *testing.T) {
	original := &Expense{
		ID:       "e1",
		Merchant: "Oman Air",
		Amount:   decimal.RequireFromString("120.500"),
		Currency: "OMR",
		Date:     date(2025, time.March, 10),
		Category: "travel",
		Source:   SourceBankStatement,
		BankID:   "ACC-7731",
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Expense
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !decoded.Amount.Equal(original.Amount) {
		t.Errorf("amount round trip: got %s, want %s", decoded.Amount, original.Amount)
	}
	if !decoded.Date.Equal(original.Date) {
		t.Errorf("date round trip: got %v, want %v", decoded.Date, original.Date)
	}
	if decoded.BankID != original.BankID {
		t.Errorf("bank id round trip: got %s, want %s", decoded.BankID, original.BankID)
	}
}

func TestTravelLogIsRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		record TravelLog
		want   bool
	}{
		{
			"flight with later end date",
			TravelLog{TravelType: TravelFlight, StartDate: date(2025, time.March, 10), EndDate: date(2025, time.March, 14)},
			true,
		},
		{
			"one-way flight",
			TravelLog{TravelType: TravelFlight, StartDate: date(2025, time.March, 10)},
			false,
		},
		{
			"accommodation never a round trip",
			TravelLog{TravelType: TravelAccommodation, StartDate: date(2025, time.March, 10), EndDate: date(2025, time.March, 14)},
			false,
		},
		{
			"same-day end date",
			TravelLog{TravelType: TravelFlight, StartDate: date(2025, time.March, 10), EndDate: date(2025, time.March, 10)},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.IsRoundTrip(); got != tt.want {
				t.Errorf("IsRoundTrip() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeDaysSpent(t *testing.T) {
	tests := []struct {
		name        string
		record      TravelLog
		homeArrival bool
		want        int
	}{
		{
			"round trip spans inclusively",
			TravelLog{TravelType: TravelFlight, StartDate: date(2025, time.March, 10), EndDate: date(2025, time.March, 14)},
			false, 5,
		},
		{
			"accommodation spans inclusively",
			TravelLog{TravelType: TravelAccommodation, StartDate: date(2025, time.March, 10), EndDate: date(2025, time.March, 12)},
			false, 3,
		},
		{
			"one-way flight counts one day",
			TravelLog{TravelType: TravelFlight, StartDate: date(2025, time.March, 10)},
			false, 1,
		},
		{
			"home arrival without span counts one day",
			TravelLog{TravelType: TravelFlight, StartDate: date(2025, time.March, 14)},
			true, 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.ComputeDaysSpent(tt.homeArrival); got != tt.want {
				t.Errorf("ComputeDaysSpent = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTravelLogValidate(t *testing.T) {
	valid := TravelLog{
		ID:              "t1",
		TravelType:      TravelFlight,
		DestinationCity: "Dubai",
		StartDate:       date(2025, time.March, 10),
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	bad := valid
	bad.EndDate = date(2025, time.March, 5)
	if err := bad.Validate(); err == nil {
		t.Error("expected error for end date before start date")
	}

	bad = valid
	bad.TravelType = "cruise"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown travel type")
	}
}

func TestTravelLogJSONRoundTrip(t *testing.T) {
	original := &TravelLog{
		ID:              "t1",
		TravelType:      TravelFlight,
		DestinationCity: "Dubai",
		StartDate:       date(2025, time.March, 10),
		EndDate:         date(2025, time.March, 14),
		Status:          StatusComplete,
		DaysSpent:       5,
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded TravelLog
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !decoded.StartDate.Equal(original.StartDate) || !decoded.EndDate.Equal(original.EndDate) {
		t.Errorf("date round trip mismatch: %v / %v", decoded.StartDate, decoded.EndDate)
	}
	if !decoded.ReturnDate.IsZero() {
		t.Errorf("empty optional date should stay zero, got %v", decoded.ReturnDate)
	}
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if a == "" || a == b {
		t.Errorf("NewID should generate distinct non-empty ids, got %q and %q", a, b)
	}
}
