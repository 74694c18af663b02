// Package models defines the record types shared by the travel linkage and
// reconciliation engines: expenses, travel logs, and filed audit reports.
//
// All calendar dates are date-only values in the YYYY-MM-DD form with no
// timezone component. Records arriving from the extraction collaborator are
// untrusted; every invariant is re-established by the engines.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the canonical calendar-date format used across the system.
const DateLayout = "2006-01-02"

// NewID generates a new record identifier.
func NewID() string {
	return uuid.NewString()
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate formats a time as a YYYY-MM-DD calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Date truncates a time to its calendar date (midnight UTC).
func Date(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole-day difference between two calendar dates.
// The result is always non-negative.
func DaysBetween(a, b time.Time) int {
	diff := Date(a).Sub(Date(b))
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}

// InclusiveDays returns the inclusive day count between two dates, so a stay
// from the 5th to the 9th counts 5 days. Returns at least 1.
func InclusiveDays(start, end time.Time) int {
	days := DaysBetween(end, start) + 1
	if days < 1 {
		days = 1
	}
	return days
}

// ExpenseSource identifies where an expense record came from
type ExpenseSource string

const (
	SourceReceipt             ExpenseSource = "receipt"
	SourceCreditCardStatement ExpenseSource = "credit_card_statement"
	SourceBankStatement       ExpenseSource = "bank_statement"
	SourceTelegram            ExpenseSource = "telegram"
	SourceEmail               ExpenseSource = "email"
	SourceWebUpload           ExpenseSource = "web_upload"
)

// IsValid checks if the expense source is a known value
func (s ExpenseSource) IsValid() bool {
	switch s {
	case SourceReceipt, SourceCreditCardStatement, SourceBankStatement,
		SourceTelegram, SourceEmail, SourceWebUpload:
		return true
	}
	return false
}

// String returns the string representation of ExpenseSource
func (s ExpenseSource) String() string {
	return string(s)
}

// Role is the reconciliation role of an expense. It is derived from the
// source at reconciliation time and never persisted as identity.
type Role string

const (
	// RoleAnchor marks a statement transaction treated as ground truth.
	RoleAnchor Role = "ANCHOR"
	// RoleProof marks a non-statement document offered as evidence.
	RoleProof Role = "PROOF"
)

// Expense represents a single expense record
type Expense struct {
	ID          string          `json:"id"`
	Merchant    string          `json:"merchant"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Date        time.Time       `json:"date"`
	Category    string          `json:"category"`
	Source      ExpenseSource   `json:"source"`
	BankID      string          `json:"bank_id,omitempty"`
	TravelLogID string          `json:"travel_log_id,omitempty"`
}

// Role derives the reconciliation role from the expense source.
func (e *Expense) Role() Role {
	switch e.Source {
	case SourceCreditCardStatement, SourceBankStatement:
		return RoleAnchor
	default:
		return RoleProof
	}
}

// IsLodging reports whether the expense is tagged as a lodging/hotel item.
// Lodging settles further from any single proof date, so date windows widen.
func (e *Expense) IsLodging() bool {
	category := strings.ToLower(e.Category)
	merchant := strings.ToLower(e.Merchant)
	return strings.Contains(category, "hotel") ||
		strings.Contains(category, "lodging") ||
		strings.Contains(category, "accommodation") ||
		strings.Contains(merchant, "hotel")
}

// Validate performs basic validation on the Expense
func (e *Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("expense id cannot be empty")
	}

	if strings.TrimSpace(e.Merchant) == "" {
		return fmt.Errorf("expense merchant cannot be empty")
	}

	if strings.TrimSpace(e.Currency) == "" {
		return fmt.Errorf("expense currency cannot be empty")
	}

	if !e.Source.IsValid() {
		return fmt.Errorf("invalid expense source: %s", e.Source)
	}

	if e.Date.IsZero() {
		return fmt.Errorf("expense date cannot be zero")
	}

	return nil
}

// String returns a string representation of the Expense
func (e *Expense) String() string {
	return fmt.Sprintf("Expense{ID: %s, Merchant: %s, Amount: %s %s, Date: %s, Source: %s}",
		e.ID, e.Merchant, e.Amount.String(), e.Currency, FormatDate(e.Date), e.Source)
}

// MarshalJSON implements custom JSON marshaling for Expense
func (e *Expense) MarshalJSON() ([]byte, error) {
	type Alias Expense
	return json.Marshal(&struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
		*Alias
	}{
		Amount: e.Amount.String(),
		Date:   FormatDate(e.Date),
		Alias:  (*Alias)(e),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for Expense
func (e *Expense) UnmarshalJSON(data []byte) error {
	type Alias Expense
	aux := &struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	e.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	e.Date, err = ParseDate(aux.Date)
	if err != nil {
		return fmt.Errorf("invalid expense date: %w", err)
	}

	return nil
}

// TravelType distinguishes flights from accommodation records
type TravelType string

const (
	TravelFlight        TravelType = "flight"
	TravelAccommodation TravelType = "accommodation"
)

// IsValid checks if the travel type is valid
func (t TravelType) IsValid() bool {
	return t == TravelFlight || t == TravelAccommodation
}

// TravelStatus is the trip-completion state of a travel record
type TravelStatus string

const (
	StatusComplete        TravelStatus = "Complete"
	StatusOpen            TravelStatus = "Open - Awaiting return"
	StatusOutboundMissing TravelStatus = "Incomplete - Outbound missing"
)

// HotelVerification is the overlay state tracking whether a flight's
// destination stay is backed by a hotel record. It never reverses once
// verified.
type HotelVerification string

const (
	HotelVerified    HotelVerification = "verified"
	HotelMissing     HotelVerification = "missing"
	HotelMismatch    HotelVerification = "mismatch"
	HotelNotRequired HotelVerification = "not_required"
)

// TravelLog represents a single travel record extracted from a document
type TravelLog struct {
	ID                 string            `json:"id"`
	TravelType         TravelType        `json:"travel_type"`
	OriginCity         string            `json:"origin_city,omitempty"`
	OriginCountry      string            `json:"origin_country,omitempty"`
	DestinationCity    string            `json:"destination_city"`
	DestinationCountry string            `json:"destination_country,omitempty"`
	StartDate          time.Time         `json:"start_date"`
	EndDate            time.Time         `json:"end_date,omitempty"`
	DepartureDate      time.Time         `json:"departure_date,omitempty"`
	ReturnDate         time.Time         `json:"return_date,omitempty"`
	DaysSpent          int               `json:"days_spent"`
	Status             TravelStatus      `json:"status"`
	HotelVerification  HotelVerification `json:"hotel_verification_status"`
	LinkedHotelID      string            `json:"linked_hotel_id,omitempty"`
	LinkedFlightID     string            `json:"linked_flight_id,omitempty"`
	OutboundFlightID   string            `json:"outbound_flight_id,omitempty"`
	ReturnFlightID     string            `json:"return_flight_id,omitempty"`
	ReferenceNumber    string            `json:"reference_number,omitempty"`
	DocumentID         string            `json:"document_id,omitempty"`
}

// IsFlight reports whether the record is a flight
func (t *TravelLog) IsFlight() bool {
	return t.TravelType == TravelFlight
}

// IsAccommodation reports whether the record is a hotel stay
func (t *TravelLog) IsAccommodation() bool {
	return t.TravelType == TravelAccommodation
}

// IsRoundTrip reports whether a flight record carries both legs in one
// document (a raw end date after the start date).
func (t *TravelLog) IsRoundTrip() bool {
	return t.IsFlight() && !t.EndDate.IsZero() && t.EndDate.After(t.StartDate)
}

// ComputeDaysSpent returns the day accounting for the record: the inclusive
// day count for round trips, home-bound arrivals with a known span, and
// accommodation records; 1 for any other flight.
func (t *TravelLog) ComputeDaysSpent(homeArrival bool) int {
	spansDays := !t.EndDate.IsZero() && (t.IsAccommodation() || t.IsRoundTrip() || homeArrival)
	if spansDays {
		return InclusiveDays(t.StartDate, t.EndDate)
	}
	return 1
}

// Validate performs basic validation on the TravelLog
func (t *TravelLog) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("travel log id cannot be empty")
	}

	if !t.TravelType.IsValid() {
		return fmt.Errorf("invalid travel type: %s", t.TravelType)
	}

	if strings.TrimSpace(t.DestinationCity) == "" {
		return fmt.Errorf("travel log destination city cannot be empty")
	}

	if t.StartDate.IsZero() {
		return fmt.Errorf("travel log start date cannot be zero")
	}

	if !t.EndDate.IsZero() && t.EndDate.Before(t.StartDate) {
		return fmt.Errorf("travel log end date %s precedes start date %s",
			FormatDate(t.EndDate), FormatDate(t.StartDate))
	}

	return nil
}

// String returns a string representation of the TravelLog
func (t *TravelLog) String() string {
	return fmt.Sprintf("TravelLog{ID: %s, Type: %s, Dest: %s, Start: %s, Status: %s}",
		t.ID, t.TravelType, t.DestinationCity, FormatDate(t.StartDate), t.Status)
}

// MarshalJSON implements custom JSON marshaling for TravelLog
func (t *TravelLog) MarshalJSON() ([]byte, error) {
	type Alias TravelLog
	return json.Marshal(&struct {
		StartDate     string `json:"start_date"`
		EndDate       string `json:"end_date,omitempty"`
		DepartureDate string `json:"departure_date,omitempty"`
		ReturnDate    string `json:"return_date,omitempty"`
		*Alias
	}{
		StartDate:     FormatDate(t.StartDate),
		EndDate:       formatOptionalDate(t.EndDate),
		DepartureDate: formatOptionalDate(t.DepartureDate),
		ReturnDate:    formatOptionalDate(t.ReturnDate),
		Alias:         (*Alias)(t),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for TravelLog
func (t *TravelLog) UnmarshalJSON(data []byte) error {
	type Alias TravelLog
	aux := &struct {
		StartDate     string `json:"start_date"`
		EndDate       string `json:"end_date,omitempty"`
		DepartureDate string `json:"departure_date,omitempty"`
		ReturnDate    string `json:"return_date,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(t),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	t.StartDate, err = ParseDate(aux.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	if t.EndDate, err = parseOptionalDate(aux.EndDate); err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}
	if t.DepartureDate, err = parseOptionalDate(aux.DepartureDate); err != nil {
		return fmt.Errorf("invalid departure date: %w", err)
	}
	if t.ReturnDate, err = parseOptionalDate(aux.ReturnDate); err != nil {
		return fmt.Errorf("invalid return date: %w", err)
	}

	return nil
}

func formatOptionalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return FormatDate(t)
}

func parseOptionalDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return ParseDate(s)
}
