package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodAllMonths selects every month of the period's year.
const PeriodAllMonths = "all"

// Period scopes a reconciliation run to a month (or a whole year) and,
// optionally, a single bank account.
type Period struct {
	Month   string `json:"month"`
	Year    int    `json:"year"`
	Account string `json:"account,omitempty"`
}

// NewPeriod creates a validated Period from a month name (or "all"), a year
// and an optional account identifier.
func NewPeriod(month string, year int, account string) (Period, error) {
	p := Period{Month: strings.ToLower(strings.TrimSpace(month)), Year: year, Account: strings.TrimSpace(account)}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

var monthsByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// Validate checks if the period is well formed
func (p Period) Validate() error {
	if p.Year < 1970 || p.Year > 9999 {
		return fmt.Errorf("period year out of range: %d", p.Year)
	}

	if p.Month == PeriodAllMonths {
		return nil
	}

	if _, ok := monthsByName[strings.ToLower(p.Month)]; !ok {
		return fmt.Errorf("invalid period month %q: use a full month name or %q", p.Month, PeriodAllMonths)
	}
	return nil
}

// Contains reports whether the given calendar date falls inside the period.
func (p Period) Contains(date time.Time) bool {
	if date.Year() != p.Year {
		return false
	}
	if p.Month == PeriodAllMonths {
		return true
	}
	month, ok := monthsByName[strings.ToLower(p.Month)]
	return ok && date.Month() == month
}

// Matches reports whether an anchor expense is in scope for the period,
// including the optional account filter against the expense's bank id.
func (p Period) Matches(e *Expense) bool {
	if !p.Contains(e.Date) {
		return false
	}
	if p.Account != "" && !strings.EqualFold(p.Account, e.BankID) {
		return false
	}
	return true
}

// String returns a human-readable representation of the period
func (p Period) String() string {
	if p.Account != "" {
		return fmt.Sprintf("%s %d (account %s)", p.Month, p.Year, p.Account)
	}
	return fmt.Sprintf("%s %d", p.Month, p.Year)
}

// MatchedTransaction records one accepted anchor/proof pairing.
type MatchedTransaction struct {
	BankID        string `json:"bank_id"`
	ProofID       string `json:"proof_id"`
	Label         string `json:"label"`
	Justification string `json:"justification"`
}

// ReportSummary aggregates counts, amounts and the compliance score for a
// filed report.
type ReportSummary struct {
	MatchedCount         int             `json:"matched_count"`
	MandatoryMissing     int             `json:"mandatory_missing"`
	OptionalMissing      int             `json:"optional_missing"`
	StandardMissing      int             `json:"standard_missing"`
	UnmatchedProofs      int             `json:"unmatched_proofs"`
	MatchedAmountBase    decimal.Decimal `json:"matched_amount_base"`
	MissingAmountBase    decimal.Decimal `json:"missing_amount_base"`
	ComplianceScore      int             `json:"compliance_score"`
	DegradedConversions  int             `json:"degraded_conversions"`
}

// ReconciliationReport is a persisted, period-scoped snapshot of a
// reconciliation run. It is created only by an explicit file-audit action and
// is immutable once filed.
type ReconciliationReport struct {
	ID                  string               `json:"id"`
	Period              Period               `json:"period"`
	CreatedAt           time.Time            `json:"created_at"`
	MatchedTransactions []MatchedTransaction `json:"matched_transactions"`
	MandatoryMissing    []*Expense           `json:"mandatory_missing"`
	OptionalMissing     []*Expense           `json:"optional_missing"`
	StandardMissing     []*Expense           `json:"standard_missing"`
	Summary             ReportSummary        `json:"summary"`
}

// Validate performs basic validation on the report
func (r *ReconciliationReport) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("report id cannot be empty")
	}
	if err := r.Period.Validate(); err != nil {
		return fmt.Errorf("invalid report period: %w", err)
	}
	if r.CreatedAt.IsZero() {
		return fmt.Errorf("report creation time cannot be zero")
	}
	return nil
}
