// Package reporter renders reconciliation output for the CLI. Presentation
// is deliberately thin; report export and persistence formats live behind
// external collaborators.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"

	"expense-audit-service/internal/models"
	"expense-audit-service/internal/recon"
)

// Format selects the output rendering
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Config controls what the generator includes.
type Config struct {
	Format           Format `json:"format"`
	IncludeMatches   bool   `json:"include_matches"`
	IncludeUnmatched bool   `json:"include_unmatched"`
	IncludeMismatches bool  `json:"include_mismatches"`
}

// DefaultConfig returns a console configuration with full detail.
func DefaultConfig() *Config {
	return &Config{
		Format:            FormatConsole,
		IncludeMatches:    true,
		IncludeUnmatched:  true,
		IncludeMismatches: false,
	}
}

// Validate checks the reporter configuration
func (c *Config) Validate() error {
	switch c.Format {
	case FormatConsole, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid report format: %s", c.Format)
	}
}

// Generator renders run results and filed reports.
type Generator struct {
	config *Config
}

// NewGenerator creates a report generator
func NewGenerator(config *Config) (*Generator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Generator{config: config}, nil
}

// WriteResult renders a reconciliation run result.
func (g *Generator) WriteResult(result *recon.Result, report *models.ReconciliationReport, w io.Writer) error {
	if g.config.Format == FormatJSON {
		return writeJSON(w, struct {
			Result *recon.Result                `json:"result"`
			Report *models.ReconciliationReport `json:"report,omitempty"`
		}{result, report})
	}
	return g.writeConsole(result, report, w)
}

func (g *Generator) writeConsole(result *recon.Result, report *models.ReconciliationReport, w io.Writer) error {
	fmt.Fprintf(w, "Reconciliation for %s\n", result.Period.String())
	fmt.Fprintf(w, "%s\n\n", ruler(40))

	fmt.Fprintf(w, "Matched:            %d\n", len(result.Matches))
	fmt.Fprintf(w, "Mandatory missing:  %d\n", len(result.MandatoryMissing))
	fmt.Fprintf(w, "Standard missing:   %d\n", len(result.StandardMissing))
	fmt.Fprintf(w, "Optional missing:   %d\n", len(result.OptionalMissing))
	fmt.Fprintf(w, "Unmatched proofs:   %d\n", len(result.UnmatchedProofs))
	if result.DegradedConversions > 0 {
		fmt.Fprintf(w, "Degraded conversions: %d\n", result.DegradedConversions)
	}

	if result.ScoreDefined {
		fmt.Fprintf(w, "Compliance score:   %d%%\n", result.ComplianceScore)
	} else {
		fmt.Fprintf(w, "Compliance score:   n/a (no anchors in period)\n")
	}

	if g.config.IncludeMatches && len(result.Matches) > 0 {
		fmt.Fprintf(w, "\nMatches\n%s\n", ruler(40))
		for _, m := range result.Matches {
			fmt.Fprintf(w, "  %s  %s %s  ->  %s  [%s] %s\n",
				models.FormatDate(m.Anchor.Date), m.Anchor.Merchant,
				m.Anchor.Amount.StringFixed(2), m.Proof.Merchant, m.Label, m.Justification)
		}
	}

	if g.config.IncludeUnmatched {
		writeExpenseSection(w, "Mandatory missing", result.MandatoryMissing)
		writeExpenseSection(w, "Standard missing", result.StandardMissing)
		writeExpenseSection(w, "Optional missing", result.OptionalMissing)
	}

	if g.config.IncludeMismatches && len(result.Mismatches) > 0 {
		fmt.Fprintf(w, "\nDiscarded advisory proposals\n%s\n", ruler(40))
		for _, mm := range result.Mismatches {
			fmt.Fprintf(w, "  %s / %s: %s\n", mm.AnchorID, mm.ProofID, mm.Reason)
		}
	}

	if report != nil {
		fmt.Fprintf(w, "\nFiled report %s at %s\n", report.ID, report.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}

// WriteTravelSummary renders the outcome of a travel linkage pass.
func (g *Generator) WriteTravelSummary(records []*models.TravelLog, ingest *TravelIngestView, w io.Writer) error {
	if g.config.Format == FormatJSON {
		return writeJSON(w, struct {
			Records []*models.TravelLog `json:"records"`
		}{records})
	}

	fmt.Fprintf(w, "Travel records\n%s\n", ruler(40))
	for _, record := range records {
		line := fmt.Sprintf("  %s  %-13s %-16s %-28s days=%d",
			models.FormatDate(record.StartDate), record.TravelType,
			record.DestinationCity, record.Status, record.DaysSpent)
		if record.IsFlight() {
			line += fmt.Sprintf("  hotel=%s", record.HotelVerification)
		}
		fmt.Fprintln(w, line)
	}
	if ingest != nil {
		fmt.Fprintf(w, "\nIngested %d new, %d duplicates, %d rejected\n",
			ingest.Accepted, ingest.Duplicates, ingest.Rejected)
	}
	return nil
}

// TravelIngestView carries ingest counters for rendering.
type TravelIngestView struct {
	Accepted   int
	Duplicates int
	Rejected   int
}

// NewTravelIngestView builds the render view from pass counters.
func NewTravelIngestView(accepted, duplicates, rejected int) *TravelIngestView {
	return &TravelIngestView{Accepted: accepted, Duplicates: duplicates, Rejected: rejected}
}

func writeExpenseSection(w io.Writer, title string, expenses []*models.Expense) {
	if len(expenses) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n%s\n", title, ruler(40))
	for _, e := range expenses {
		fmt.Fprintf(w, "  %s  %-24s %10s %s\n",
			models.FormatDate(e.Date), e.Merchant, e.Amount.StringFixed(2), e.Currency)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ruler(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '-'
	}
	return string(b)
}
