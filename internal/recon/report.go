package recon

import (
	"context"
	"time"

	"expense-audit-service/internal/models"

	"github.com/shopspring/decimal"
)

// BuildReport assembles an immutable, period-scoped snapshot from a run
// result. Filing the report is an explicit user action; the snapshot is never
// overwritten once persisted.
func (e *Engine) BuildReport(ctx context.Context, result *Result) *models.ReconciliationReport {
	report := &models.ReconciliationReport{
		ID:               models.NewID(),
		Period:           result.Period,
		CreatedAt:        time.Now().UTC(),
		MandatoryMissing: result.MandatoryMissing,
		OptionalMissing:  result.OptionalMissing,
		StandardMissing:  result.StandardMissing,
	}

	for _, m := range result.Matches {
		report.MatchedTransactions = append(report.MatchedTransactions, models.MatchedTransaction{
			BankID:        m.Anchor.ID,
			ProofID:       m.Proof.ID,
			Label:         m.Label,
			Justification: m.Justification,
		})
	}

	matchedAmount := decimal.Zero
	for _, m := range result.Matches {
		matchedAmount = matchedAmount.Add(e.conv.ToBase(ctx, m.Anchor.Amount.Abs(), m.Anchor.Currency).Amount)
	}

	missingAmount := decimal.Zero
	for _, anchor := range result.UnmatchedAnchors {
		missingAmount = missingAmount.Add(e.conv.ToBase(ctx, anchor.Amount.Abs(), anchor.Currency).Amount)
	}

	report.Summary = models.ReportSummary{
		MatchedCount:        len(result.Matches),
		MandatoryMissing:    len(result.MandatoryMissing),
		OptionalMissing:     len(result.OptionalMissing),
		StandardMissing:     len(result.StandardMissing),
		UnmatchedProofs:     len(result.UnmatchedProofs),
		MatchedAmountBase:   matchedAmount,
		MissingAmountBase:   missingAmount,
		ComplianceScore:     result.ComplianceScore,
		DegradedConversions: result.DegradedConversions,
	}

	return report
}
