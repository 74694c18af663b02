package recon

import (
	"context"
	"time"

	"expense-audit-service/internal/models"
	apperrors "expense-audit-service/pkg/errors"
)

// MatchBatch is one advisory request: a bounded slice of anchors paired with
// the entire proof pool.
type MatchBatch struct {
	Anchors []*models.Expense `json:"anchors"`
	Proofs  []*models.Expense `json:"proofs"`
}

// Proposal is a candidate anchor-proof pairing suggested by the advisor.
type Proposal struct {
	AnchorID      string `json:"anchor_id"`
	ProofID       string `json:"proof_id"`
	Justification string `json:"justification"`
}

// MatchProposals is the advisor's response for one batch.
type MatchProposals struct {
	Matched          []Proposal `json:"matched"`
	UnmatchedAnchors []string   `json:"unmatched_anchors"`
	UnmatchedProofs  []string   `json:"unmatched_proofs"`
}

// Advisor is the external AI-assisted matcher collaborator. It is an
// advisory, fallible oracle: every proposal is independently re-validated
// against the deterministic rules before acceptance, and a failed batch never
// aborts a reconciliation run.
type Advisor interface {
	ProposeMatches(ctx context.Context, batch MatchBatch) (*MatchProposals, error)
}

// proposeWithBackoff calls the advisor with exponential backoff on rate-limit
// signals. Any other failure, or retry exhaustion, is returned to the caller
// which records the batch as unmatched-by-default.
func (e *Engine) proposeWithBackoff(ctx context.Context, batch MatchBatch) (*MatchProposals, error) {
	delay := e.config.AdvisorRetryBaseDelay

	var lastErr error
	for attempt := 0; attempt <= e.config.AdvisorMaxRetries; attempt++ {
		if attempt > 0 {
			e.logger.WithFields(map[string]interface{}{
				"attempt": attempt,
				"delay":   delay.String(),
			}).Warn("Advisor rate limited, backing off")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		proposals, err := e.advisor.ProposeMatches(ctx, batch)
		if err == nil {
			return proposals, nil
		}
		lastErr = err

		if !apperrors.IsCode(err, apperrors.CodeRateLimited) {
			return nil, err
		}
	}

	return nil, lastErr
}

// chunkAnchors splits the anchor pool into advisor-sized batches, preserving
// order.
func chunkAnchors(anchors []*models.Expense, size int) [][]*models.Expense {
	if size <= 0 {
		size = DefaultAdvisorBatchSize
	}

	var chunks [][]*models.Expense
	for start := 0; start < len(anchors); start += size {
		end := start + size
		if end > len(anchors) {
			end = len(anchors)
		}
		chunks = append(chunks, anchors[start:end])
	}
	return chunks
}
