// Package recon implements the reconciliation engine: two-tier matching of
// anchor transactions (statement lines) against proof documents, with
// currency-normalized tolerance checks, missing-item classification, and
// compliance scoring.
//
// The engine runs a deterministic pipeline over a private in-memory copy of
// its inputs: partition by role, an advisory pass over the external
// AI-assisted matcher, independent validation of every proposal, a greedy
// heuristic fallback, then classification and scoring. Nothing in the
// pipeline is fatal; collaborator failures degrade to a lower match rate,
// never to a run failure.
package recon

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"expense-audit-service/internal/currency"
	"expense-audit-service/internal/match"
	"expense-audit-service/internal/models"
	apperrors "expense-audit-service/pkg/errors"
	"expense-audit-service/pkg/logger"
)

// Match labels record which tier produced an accepted pairing.
const (
	LabelAdvisory  = "advisory"
	LabelHeuristic = "heuristic"
)

// Engine reconciles period-scoped anchors against the proof pool.
type Engine struct {
	config  *Config
	matcher *match.Matcher
	conv    *currency.Converter
	advisor Advisor
	logger  logger.Logger
}

// NewEngine creates a reconciliation engine. The advisor may be nil, in which
// case only the heuristic fallback pass runs.
func NewEngine(config *Config, matcher *match.Matcher, conv *currency.Converter, advisor Advisor) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, apperrors.ConfigError(apperrors.CodeInvalidConfig, err.Error())
	}
	if matcher == nil {
		return nil, apperrors.ConfigError(apperrors.CodeMissingConfig, "reconciliation engine requires a matcher")
	}

	return &Engine{
		config:  config,
		matcher: matcher,
		conv:    conv,
		advisor: advisor,
		logger:  logger.GetGlobalLogger().WithComponent("recon_engine"),
	}, nil
}

// Match is one accepted anchor-proof pairing.
type Match struct {
	Anchor        *models.Expense `json:"anchor"`
	Proof         *models.Expense `json:"proof"`
	Label         string          `json:"label"`
	Justification string          `json:"justification"`
}

// Mismatch records an advisory proposal that failed deterministic validation.
// Mismatches are informational; a discarded proposal is treated as if it was
// never proposed.
type Mismatch struct {
	AnchorID string `json:"anchor_id"`
	ProofID  string `json:"proof_id"`
	Reason   string `json:"reason"`
}

// Result is the complete output of one reconciliation run.
type Result struct {
	Period           models.Period     `json:"period"`
	Matches          []*Match          `json:"matches"`
	UnmatchedAnchors []*models.Expense `json:"unmatched_anchors"`
	UnmatchedProofs  []*models.Expense `json:"unmatched_proofs"`

	MandatoryMissing []*models.Expense `json:"mandatory_missing"`
	OptionalMissing  []*models.Expense `json:"optional_missing"`
	StandardMissing  []*models.Expense `json:"standard_missing"`

	Mismatches []Mismatch        `json:"mismatches,omitempty"`
	Excluded   []*models.Expense `json:"excluded,omitempty"`

	ComplianceScore     int  `json:"compliance_score"`
	ScoreDefined        bool `json:"score_defined"`
	DegradedConversions int  `json:"degraded_conversions"`
}

// Reconcile runs the full pipeline over the combined expense pool. Anchors
// are scoped to the period (and optional account); proofs are taken from the
// whole pool since a proof may legitimately predate or postdate its anchor.
func (e *Engine) Reconcile(ctx context.Context, pool []*models.Expense, period models.Period) (*Result, error) {
	if err := period.Validate(); err != nil {
		return nil, apperrors.ConfigError(apperrors.CodeInvalidConfig, err.Error())
	}

	result := &Result{Period: period}
	anchors, proofs := e.partition(pool, period, result)

	e.logger.WithFields(logger.Fields{
		"period":  period.String(),
		"anchors": len(anchors),
		"proofs":  len(proofs),
	}).Info("Starting reconciliation run")

	// An empty anchor pool is not an error: everything is simply unmatched
	// evidence and the score is skipped.
	if len(anchors) == 0 {
		result.UnmatchedProofs = proofs
		return result, nil
	}

	anchorByID := indexByID(anchors)
	proofByID := indexByID(proofs)
	matchedAnchors := make(map[string]bool)
	usedProofs := make(map[string]bool)

	if e.advisor != nil {
		e.advisoryPass(ctx, anchors, proofs, anchorByID, proofByID, matchedAnchors, usedProofs, result)
	}

	e.fallbackPass(ctx, anchors, proofs, matchedAnchors, usedProofs, result)

	for _, anchor := range anchors {
		if !matchedAnchors[anchor.ID] {
			result.UnmatchedAnchors = append(result.UnmatchedAnchors, anchor)
		}
	}
	for _, proof := range proofs {
		if !usedProofs[proof.ID] {
			result.UnmatchedProofs = append(result.UnmatchedProofs, proof)
		}
	}

	e.classify(ctx, result)
	e.score(result)

	e.logger.WithFields(logger.Fields{
		"matched":           len(result.Matches),
		"mandatory_missing": len(result.MandatoryMissing),
		"optional_missing":  len(result.OptionalMissing),
		"standard_missing":  len(result.StandardMissing),
		"score":             result.ComplianceScore,
	}).Info("Reconciliation run completed")

	return result, nil
}

// partition splits the pool by derived role. Structurally invalid records are
// excluded from the run rather than aborting it.
func (e *Engine) partition(pool []*models.Expense, period models.Period, result *Result) (anchors, proofs []*models.Expense) {
	for _, expense := range pool {
		if err := expense.Validate(); err != nil {
			e.logger.WithError(err).WithField("expense_id", expense.ID).Warn("Excluding malformed expense from run")
			result.Excluded = append(result.Excluded, expense)
			continue
		}

		switch expense.Role() {
		case models.RoleAnchor:
			if period.Matches(expense) {
				anchors = append(anchors, expense)
			}
		default:
			proofs = append(proofs, expense)
		}
	}

	// Stable, deterministic pool order: ties in the greedy passes are broken
	// by this iteration order.
	sortByDate(anchors)
	sortByDate(proofs)
	return anchors, proofs
}

// advisoryPass sends bounded anchor batches (each with the entire proof pool)
// to the external matcher and validates every returned proposal. A failed
// batch leaves its anchors for the fallback pass; it never aborts the run.
func (e *Engine) advisoryPass(
	ctx context.Context,
	anchors, proofs []*models.Expense,
	anchorByID, proofByID map[string]*models.Expense,
	matchedAnchors, usedProofs map[string]bool,
	result *Result,
) {
	for _, chunk := range chunkAnchors(anchors, e.config.AdvisorBatchSize) {
		proposals, err := e.proposeWithBackoff(ctx, MatchBatch{Anchors: chunk, Proofs: proofs})
		if err != nil {
			e.logger.WithError(apperrors.CollaboratorError(apperrors.CodeAdvisorFailed, "ai_matcher", err)).
				WithField("batch_size", len(chunk)).
				Warn("Advisory batch failed, anchors fall through to heuristic pass")
			continue
		}
		if proposals == nil {
			continue
		}

		for _, proposal := range proposals.Matched {
			e.acceptProposal(ctx, proposal, anchorByID, proofByID, matchedAnchors, usedProofs, result)
		}
	}
}

// acceptProposal re-checks one advisory proposal against the deterministic
// rules plus the anti-self-match and role-integrity invariants. The advisor
// is a hint, never ground truth.
func (e *Engine) acceptProposal(
	ctx context.Context,
	proposal Proposal,
	anchorByID, proofByID map[string]*models.Expense,
	matchedAnchors, usedProofs map[string]bool,
	result *Result,
) {
	reject := func(reason string) {
		e.logger.WithFields(logger.Fields{
			"anchor_id": proposal.AnchorID,
			"proof_id":  proposal.ProofID,
			"reason":    reason,
		}).Debug("Discarding advisory proposal")
		result.Mismatches = append(result.Mismatches, Mismatch{
			AnchorID: proposal.AnchorID,
			ProofID:  proposal.ProofID,
			Reason:   reason,
		})
	}

	if proposal.AnchorID == proposal.ProofID {
		reject(apperrors.IntegrityError(apperrors.CodeSelfMatch, "proposal pairs a record with itself").Message)
		return
	}

	anchor, ok := anchorByID[proposal.AnchorID]
	if !ok {
		reject("unknown anchor id")
		return
	}
	proof, ok := proofByID[proposal.ProofID]
	if !ok {
		reject("unknown proof id")
		return
	}

	// Defense in depth: the index construction already guarantees roles, but
	// a violation here means a partitioning bug and must be rejected.
	if anchor.Role() != models.RoleAnchor || proof.Role() != models.RoleProof {
		reject(apperrors.IntegrityError(apperrors.CodeRoleViolation, "proposal violates anchor/proof roles").Message)
		return
	}

	if matchedAnchors[anchor.ID] || usedProofs[proof.ID] {
		return
	}

	if !e.matcher.MerchantMatch(anchor.Merchant, proof.Merchant) {
		reject("merchant mismatch")
		return
	}

	window := e.matcher.Config().WindowFor(anchor.IsLodging() || proof.IsLodging())
	if !e.matcher.WithinWindow(anchor.Date, proof.Date, window) {
		reject(fmt.Sprintf("outside %d-day window", window))
		return
	}

	parity, degraded := e.matcher.AmountParityDegraded(ctx,
		match.Money{Amount: anchor.Amount, Currency: anchor.Currency},
		match.Money{Amount: proof.Amount, Currency: proof.Currency})
	if degraded {
		result.DegradedConversions++
	}
	if !parity {
		reject("amount parity failed")
		return
	}

	justification := proposal.Justification
	if justification == "" {
		justification = fmt.Sprintf("advisory proposal validated: merchant match, %d-day window, amount parity", window)
	}

	matchedAnchors[anchor.ID] = true
	usedProofs[proof.ID] = true
	result.Matches = append(result.Matches, &Match{
		Anchor:        anchor,
		Proof:         proof,
		Label:         LabelAdvisory,
		Justification: justification,
	})
}

// fallbackPass runs the greedy nearest-proof search for anchors still
// unmatched: the first proof in stable pool order satisfying merchant, the
// tight date window, and amount parity wins and is removed from the pool.
func (e *Engine) fallbackPass(
	ctx context.Context,
	anchors, proofs []*models.Expense,
	matchedAnchors, usedProofs map[string]bool,
	result *Result,
) {
	for _, anchor := range anchors {
		if matchedAnchors[anchor.ID] {
			continue
		}

		for _, proof := range proofs {
			if usedProofs[proof.ID] || anchor.ID == proof.ID {
				continue
			}

			if !e.matcher.MerchantMatch(anchor.Merchant, proof.Merchant) {
				continue
			}

			window := e.matcher.Config().FallbackWindowFor(anchor.IsLodging() || proof.IsLodging())
			if !e.matcher.WithinWindow(anchor.Date, proof.Date, window) {
				continue
			}

			parity, degraded := e.matcher.AmountParityDegraded(ctx,
				match.Money{Amount: anchor.Amount, Currency: anchor.Currency},
				match.Money{Amount: proof.Amount, Currency: proof.Currency})
			if degraded {
				result.DegradedConversions++
			}
			if !parity {
				continue
			}

			matchedAnchors[anchor.ID] = true
			usedProofs[proof.ID] = true
			result.Matches = append(result.Matches, &Match{
				Anchor:        anchor,
				Proof:         proof,
				Label:         LabelHeuristic,
				Justification: fmt.Sprintf("merchant match, %d-day window, amount parity", window),
			})
			break
		}
	}
}

// classify splits the unmatched anchors into mandatory, optional, and
// standard missing items. Travel-suggesting merchants are mandatory; fees,
// VAT, transfers, and small base-currency amounts are optional; the rest is
// standard.
func (e *Engine) classify(ctx context.Context, result *Result) {
	for _, anchor := range result.UnmatchedAnchors {
		text := strings.ToLower(anchor.Merchant + " " + anchor.Category)

		switch {
		case containsAny(text, e.config.MandatoryKeywords):
			result.MandatoryMissing = append(result.MandatoryMissing, anchor)
		case containsAny(text, e.config.OptionalKeywords) || e.belowOptionalThreshold(ctx, anchor, result):
			result.OptionalMissing = append(result.OptionalMissing, anchor)
		default:
			result.StandardMissing = append(result.StandardMissing, anchor)
		}
	}
}

func (e *Engine) belowOptionalThreshold(ctx context.Context, anchor *models.Expense, result *Result) bool {
	conv := e.conv.ToBase(ctx, anchor.Amount.Abs(), anchor.Currency)
	if conv.Degraded {
		result.DegradedConversions++
	}
	return conv.Amount.LessThan(e.config.OptionalAmountThreshold)
}

// score computes the compliance score, excluding optional items from the
// denominator so low-stakes misses do not penalize compliance. A zero
// denominator is vacuously compliant.
func (e *Engine) score(result *Result) {
	matched := len(result.Matches)
	denominator := matched + len(result.MandatoryMissing) + len(result.StandardMissing)

	result.ScoreDefined = true
	if denominator == 0 {
		result.ComplianceScore = 100
		return
	}

	result.ComplianceScore = int(float64(matched)/float64(denominator)*100 + 0.5)
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(text, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

func indexByID(expenses []*models.Expense) map[string]*models.Expense {
	index := make(map[string]*models.Expense, len(expenses))
	for _, expense := range expenses {
		index[expense.ID] = expense
	}
	return index
}

// sortByDate sorts expenses by date, breaking ties by id for determinism.
func sortByDate(expenses []*models.Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		if expenses[i].Date.Equal(expenses[j].Date) {
			return expenses[i].ID < expenses[j].ID
		}
		return expenses[i].Date.Before(expenses[j].Date)
	})
}
