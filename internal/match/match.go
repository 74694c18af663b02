package match

import (
	"context"
	"strings"
	"time"

	"expense-audit-service/internal/currency"
	"expense-audit-service/internal/models"

	"github.com/shopspring/decimal"
)

// Money is an (amount, currency) pair offered for parity comparison.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// Matcher evaluates the deterministic identity rules. It is a pure predicate
// library; both engines hold one and neither mutates it after construction.
type Matcher struct {
	config   *Config
	synonyms synonymIndex
	conv     *currency.Converter
}

// NewMatcher creates a matcher with the given configuration and currency
// converter. A nil config falls back to defaults.
func NewMatcher(config *Config, conv *currency.Converter) *Matcher {
	if config == nil {
		config = DefaultConfig()
	}

	return &Matcher{
		config:   config,
		synonyms: buildSynonymIndex(config.SynonymGroups),
		conv:     conv,
	}
}

// Config returns the matcher configuration.
func (m *Matcher) Config() *Config {
	return m.config
}

// MerchantMatch reports whether two merchant names plausibly refer to the
// same merchant: the lowercase prefix of either name is contained in the
// other, or both names belong to one configured synonym group.
//
// This is an order-independent containment check, not edit distance; source
// strings are truncated and abbreviated unpredictably upstream.
func (m *Matcher) MerchantMatch(a, b string) bool {
	na, nb := normalizeMerchant(a), normalizeMerchant(b)
	if na == "" || nb == "" {
		return false
	}

	if strings.Contains(nb, prefix(na, m.config.MerchantPrefixLen)) ||
		strings.Contains(na, prefix(nb, m.config.MerchantPrefixLen)) {
		return true
	}

	return m.synonyms.sameGroup(a, b)
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// WithinWindow reports whether two calendar dates are at most maxDays whole
// days apart.
func (m *Matcher) WithinWindow(a, b time.Time, maxDays int) bool {
	return models.DaysBetween(a, b) <= maxDays
}

// WithinHotelWindow reports whether a hotel check-in date falls inside the
// asymmetric flight-verification window [flightDate-before, flightDate+after].
func (m *Matcher) WithinHotelWindow(checkIn, flightDate time.Time) bool {
	lower := models.Date(flightDate).AddDate(0, 0, -m.config.HotelWindowBeforeDays)
	upper := models.Date(flightDate).AddDate(0, 0, m.config.HotelWindowAfterDays)
	d := models.Date(checkIn)
	return !d.Before(lower) && !d.After(upper)
}

// AmountParity reports whether two amounts agree. Same-currency amounts must
// agree within a fixed minor-unit epsilon; cross-currency amounts are both
// normalized to base and must agree within the relative tolerance, absorbing
// rate-staleness error.
func (m *Matcher) AmountParity(ctx context.Context, a, b Money) bool {
	ok, _ := m.AmountParityDegraded(ctx, a, b)
	return ok
}

// AmountParityDegraded is AmountParity plus a flag reporting whether any
// degraded (identity) conversion was involved. Degraded comparisons still
// count as parity checks; they must not fail closed.
func (m *Matcher) AmountParityDegraded(ctx context.Context, a, b Money) (parity bool, degraded bool) {
	ca := strings.ToUpper(strings.TrimSpace(a.Currency))
	cb := strings.ToUpper(strings.TrimSpace(b.Currency))

	if ca == cb {
		diff := a.Amount.Abs().Sub(b.Amount.Abs()).Abs()
		return diff.LessThan(m.config.SameCurrencyEpsilon), false
	}

	baseA := m.conv.ToBase(ctx, a.Amount.Abs(), ca)
	baseB := m.conv.ToBase(ctx, b.Amount.Abs(), cb)
	degraded = baseA.Degraded || baseB.Degraded

	larger := decimal.Max(baseA.Amount, baseB.Amount)
	if larger.IsZero() {
		return true, degraded
	}

	relative := baseA.Amount.Sub(baseB.Amount).Abs().Div(larger)
	return relative.LessThan(m.config.CrossCurrencyTolerance), degraded
}

// CityOverlap reports whether two city names textually overlap, substring in
// either direction. Known to false-positive on short city names; kept as
// specified product behavior.
func CityOverlap(a, b string) bool {
	na := strings.ToLower(strings.TrimSpace(a))
	nb := strings.ToLower(strings.TrimSpace(b))
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
