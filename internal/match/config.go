// Package match provides the fuzzy-identity primitives shared by the travel
// linkage and reconciliation engines: merchant fuzzy equality, date-window
// membership, and currency-normalized amount parity.
//
// The primitives are deliberately loose. Source strings are truncated and
// abbreviated unpredictably by upstream systems, so merchant matching is a
// prefix-containment check rather than edit distance, and cross-currency
// amounts tolerate rate-staleness error.
package match

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Config holds the tolerance parameters for identity matching.
//
// Date windows are category-sensitive: ordinary transactions settle within a
// week of their proof, lodging can drift up to two weeks, and the heuristic
// fallback pass uses the tightest window. Hotel-to-flight verification has
// its own asymmetric window since check-in can slightly precede or follow a
// flight's arrival.
type Config struct {
	// MerchantPrefixLen is the number of leading characters compared in the
	// containment check.
	MerchantPrefixLen int `json:"merchant_prefix_len"`

	// SynonymGroups lists sets of merchant names known to alias each other.
	SynonymGroups [][]string `json:"synonym_groups"`

	// DefaultWindowDays is the date tolerance for ordinary transactions.
	DefaultWindowDays int `json:"default_window_days"`

	// LodgingWindowDays is the date tolerance for lodging/hotel items.
	LodgingWindowDays int `json:"lodging_window_days"`

	// FallbackWindowDays is the tightest window, used by the heuristic
	// fallback pass.
	FallbackWindowDays int `json:"fallback_window_days"`

	// HotelWindowBeforeDays and HotelWindowAfterDays bound hotel check-in
	// relative to a flight's departure date for flight-hotel verification.
	HotelWindowBeforeDays int `json:"hotel_window_before_days"`
	HotelWindowAfterDays  int `json:"hotel_window_after_days"`

	// SameCurrencyEpsilon is the absolute tolerance when both amounts share a
	// currency (minor-unit scale).
	SameCurrencyEpsilon decimal.Decimal `json:"same_currency_epsilon"`

	// CrossCurrencyTolerance is the relative tolerance after base conversion
	// when currencies differ (0.05 = 5%).
	CrossCurrencyTolerance decimal.Decimal `json:"cross_currency_tolerance"`
}

// DefaultConfig returns the tolerances used in production.
func DefaultConfig() *Config {
	return &Config{
		MerchantPrefixLen:      4,
		DefaultWindowDays:      7,
		LodgingWindowDays:      14,
		FallbackWindowDays:     3,
		HotelWindowBeforeDays:  1,
		HotelWindowAfterDays:   2,
		SameCurrencyEpsilon:    decimal.NewFromFloat(0.01),
		CrossCurrencyTolerance: decimal.NewFromFloat(0.05),
		SynonymGroups:          nil,
	}
}

// Validate checks if the matching configuration is valid
func (c *Config) Validate() error {
	if c.MerchantPrefixLen <= 0 {
		return fmt.Errorf("merchant prefix length must be positive: %d", c.MerchantPrefixLen)
	}

	if c.DefaultWindowDays < 0 || c.LodgingWindowDays < 0 || c.FallbackWindowDays < 0 {
		return fmt.Errorf("date windows cannot be negative")
	}

	if c.HotelWindowBeforeDays < 0 || c.HotelWindowAfterDays < 0 {
		return fmt.Errorf("hotel verification window cannot be negative")
	}

	if c.SameCurrencyEpsilon.IsNegative() {
		return fmt.Errorf("same-currency epsilon cannot be negative: %s", c.SameCurrencyEpsilon)
	}

	if c.CrossCurrencyTolerance.IsNegative() || c.CrossCurrencyTolerance.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("cross-currency tolerance must be between 0 and 1: %s", c.CrossCurrencyTolerance)
	}

	for i, group := range c.SynonymGroups {
		if len(group) < 2 {
			return fmt.Errorf("synonym group %d needs at least two names", i)
		}
	}

	return nil
}

// Clone creates a deep copy of the matching configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := *c
	clone.SynonymGroups = make([][]string, len(c.SynonymGroups))
	for i, group := range c.SynonymGroups {
		clone.SynonymGroups[i] = append([]string(nil), group...)
	}
	return &clone
}

// WindowFor returns the date window in days for an expense category.
func (c *Config) WindowFor(lodging bool) int {
	if lodging {
		return c.LodgingWindowDays
	}
	return c.DefaultWindowDays
}

// FallbackWindowFor returns the heuristic-fallback window for a category.
// Lodging keeps its wide window even in the fallback pass; stays span many
// days and the tight window would reject legitimate proofs.
func (c *Config) FallbackWindowFor(lodging bool) int {
	if lodging {
		return c.LodgingWindowDays
	}
	return c.FallbackWindowDays
}

func normalizeMerchant(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// synonymIndex maps a normalized merchant name to its group number.
type synonymIndex map[string]int

func buildSynonymIndex(groups [][]string) synonymIndex {
	index := make(synonymIndex)
	for i, group := range groups {
		for _, name := range group {
			index[normalizeMerchant(name)] = i
		}
	}
	return index
}

// sameGroup reports whether both names belong to one configured alias group.
func (si synonymIndex) sameGroup(a, b string) bool {
	ga, ok := si[normalizeMerchant(a)]
	if !ok {
		return false
	}
	gb, ok := si[normalizeMerchant(b)]
	return ok && ga == gb
}
