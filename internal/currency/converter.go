// Package currency normalizes (amount, currency) pairs to a common base unit.
//
// Rate tables come from an external collaborator and are cached with a
// freshness window. A refresh failure never blocks matching: the converter
// serves the last-known-good table and, when a rate is missing entirely,
// falls back to an identity conversion flagged as degraded. Callers must not
// treat degraded conversions as authoritative for hard rejections.
package currency

import (
	"context"
	"strings"
	"sync"
	"time"

	"expense-audit-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// DefaultStaleAfter is the freshness window for cached rate tables.
const DefaultStaleAfter = 24 * time.Hour

// RateTable holds conversion rates to a base currency as of a point in time.
// Rates are multiplicative: amount_in_base = amount * rate.
type RateTable struct {
	BaseCurrency string                     `json:"base_currency"`
	Rates        map[string]decimal.Decimal `json:"rates"`
	AsOf         time.Time                  `json:"as_of"`
}

// RateFor looks up the rate-to-base for a currency code.
func (rt *RateTable) RateFor(code string) (decimal.Decimal, bool) {
	if rt == nil || rt.Rates == nil {
		return decimal.Zero, false
	}
	rate, ok := rt.Rates[strings.ToUpper(strings.TrimSpace(code))]
	return rate, ok
}

// RateSource is the external rate-table collaborator.
type RateSource interface {
	GetRates(ctx context.Context) (*RateTable, error)
}

// StaticSource is a RateSource backed by a fixed table. Used for tests and
// for deployments that pin rates in configuration.
type StaticSource struct {
	Table *RateTable
}

// GetRates returns the fixed table.
func (s *StaticSource) GetRates(ctx context.Context) (*RateTable, error) {
	return s.Table, nil
}

// Conversion is the result of normalizing an amount to the base currency.
// Degraded conversions used an identity rate because no table or rate was
// available; they still allow matching rather than failing closed.
type Conversion struct {
	Amount   decimal.Decimal
	Degraded bool
}

// Converter converts amounts to the base currency using a periodically
// refreshed rate table.
type Converter struct {
	mu         sync.RWMutex
	source     RateSource
	table      *RateTable
	fetchedAt  time.Time
	staleAfter time.Duration
	logger     logger.Logger
}

// NewConverter creates a converter over the given rate source. A nil source
// leaves the converter permanently degraded (identity conversions only).
func NewConverter(source RateSource, staleAfter time.Duration) *Converter {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}

	return &Converter{
		source:     source,
		staleAfter: staleAfter,
		logger:     logger.GetGlobalLogger().WithComponent("currency_converter"),
	}
}

// BaseCurrency returns the base currency of the current table, or "" when no
// table has been loaded yet.
func (c *Converter) BaseCurrency() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.table == nil {
		return ""
	}
	return c.table.BaseCurrency
}

// Refresh fetches a new rate table. On failure the last-known-good table is
// kept and the error is returned for logging; matching continues regardless.
func (c *Converter) Refresh(ctx context.Context) error {
	if c.source == nil {
		return nil
	}

	table, err := c.source.GetRates(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Rate table refresh failed, serving last-known-good")
		return err
	}
	if table == nil {
		c.logger.Warn("Rate source returned empty table, serving last-known-good")
		return nil
	}

	c.mu.Lock()
	c.table = table
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	c.logger.WithFields(logger.Fields{
		"base":  table.BaseCurrency,
		"rates": len(table.Rates),
		"as_of": table.AsOf,
	}).Debug("Rate table refreshed")

	return nil
}

// currentTable returns the cached table, refreshing it first when stale.
// Refresh failures degrade to the cached table.
func (c *Converter) currentTable(ctx context.Context) *RateTable {
	c.mu.RLock()
	table, fetchedAt := c.table, c.fetchedAt
	c.mu.RUnlock()

	if table != nil && time.Since(fetchedAt) < c.staleAfter {
		return table
	}

	// Stale or never fetched. Refresh errors are already logged; a stale
	// table is still better than none.
	_ = c.Refresh(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.table
}

// ToBase converts an amount in the given currency to the base currency.
// When the currency already is the base, the amount is returned unchanged.
// When no rate is available, the amount is returned 1:1 and flagged degraded.
func (c *Converter) ToBase(ctx context.Context, amount decimal.Decimal, code string) Conversion {
	code = strings.ToUpper(strings.TrimSpace(code))
	table := c.currentTable(ctx)

	if table == nil {
		return Conversion{Amount: amount, Degraded: true}
	}

	if strings.EqualFold(code, table.BaseCurrency) {
		return Conversion{Amount: amount}
	}

	rate, ok := table.RateFor(code)
	if !ok || rate.IsZero() {
		c.logger.WithField("currency", code).Debug("No rate for currency, using identity conversion")
		return Conversion{Amount: amount, Degraded: true}
	}

	return Conversion{Amount: amount.Mul(rate)}
}
