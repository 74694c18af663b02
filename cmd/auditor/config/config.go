package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"expense-audit-service/internal/currency"
	"expense-audit-service/internal/match"
	"expense-audit-service/internal/recon"
	"expense-audit-service/internal/reporter"
	"expense-audit-service/internal/travel"

	"github.com/shopspring/decimal"
)

// MatchingOverrides carries the CLI tolerance flags applied on top of the
// production defaults. Zero values leave the default in place.
type MatchingOverrides struct {
	MerchantPrefixLen      int
	DefaultWindowDays      int
	LodgingWindowDays      int
	FallbackWindowDays     int
	SameCurrencyEpsilon    float64
	CrossCurrencyTolerance float64
	SynonymGroups          []string
}

// CreateMatchConfig creates a matching configuration with the CLI overrides
// applied.
func CreateMatchConfig(overrides MatchingOverrides) (*match.Config, error) {
	config := match.DefaultConfig()

	if overrides.MerchantPrefixLen > 0 {
		config.MerchantPrefixLen = overrides.MerchantPrefixLen
	}
	if overrides.DefaultWindowDays > 0 {
		config.DefaultWindowDays = overrides.DefaultWindowDays
	}
	if overrides.LodgingWindowDays > 0 {
		config.LodgingWindowDays = overrides.LodgingWindowDays
	}
	if overrides.FallbackWindowDays > 0 {
		config.FallbackWindowDays = overrides.FallbackWindowDays
	}
	if overrides.SameCurrencyEpsilon > 0 {
		config.SameCurrencyEpsilon = decimal.NewFromFloat(overrides.SameCurrencyEpsilon)
	}
	if overrides.CrossCurrencyTolerance > 0 {
		config.CrossCurrencyTolerance = decimal.NewFromFloat(overrides.CrossCurrencyTolerance)
	}

	groups, err := parseSynonymGroups(overrides.SynonymGroups)
	if err != nil {
		return nil, err
	}
	config.SynonymGroups = groups

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matching config: %w", err)
	}
	return config, nil
}

// parseSynonymGroups parses "name=alias=alias" flag values into alias groups.
func parseSynonymGroups(raw []string) ([][]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	groups := make([][]string, 0, len(raw))
	for _, entry := range raw {
		var group []string
		for _, name := range strings.Split(entry, "=") {
			if name = strings.TrimSpace(name); name != "" {
				group = append(group, name)
			}
		}
		if len(group) < 2 {
			return nil, fmt.Errorf("synonym group %q needs at least two names separated by '='", entry)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// CreateTravelConfig creates a travel engine configuration from the home
// jurisdiction flags.
func CreateTravelConfig(homeCities, homeCountries []string) (*travel.Config, error) {
	config := travel.DefaultConfig()
	config.HomeCities = homeCities
	config.HomeCountries = homeCountries

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid travel config: %w", err)
	}
	return config, nil
}

// CreateReconConfig creates a reconciliation engine configuration with the
// CLI overrides applied.
func CreateReconConfig(batchSize int, optionalThreshold float64) (*recon.Config, error) {
	config := recon.DefaultConfig()

	if batchSize > 0 {
		config.AdvisorBatchSize = batchSize
	}
	if optionalThreshold > 0 {
		config.OptionalAmountThreshold = decimal.NewFromFloat(optionalThreshold)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reconciliation config: %w", err)
	}
	return config, nil
}

// CreateReporterConfig creates a report configuration for the output format.
func CreateReporterConfig(format string, showMismatches bool) (*reporter.Config, error) {
	config := reporter.DefaultConfig()

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
	default:
		return nil, fmt.Errorf("invalid output format %q: use console or json", format)
	}

	config.IncludeMismatches = showMismatches
	return config, nil
}

// rateFile is the on-disk shape of a pinned rate table.
type rateFile struct {
	BaseCurrency string            `json:"base_currency"`
	Rates        map[string]string `json:"rates"`
	AsOf         string            `json:"as_of,omitempty"`
}

// LoadRateSource reads a pinned rate table from a JSON file and wraps it in a
// static rate source. An empty path yields a nil source; the converter then
// runs in degraded identity mode.
func LoadRateSource(path string) (currency.RateSource, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read rates file %s: %w", path, err)
	}

	var rf rateFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("rates file %s is not valid JSON: %w", path, err)
	}
	if strings.TrimSpace(rf.BaseCurrency) == "" {
		return nil, fmt.Errorf("rates file %s is missing base_currency", path)
	}

	table := &currency.RateTable{
		BaseCurrency: strings.ToUpper(strings.TrimSpace(rf.BaseCurrency)),
		Rates:        make(map[string]decimal.Decimal, len(rf.Rates)),
		AsOf:         time.Now().UTC(),
	}

	if rf.AsOf != "" {
		asOf, err := time.Parse(time.RFC3339, rf.AsOf)
		if err != nil {
			return nil, fmt.Errorf("rates file %s has invalid as_of timestamp: %w", path, err)
		}
		table.AsOf = asOf
	}

	for code, raw := range rf.Rates {
		rate, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("rates file %s has invalid rate for %s: %w", path, code, err)
		}
		table.Rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}

	return &currency.StaticSource{Table: table}, nil
}
