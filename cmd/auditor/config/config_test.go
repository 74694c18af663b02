package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCreateMatchConfigDefaults(t *testing.T) {
	config, err := CreateMatchConfig(MatchingOverrides{})
	if err != nil {
		t.Fatalf("empty overrides should produce the defaults: %v", err)
	}

	if config.MerchantPrefixLen != 4 || config.DefaultWindowDays != 7 {
		t.Errorf("defaults not applied: prefix %d, window %d",
			config.MerchantPrefixLen, config.DefaultWindowDays)
	}
}

func TestCreateMatchConfigOverrides(t *testing.T) {
	config, err := CreateMatchConfig(MatchingOverrides{
		DefaultWindowDays:      10,
		SameCurrencyEpsilon:    0.05,
		CrossCurrencyTolerance: 0.1,
	})
	if err != nil {
		t.Fatalf("overrides rejected: %v", err)
	}

	if config.DefaultWindowDays != 10 {
		t.Errorf("window override not applied: %d", config.DefaultWindowDays)
	}
	if !config.SameCurrencyEpsilon.Equal(decimal.NewFromFloat(0.05)) {
		t.Errorf("epsilon override not applied: %s", config.SameCurrencyEpsilon)
	}
	// Untouched fields keep their defaults
	if config.LodgingWindowDays != 14 {
		t.Errorf("lodging window changed unexpectedly: %d", config.LodgingWindowDays)
	}
}

func TestCreateMatchConfigSynonyms(t *testing.T) {
	config, err := CreateMatchConfig(MatchingOverrides{
		SynonymGroups: []string{"Talabat=TLB Services", "Careem= CRM "},
	})
	if err != nil {
		t.Fatalf("synonym parsing failed: %v", err)
	}
	if len(config.SynonymGroups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(config.SynonymGroups))
	}
	if config.SynonymGroups[1][1] != "CRM" {
		t.Errorf("synonym names should be trimmed, got %q", config.SynonymGroups[1][1])
	}

	if _, err := CreateMatchConfig(MatchingOverrides{SynonymGroups: []string{"alone"}}); err == nil {
		t.Error("single-member group should be rejected")
	}
}

func TestCreateTravelConfig(t *testing.T) {
	config, err := CreateTravelConfig([]string{"muscat"}, []string{"oman"})
	if err != nil {
		t.Fatalf("travel config rejected: %v", err)
	}
	if !config.IsHome("Muscat", "") {
		t.Error("home city pattern not applied")
	}

	if _, err := CreateTravelConfig([]string{"  "}, nil); err == nil {
		t.Error("blank home pattern should be rejected")
	}
}

func TestCreateReconConfig(t *testing.T) {
	config, err := CreateReconConfig(5, 25)
	if err != nil {
		t.Fatalf("recon config rejected: %v", err)
	}
	if config.AdvisorBatchSize != 5 {
		t.Errorf("batch size override not applied: %d", config.AdvisorBatchSize)
	}
	if !config.OptionalAmountThreshold.Equal(decimal.NewFromInt(25)) {
		t.Errorf("threshold override not applied: %s", config.OptionalAmountThreshold)
	}

	defaults, err := CreateReconConfig(0, 0)
	if err != nil {
		t.Fatalf("zero overrides rejected: %v", err)
	}
	if defaults.AdvisorBatchSize != 15 {
		t.Errorf("default batch size = %d, want 15", defaults.AdvisorBatchSize)
	}
}

func TestCreateReporterConfig(t *testing.T) {
	if _, err := CreateReporterConfig("console", false); err != nil {
		t.Errorf("console format rejected: %v", err)
	}
	if _, err := CreateReporterConfig("json", true); err != nil {
		t.Errorf("json format rejected: %v", err)
	}
	if _, err := CreateReporterConfig("yaml", false); err == nil {
		t.Error("unknown format should be rejected")
	}
}

func TestLoadRateSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rates.json")

	content := `{
		"base_currency": "omr",
		"rates": {"aed": "0.105", "USD": "0.385"},
		"as_of": "2025-03-01T00:00:00Z"
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write rates file: %v", err)
	}

	source, err := LoadRateSource(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	table, err := source.GetRates(context.Background())
	if err != nil {
		t.Fatalf("static source should never fail: %v", err)
	}
	if table.BaseCurrency != "OMR" {
		t.Errorf("base currency should be upper-cased, got %q", table.BaseCurrency)
	}
	if rate, ok := table.RateFor("AED"); !ok || !rate.Equal(decimal.RequireFromString("0.105")) {
		t.Errorf("AED rate = %s (found %v)", rate, ok)
	}
}

func TestLoadRateSourceEmptyPath(t *testing.T) {
	source, err := LoadRateSource("")
	if err != nil || source != nil {
		t.Errorf("empty path should yield a nil source, got %v, %v", source, err)
	}
}

func TestLoadRateSourceErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadRateSource(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file should fail")
	}

	noBase := filepath.Join(dir, "nobase.json")
	os.WriteFile(noBase, []byte(`{"rates": {"AED": "0.105"}}`), 0644)
	if _, err := LoadRateSource(noBase); err == nil {
		t.Error("missing base_currency should fail")
	}

	badRate := filepath.Join(dir, "badrate.json")
	os.WriteFile(badRate, []byte(`{"base_currency": "OMR", "rates": {"AED": "n/a"}}`), 0644)
	if _, err := LoadRateSource(badRate); err == nil {
		t.Error("unparseable rate should fail")
	}
}
