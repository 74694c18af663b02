package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"expense-audit-service/cmd/auditor/config"
	"expense-audit-service/internal/currency"
	"expense-audit-service/internal/extract"
	"expense-audit-service/internal/match"
	"expense-audit-service/internal/models"
	"expense-audit-service/internal/parsers"
	"expense-audit-service/internal/recon"
	"expense-audit-service/internal/reporter"
	"expense-audit-service/internal/store"
	"expense-audit-service/internal/travel"
	"expense-audit-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the audit command
var (
	expenseFile string
	travelFile  string
	month       string
	year        int
	account     string

	outputFormat string
	outputFile   string
	ratesFile    string
	fileReport   bool

	homeCities    []string
	homeCountries []string
	synonymGroups []string

	merchantPrefixLen  int
	windowDays         int
	lodgingWindowDays  int
	fallbackWindowDays int
	amountEpsilon      float64
	crossTolerance     float64
	optionalThreshold  float64
	advisorBatchSize   int

	showMismatches bool
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Link travel records and reconcile expenses for a period",
	Long: `Audit runs the full pipeline over expense and travel record files:
travel records are deduplicated and linked into trips (hotel verification,
return bridging), then bank statement lines for the requested period are
reconciled against the proof document pool.

Input files are JSON arrays of extraction candidates. Malformed records are
skipped individually and never abort the run.

Examples:
  # Reconcile March 2025
  auditor audit --expense-file expenses.json --month march --year 2025

  # Full pipeline with travel linkage and a pinned rate table
  auditor audit --expense-file expenses.json --travel-file travel.json \
    --month march --year 2025 --rates-file rates.json \
    --home-city muscat --home-country oman

  # Whole-year JSON report for one account, filed as a snapshot
  auditor audit --expense-file expenses.json --month all --year 2025 \
    --account ACC-7731 --output-format json --file-report`,

	PreRunE: validateAuditFlags,
	RunE:    runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	// Required flags
	auditCmd.Flags().StringVarP(&expenseFile, "expense-file", "e", "", "path to expense candidate JSON file (required)")
	auditCmd.Flags().StringVarP(&month, "month", "m", "", "audit month name, or 'all' for the whole year (required)")
	auditCmd.Flags().IntVarP(&year, "year", "y", 0, "audit year (required)")

	// Optional inputs
	auditCmd.Flags().StringVarP(&travelFile, "travel-file", "t", "", "path to travel candidate JSON file")
	auditCmd.Flags().StringVar(&account, "account", "", "restrict anchors to one bank account id")
	auditCmd.Flags().StringVar(&ratesFile, "rates-file", "", "path to pinned currency rate table (JSON)")

	// Output flags
	auditCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json")
	auditCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	auditCmd.Flags().BoolVar(&fileReport, "file-report", false, "file an immutable report snapshot for the period")
	auditCmd.Flags().BoolVar(&showMismatches, "show-mismatches", false, "include discarded advisory proposals in output")

	// Home jurisdiction flags
	auditCmd.Flags().StringSliceVar(&homeCities, "home-city", nil, "home jurisdiction city patterns")
	auditCmd.Flags().StringSliceVar(&homeCountries, "home-country", nil, "home jurisdiction country patterns")

	// Matching tolerance flags
	auditCmd.Flags().StringSliceVar(&synonymGroups, "merchant-synonyms", nil, "merchant alias groups as name=alias=alias")
	auditCmd.Flags().IntVar(&merchantPrefixLen, "merchant-prefix-len", 0, "merchant prefix length for containment matching")
	auditCmd.Flags().IntVar(&windowDays, "window-days", 0, "date window in days for ordinary transactions")
	auditCmd.Flags().IntVar(&lodgingWindowDays, "lodging-window-days", 0, "date window in days for lodging transactions")
	auditCmd.Flags().IntVar(&fallbackWindowDays, "fallback-window-days", 0, "date window in days for the heuristic fallback pass")
	auditCmd.Flags().Float64Var(&amountEpsilon, "amount-epsilon", 0, "same-currency amount tolerance")
	auditCmd.Flags().Float64Var(&crossTolerance, "cross-tolerance", 0, "cross-currency relative tolerance (0.05 = 5%)")
	auditCmd.Flags().Float64Var(&optionalThreshold, "optional-threshold", 0, "base-currency amount below which unmatched anchors are optional")
	auditCmd.Flags().IntVar(&advisorBatchSize, "advisor-batch-size", 0, "anchors per advisory matcher request")

	// Mark required flags
	auditCmd.MarkFlagRequired("expense-file")
	auditCmd.MarkFlagRequired("month")
	auditCmd.MarkFlagRequired("year")

	// Bind flags to viper
	viper.BindPFlag("expense-file", auditCmd.Flags().Lookup("expense-file"))
	viper.BindPFlag("travel-file", auditCmd.Flags().Lookup("travel-file"))
	viper.BindPFlag("month", auditCmd.Flags().Lookup("month"))
	viper.BindPFlag("year", auditCmd.Flags().Lookup("year"))
	viper.BindPFlag("account", auditCmd.Flags().Lookup("account"))
	viper.BindPFlag("output-format", auditCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", auditCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("rates-file", auditCmd.Flags().Lookup("rates-file"))
	viper.BindPFlag("home-city", auditCmd.Flags().Lookup("home-city"))
	viper.BindPFlag("home-country", auditCmd.Flags().Lookup("home-country"))
}

func validateAuditFlags(cmd *cobra.Command, args []string) error {
	// Viper values win so the config file can override defaults
	expenseFile = viper.GetString("expense-file")
	travelFile = viper.GetString("travel-file")
	month = viper.GetString("month")
	year = viper.GetInt("year")
	account = viper.GetString("account")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	ratesFile = viper.GetString("rates-file")
	if cities := viper.GetStringSlice("home-city"); len(cities) > 0 {
		homeCities = cities
	}
	if countries := viper.GetStringSlice("home-country"); len(countries) > 0 {
		homeCountries = countries
	}

	if err := validateFileExists(expenseFile, "expense file"); err != nil {
		return err
	}
	if travelFile != "" {
		if err := validateFileExists(travelFile, "travel file"); err != nil {
			return err
		}
	}
	if ratesFile != "" {
		if err := validateFileExists(ratesFile, "rates file"); err != nil {
			return err
		}
	}

	if _, err := models.NewPeriod(month, year, account); err != nil {
		return err
	}

	if outputFormat != "console" && outputFormat != "json" {
		return fmt.Errorf("invalid output format %q: use console or json", outputFormat)
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(path, description string) error {
	if path == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, path)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, path)
	}
	return nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	period, err := models.NewPeriod(month, year, account)
	if err != nil {
		return err
	}

	matchConfig, err := config.CreateMatchConfig(config.MatchingOverrides{
		MerchantPrefixLen:      merchantPrefixLen,
		DefaultWindowDays:      windowDays,
		LodgingWindowDays:      lodgingWindowDays,
		FallbackWindowDays:     fallbackWindowDays,
		SameCurrencyEpsilon:    amountEpsilon,
		CrossCurrencyTolerance: crossTolerance,
		SynonymGroups:          synonymGroups,
	})
	if err != nil {
		return err
	}

	rateSource, err := config.LoadRateSource(ratesFile)
	if err != nil {
		return err
	}
	converter := currency.NewConverter(rateSource, currency.DefaultStaleAfter)
	matcher := match.NewMatcher(matchConfig, converter)

	// Load inputs
	validator := extract.NewCandidateValidator()
	expenses, expenseStats, err := parsers.LoadExpenseFile(expenseFile, validator)
	if err != nil {
		return err
	}

	recordStore := store.NewMemoryStore()
	for _, expense := range expenses {
		if err := recordStore.UpsertExpense(ctx, expense); err != nil {
			return err
		}
	}

	output, err := openOutput(outputFile)
	if err != nil {
		return err
	}
	if outputFile != "" {
		defer output.Close()
	}

	reporterConfig, err := config.CreateReporterConfig(outputFormat, showMismatches)
	if err != nil {
		return err
	}
	generator, err := reporter.NewGenerator(reporterConfig)
	if err != nil {
		return err
	}

	// Travel linkage pass
	if travelFile != "" {
		travelConfig, err := config.CreateTravelConfig(homeCities, homeCountries)
		if err != nil {
			return err
		}

		records, travelStats, err := parsers.LoadTravelFile(travelFile, validator)
		if err != nil {
			return err
		}

		travelEngine := travel.NewEngine(travelConfig, matcher)
		linked, ingest := travelEngine.Run(nil, records)

		for _, record := range linked {
			if err := recordStore.UpsertTravelLog(ctx, record); err != nil {
				return err
			}
		}

		view := reporter.NewTravelIngestView(len(ingest.Accepted), len(ingest.Duplicates), len(ingest.Rejected)+travelStats.Rejected)
		if err := generator.WriteTravelSummary(linked, view, output); err != nil {
			return err
		}
		fmt.Fprintln(output)
	}

	// Reconciliation pass
	reconConfig, err := config.CreateReconConfig(advisorBatchSize, optionalThreshold)
	if err != nil {
		return err
	}

	engine, err := recon.NewEngine(reconConfig, matcher, converter, nil)
	if err != nil {
		return err
	}

	var result *recon.Result
	err = logger.TimedOperation("reconcile", nil, func() error {
		var runErr error
		result, runErr = engine.Reconcile(ctx, expenses, period)
		return runErr
	})
	if err != nil {
		return err
	}

	var report *models.ReconciliationReport
	if fileReport {
		report = engine.BuildReport(ctx, result)
		if err := recordStore.FileReport(ctx, report); err != nil {
			return err
		}
	}

	if err := generator.WriteResult(result, report, output); err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nLoaded %d expenses (%d rejected).\n", expenseStats.Loaded, expenseStats.Rejected)
		fmt.Fprintf(os.Stderr, "Matched %d anchors, %d mandatory missing, %d standard missing, %d optional missing.\n",
			len(result.Matches), len(result.MandatoryMissing), len(result.StandardMissing), len(result.OptionalMissing))
	}

	return nil
}

func openOutput(path string) (*os.File, error) {
	if path == "" {
		return os.Stdout, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, nil
}
