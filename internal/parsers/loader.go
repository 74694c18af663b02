// Package parsers loads candidate record files for the CLI. Input files are
// JSON arrays of extraction candidates; each record is validated
// independently so one malformed entry never aborts the batch.
package parsers

import (
	"encoding/json"
	"fmt"
	"os"

	"expense-audit-service/internal/extract"
	"expense-audit-service/internal/models"
	apperrors "expense-audit-service/pkg/errors"
	"expense-audit-service/pkg/logger"
)

// LoadStats summarizes one file load.
type LoadStats struct {
	Loaded   int `json:"loaded"`
	Rejected int `json:"rejected"`
}

// LoadExpenseFile reads a JSON array of expense candidates and converts them
// into typed expenses. Structurally invalid candidates are counted and
// skipped.
func LoadExpenseFile(path string, cv *extract.CandidateValidator) ([]*models.Expense, *LoadStats, error) {
	log := logger.GetGlobalLogger().WithComponent("expense_loader").WithField("file", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CategoryStructural, apperrors.CodeInvalidFormat,
			fmt.Sprintf("cannot read expense file %s", path))
	}

	var candidates []extract.ExpenseCandidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CategoryStructural, apperrors.CodeInvalidFormat,
			fmt.Sprintf("expense file %s is not a JSON candidate array", path))
	}

	stats := &LoadStats{}
	expenses := make([]*models.Expense, 0, len(candidates))
	for i, candidate := range candidates {
		expense, err := cv.Expense(candidate)
		if err != nil {
			log.WithError(err).WithField("index", i).Warn("Skipping malformed expense candidate")
			stats.Rejected++
			continue
		}
		expenses = append(expenses, expense)
		stats.Loaded++
	}

	log.WithFields(logger.Fields{"loaded": stats.Loaded, "rejected": stats.Rejected}).Debug("Expense file loaded")
	return expenses, stats, nil
}

// LoadTravelFile reads a JSON array of travel candidates and converts them
// into typed travel records.
func LoadTravelFile(path string, cv *extract.CandidateValidator) ([]*models.TravelLog, *LoadStats, error) {
	log := logger.GetGlobalLogger().WithComponent("travel_loader").WithField("file", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CategoryStructural, apperrors.CodeInvalidFormat,
			fmt.Sprintf("cannot read travel file %s", path))
	}

	var candidates []extract.TravelCandidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CategoryStructural, apperrors.CodeInvalidFormat,
			fmt.Sprintf("travel file %s is not a JSON candidate array", path))
	}

	stats := &LoadStats{}
	records := make([]*models.TravelLog, 0, len(candidates))
	for i, candidate := range candidates {
		record, err := cv.TravelLog(candidate)
		if err != nil {
			log.WithError(err).WithField("index", i).Warn("Skipping malformed travel candidate")
			stats.Rejected++
			continue
		}
		records = append(records, record)
		stats.Loaded++
	}

	log.WithFields(logger.Fields{"loaded": stats.Loaded, "rejected": stats.Rejected}).Debug("Travel file loaded")
	return records, stats, nil
}
