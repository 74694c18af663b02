// Package store defines the persistence collaborator boundary: per-record
// upserts keyed by id, with no engine-level transactional guarantee beyond
// last-writer-wins. The engines read the working set once per run and write a
// small number of point updates after computation.
package store

import (
	"context"

	"expense-audit-service/internal/models"
)

// Store is the persistence collaborator interface.
type Store interface {
	// UpsertExpense appends or merges a single expense by id.
	UpsertExpense(ctx context.Context, expense *models.Expense) error

	// UpsertTravelLog appends or merges a single travel record by id.
	UpsertTravelLog(ctx context.Context, record *models.TravelLog) error

	// DeleteExpense removes an expense. Engines never call this; deletion is
	// an explicit user action.
	DeleteExpense(ctx context.Context, id string) error

	// DeleteTravelLog removes a travel record.
	DeleteTravelLog(ctx context.Context, id string) error

	// ListExpenses returns the full expense pool.
	ListExpenses(ctx context.Context) ([]*models.Expense, error)

	// ListTravelLogs returns the full travel record set.
	ListTravelLogs(ctx context.Context) ([]*models.TravelLog, error)

	// FileReport persists a reconciliation report snapshot. Filing the same
	// report id twice is an error; reports are immutable once filed.
	FileReport(ctx context.Context, report *models.ReconciliationReport) error

	// ListReports returns all filed reports.
	ListReports(ctx context.Context) ([]*models.ReconciliationReport, error)
}
