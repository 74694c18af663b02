package store

import (
	"context"
	"sort"
	"sync"

	"expense-audit-service/internal/models"
	apperrors "expense-audit-service/pkg/errors"
)

// MemoryStore is an in-memory Store implementation used by the CLI and
// tests. Concurrent runs against the same records are assumed serialized by
// the calling layer; the mutex only guards map access.
type MemoryStore struct {
	mu      sync.RWMutex
	expense map[string]*models.Expense
	travel  map[string]*models.TravelLog
	reports map[string]*models.ReconciliationReport
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		expense: make(map[string]*models.Expense),
		travel:  make(map[string]*models.TravelLog),
		reports: make(map[string]*models.ReconciliationReport),
	}
}

// UpsertExpense appends or merges an expense by id.
func (s *MemoryStore) UpsertExpense(ctx context.Context, expense *models.Expense) error {
	if err := expense.Validate(); err != nil {
		return apperrors.StructuralError(apperrors.CodeInvalidFormat, "expense", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expense[expense.ID] = expense
	return nil
}

// UpsertTravelLog appends or merges a travel record by id.
func (s *MemoryStore) UpsertTravelLog(ctx context.Context, record *models.TravelLog) error {
	if err := record.Validate(); err != nil {
		return apperrors.StructuralError(apperrors.CodeInvalidFormat, "travel_log", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.travel[record.ID] = record
	return nil
}

// DeleteExpense removes an expense by id.
func (s *MemoryStore) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expense[id]; !ok {
		return apperrors.StructuralError(apperrors.CodeUnknownRecord, "expense_id", nil).WithContext("id", id)
	}
	delete(s.expense, id)
	return nil
}

// DeleteTravelLog removes a travel record by id.
func (s *MemoryStore) DeleteTravelLog(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.travel[id]; !ok {
		return apperrors.StructuralError(apperrors.CodeUnknownRecord, "travel_log_id", nil).WithContext("id", id)
	}
	delete(s.travel, id)
	return nil
}

// ListExpenses returns the full expense pool in stable id order.
func (s *MemoryStore) ListExpenses(ctx context.Context) ([]*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Expense, 0, len(s.expense))
	for _, e := range s.expense {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListTravelLogs returns the full travel record set in stable id order.
func (s *MemoryStore) ListTravelLogs(ctx context.Context) ([]*models.TravelLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.TravelLog, 0, len(s.travel))
	for _, t := range s.travel {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FileReport persists a report snapshot. Reports are immutable once filed;
// filing the same id twice is rejected.
func (s *MemoryStore) FileReport(ctx context.Context, report *models.ReconciliationReport) error {
	if err := report.Validate(); err != nil {
		return apperrors.StructuralError(apperrors.CodeInvalidFormat, "report", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[report.ID]; ok {
		return apperrors.New(apperrors.CategoryIntegrity, apperrors.CodeDuplicateEntry,
			"report already filed").WithContext("report_id", report.ID)
	}
	s.reports[report.ID] = report
	return nil
}

// ListReports returns all filed reports in stable id order.
func (s *MemoryStore) ListReports(ctx context.Context) ([]*models.ReconciliationReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ReconciliationReport, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
