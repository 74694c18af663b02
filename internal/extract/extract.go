// Package extract defines the boundary to the external document extraction
// collaborator and the validation of its untrusted output.
//
// Extraction quality is out of scope here: the service is a black box that
// turns raw documents into candidate records. Candidates are structurally
// validated before they become typed records; every domain invariant is then
// re-established by the engines, never assumed from the extractor.
package extract

import (
	"context"
	"strings"
	"time"

	"expense-audit-service/internal/models"
	apperrors "expense-audit-service/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Document is one raw input document handed to the extraction service.
type Document struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Content  []byte `json:"content"`
}

// Hints carry optional guidance for the extraction service.
type Hints struct {
	DocumentType string `json:"document_type,omitempty"`
	Period       string `json:"period,omitempty"`
}

// ExpenseCandidate is an untrusted expense record proposed by the extractor.
type ExpenseCandidate struct {
	ID       string `json:"id"`
	Merchant string `json:"merchant" validate:"required"`
	Amount   string `json:"amount" validate:"required"`
	Currency string `json:"currency" validate:"required,len=3,alpha"`
	Date     string `json:"date" validate:"required"`
	Category string `json:"category"`
	Source   string `json:"source" validate:"required"`
	BankID   string `json:"bank_id"`
}

// TravelCandidate is an untrusted travel record proposed by the extractor.
type TravelCandidate struct {
	ID                 string `json:"id"`
	TravelType         string `json:"travel_type" validate:"required,oneof=flight accommodation"`
	OriginCity         string `json:"origin_city"`
	OriginCountry      string `json:"origin_country"`
	DestinationCity    string `json:"destination_city" validate:"required"`
	DestinationCountry string `json:"destination_country"`
	StartDate          string `json:"start_date" validate:"required"`
	EndDate            string `json:"end_date"`
	ReferenceNumber    string `json:"reference_number"`
	DocumentID         string `json:"document_id"`
}

// Result is the extraction service's output for a batch of documents.
type Result struct {
	ExpenseCandidates []ExpenseCandidate `json:"expense_candidates"`
	TravelCandidates  []TravelCandidate  `json:"travel_candidates"`
}

// Extractor is the external extraction collaborator.
type Extractor interface {
	Extract(ctx context.Context, documents []Document, hints Hints) (*Result, error)
}

// CandidateValidator converts untrusted candidates into typed records,
// rejecting structurally malformed ones record-by-record.
type CandidateValidator struct {
	validate *validator.Validate
}

// NewCandidateValidator creates a candidate validator.
func NewCandidateValidator() *CandidateValidator {
	return &CandidateValidator{validate: validator.New()}
}

// Expense converts an expense candidate into a typed Expense. A structural
// error excludes the single record, never the batch.
func (cv *CandidateValidator) Expense(candidate ExpenseCandidate) (*models.Expense, error) {
	if err := cv.validate.Struct(candidate); err != nil {
		return nil, apperrors.StructuralError(apperrors.CodeMissingField, "expense candidate", err)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(candidate.Amount))
	if err != nil {
		return nil, apperrors.StructuralError(apperrors.CodeInvalidAmount, "amount", err)
	}

	date, err := models.ParseDate(candidate.Date)
	if err != nil {
		return nil, apperrors.StructuralError(apperrors.CodeInvalidDate, "date", err)
	}

	source := models.ExpenseSource(strings.ToLower(strings.TrimSpace(candidate.Source)))
	if !source.IsValid() {
		return nil, apperrors.StructuralError(apperrors.CodeInvalidFormat, "source", nil).
			WithContext("source", candidate.Source)
	}

	id := strings.TrimSpace(candidate.ID)
	if id == "" {
		id = models.NewID()
	}

	expense := &models.Expense{
		ID:       id,
		Merchant: strings.TrimSpace(candidate.Merchant),
		Amount:   amount,
		Currency: strings.ToUpper(strings.TrimSpace(candidate.Currency)),
		Date:     date,
		Category: strings.TrimSpace(candidate.Category),
		Source:   source,
		BankID:   strings.TrimSpace(candidate.BankID),
	}

	if err := expense.Validate(); err != nil {
		return nil, apperrors.StructuralError(apperrors.CodeInvalidFormat, "expense", err)
	}
	return expense, nil
}

// TravelLog converts a travel candidate into a typed TravelLog.
func (cv *CandidateValidator) TravelLog(candidate TravelCandidate) (*models.TravelLog, error) {
	if err := cv.validate.Struct(candidate); err != nil {
		return nil, apperrors.StructuralError(apperrors.CodeMissingField, "travel candidate", err)
	}

	start, err := models.ParseDate(candidate.StartDate)
	if err != nil {
		return nil, apperrors.StructuralError(apperrors.CodeInvalidDate, "start_date", err)
	}

	var end time.Time
	if strings.TrimSpace(candidate.EndDate) != "" {
		end, err = models.ParseDate(candidate.EndDate)
		if err != nil {
			return nil, apperrors.StructuralError(apperrors.CodeInvalidDate, "end_date", err)
		}
	}

	id := strings.TrimSpace(candidate.ID)
	if id == "" {
		id = models.NewID()
	}

	record := &models.TravelLog{
		ID:                 id,
		TravelType:         models.TravelType(strings.ToLower(strings.TrimSpace(candidate.TravelType))),
		OriginCity:         strings.TrimSpace(candidate.OriginCity),
		OriginCountry:      strings.TrimSpace(candidate.OriginCountry),
		DestinationCity:    strings.TrimSpace(candidate.DestinationCity),
		DestinationCountry: strings.TrimSpace(candidate.DestinationCountry),
		StartDate:          start,
		EndDate:            end,
		ReferenceNumber:    strings.TrimSpace(candidate.ReferenceNumber),
		DocumentID:         strings.TrimSpace(candidate.DocumentID),
	}

	if err := record.Validate(); err != nil {
		return nil, apperrors.StructuralError(apperrors.CodeInvalidFormat, "travel_log", err)
	}
	return record, nil
}
