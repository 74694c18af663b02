package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors.
//
// The taxonomy mirrors how the audit engines fail: collaborator failures are
// recovered locally, integrity violations are defensive rejections, and
// structural errors exclude a single record rather than aborting a run.
type ErrorCategory string

const (
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryStructural    ErrorCategory = "structural"
	CategoryIntegrity     ErrorCategory = "integrity"
	CategoryCollaborator  ErrorCategory = "collaborator"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Structural input errors
	CodeInvalidDate    ErrorCode = "invalid_date"
	CodeInvalidAmount  ErrorCode = "invalid_amount"
	CodeMissingField   ErrorCode = "missing_field"
	CodeInvalidFormat  ErrorCode = "invalid_format"
	CodeUnknownRecord  ErrorCode = "unknown_record"
	CodeDuplicateEntry ErrorCode = "duplicate_entry"

	// Data integrity violations
	CodeSelfMatch     ErrorCode = "self_match"
	CodeRoleViolation ErrorCode = "role_violation"
	CodeBrokenLink    ErrorCode = "broken_link"

	// Collaborator failures
	CodeAdvisorFailed  ErrorCode = "advisor_failed"
	CodeRateLimited    ErrorCode = "rate_limited"
	CodeRateFetchStale ErrorCode = "rate_fetch_stale"
	CodeStoreFailed    ErrorCode = "store_failed"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// AuditError is the base error type for all application errors
type AuditError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *AuditError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *AuditError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *AuditError) GetExitCode() int {
	switch e.Category {
	case CategoryConfiguration:
		return 2
	case CategoryStructural:
		return 3
	case CategoryIntegrity:
		return 4
	case CategoryCollaborator:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *AuditError) WithContext(key string, value interface{}) *AuditError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *AuditError) WithSuggestion(suggestion string) *AuditError {
	e.Suggestion = suggestion
	return e
}

// New creates a new AuditError
func New(category ErrorCategory, code ErrorCode, message string) *AuditError {
	return &AuditError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with AuditError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *AuditError {
	if err == nil {
		return nil
	}

	return &AuditError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// StructuralError creates an error for a malformed input record. Records that
// fail structurally are excluded from the run, never fatal to it.
func StructuralError(code ErrorCode, field string, cause error) *AuditError {
	e := &AuditError{
		Category: CategoryStructural,
		Code:     code,
		Message:  fmt.Sprintf("invalid record field: %s", field),
		Cause:    cause,
	}
	if cause != nil {
		e.StackTrace = errors.WithStack(cause).(stackTracer).StackTrace()
	} else {
		e.StackTrace = errors.New("").(stackTracer).StackTrace()
	}
	return e.WithContext("field", field)
}

// IntegrityError creates an error for a data integrity violation, such as an
// anchor being matched against another anchor.
func IntegrityError(code ErrorCode, message string) *AuditError {
	return New(CategoryIntegrity, code, message).
		WithSuggestion("this indicates a partitioning bug upstream; the pair was rejected")
}

// CollaboratorError wraps a failure from an external collaborator. These are
// always recoverable; the caller falls back to degraded behavior.
func CollaboratorError(code ErrorCode, collaborator string, cause error) *AuditError {
	return Wrap(cause, CategoryCollaborator, code,
		fmt.Sprintf("collaborator %s failed", collaborator)).
		WithContext("collaborator", collaborator)
}

// ConfigError creates a configuration error
func ConfigError(code ErrorCode, message string) *AuditError {
	return New(CategoryConfiguration, code, message)
}

// IsCategory reports whether err is an AuditError in the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var ae *AuditError
	if errors.As(err, &ae) {
		return ae.Category == category
	}
	return false
}

// IsCode reports whether err is an AuditError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AuditError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}
