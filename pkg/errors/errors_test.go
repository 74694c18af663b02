package errors

import (
	"fmt"
	"testing"
)

func TestNewError(t *testing.T) {
	err := New(CategoryIntegrity, CodeSelfMatch, "record matched itself")

	if err.Category != CategoryIntegrity || err.Code != CodeSelfMatch {
		t.Errorf("unexpected category/code: %s/%s", err.Category, err.Code)
	}
	if err.Error() != "record matched itself" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if len(err.StackTrace) == 0 {
		t.Error("expected a captured stack trace")
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, CategoryInternal, CodeUnexpectedError, "should vanish"); err != nil {
		t.Errorf("wrapping nil should return nil, got %v", err)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, CategoryCollaborator, CodeAdvisorFailed, "advisor call failed")

	if err.Unwrap() != cause {
		t.Error("wrapped error should unwrap to its cause")
	}
	if !IsCategory(err, CategoryCollaborator) {
		t.Error("IsCategory should see through the wrapper")
	}
	if !IsCode(err, CodeAdvisorFailed) {
		t.Error("IsCode should see through the wrapper")
	}
}

func TestErrorWithSuggestion(t *testing.T) {
	err := New(CategoryConfiguration, CodeInvalidConfig, "bad month").
		WithSuggestion("use a full month name")

	want := "bad month (suggestion: use a full month name)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWithContext(t *testing.T) {
	err := New(CategoryStructural, CodeUnknownRecord, "no such record").
		WithContext("id", "e42")

	if err.Context["id"] != "e42" {
		t.Errorf("context not recorded: %v", err.Context)
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		want     int
	}{
		{CategoryConfiguration, 2},
		{CategoryStructural, 3},
		{CategoryIntegrity, 4},
		{CategoryCollaborator, 5},
		{CategoryInternal, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := New(tt.category, CodeUnexpectedError, "x")
			if got := err.GetExitCode(); got != tt.want {
				t.Errorf("GetExitCode for %s = %d, want %d", tt.category, got, tt.want)
			}
		})
	}
}

func TestIsCodeOnForeignError(t *testing.T) {
	if IsCode(fmt.Errorf("plain error"), CodeRateLimited) {
		t.Error("plain errors carry no code")
	}
	if IsCategory(nil, CategoryInternal) {
		t.Error("nil is never categorized")
	}
}

func TestCollaboratorError(t *testing.T) {
	cause := fmt.Errorf("429 too many requests")
	err := CollaboratorError(CodeRateLimited, "ai_matcher", cause)

	if !IsCode(err, CodeRateLimited) {
		t.Error("expected rate-limited code")
	}
	if err.Context["collaborator"] != "ai_matcher" {
		t.Errorf("collaborator not recorded: %v", err.Context)
	}
}
