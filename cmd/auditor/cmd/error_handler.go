package cmd

import (
	"errors"
	"fmt"
	"os"

	apperrors "expense-audit-service/pkg/errors"
)

// HandleError prints a user-facing message for an error and returns the
// process exit code.
func HandleError(err error) int {
	if err == nil {
		return 0
	}

	var auditErr *apperrors.AuditError
	if errors.As(err, &auditErr) {
		fmt.Fprintf(os.Stderr, "Error: %s\n", auditErr.Message)
		if auditErr.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "Suggestion: %s\n", auditErr.Suggestion)
		}
		if len(auditErr.Context) > 0 {
			for key, value := range auditErr.Context {
				fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
			}
		}
		return auditErr.GetExitCode()
	}

	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	return 1
}
