package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	apperrors "expense-audit-service/pkg/errors"
)

func TestValidateFileExists(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "expenses.json")
	if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	if err := validateFileExists(path, "expense file"); err != nil {
		t.Errorf("existing file rejected: %v", err)
	}
	if err := validateFileExists(filepath.Join(dir, "missing.json"), "expense file"); err == nil {
		t.Error("missing file should be rejected")
	}
	if err := validateFileExists(dir, "expense file"); err == nil {
		t.Error("directory should be rejected")
	}
	if err := validateFileExists("", "expense file"); err == nil {
		t.Error("empty path should be rejected")
	}
}

func TestHandleError(t *testing.T) {
	if got := HandleError(nil); got != 0 {
		t.Errorf("nil error exit code = %d, want 0", got)
	}

	if got := HandleError(fmt.Errorf("plain failure")); got != 1 {
		t.Errorf("plain error exit code = %d, want 1", got)
	}

	configErr := apperrors.ConfigError(apperrors.CodeInvalidConfig, "bad month")
	if got := HandleError(configErr); got != 2 {
		t.Errorf("configuration error exit code = %d, want 2", got)
	}

	integrityErr := apperrors.IntegrityError(apperrors.CodeSelfMatch, "self match")
	if got := HandleError(integrityErr); got != 4 {
		t.Errorf("integrity error exit code = %d, want 4", got)
	}
}

func TestGetVersionString(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123", "2025-03-01")
	if got := getVersionString(); got != "1.2.3" {
		t.Errorf("released version string = %q, want bare version", got)
	}

	SetVersionInfo("dev", "abc123", "2025-03-01")
	if got := getVersionString(); got == "dev" {
		t.Errorf("dev version string should carry commit and date, got %q", got)
	}
}
