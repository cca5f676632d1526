package errors

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func withTestLogDir(t *testing.T) string {
	t.Helper()

	logDir := filepath.Join(t.TempDir(), "logs")
	t.Setenv("DEPLOYKIT_LOG_DIR", logDir)
	return logDir
}

func TestNewErrorHandler(t *testing.T) {
	withTestLogDir(t)

	handler, err := NewErrorHandler()
	if err != nil {
		t.Fatalf("NewErrorHandler() failed: %v", err)
	}

	if handler == nil {
		t.Fatal("NewErrorHandler() returned nil handler")
	}

	if handler.logger == nil {
		t.Error("ErrorHandler.logger is nil")
	}

	if handler.console == nil {
		t.Error("ErrorHandler.console is nil")
	}
}

func TestErrorHandler_Handle_DeployError(t *testing.T) {
	logDir := withTestLogDir(t)

	handler, err := NewErrorHandler()
	if err != nil {
		t.Fatalf("NewErrorHandler() failed: %v", err)
	}

	testErr := NewInstallError(
		"Dependency install failed",
		"pip exited with code 1",
		"Check the requirements manifest for unsatisfiable constraints",
		errors.New("pip install -r requirements.txt exited with code 1"),
	)

	handler.Handle(testErr)

	// Verify log file was created
	logFile := filepath.Join(logDir, "deploykit.log")
	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Error("Log file was not created")
	}
}

func TestErrorHandler_Handle_GenericError(t *testing.T) {
	logDir := withTestLogDir(t)

	handler, err := NewErrorHandler()
	if err != nil {
		t.Fatalf("NewErrorHandler() failed: %v", err)
	}

	handler.Handle(errors.New("generic test error"))

	logFile := filepath.Join(logDir, "deploykit.log")
	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Error("Log file was not created")
	}
}

func TestErrorHandler_Handle_NilError(t *testing.T) {
	withTestLogDir(t)

	handler, err := NewErrorHandler()
	if err != nil {
		t.Fatalf("NewErrorHandler() failed: %v", err)
	}

	// Handle nil error should not panic
	handler.Handle(nil)
}

func TestGetErrorTypeName(t *testing.T) {
	tests := []struct {
		errorType error
		expected  string
	}{
		{ErrPlaybookNotFound, "playbook_not_found"},
		{ErrPlaybookParseFailed, "playbook_parse_failed"},
		{ErrDependencyInstallFailed, "dependency_install_failed"},
		{ErrAssetBuildFailed, "asset_build_failed"},
		{ErrSchemaMigrationFailed, "schema_migration_failed"},
		{ErrRuntimeFailed, "runtime_failed"},
		{ErrDatabaseFailed, "database_failed"},
		{ErrConfigInvalid, "config_invalid"},
		{ErrFileSystemFailed, "filesystem_failed"},
		{errors.New("something else"), "unknown"},
	}

	for _, tt := range tests {
		if got := getErrorTypeName(tt.errorType); got != tt.expected {
			t.Errorf("getErrorTypeName(%v) = %q, want %q", tt.errorType, got, tt.expected)
		}
	}
}

func TestGetDefaultHandler_Singleton(t *testing.T) {
	withTestLogDir(t)
	resetDefaultHandler()
	defer resetDefaultHandler()

	first, err := GetDefaultHandler()
	if err != nil {
		t.Fatalf("GetDefaultHandler() failed: %v", err)
	}

	second, err := GetDefaultHandler()
	if err != nil {
		t.Fatalf("GetDefaultHandler() failed: %v", err)
	}

	if first != second {
		t.Error("GetDefaultHandler() should return the same instance")
	}
}

func TestExitCode(t *testing.T) {
	withExit := NewMigrationError("ctx", "cause", "fix it", errors.New("boom"))
	withExit.ExitCode = 2

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, 0},
		{"generic error", errors.New("boom"), 1},
		{"deploy error without code", NewAssetError("ctx", "", "", errors.New("boom")), 1},
		{"deploy error with tool code", withExit, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
