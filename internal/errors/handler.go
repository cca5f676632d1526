package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"deploykit/internal/ui"
)

const (
	logFileName   = "deploykit.log"
	logMaxBytes   = 10 * 1024 * 1024
	logMaxBackups = 5
)

// ErrorHandler reports failures twice: a structured JSON record to the log
// file for later debugging, and a Context/Cause/Suggestion block to the
// console for the operator running the deploy.
type ErrorHandler struct {
	logger  *slog.Logger
	console *ui.Console
}

func NewErrorHandler() (*ErrorHandler, error) {
	logFile, err := openLogFile()
	if err != nil {
		return nil, err
	}

	return &ErrorHandler{
		logger: slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})),
		console: ui.NewConsole(),
	}, nil
}

func (h *ErrorHandler) Handle(err error) {
	if err == nil {
		return
	}

	var deployErr *DeployError
	if errors.As(err, &deployErr) {
		h.handleDeployError(deployErr)
		return
	}

	h.logger.Error("Unhandled error occurred", "error", err.Error(), "type", "generic")
	h.console.PrintError(err.Error())
}

func (h *ErrorHandler) handleDeployError(err *DeployError) {
	attrs := []slog.Attr{
		slog.String("error", err.OriginalErr.Error()),
		slog.String("type", getErrorTypeName(err.Type)),
		slog.String("context", err.Context),
	}
	if err.Cause != "" {
		attrs = append(attrs, slog.String("cause", err.Cause))
	}
	if err.Suggestion != "" {
		attrs = append(attrs, slog.String("suggestion", err.Suggestion))
	}
	if err.ExitCode != 0 {
		attrs = append(attrs, slog.Int("exitCode", err.ExitCode))
	}
	h.logger.LogAttrs(context.TODO(), slog.LevelError, "Deploy error occurred", attrs...)

	h.console.PrintError(h.console.FormatErrorMessage(err.Context, err.Cause, err.Suggestion))
}

// logDir resolves where the log file lives: the DEPLOYKIT_LOG_DIR override
// wins, then the OS convention for the current platform.
func logDir() (string, error) {
	if dir := os.Getenv("DEPLOYKIT_LOG_DIR"); dir != "" {
		return dir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Logs", "DeployKit"), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return filepath.Join(homeDir, ".local", "share", "deploykit", "logs"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "DeployKit", "logs"), nil
		}
		return filepath.Join(homeDir, "AppData", "Roaming", "DeployKit", "logs"), nil
	default:
		return filepath.Join(homeDir, ".deploykit", "logs"), nil
	}
}

// ensureWritableLogDir creates the standard log directory, falling back to
// the current directory when it cannot be created or written.
func ensureWritableLogDir() (string, error) {
	dir, err := logDir()
	if err == nil {
		if mkErr := os.MkdirAll(dir, 0750); mkErr == nil && dirWritable(dir) {
			return dir, nil
		}
	}

	cwd, cwdErr := os.Getwd()
	if cwdErr != nil {
		return "", fmt.Errorf("cannot determine current directory for fallback logging: %w", cwdErr)
	}
	fmt.Fprintf(os.Stderr, "Warning: cannot access standard log directory, falling back to current directory.\n")
	return cwd, nil
}

func dirWritable(dir string) bool {
	probe := filepath.Join(dir, ".write_probe")
	f, err := os.Create(probe)
	if err != nil {
		return false
	}
	if err := f.Close(); err != nil {
		slog.Warn("Failed to close probe file", "path", probe, "error", err)
	}
	if err := os.Remove(probe); err != nil {
		slog.Warn("Failed to remove probe file", "path", probe, "error", err)
	}
	return true
}

// rotate shifts deploykit.log.N backups up by one, dropping the oldest, and
// moves the current file to .1.
func rotate(logPath string) error {
	oldest := fmt.Sprintf("%s.%d", logPath, logMaxBackups)
	if _, err := os.Stat(oldest); err == nil {
		if err := os.Remove(oldest); err != nil {
			slog.Warn("Failed to remove oldest log backup", "path", oldest, "error", err)
		}
	}

	for i := logMaxBackups - 1; i >= 1; i-- {
		src := fmt.Sprintf("%s.%d", logPath, i)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		dst := fmt.Sprintf("%s.%d", logPath, i+1)
		if err := os.Rename(src, dst); err != nil {
			slog.Warn("Failed to rotate log backup", "old", src, "new", dst, "error", err)
		}
	}

	if _, err := os.Stat(logPath); err == nil {
		return os.Rename(logPath, logPath+".1")
	}
	return nil
}

func openLogFile() (*os.File, error) {
	dir, err := ensureWritableLogDir()
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(dir, logFileName)

	if info, err := os.Stat(logPath); err == nil && info.Size() >= logMaxBytes {
		if err := rotate(logPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to rotate log file: %v\n", err)
		}
	}

	return os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}

func getErrorTypeName(errType error) string {
	switch errType {
	case ErrPlaybookNotFound:
		return "playbook_not_found"
	case ErrPlaybookParseFailed:
		return "playbook_parse_failed"
	case ErrDependencyInstallFailed:
		return "dependency_install_failed"
	case ErrAssetBuildFailed:
		return "asset_build_failed"
	case ErrSchemaMigrationFailed:
		return "schema_migration_failed"
	case ErrRuntimeFailed:
		return "runtime_failed"
	case ErrDatabaseFailed:
		return "database_failed"
	case ErrConfigInvalid:
		return "config_invalid"
	case ErrFileSystemFailed:
		return "filesystem_failed"
	default:
		return "unknown"
	}
}
