package assets

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"deploykit/pkg/playbook"
	"deploykit/pkg/runtime"
)

// Builder defines the interface for the static asset collaborator.
// Implementations must overwrite deterministically so re-running produces
// the same destination state.
type Builder interface {
	// Build materializes the application's static assets.
	Build(ctx context.Context, spec *playbook.Spec, isDryRun bool) error
}

// CopyBuilder materializes assets by recursively copying the source tree
// into the destination directory.
type CopyBuilder struct{}

// NewCopyBuilder creates a new CopyBuilder.
func NewCopyBuilder() *CopyBuilder {
	return &CopyBuilder{}
}

// Build copies the asset source into the destination, overwriting existing
// files. With Clean set, the destination is removed first so assets deleted
// from the source do not linger.
func (b *CopyBuilder) Build(ctx context.Context, spec *playbook.Spec, isDryRun bool) error {
	sourcePath := resolvePath(spec.WorkDir, spec.Assets.Source)
	destPath := resolvePath(spec.WorkDir, spec.Assets.Destination)

	// Validate source path exists
	if _, err := os.Stat(sourcePath); os.IsNotExist(err) {
		return fmt.Errorf("asset source directory not found: %s", sourcePath)
	}

	if isDryRun {
		return b.performDryRun(sourcePath, destPath, spec.Assets.Clean)
	}

	slog.Info("Building static assets", "source", sourcePath, "destination", destPath, "clean", spec.Assets.Clean)

	if spec.Assets.Clean {
		if err := os.RemoveAll(destPath); err != nil {
			return fmt.Errorf("failed to clean destination directory: %w", err)
		}
	}

	// Create destination directory
	if err := os.MkdirAll(destPath, 0750); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	// Copy source directory to destination
	if err := copyDirectory(sourcePath, destPath); err != nil {
		return fmt.Errorf("failed to copy asset directory: %w", err)
	}

	slog.Info("Static assets built successfully", "destination", destPath)
	return nil
}

// performDryRun logs what would be done without actually performing the operations.
func (b *CopyBuilder) performDryRun(sourcePath, destPath string, clean bool) error {
	if clean {
		fmt.Printf("DRY RUN: Would remove destination directory: %s\n", destPath)
	}
	fmt.Printf("DRY RUN: Would copy directory from %s to %s\n", sourcePath, destPath)

	// Walk through source directory to show what would be copied
	err := filepath.WalkDir(sourcePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(sourcePath, path)
		if err != nil {
			return err
		}

		destFile := filepath.Join(destPath, relPath)
		if d.IsDir() {
			fmt.Printf("DRY RUN: Would create directory: %s\n", destFile)
		} else {
			fmt.Printf("DRY RUN: Would copy file: %s\n", destFile)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk asset source directory: %w", err)
	}

	return nil
}

// CommandBuilder delegates asset materialization to the application's own
// collector, e.g. a manage.py collectstatic style command.
type CommandBuilder struct {
	executor runtime.Executor
}

// NewCommandBuilder creates a new CommandBuilder using the given executor.
func NewCommandBuilder(executor runtime.Executor) *CommandBuilder {
	return &CommandBuilder{executor: executor}
}

// Build runs the playbook's asset build command.
func (b *CommandBuilder) Build(ctx context.Context, spec *playbook.Spec, isDryRun bool) error {
	command := spec.Assets.Command
	if len(command) == 0 {
		return fmt.Errorf("asset build command is empty")
	}

	if isDryRun {
		fmt.Printf("DRY RUN: Would run asset build command: %s\n", strings.Join(command, " "))
		return nil
	}

	slog.Info("Building static assets via command", "command", command)

	result, err := b.executor.Run(ctx, runtime.Invocation{
		Program: command[0],
		Args:    command[1:],
		WorkDir: spec.WorkDir,
		Env:     spec.Env,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke asset build command: %w", err)
	}
	if !result.Success() {
		return &runtime.ExitError{Program: "asset build command", Code: result.ExitCode, Output: result.Output}
	}

	slog.Info("Static assets built successfully")
	return nil
}

// resolvePath anchors a relative playbook path at the work directory.
func resolvePath(workDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workDir, path)
}

// copyDirectory recursively copies a directory from src to dst.
func copyDirectory(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		destPath := filepath.Join(dst, relPath)

		if d.IsDir() {
			return os.MkdirAll(destPath, 0750)
		}

		return copyFile(path, destPath)
	})
}

// validatePath ensures the path is safe and doesn't contain directory traversal sequences
func validatePath(path string) error {
	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains directory traversal: %s", path)
	}
	return nil
}

// copyFile copies a single file from src to dst.
func copyFile(src, dst string) error {
	// Validate paths to prevent directory traversal
	if err := validatePath(src); err != nil {
		return fmt.Errorf("invalid source path: %w", err)
	}
	if err := validatePath(dst); err != nil {
		return fmt.Errorf("invalid destination path: %w", err)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", src, err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}

	// Copy file permissions
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to get source file info: %w", err)
	}

	return os.Chmod(dst, srcInfo.Mode())
}
