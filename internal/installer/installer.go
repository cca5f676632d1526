package installer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"deploykit/pkg/playbook"
	"deploykit/pkg/runtime"
)

// Installer defines the interface for the dependency install collaborator.
// Implementations must be idempotent: re-running against an already
// satisfied environment is a no-op by the underlying tool's own contract.
type Installer interface {
	// Install brings the declared dependencies into the runtime environment.
	Install(ctx context.Context, spec *playbook.Spec) error
}

// PipInstaller installs Python dependencies from a requirements manifest.
type PipInstaller struct {
	executor runtime.Executor
}

// NewPipInstaller creates a new PipInstaller using the given executor.
func NewPipInstaller(executor runtime.Executor) *PipInstaller {
	return &PipInstaller{executor: executor}
}

// Install runs `pip install -r <manifest>`, falling back to pip3 when pip
// is not on the PATH.
func (p *PipInstaller) Install(ctx context.Context, spec *playbook.Spec) error {
	manifest := spec.Dependencies.Manifest
	if err := checkManifest(spec.WorkDir, manifest); err != nil {
		return err
	}

	slog.Info("Installing Python dependencies", "manifest", manifest)

	inv := runtime.Invocation{
		Program: "pip",
		Args:    []string{"install", "-r", manifest},
		WorkDir: spec.WorkDir,
		Env:     spec.Env,
	}

	result, err := p.executor.Run(ctx, inv)
	if err != nil {
		// pip3 fallback for hosts that only ship the versioned binary
		inv.Program = "pip3"
		result, err = p.executor.Run(ctx, inv)
		if err != nil {
			return fmt.Errorf("failed to invoke pip: %w", err)
		}
	}
	if !result.Success() {
		return &runtime.ExitError{Program: fmt.Sprintf("pip install -r %s", manifest), Code: result.ExitCode, Output: result.Output}
	}

	slog.Info("Dependencies installed successfully", "manifest", manifest)
	return nil
}

// NpmInstaller installs Node dependencies for the manifest's package.
type NpmInstaller struct {
	executor runtime.Executor
}

// NewNpmInstaller creates a new NpmInstaller using the given executor.
func NewNpmInstaller(executor runtime.Executor) *NpmInstaller {
	return &NpmInstaller{executor: executor}
}

// Install runs `npm ci` when a lockfile is present for a deterministic,
// idempotent install, and `npm install` otherwise.
func (n *NpmInstaller) Install(ctx context.Context, spec *playbook.Spec) error {
	manifest := spec.Dependencies.Manifest
	if err := checkManifest(spec.WorkDir, manifest); err != nil {
		return err
	}

	manifestDir := filepath.Dir(filepath.Join(spec.WorkDir, manifest))

	subcommand := "install"
	if _, err := os.Stat(filepath.Join(manifestDir, "package-lock.json")); err == nil {
		subcommand = "ci"
	}

	slog.Info("Installing Node dependencies", "manifest", manifest, "subcommand", subcommand)

	result, err := n.executor.Run(ctx, runtime.Invocation{
		Program: "npm",
		Args:    []string{subcommand},
		WorkDir: manifestDir,
		Env:     spec.Env,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke npm: %w", err)
	}
	if !result.Success() {
		return &runtime.ExitError{Program: "npm " + subcommand, Code: result.ExitCode, Output: result.Output}
	}

	slog.Info("Dependencies installed successfully", "manifest", manifest)
	return nil
}

// CommandInstaller delegates to a user-supplied install command.
type CommandInstaller struct {
	executor runtime.Executor
}

// NewCommandInstaller creates a new CommandInstaller using the given executor.
func NewCommandInstaller(executor runtime.Executor) *CommandInstaller {
	return &CommandInstaller{executor: executor}
}

// Install runs the playbook's verbatim install command.
func (c *CommandInstaller) Install(ctx context.Context, spec *playbook.Spec) error {
	command := spec.Dependencies.Command
	if len(command) == 0 {
		return fmt.Errorf("dependency install command is empty")
	}

	slog.Info("Installing dependencies via command", "command", command)

	result, err := c.executor.Run(ctx, runtime.Invocation{
		Program: command[0],
		Args:    command[1:],
		WorkDir: spec.WorkDir,
		Env:     spec.Env,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke install command: %w", err)
	}
	if !result.Success() {
		return &runtime.ExitError{Program: "install command", Code: result.ExitCode, Output: result.Output}
	}

	return nil
}

// checkManifest validates that the dependency manifest exists before
// invoking the tool, so missing-file mistakes fail with a clear message.
func checkManifest(workDir, manifest string) error {
	path := manifest
	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, manifest)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("dependency manifest not found: %s", path)
	}
	return nil
}
