package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"deploykit/pkg/runtime"
)

// LocalExecutor implements the Executor interface by running commands
// directly on the host via os/exec.
type LocalExecutor struct{}

// NewLocalExecutor creates a new LocalExecutor instance.
func NewLocalExecutor() *LocalExecutor {
	return &LocalExecutor{}
}

// Run executes the invocation and returns its result. A non-zero exit code
// is not an error; only failures to start the process are.
func (e *LocalExecutor) Run(ctx context.Context, inv runtime.Invocation) (runtime.Result, error) {
	slog.Info("Running command", "program", inv.Program, "args", inv.Args, "workDir", inv.WorkDir)

	cmd := exec.CommandContext(ctx, inv.Program, inv.Args...)
	cmd.Dir = inv.WorkDir

	// Collaborators inherit the process environment; playbook env entries
	// are appended so they win on duplicate keys.
	cmd.Env = os.Environ()
	for key, value := range inv.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()

	result := runtime.Result{
		ExitCode: 0,
		Output:   output.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("failed to run %s: %w", inv.Program, err)
	}

	return result, nil
}

// IsCommandNotFound reports whether an error indicates a missing executable.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return true
	}
	return false
}

// Ensure LocalExecutor implements runtime.Executor.
var _ runtime.Executor = (*LocalExecutor)(nil)
