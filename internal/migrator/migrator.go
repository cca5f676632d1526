package migrator

import (
	"context"
	"fmt"
	"log/slog"

	"deploykit/pkg/playbook"
	"deploykit/pkg/runtime"
)

// Migrator defines the interface for the schema migration collaborator.
// Implementations must skip already-applied migrations so the step can be
// re-run safely on every deploy.
type Migrator interface {
	// Migrate brings the persisted schema up to the application's expected version.
	Migrate(ctx context.Context, spec *playbook.Spec) error
}

// CommandMigrator delegates to the application's own migration engine,
// e.g. a manage.py migrate style command.
type CommandMigrator struct {
	executor runtime.Executor
}

// NewCommandMigrator creates a new CommandMigrator using the given executor.
func NewCommandMigrator(executor runtime.Executor) *CommandMigrator {
	return &CommandMigrator{executor: executor}
}

// Migrate runs the playbook's migration command.
func (m *CommandMigrator) Migrate(ctx context.Context, spec *playbook.Spec) error {
	command := spec.Database.Command
	if len(command) == 0 {
		return fmt.Errorf("migration command is empty")
	}

	slog.Info("Applying schema migrations via command", "command", command)

	result, err := m.executor.Run(ctx, runtime.Invocation{
		Program: command[0],
		Args:    command[1:],
		WorkDir: spec.WorkDir,
		Env:     spec.Env,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke migration command: %w", err)
	}
	if !result.Success() {
		return &runtime.ExitError{Program: "migration command", Code: result.ExitCode, Output: result.Output}
	}

	slog.Info("Schema migrations applied successfully")
	return nil
}
