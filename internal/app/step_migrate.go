package app

import (
	"context"
	"fmt"
	"log/slog"

	errs "deploykit/internal/errors"
	"deploykit/internal/migrator"
	"deploykit/pkg/playbook"
)

// MigrateStep implements the Step interface for the schema migration step
type MigrateStep struct {
	spec     *playbook.Spec
	migrator migrator.Migrator
	isDryRun bool
}

// NewMigrateStep creates a new migration step instance
func NewMigrateStep(spec *playbook.Spec, migrator migrator.Migrator, isDryRun bool) *MigrateStep {
	return &MigrateStep{
		spec:     spec,
		migrator: migrator,
		isDryRun: isDryRun,
	}
}

// Name returns the name of the step
func (s *MigrateStep) Name() string {
	return string(StepMigrate)
}

// Kind returns the step's side effect category
func (s *MigrateStep) Kind() StepKind {
	return KindSchemaChange
}

// Execute performs the schema migration step logic
func (s *MigrateStep) Execute(ctx context.Context, state *ExecutionState) error {
	if s.isDryRun {
		if s.spec.Database.Migrator == "sql" {
			fmt.Printf("DRY RUN: Would apply pending migrations from %s\n", s.spec.Database.Migrations)
		} else {
			fmt.Printf("DRY RUN: Would run migration command: %v\n", s.spec.Database.Command)
		}
		return nil
	}

	if err := s.migrator.Migrate(ctx, s.spec); err != nil {
		return wrapStepError(err, errs.NewMigrationError(
			"Schema migration failed",
			err.Error(),
			"Fix the failing migration and re-run 'deploykit up'; already-applied migrations are skipped",
			err,
		))
	}

	slog.Info("Migrate step completed successfully", "migrator", s.spec.Database.Migrator, "dryRun", s.isDryRun)
	return nil
}
