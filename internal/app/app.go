package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"deploykit/internal/parser"
	"deploykit/internal/revision"
	"deploykit/internal/ui"
	"deploykit/pkg/playbook"
)

// Options controls a full pipeline run.
type Options struct {
	PlaybookPath string
	DryRun       bool
	RetainState  bool
}

// Up orchestrates the complete bootstrap pipeline: install dependencies,
// build static assets, migrate the schema. Runs are resumable: a state file
// records the last successful step, and a re-run after a failure picks up
// from the first incomplete one. Resume is a convenience on top of step
// idempotence, never a substitute for it.
func Up(ctx context.Context, opts Options) error {
	console := ui.NewConsole()

	slog.Info("Starting bootstrap pipeline", "playbookPath", opts.PlaybookPath, "dryRun", opts.DryRun)

	// Load existing state or create new state
	state, err := loadState()
	if err != nil {
		return fmt.Errorf("failed to load execution state: %w", err)
	}

	if state == nil {
		// Fresh start - create new state
		runID := uuid.New().String()
		state = newState(opts.PlaybookPath, runID)
		slog.Info("Starting new bootstrap run", "runId", runID, "playbookPath", opts.PlaybookPath)
	} else {
		console.PrintInfo(fmt.Sprintf("State file found. Resuming from step: %s", state.getNextStep()))
		slog.Info("Resuming bootstrap run", "runId", state.RunID, "nextStep", state.getNextStep(), "lastStep", state.LastSuccessfulStep)
	}

	if opts.DryRun {
		console.PrintWarning("DRY RUN MODE - No actual changes will be made")
	}

	// Parse playbook (needed for all steps)
	pb, err := parser.Parse(opts.PlaybookPath)
	if err != nil {
		return fmt.Errorf("playbook parsing failed: %w", err)
	}
	slog.Info("Playbook parsed successfully", "name", pb.Metadata.Name, "kind", pb.Kind)

	// Capture the source revision once per run, for the deploy record and
	// the optional status notification.
	if state.Revision == nil {
		rev, err := revision.Capture(pb.Spec.WorkDir)
		if err != nil {
			slog.Warn("Failed to capture source revision", "error", err)
		} else {
			state.Revision = rev
		}
	}

	factory := NewCollaboratorFactory()
	steps, err := buildSteps(pb, factory, opts.DryRun)
	if err != nil {
		return fmt.Errorf("pipeline assembly failed: %w", err)
	}

	result := runSteps(ctx, console, steps, state, opts.DryRun)

	if result.Succeeded() {
		finishRun(state, opts)
	}

	sendNotification(&pb.Spec, factory, state, result, opts.DryRun)

	if !result.Succeeded() {
		return result.Err
	}

	if opts.DryRun {
		console.PrintSuccess("Dry run completed - all steps simulated successfully")
	} else {
		console.PrintSuccess(fmt.Sprintf("Bootstrap completed successfully. '%s' is ready to serve traffic.", pb.Metadata.Name))
	}
	slog.Info("Bootstrap pipeline completed successfully", "playbookName", pb.Metadata.Name, "dryRun", opts.DryRun)
	return nil
}

// buildSteps assembles the pipeline's fixed, ordered step list.
func buildSteps(pb *playbook.Playbook, factory *CollaboratorFactory, isDryRun bool) ([]Step, error) {
	executor, err := factory.GetExecutor(&pb.Spec)
	if err != nil {
		return nil, err
	}

	inst, err := factory.GetInstaller(pb.Spec.Dependencies.Tool, executor)
	if err != nil {
		return nil, err
	}

	builder, err := factory.GetBuilder(pb.Spec.Assets.Builder, executor)
	if err != nil {
		return nil, err
	}

	mig, err := factory.GetMigrator(pb.Spec.Database.Migrator, executor)
	if err != nil {
		return nil, err
	}

	return []Step{
		NewInstallStep(&pb.Spec, inst, isDryRun),
		NewAssetsStep(&pb.Spec, builder, isDryRun),
		NewMigrateStep(&pb.Spec, mig, isDryRun),
	}, nil
}

// runSteps executes the steps in declared order, skipping the ones the
// state already records as complete and stopping at the first failure.
// No step begins before the prior one has reported success. An empty step
// list succeeds immediately.
func runSteps(ctx context.Context, console *ui.Console, steps []Step, state *ExecutionState, isDryRun bool) RunResult {
	total := len(steps)

	for i, step := range steps {
		if state.shouldSkipStep(ExecutionStep(step.Name())) {
			console.PrintInfo(fmt.Sprintf("[%d/%d] %s (skipped - already completed)", i+1, total, step.Name()))
			continue
		}

		console.PrintStep(i+1, total, step.Name())

		if err := step.Execute(ctx, state); err != nil {
			slog.Error("Pipeline step failed", "step", step.Name(), "error", err)
			return failedAt(step.Name(), err)
		}

		// Update state after successful completion
		state.LastSuccessfulStep = ExecutionStep(step.Name())
		if !isDryRun {
			if err := saveState(state); err != nil {
				return failedAt(step.Name(), fmt.Errorf("failed to save state after %s: %w", step.Name(), err))
			}
		}
	}

	return success()
}

// finishRun marks the state completed and cleans up the state file unless
// it is being retained for auditing.
func finishRun(state *ExecutionState, opts Options) {
	state.LastSuccessfulStep = StepCompleted
	if opts.DryRun {
		return
	}

	if opts.RetainState {
		if err := saveState(state); err != nil {
			slog.Warn("Failed to save final state", "error", err)
		} else {
			slog.Info("State file retained for auditing", "file", StateFileName)
		}
		return
	}

	if err := removeStateFile(); err != nil {
		slog.Warn("Failed to clean up state file", "error", err)
	}
}

// sendNotification reports the run's terminal state to the configured
// provider. Best-effort only: a notification failure never changes the
// pipeline outcome.
func sendNotification(spec *playbook.Spec, factory *CollaboratorFactory, state *ExecutionState, result RunResult, isDryRun bool) {
	if spec.Notify == nil || isDryRun {
		return
	}

	notifier, err := factory.GetNotifier(spec.Notify)
	if err != nil {
		slog.Warn("Deployment notification skipped", "error", err)
		return
	}

	if err := notifier.Notify(spec, state.Revision, result.Succeeded()); err != nil {
		slog.Warn("Deployment notification failed", "error", err)
	}
}
