package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	errs "deploykit/internal/errors"
	"deploykit/internal/installer"
	"deploykit/pkg/playbook"
	"deploykit/pkg/runtime"
)

// InstallStep implements the Step interface for the dependency install step
type InstallStep struct {
	spec      *playbook.Spec
	installer installer.Installer
	isDryRun  bool
}

// NewInstallStep creates a new install step instance
func NewInstallStep(spec *playbook.Spec, installer installer.Installer, isDryRun bool) *InstallStep {
	return &InstallStep{
		spec:      spec,
		installer: installer,
		isDryRun:  isDryRun,
	}
}

// Name returns the name of the step
func (s *InstallStep) Name() string {
	return string(StepInstall)
}

// Kind returns the step's side effect category
func (s *InstallStep) Kind() StepKind {
	return KindInstall
}

// Execute performs the dependency install step logic
func (s *InstallStep) Execute(ctx context.Context, state *ExecutionState) error {
	if s.isDryRun {
		fmt.Printf("DRY RUN: Would install dependencies via %s (manifest: %s)\n",
			s.spec.Dependencies.Tool, s.spec.Dependencies.Manifest)
		return nil
	}

	if err := s.installer.Install(ctx, s.spec); err != nil {
		return wrapStepError(err, errs.NewInstallError(
			"Dependency install failed",
			err.Error(),
			"Fix the dependency manifest and re-run 'deploykit up'; the install step is safe to repeat",
			err,
		))
	}

	slog.Info("Install step completed successfully", "tool", s.spec.Dependencies.Tool, "dryRun", s.isDryRun)
	return nil
}

// wrapStepError copies a collaborator's captured exit code, when present,
// into the deploy error so it can be passed through as the process status.
func wrapStepError(err error, deployErr *errs.DeployError) error {
	var exitErr *runtime.ExitError
	if errors.As(err, &exitErr) {
		deployErr.ExitCode = exitErr.Code
	}
	return deployErr
}
