package app

import (
	"context"
	"log/slog"

	"deploykit/internal/assets"
	errs "deploykit/internal/errors"
	"deploykit/pkg/playbook"
)

// AssetsStep implements the Step interface for the static asset build step
type AssetsStep struct {
	spec     *playbook.Spec
	builder  assets.Builder
	isDryRun bool
}

// NewAssetsStep creates a new asset build step instance
func NewAssetsStep(spec *playbook.Spec, builder assets.Builder, isDryRun bool) *AssetsStep {
	return &AssetsStep{
		spec:     spec,
		builder:  builder,
		isDryRun: isDryRun,
	}
}

// Name returns the name of the step
func (s *AssetsStep) Name() string {
	return string(StepAssets)
}

// Kind returns the step's side effect category
func (s *AssetsStep) Kind() StepKind {
	return KindBuildArtifact
}

// Execute performs the asset build step logic. Dry-run simulation is
// handled inside the builder, which knows what it would write.
func (s *AssetsStep) Execute(ctx context.Context, state *ExecutionState) error {
	if err := s.builder.Build(ctx, s.spec, s.isDryRun); err != nil {
		return wrapStepError(err, errs.NewAssetError(
			"Asset build failed",
			err.Error(),
			"Check the asset source and destination paths; the build overwrites deterministically and is safe to repeat",
			err,
		))
	}

	slog.Info("Assets step completed successfully", "builder", s.spec.Assets.Builder, "dryRun", s.isDryRun)
	return nil
}
