package app

import (
	"context"
	"fmt"
)

// StepKind categorizes a step's externally visible side effect.
type StepKind string

const (
	KindInstall       StepKind = "install"
	KindBuildArtifact StepKind = "build-artifact"
	KindSchemaChange  StepKind = "schema-change"
)

// Step represents a single step in the bootstrap pipeline. Steps are
// assembled once at startup and never mutated.
type Step interface {
	Name() string
	Kind() StepKind
	Execute(ctx context.Context, state *ExecutionState) error
}

// StepError identifies the step at which the pipeline stopped.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// RunResult is the outcome of one pipeline invocation: either every step
// succeeded, or the pipeline stopped at FailedStep.
type RunResult struct {
	FailedStep string
	Err        error
}

// Succeeded reports whether the whole pipeline completed.
func (r RunResult) Succeeded() bool {
	return r.Err == nil
}

func success() RunResult {
	return RunResult{}
}

func failedAt(step string, err error) RunResult {
	return RunResult{
		FailedStep: step,
		Err:        &StepError{Step: step, Err: err},
	}
}
