package app

import (
	"context"
	"errors"
	"os"
	"testing"

	"deploykit/internal/ui"
)

// fakeStep records its invocations in a shared log so tests can assert
// execution order and short-circuit behavior.
type fakeStep struct {
	name string
	kind StepKind
	err  error
	log  *[]string
}

func (s *fakeStep) Name() string   { return s.name }
func (s *fakeStep) Kind() StepKind { return s.kind }

func (s *fakeStep) Execute(ctx context.Context, state *ExecutionState) error {
	*s.log = append(*s.log, s.name)
	return s.err
}

func pipeline(log *[]string, failAt string, failErr error) []Step {
	steps := []Step{
		&fakeStep{name: string(StepInstall), kind: KindInstall, log: log},
		&fakeStep{name: string(StepAssets), kind: KindBuildArtifact, log: log},
		&fakeStep{name: string(StepMigrate), kind: KindSchemaChange, log: log},
	}
	for _, s := range steps {
		if s.(*fakeStep).name == failAt {
			s.(*fakeStep).err = failErr
		}
	}
	return steps
}

func assertLog(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected %d step invocations %v, got %d: %v", len(want), want, len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected step %d to be %s, got %s", i, want[i], got[i])
		}
	}
}

func TestRunSteps_AllSucceed(t *testing.T) {
	t.Chdir(t.TempDir())

	var log []string
	state := newState("deploykit.yaml", "run-ok")
	result := runSteps(context.Background(), ui.NewConsole(), pipeline(&log, "", nil), state, false)

	if !result.Succeeded() {
		t.Fatalf("Expected run to succeed, got %v", result.Err)
	}
	assertLog(t, log, "install", "assets", "migrate")

	if state.LastSuccessfulStep != StepMigrate {
		t.Errorf("Expected last successful step %s, got %s", StepMigrate, state.LastSuccessfulStep)
	}
	if _, err := os.Stat(StateFileName); err != nil {
		t.Errorf("Expected state file to be persisted: %v", err)
	}
}

func TestRunSteps_FailFast(t *testing.T) {
	t.Chdir(t.TempDir())

	cause := errors.New("collectstatic blew up")
	var log []string
	state := newState("deploykit.yaml", "run-fail")
	result := runSteps(context.Background(), ui.NewConsole(), pipeline(&log, "assets", cause), state, false)

	if result.Succeeded() {
		t.Fatal("Expected run to fail")
	}
	if result.FailedStep != "assets" {
		t.Errorf("Expected failed step 'assets', got %s", result.FailedStep)
	}

	// The step after the failing one must never run
	assertLog(t, log, "install", "assets")

	var stepErr *StepError
	if !errors.As(result.Err, &stepErr) {
		t.Fatalf("Expected a StepError, got %T", result.Err)
	}
	if !errors.Is(result.Err, cause) {
		t.Error("Expected error chain to preserve the step's cause")
	}

	// Only the step that succeeded is recorded
	if state.LastSuccessfulStep != StepInstall {
		t.Errorf("Expected state to record %s, got %s", StepInstall, state.LastSuccessfulStep)
	}
}

func TestRunSteps_FirstStepFails(t *testing.T) {
	t.Chdir(t.TempDir())

	var log []string
	state := newState("deploykit.yaml", "run-fail-first")
	result := runSteps(context.Background(), ui.NewConsole(), pipeline(&log, "install", errors.New("pip not found")), state, false)

	if result.Succeeded() {
		t.Fatal("Expected run to fail")
	}
	assertLog(t, log, "install")
	if state.LastSuccessfulStep != "" {
		t.Errorf("Expected no recorded progress, got %s", state.LastSuccessfulStep)
	}
}

func TestRunSteps_EmptyPipeline(t *testing.T) {
	t.Chdir(t.TempDir())

	state := newState("deploykit.yaml", "run-empty")
	result := runSteps(context.Background(), ui.NewConsole(), nil, state, false)

	if !result.Succeeded() {
		t.Fatalf("Expected empty pipeline to succeed, got %v", result.Err)
	}
}

func TestRunSteps_ResumeSkipsCompleted(t *testing.T) {
	t.Chdir(t.TempDir())

	var log []string
	state := newState("deploykit.yaml", "run-resume")
	state.LastSuccessfulStep = StepInstall

	result := runSteps(context.Background(), ui.NewConsole(), pipeline(&log, "", nil), state, false)

	if !result.Succeeded() {
		t.Fatalf("Expected resumed run to succeed, got %v", result.Err)
	}
	assertLog(t, log, "assets", "migrate")
}

func TestRunSteps_DryRunDoesNotPersist(t *testing.T) {
	t.Chdir(t.TempDir())

	var log []string
	state := newState("deploykit.yaml", "run-dry")
	result := runSteps(context.Background(), ui.NewConsole(), pipeline(&log, "", nil), state, true)

	if !result.Succeeded() {
		t.Fatalf("Expected dry run to succeed, got %v", result.Err)
	}
	assertLog(t, log, "install", "assets", "migrate")

	if _, err := os.Stat(StateFileName); !os.IsNotExist(err) {
		t.Error("Expected no state file after dry run")
	}
}

func TestRunSteps_RerunAfterSuccessExecutesAllAgain(t *testing.T) {
	t.Chdir(t.TempDir())

	var log []string
	first := newState("deploykit.yaml", "run-1")
	if result := runSteps(context.Background(), ui.NewConsole(), pipeline(&log, "", nil), first, true); !result.Succeeded() {
		t.Fatalf("First run failed: %v", result.Err)
	}

	// A fresh state means a fresh run: every step executes again, in order
	second := newState("deploykit.yaml", "run-2")
	if result := runSteps(context.Background(), ui.NewConsole(), pipeline(&log, "", nil), second, true); !result.Succeeded() {
		t.Fatalf("Second run failed: %v", result.Err)
	}

	assertLog(t, log, "install", "assets", "migrate", "install", "assets", "migrate")
}
