package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"

	"deploykit/pkg/playbook"
	"deploykit/pkg/runtime"
)

// MockExecutor is a mock implementation of the runtime.Executor interface
type MockExecutor struct {
	*mock.Mock
}

func NewMockExecutor() *MockExecutor {
	return &MockExecutor{Mock: &mock.Mock{}}
}

func (m *MockExecutor) Run(ctx context.Context, inv runtime.Invocation) (runtime.Result, error) {
	args := m.Called(ctx, inv)
	return args.Get(0).(runtime.Result), args.Error(1)
}

func testSpec(t *testing.T, tool, manifest string) *playbook.Spec {
	t.Helper()
	workDir := t.TempDir()
	if manifest != "" {
		if err := os.WriteFile(filepath.Join(workDir, manifest), []byte("# manifest\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return &playbook.Spec{
		WorkDir: workDir,
		Dependencies: playbook.Dependencies{
			Tool:     tool,
			Manifest: manifest,
		},
		Env: map[string]string{"APP_ENV": "production"},
	}
}

func TestPipInstaller_Install(t *testing.T) {
	spec := testSpec(t, "pip", "requirements.txt")

	executor := NewMockExecutor()
	executor.On("Run", mock.Anything, mock.MatchedBy(func(inv runtime.Invocation) bool {
		return inv.Program == "pip" &&
			len(inv.Args) == 3 &&
			inv.Args[0] == "install" && inv.Args[1] == "-r" && inv.Args[2] == "requirements.txt" &&
			inv.WorkDir == spec.WorkDir &&
			inv.Env["APP_ENV"] == "production"
	})).Return(runtime.Result{ExitCode: 0}, nil)

	installer := NewPipInstaller(executor)
	if err := installer.Install(context.Background(), spec); err != nil {
		t.Fatalf("Expected successful install, got error: %v", err)
	}

	executor.AssertNumberOfCalls(t, "Run", 1)
}

func TestPipInstaller_UnsatisfiableConstraint(t *testing.T) {
	spec := testSpec(t, "pip", "requirements.txt")

	executor := NewMockExecutor()
	executor.On("Run", mock.Anything, mock.Anything).
		Return(runtime.Result{ExitCode: 1, Output: "No matching distribution found for django==999.0"}, nil)

	installer := NewPipInstaller(executor)
	err := installer.Install(context.Background(), spec)
	if err == nil {
		t.Fatal("Expected error for failed install, got nil")
	}
	if !strings.Contains(err.Error(), "exited with code 1") {
		t.Errorf("Expected exit code in error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "No matching distribution") {
		t.Errorf("Expected tool diagnostics in error, got: %v", err)
	}
}

func TestPipInstaller_MissingManifest(t *testing.T) {
	spec := testSpec(t, "pip", "")
	spec.Dependencies.Manifest = "requirements.txt"

	executor := NewMockExecutor()

	installer := NewPipInstaller(executor)
	err := installer.Install(context.Background(), spec)
	if err == nil {
		t.Fatal("Expected error for missing manifest, got nil")
	}
	if !strings.Contains(err.Error(), "dependency manifest not found") {
		t.Errorf("Expected manifest-not-found error, got: %v", err)
	}

	// The tool must never be invoked when the manifest is missing
	executor.AssertNumberOfCalls(t, "Run", 0)
}

func TestNpmInstaller_UsesCiWithLockfile(t *testing.T) {
	spec := testSpec(t, "npm", "package.json")
	if err := os.WriteFile(filepath.Join(spec.WorkDir, "package-lock.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	executor := NewMockExecutor()
	executor.On("Run", mock.Anything, mock.MatchedBy(func(inv runtime.Invocation) bool {
		return inv.Program == "npm" && len(inv.Args) == 1 && inv.Args[0] == "ci"
	})).Return(runtime.Result{ExitCode: 0}, nil)

	installer := NewNpmInstaller(executor)
	if err := installer.Install(context.Background(), spec); err != nil {
		t.Fatalf("Expected successful install, got error: %v", err)
	}
	executor.AssertExpectations(t)
}

func TestNpmInstaller_FallsBackToInstall(t *testing.T) {
	spec := testSpec(t, "npm", "package.json")

	executor := NewMockExecutor()
	executor.On("Run", mock.Anything, mock.MatchedBy(func(inv runtime.Invocation) bool {
		return inv.Program == "npm" && len(inv.Args) == 1 && inv.Args[0] == "install"
	})).Return(runtime.Result{ExitCode: 0}, nil)

	installer := NewNpmInstaller(executor)
	if err := installer.Install(context.Background(), spec); err != nil {
		t.Fatalf("Expected successful install, got error: %v", err)
	}
	executor.AssertExpectations(t)
}

func TestCommandInstaller_Install(t *testing.T) {
	spec := testSpec(t, "command", "")
	spec.Dependencies.Command = []string{"bundle", "install", "--deployment"}

	executor := NewMockExecutor()
	executor.On("Run", mock.Anything, mock.MatchedBy(func(inv runtime.Invocation) bool {
		return inv.Program == "bundle" &&
			len(inv.Args) == 2 &&
			inv.Args[0] == "install" && inv.Args[1] == "--deployment"
	})).Return(runtime.Result{ExitCode: 0}, nil)

	installer := NewCommandInstaller(executor)
	if err := installer.Install(context.Background(), spec); err != nil {
		t.Fatalf("Expected successful install, got error: %v", err)
	}
	executor.AssertExpectations(t)
}

func TestCommandInstaller_EmptyCommand(t *testing.T) {
	spec := testSpec(t, "command", "")

	installer := NewCommandInstaller(NewMockExecutor())
	if err := installer.Install(context.Background(), spec); err == nil {
		t.Fatal("Expected error for empty command, got nil")
	}
}
