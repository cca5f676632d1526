package runtime

import (
	"context"
	"fmt"
	"strings"
)

// Invocation defines one external tool call made by a pipeline step.
type Invocation struct {
	Program string
	Args    []string
	WorkDir string
	Env     map[string]string
}

// Result captures the outcome of an invocation. Output holds the combined
// stdout/stderr diagnostics for operator-facing failure reports.
type Result struct {
	ExitCode int
	Output   string
}

// Success returns true if the invocation exited with code 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// ExitError reports a collaborator command that exited with a non-zero
// status. The code is preserved so it can be passed through as the process
// exit status.
type ExitError struct {
	Program string
	Code    int
	Output  string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %s", e.Program, e.Code, strings.TrimSpace(e.Output))
}

// Executor defines the contract for running collaborator commands, either
// directly on the host or inside a container. A non-zero exit code is
// reported through Result, not through the error return.
type Executor interface {
	Run(ctx context.Context, inv Invocation) (Result, error)
}
