package runtime

import (
	"strings"
	"testing"
)

func TestNewDockerExecutor_WithoutDaemon(t *testing.T) {
	// Succeeds when a Docker daemon is reachable; otherwise the error must
	// identify which stage of client setup failed.
	executor, err := NewDockerExecutor("python:3.12-slim")
	if err == nil {
		if executor == nil {
			t.Fatal("Expected executor instance on success")
		}
		return
	}

	msg := err.Error()
	if !strings.Contains(msg, "failed to create Docker client") &&
		!strings.Contains(msg, "failed to connect to Docker daemon") {
		t.Errorf("Unexpected error format: %s", msg)
	}
}
