package notify

import (
	"os"
	"strings"
	"testing"

	"deploykit/pkg/playbook"
)

func TestNewGitLabNotifier_RequiresToken(t *testing.T) {
	original := os.Getenv("GITLAB_PRIVATE_TOKEN")
	os.Unsetenv("GITLAB_PRIVATE_TOKEN")
	defer func() {
		if original != "" {
			os.Setenv("GITLAB_PRIVATE_TOKEN", original)
		}
	}()

	_, err := NewGitLabNotifier(&playbook.Notify{
		Provider: "gitlab",
		URL:      "https://gitlab.example.com",
		Project:  "group/app",
	})
	if err == nil {
		t.Fatal("Expected error without GITLAB_PRIVATE_TOKEN, got nil")
	}
	if !strings.Contains(err.Error(), "GITLAB_PRIVATE_TOKEN") {
		t.Errorf("Expected error to name the env var, got: %v", err)
	}
}

func TestNewGitLabNotifier_WithToken(t *testing.T) {
	t.Setenv("GITLAB_PRIVATE_TOKEN", "glpat-test-token")

	notifier, err := NewGitLabNotifier(&playbook.Notify{
		Provider: "gitlab",
		URL:      "https://gitlab.example.com/",
		Project:  "group/app",
	})
	if err != nil {
		t.Fatalf("Expected successful construction, got error: %v", err)
	}
	if notifier == nil {
		t.Fatal("Expected notifier instance, got nil")
	}
}

func TestGitLabNotifier_NilRevisionIsNoop(t *testing.T) {
	t.Setenv("GITLAB_PRIVATE_TOKEN", "glpat-test-token")

	notifier, err := NewGitLabNotifier(&playbook.Notify{
		Provider: "gitlab",
		URL:      "https://gitlab.example.com",
		Project:  "group/app",
	})
	if err != nil {
		t.Fatal(err)
	}

	spec := &playbook.Spec{
		Notify: &playbook.Notify{Project: "group/app"},
	}

	// No revision means nothing to report; must not hit the network.
	if err := notifier.Notify(spec, nil, true); err != nil {
		t.Errorf("Expected no-op for nil revision, got error: %v", err)
	}
}
