package notify

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	gitlab "github.com/xanzy/go-gitlab"

	"deploykit/internal/revision"
	"deploykit/pkg/playbook"
)

const statusContext = "deploykit"

// Notifier reports the outcome of a bootstrap run for a source revision.
// Notification is best-effort; callers log failures and move on.
type Notifier interface {
	Notify(spec *playbook.Spec, rev *revision.Info, succeeded bool) error
}

// GitLabNotifier posts a commit status to the configured GitLab project.
type GitLabNotifier struct {
	client *gitlab.Client
}

// NewGitLabNotifier creates a new GitLabNotifier with authentication.
func NewGitLabNotifier(cfg *playbook.Notify) (*GitLabNotifier, error) {
	token := os.Getenv("GITLAB_PRIVATE_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITLAB_PRIVATE_TOKEN environment variable is required")
	}

	baseURL := strings.TrimSuffix(cfg.URL, "/") + "/api/v4"
	client, err := gitlab.NewClient(token, gitlab.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}

	return &GitLabNotifier{client: client}, nil
}

// Notify sets the commit status for the captured revision. Without a
// revision there is nothing to attach the status to, so it becomes a no-op.
func (g *GitLabNotifier) Notify(spec *playbook.Spec, rev *revision.Info, succeeded bool) error {
	if rev == nil {
		slog.Info("No revision captured, skipping deployment notification")
		return nil
	}

	state := gitlab.Failed
	description := "deployment bootstrap failed"
	if succeeded {
		state = gitlab.Success
		description = "deployment bootstrap succeeded"
	}

	opts := &gitlab.SetCommitStatusOptions{
		State:       state,
		Context:     gitlab.String(statusContext),
		Description: gitlab.String(description),
	}

	_, _, err := g.client.Commits.SetCommitStatus(spec.Notify.Project, rev.Hash, opts)
	if err != nil {
		return fmt.Errorf("failed to set commit status: %w", err)
	}

	slog.Info("Deployment status reported", "project", spec.Notify.Project, "sha", rev.Hash, "state", state)
	return nil
}

// Ensure GitLabNotifier implements Notifier.
var _ Notifier = (*GitLabNotifier)(nil)
