package revision

import (
	"errors"
	"fmt"
	"log/slog"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Info describes the source revision a bootstrap run was executed against.
type Info struct {
	Hash   string `json:"hash"`
	Branch string `json:"branch,omitempty"`
}

// Capture reads the git HEAD of the work directory. A directory that is not
// a repository (or has no commits yet) yields nil without error; revision
// capture is informational and never blocks the pipeline.
func Capture(dir string) (*Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			slog.Info("Work directory is not a git repository, skipping revision capture", "dir", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			slog.Info("Repository has no commits, skipping revision capture", "dir", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	info := &Info{
		Hash: head.Hash().String(),
	}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}

	return info, nil
}
