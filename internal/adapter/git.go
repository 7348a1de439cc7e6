package adapter

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	m "github.com/BurtTheCoder/bouncer/internal/model"
)

// VCSAdapter abstracts the version-control collaborator used by
// incremental scans.
type VCSAdapter interface {
	// ChangedFiles returns the absolute paths of files changed under root
	// since the given reference. The since expression must already have
	// been validated by the caller.
	ChangedFiles(ctx context.Context, root m.Path, since string) ([]m.Path, error)
}

// GitVCSAdapter shells out to git for changed-file discovery.
type GitVCSAdapter struct{}

// NewGitVCSAdapter constructs a GitVCSAdapter.
func NewGitVCSAdapter() *GitVCSAdapter {
	return &GitVCSAdapter{}
}

// ChangedFiles lists files touched by commits since the given reference.
// Paths reported by git are relative to the repository top level, so the
// top level is resolved first to return absolute paths.
func (a *GitVCSAdapter) ChangedFiles(ctx context.Context, root m.Path, since string) ([]m.Path, error) {
	topOut, err := exec.CommandContext(ctx, "git", "-C", string(root), "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return nil, fmt.Errorf("resolve repository root: %w", err)
	}

	topLevel := strings.TrimSpace(string(topOut))

	out, err := exec.CommandContext(
		ctx,
		"git", "-C", string(root),
		"log",
		"--since="+since,
		"--name-only",
		"--diff-filter=ACMR",
		"--pretty=format:",
	).Output()
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}

	seen := make(map[string]struct{})

	var paths []m.Path

	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if _, ok := seen[line]; ok {
			continue
		}

		seen[line] = struct{}{}
		paths = append(paths, m.Path(filepath.Join(topLevel, line)))
	}

	return paths, nil
}
