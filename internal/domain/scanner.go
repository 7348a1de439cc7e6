package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurtTheCoder/bouncer/internal/adapter"
	m "github.com/BurtTheCoder/bouncer/internal/model"
)

// ScanMode selects how the batch scanner discovers files.
type ScanMode int

const (
	// ScanFull enumerates every file under the target directory.
	ScanFull ScanMode = iota
	// ScanIncremental asks the VCS collaborator for files changed since a
	// reference point, falling back to a full scan on any failure.
	ScanIncremental
)

// ErrIssuesFound distinguishes "the scan worked and found issues" from a
// scan infrastructure failure.
var ErrIssuesFound = errors.New("issues found")

// ErrUnsafeSince rejects since expressions that could smuggle shell
// constructs into the VCS invocation.
var ErrUnsafeSince = errors.New("unsafe or invalid since expression")

var (
	sinceRelativeRe = regexp.MustCompile(`^[1-9][0-9]* (second|minute|hour|day|week|month|year)s? ago$`)
	sinceISODateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ValidateSince accepts only "<positive integer> <unit> ago" expressions,
// bare ISO dates, or the literals "yesterday"/"today". Everything else,
// including empty values and anything carrying shell metacharacters or a
// leading flag, is rejected before it can reach the external VCS tool.
func ValidateSince(since string) error {
	trimmed := strings.TrimSpace(since)
	if trimmed == "" {
		return fmt.Errorf("%w: empty", ErrUnsafeSince)
	}

	if strings.HasPrefix(trimmed, "-") {
		return fmt.Errorf("%w: leading flag in %q", ErrUnsafeSince, since)
	}

	if strings.ContainsAny(trimmed, ";`&|<>") || strings.Contains(trimmed, "$(") {
		return fmt.Errorf("%w: shell metacharacters in %q", ErrUnsafeSince, since)
	}

	if trimmed == "yesterday" || trimmed == "today" {
		return nil
	}

	if sinceRelativeRe.MatchString(trimmed) || sinceISODateRe.MatchString(trimmed) {
		return nil
	}

	return fmt.Errorf("%w: %q", ErrUnsafeSince, since)
}

// BatchScanner synthesizes FileChangeEvents for one-shot invocations and
// feeds them through the orchestrator's ProcessEvent, the same entry point
// live watcher events take.
type BatchScanner struct {
	fs     adapter.ScanFSAdapter
	vcs    adapter.VCSAdapter
	filter *IgnoreFilter
	orch   *Orchestrator
}

// NewBatchScanner wires a scanner to its filesystem and VCS collaborators.
func NewBatchScanner(fs adapter.ScanFSAdapter, vcs adapter.VCSAdapter, filter *IgnoreFilter, orch *Orchestrator) *BatchScanner {
	return &BatchScanner{fs: fs, vcs: vcs, filter: filter, orch: orch}
}

// Scan checks every discovered file and returns the aggregated summary.
// Target-directory problems are configuration errors and abort the scan;
// incremental-mode problems degrade to a full scan.
func (s *BatchScanner) Scan(ctx context.Context, target m.Path, mode ScanMode, since string) (m.ScanSummary, error) {
	var summary m.ScanSummary

	root, err := s.fs.Abs(target)
	if err != nil {
		return summary, fmt.Errorf("resolve target: %w", err)
	}

	info, err := os.Stat(string(root))
	if err != nil {
		return summary, fmt.Errorf("target directory: %w", err)
	}

	if !info.IsDir() {
		return summary, fmt.Errorf("target %s is not a directory", root)
	}

	files, err := s.discover(ctx, root, mode, since)
	if err != nil {
		return summary, err
	}

	now := time.Now()

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		event := m.FileChangeEvent{
			Path:       path,
			Kind:       m.Modified,
			ObservedAt: now,
			Metadata:   map[string]any{m.MetadataScanMode: "batch"},
		}

		results := s.orch.ProcessEvent(ctx, event)
		summary.Add(m.EventResults{Event: event, Results: results})
	}

	slog.Info("scan complete",
		"files_scanned", summary.FilesScanned,
		"issues_found", summary.IssuesFound,
		"fixes_applied", summary.FixesApplied)

	return summary, nil
}

// discover picks the file set for the requested mode.
func (s *BatchScanner) discover(ctx context.Context, root m.Path, mode ScanMode, since string) ([]m.Path, error) {
	if mode == ScanIncremental {
		files, ok := s.changedFiles(ctx, root, since)
		if ok {
			return files, nil
		}

		slog.Warn("incremental scan unavailable, falling back to full scan", "root", root)
	}

	return s.walkAll(root)
}

// walkAll enumerates every non-ignored file under root.
func (s *BatchScanner) walkAll(root m.Path) ([]m.Path, error) {
	var files []m.Path

	err := s.fs.WalkFiles(root, func(path m.Path) error {
		if s.filter.ShouldIgnore(path) {
			return nil
		}

		files = append(files, path)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate files: %w", err)
	}

	return files, nil
}

// changedFiles asks the VCS collaborator for the incremental file set. Any
// guard rejection or VCS failure reports not-ok so the caller can fall
// back to a full scan.
func (s *BatchScanner) changedFiles(ctx context.Context, root m.Path, since string) ([]m.Path, bool) {
	if err := ValidateSince(since); err != nil {
		slog.Warn("rejected since expression", "since", since, "error", err)
		return nil, false
	}

	changed, err := s.vcs.ChangedFiles(ctx, root, since)
	if err != nil {
		slog.Warn("vcs lookup failed", "root", root, "error", err)
		return nil, false
	}

	var files []m.Path

	for _, path := range changed {
		if !s.within(root, path) {
			continue
		}

		if !s.fs.FileExists(path) {
			continue
		}

		if s.filter.ShouldIgnore(path) {
			continue
		}

		files = append(files, path)
	}

	return files, true
}

// within reports whether path resolves inside root.
func (s *BatchScanner) within(root, path m.Path) bool {
	rel, err := filepath.Rel(string(root), string(path))
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
