package checkers

import (
	"context"
	"fmt"
	"os"
	"time"

	m "github.com/BurtTheCoder/bouncer/internal/model"
)

// DefaultMaxFileSize is the byte ceiling applied when none is configured.
const DefaultMaxFileSize = 1_000_000

// FileSizeChecker denies files larger than a configured byte ceiling.
type FileSizeChecker struct {
	cfg     Config
	maxSize int64
}

// NewFileSizeChecker builds a checker with the given configuration and
// size ceiling. A non-positive ceiling falls back to the default.
func NewFileSizeChecker(cfg Config, maxSize int64) *FileSizeChecker {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	return &FileSizeChecker{cfg: cfg, maxSize: maxSize}
}

// ShouldCheck reports whether the checker applies to this event.
func (c *FileSizeChecker) ShouldCheck(event m.FileChangeEvent) bool {
	if event.Kind == m.Deleted {
		return false
	}

	return c.cfg.Applies(event)
}

// Check compares the file's size against the ceiling.
func (c *FileSizeChecker) Check(_ context.Context, event m.FileChangeEvent) (m.CheckResult, error) {
	info, err := os.Stat(string(event.Path))
	if err != nil {
		return m.CheckResult{}, fmt.Errorf("stat %s: %w", event.Path, err)
	}

	result := m.CheckResult{
		CheckerName: "filesize",
		FilePath:    event.Path,
		Status:      m.StatusApproved,
		ProducedAt:  time.Now(),
	}

	if info.Size() > c.maxSize {
		result.Status = m.StatusDenied
		result.Issues = append(result.Issues, m.Issue{
			Category: "file_size",
			Severity: "medium",
			Message:  fmt.Sprintf("file size %d bytes exceeds limit %d bytes", info.Size(), c.maxSize),
		})
	}

	return result, nil
}
