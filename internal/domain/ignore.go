// Package domain contains the event pipeline: the debouncing file watcher,
// the pending-change store, the batch scanner and the orchestrator that
// routes settled events through checkers and notifiers.
package domain

import (
	"strings"

	m "github.com/BurtTheCoder/bouncer/internal/model"
)

// IgnoreFilter excludes paths from all observation. A path is ignored when
// any configured pattern occurs as a substring of its string form. The
// matching is deliberately substring-based, not glob-based: a pattern like
// ".pyc" matches anywhere in the path, not only as an extension.
type IgnoreFilter struct {
	patterns []string
}

// NewIgnoreFilter builds a filter from an ordered pattern list. Empty
// patterns are discarded since they would match every path.
func NewIgnoreFilter(patterns []string) *IgnoreFilter {
	kept := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		if pattern != "" {
			kept = append(kept, pattern)
		}
	}

	return &IgnoreFilter{patterns: kept}
}

// ShouldIgnore reports whether the path matches any ignore pattern.
// Pure; called on the hot path for every raw notification.
func (f *IgnoreFilter) ShouldIgnore(path m.Path) bool {
	s := string(path)

	for _, pattern := range f.patterns {
		if strings.Contains(s, pattern) {
			return true
		}
	}

	return false
}
