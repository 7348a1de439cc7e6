// Package model defines the data structures shared by the watcher,
// orchestrator and scanner.
package model

import "time"

// Path represents a file system path.
type Path string

// ChangeKind categorizes a file change event.
type ChangeKind string

const (
	// Created indicates the file did not exist before the change.
	Created ChangeKind = "created"
	// Modified indicates the file content was rewritten.
	Modified ChangeKind = "modified"
	// Deleted indicates the file was removed.
	Deleted ChangeKind = "deleted"
)

// FileChangeEvent is a settled file change, emitted after the debounce
// window elapsed or synthesized by a batch scan. Immutable once constructed.
type FileChangeEvent struct {
	Path       Path
	Kind       ChangeKind
	ObservedAt time.Time
	Metadata   map[string]any
}

// MetadataScanMode is the Metadata key tagging events synthesized by a
// batch scan rather than observed by the watcher.
const MetadataScanMode = "scan_mode"
