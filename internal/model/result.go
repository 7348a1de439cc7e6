package model

import "time"

// Status represents the verdict of a single checker invocation.
type Status string

const (
	// StatusApproved means the checker found nothing wrong.
	StatusApproved Status = "approved"
	// StatusDenied means the checker found blocking issues.
	StatusDenied Status = "denied"
	// StatusFixed means the checker repaired the file itself.
	StatusFixed Status = "fixed"
	// StatusWarning means the checker found non-blocking issues.
	StatusWarning Status = "warning"
)

// Issue is a single problem reported by a checker. The schema is owned by
// the checker; the core only carries it.
type Issue struct {
	Category string `json:"category"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Line     int    `json:"line,omitempty"`
}

// Fix is a single repair applied by a checker.
type Fix struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Line     int    `json:"line,omitempty"`
}

// CheckResult is the outcome of one checker invocation for one event.
// Constructed once, never mutated.
type CheckResult struct {
	CheckerName string    `json:"checker_name"`
	FilePath    Path      `json:"file_path"`
	Status      Status    `json:"status"`
	Issues      []Issue   `json:"issues,omitempty"`
	Fixes       []Fix     `json:"fixes,omitempty"`
	Messages    []string  `json:"messages,omitempty"`
	ProducedAt  time.Time `json:"produced_at"`
}

// EventResults pairs an event with the aggregated results of every checker
// that ran for it, in checker-registration order.
type EventResults struct {
	Event   FileChangeEvent
	Results []CheckResult
}
