package adapter

import (
	"context"
	"time"

	m "github.com/BurtTheCoder/bouncer/internal/model"
	"github.com/BurtTheCoder/bouncer/pkg"
)

// JournalEntry is one logged check outcome.
type JournalEntry struct {
	Path       m.Path          `json:"path"`
	Kind       m.ChangeKind    `json:"kind"`
	ObservedAt time.Time       `json:"observed_at"`
	Results    []m.CheckResult `json:"results"`
	LoggedAt   time.Time       `json:"logged_at"`
}

// FileLogNotifier appends every check outcome to a JSON-lines journal.
type FileLogNotifier struct {
	journal pkg.Journal[JournalEntry]
}

// NewFileLogNotifier opens (or creates) the journal at path.
func NewFileLogNotifier(path string) (*FileLogNotifier, error) {
	journal, err := pkg.NewJournal[JournalEntry](path)
	if err != nil {
		return nil, err
	}

	return &FileLogNotifier{journal: journal}, nil
}

// Notify appends one journal entry per event.
func (n *FileLogNotifier) Notify(_ context.Context, event m.FileChangeEvent, results []m.CheckResult) error {
	return n.journal.Append(JournalEntry{
		Path:       event.Path,
		Kind:       event.Kind,
		ObservedAt: event.ObservedAt,
		Results:    results,
		LoggedAt:   time.Now(),
	})
}

// Close releases the underlying journal.
func (n *FileLogNotifier) Close() error {
	return n.journal.Close()
}
