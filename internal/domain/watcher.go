package domain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/BurtTheCoder/bouncer/internal/adapter"
	m "github.com/BurtTheCoder/bouncer/internal/model"
)

// Default watcher settings, overridable through configuration.
const (
	DefaultDebounceDelay     = 2 * time.Second
	DefaultPollInterval      = time.Second
	DefaultMaxPendingChanges = 5000
)

// maxEnqueueAttempts bounds how many poll cycles a promoted change is
// retried against a full event queue before it is dropped and counted.
const maxEnqueueAttempts = 5

// WatcherConfig holds the tunables of a FileWatcher.
type WatcherConfig struct {
	Root              m.Path
	Recursive         bool
	DebounceDelay     time.Duration
	PollInterval      time.Duration
	MaxPendingChanges int
}

// Validate reports configuration errors that must abort start before any
// partial operation begins.
func (c WatcherConfig) Validate() error {
	if c.DebounceDelay <= 0 {
		return fmt.Errorf("debounce delay must be positive, got %s", c.DebounceDelay)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}

	if c.MaxPendingChanges <= 0 {
		return fmt.Errorf("max pending changes must be positive, got %d", c.MaxPendingChanges)
	}

	info, err := os.Stat(string(c.Root))
	if err != nil {
		return fmt.Errorf("watch root: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("watch root %s is not a directory", c.Root)
	}

	return nil
}

// FileWatcher folds bursty raw filesystem notifications into settled
// FileChangeEvents. Notification intake and the poll-and-promote loop run
// as independent goroutines; the pending store is the only state they
// share and every access goes through one mutex.
type FileWatcher struct {
	fs     adapter.WatchFSAdapter
	filter *IgnoreFilter
	cfg    WatcherConfig
	queue  chan<- m.FileChangeEvent

	mu      sync.Mutex
	pending *PendingChangeStore

	backpressure atomic.Uint64
	dropped      atomic.Uint64
	emitted      atomic.Uint64
}

// NewFileWatcher wires a watcher to its notification source, ignore filter
// and the bounded event queue it feeds.
func NewFileWatcher(fs adapter.WatchFSAdapter, filter *IgnoreFilter, cfg WatcherConfig, queue chan<- m.FileChangeEvent) *FileWatcher {
	return &FileWatcher{
		fs:      fs,
		filter:  filter,
		cfg:     cfg,
		queue:   queue,
		pending: NewPendingChangeStore(cfg.MaxPendingChanges),
	}
}

// Run subscribes to raw notifications and blocks until ctx is cancelled.
func (w *FileWatcher) Run(ctx context.Context) error {
	if err := w.cfg.Validate(); err != nil {
		return fmt.Errorf("watcher config: %w", err)
	}

	if err := w.fs.Start(w.cfg.Root, w.cfg.Recursive); err != nil {
		return fmt.Errorf("start notifications: %w", err)
	}

	slog.Info("watching",
		"root", w.cfg.Root,
		"recursive", w.cfg.Recursive,
		"debounce_delay", w.cfg.DebounceDelay,
		"poll_interval", w.cfg.PollInterval)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.intakeLoop(ctx) })
	g.Go(func() error { return w.pollLoop(ctx) })

	err := g.Wait()

	if closeErr := w.fs.Close(); closeErr != nil {
		slog.Error("failed to close notification source", "error", closeErr)
	}

	return err
}

// intakeLoop consumes raw notifications until cancellation or source close.
func (w *FileWatcher) intakeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-w.fs.Events():
			if !ok {
				return nil
			}

			w.handleRaw(raw)
		}
	}
}

// handleRaw records one raw notification. Directory events carry no file
// content change and are skipped entirely.
func (w *FileWatcher) handleRaw(raw adapter.RawEvent) {
	if raw.IsDir {
		return
	}

	path := raw.Path
	if abs, err := filepath.Abs(string(path)); err == nil {
		path = m.Path(abs)
	}

	if w.filter.ShouldIgnore(path) {
		return
	}

	w.mu.Lock()
	w.pending.Upsert(path, raw.Kind, raw.At)
	w.mu.Unlock()

	slog.Debug("pending change recorded", "path", path, "kind", raw.Kind)
}

// pollLoop promotes settled records on a fixed cadence, independent of
// notification arrival.
func (w *FileWatcher) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.promote(time.Now())
		}
	}
}

// promote drains records whose debounce window elapsed and pushes them
// onto the event queue. A full queue is backpressure, not data loss: the
// record goes back into the store and is retried next tick, up to the
// attempt budget.
func (w *FileWatcher) promote(now time.Time) {
	w.mu.Lock()
	ready := w.pending.DrainReady(now, w.cfg.DebounceDelay)
	w.mu.Unlock()

	for _, rec := range ready {
		event := m.FileChangeEvent{
			Path:       rec.Path,
			Kind:       rec.Kind,
			ObservedAt: rec.LastSeen,
		}

		select {
		case w.queue <- event:
			w.emitted.Add(1)
			slog.Debug("event emitted", "path", rec.Path, "kind", rec.Kind)
		default:
			w.backpressure.Add(1)
			rec.Attempts++

			if rec.Attempts >= maxEnqueueAttempts {
				w.dropped.Add(1)
				slog.Error("event dropped after retries",
					"path", rec.Path, "attempts", rec.Attempts)

				continue
			}

			slog.Warn("event queue full, will retry",
				"path", rec.Path, "attempt", rec.Attempts)

			w.mu.Lock()
			w.pending.Restore(rec)
			w.mu.Unlock()
		}
	}
}

// PendingLen returns the current pending-change count.
func (w *FileWatcher) PendingLen() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.pending.Len()
}

// Emitted returns how many events reached the queue.
func (w *FileWatcher) Emitted() uint64 { return w.emitted.Load() }

// Backpressure returns how many enqueue attempts found the queue full.
func (w *FileWatcher) Backpressure() uint64 { return w.backpressure.Load() }

// Dropped returns how many events were shed after the retry budget.
func (w *FileWatcher) Dropped() uint64 { return w.dropped.Load() }

// Evicted returns how many pending records overflow eviction shed.
func (w *FileWatcher) Evicted() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.pending.Evicted()
}
