// Package adapter contains infrastructure adapters behind interfaces so the
// domain layer can be tested without touching the disk, the network or git.
package adapter

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	m "github.com/BurtTheCoder/bouncer/internal/model"
)

// RawEvent is a single normalized filesystem notification, before any
// filtering or debouncing.
type RawEvent struct {
	Path  m.Path
	Kind  m.ChangeKind
	IsDir bool
	At    time.Time
}

// WatchFSAdapter abstracts the raw filesystem notification source.
type WatchFSAdapter interface {
	// Start begins delivering notifications for the tree rooted at root.
	Start(root m.Path, recursive bool) error

	// Events returns the normalized notification stream. The channel is
	// closed after Close.
	Events() <-chan RawEvent

	// Close stops the subscription and releases the underlying watches.
	Close() error
}

// FsnotifyAdapter implements WatchFSAdapter on top of fsnotify. fsnotify
// watches single directories, so recursive mode registers every directory
// under the root up front and adds newly created directories as they appear.
type FsnotifyAdapter struct {
	watcher   *fsnotify.Watcher
	events    chan RawEvent
	recursive bool
}

// NewFsnotifyAdapter constructs an unstarted adapter.
func NewFsnotifyAdapter() *FsnotifyAdapter {
	return &FsnotifyAdapter{events: make(chan RawEvent, 64)}
}

// Start implements WatchFSAdapter.
func (a *FsnotifyAdapter) Start(root m.Path, recursive bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	a.watcher = watcher
	a.recursive = recursive

	if err := a.addTree(string(root)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", root, err)
	}

	go a.forward()

	return nil
}

// Events implements WatchFSAdapter.
func (a *FsnotifyAdapter) Events() <-chan RawEvent {
	return a.events
}

// Close implements WatchFSAdapter.
func (a *FsnotifyAdapter) Close() error {
	if a.watcher == nil {
		return nil
	}

	return a.watcher.Close()
}

// addTree registers root and, in recursive mode, every directory below it.
func (a *FsnotifyAdapter) addTree(root string) error {
	if !a.recursive {
		return a.watcher.Add(root)
	}

	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !entry.IsDir() {
			return nil
		}

		return a.watcher.Add(path)
	})
}

// forward normalizes fsnotify events until the watcher closes.
func (a *FsnotifyAdapter) forward() {
	defer close(a.events)

	for {
		select {
		case ev, ok := <-a.watcher.Events:
			if !ok {
				return
			}

			a.handle(ev)
		case err, ok := <-a.watcher.Errors:
			if !ok {
				return
			}

			slog.Error("watch error", "error", err)
		}
	}
}

func (a *FsnotifyAdapter) handle(ev fsnotify.Event) {
	kind, ok := mapOp(ev.Op)
	if !ok {
		return
	}

	isDir := false

	if info, err := os.Stat(ev.Name); err == nil {
		isDir = info.IsDir()

		// New directories join the watch so nested changes keep flowing.
		if isDir && a.recursive && ev.Op.Has(fsnotify.Create) {
			if err := a.addTree(ev.Name); err != nil {
				slog.Warn("failed to watch new directory", "path", ev.Name, "error", err)
			}
		}
	}

	a.events <- RawEvent{
		Path:  m.Path(ev.Name),
		Kind:  kind,
		IsDir: isDir,
		At:    time.Now(),
	}
}

// mapOp translates an fsnotify op into a change kind. Chmod-only events
// carry no content change and are dropped.
func mapOp(op fsnotify.Op) (m.ChangeKind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return m.Created, true
	case op.Has(fsnotify.Write):
		return m.Modified, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return m.Deleted, true
	default:
		return "", false
	}
}
