// Package checkers holds the built-in file checkers. Each checker decides
// for itself whether an event is in scope via its configured file types.
package checkers

import (
	"path/filepath"

	m "github.com/BurtTheCoder/bouncer/internal/model"
)

// Config is the shared per-checker configuration block.
type Config struct {
	Enabled   bool
	FileTypes []string
	AutoFix   bool
}

// Applies reports whether a checker with this config should look at the
// given event. An empty FileTypes list matches every file.
func (c Config) Applies(event m.FileChangeEvent) bool {
	if !c.Enabled {
		return false
	}

	if len(c.FileTypes) == 0 {
		return true
	}

	ext := filepath.Ext(string(event.Path))
	for _, ft := range c.FileTypes {
		if ext == ft {
			return true
		}
	}

	return false
}
