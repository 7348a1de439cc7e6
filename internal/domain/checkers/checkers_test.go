package checkers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	m "github.com/BurtTheCoder/bouncer/internal/model"
)

func writeFile(t *testing.T, name, content string) m.Path {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	return m.Path(path)
}

func modified(path m.Path) m.FileChangeEvent {
	return m.FileChangeEvent{Path: path, Kind: m.Modified, ObservedAt: time.Now()}
}

func TestConfigApplies(t *testing.T) {
	t.Run("disabled checker never applies", func(t *testing.T) {
		cfg := Config{Enabled: false, FileTypes: []string{".py"}}
		if cfg.Applies(modified("/w/a.py")) {
			t.Errorf("disabled config must not apply")
		}
	})

	t.Run("empty file types match everything", func(t *testing.T) {
		cfg := Config{Enabled: true}
		if !cfg.Applies(modified("/w/a.bin")) {
			t.Errorf("expected match with empty file types")
		}
	})

	t.Run("extension gate", func(t *testing.T) {
		cfg := Config{Enabled: true, FileTypes: []string{".py", ".go"}}

		if !cfg.Applies(modified("/w/a.go")) {
			t.Errorf("expected .go to match")
		}

		if cfg.Applies(modified("/w/a.txt")) {
			t.Errorf("expected .txt not to match")
		}
	})
}

func TestSecretsChecker(t *testing.T) {
	checker := NewSecretsChecker(Config{Enabled: true, FileTypes: []string{".py"}})

	t.Run("denies hardcoded secrets", func(t *testing.T) {
		path := writeFile(t, "a.py", `API_KEY = "sk-1234567890"`)

		result, err := checker.Check(context.Background(), modified(path))
		if err != nil {
			t.Fatalf("Check error: %v", err)
		}

		if result.Status != m.StatusDenied {
			t.Errorf("expected denied, got %s", result.Status)
		}

		if len(result.Issues) == 0 || result.Issues[0].Category != "secret" {
			t.Errorf("expected a secret issue, got %v", result.Issues)
		}
	})

	t.Run("warns on dangerous patterns", func(t *testing.T) {
		path := writeFile(t, "a.py", "result = eval(user_input)")

		result, err := checker.Check(context.Background(), modified(path))
		if err != nil {
			t.Fatalf("Check error: %v", err)
		}

		if result.Status != m.StatusWarning {
			t.Errorf("expected warning, got %s", result.Status)
		}

		if len(result.Issues) == 0 || result.Issues[0].Category != "dangerous_code" {
			t.Errorf("expected a dangerous_code issue, got %v", result.Issues)
		}
	})

	t.Run("approves clean files", func(t *testing.T) {
		path := writeFile(t, "a.py", "def add(a, b):\n    return a + b\n")

		result, err := checker.Check(context.Background(), modified(path))
		if err != nil {
			t.Fatalf("Check error: %v", err)
		}

		if result.Status != m.StatusApproved || len(result.Issues) != 0 {
			t.Errorf("expected clean approval, got %s / %v", result.Status, result.Issues)
		}
	})

	t.Run("skips deleted files", func(t *testing.T) {
		event := m.FileChangeEvent{Path: "/w/gone.py", Kind: m.Deleted}
		if checker.ShouldCheck(event) {
			t.Errorf("deleted files must be skipped")
		}
	})

	t.Run("unreadable file is an error", func(t *testing.T) {
		if _, err := checker.Check(context.Background(), modified("/no/such/file.py")); err == nil {
			t.Errorf("expected error for missing file")
		}
	})
}

func TestFileSizeChecker(t *testing.T) {
	checker := NewFileSizeChecker(Config{Enabled: true}, 16)

	t.Run("denies oversized files", func(t *testing.T) {
		path := writeFile(t, "big.txt", "this line is longer than sixteen bytes")

		result, err := checker.Check(context.Background(), modified(path))
		if err != nil {
			t.Fatalf("Check error: %v", err)
		}

		if result.Status != m.StatusDenied {
			t.Errorf("expected denied, got %s", result.Status)
		}

		if len(result.Issues) == 0 || result.Issues[0].Category != "file_size" {
			t.Errorf("expected a file_size issue, got %v", result.Issues)
		}
	})

	t.Run("approves files under the ceiling", func(t *testing.T) {
		path := writeFile(t, "small.txt", "ok")

		result, err := checker.Check(context.Background(), modified(path))
		if err != nil {
			t.Fatalf("Check error: %v", err)
		}

		if result.Status != m.StatusApproved {
			t.Errorf("expected approved, got %s", result.Status)
		}
	})

	t.Run("non-positive ceiling uses the default", func(t *testing.T) {
		c := NewFileSizeChecker(Config{Enabled: true}, 0)
		if c.maxSize != DefaultMaxFileSize {
			t.Errorf("expected default ceiling, got %d", c.maxSize)
		}
	})
}
