package checkers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	m "github.com/BurtTheCoder/bouncer/internal/model"
)

// secretPatterns are substrings that suggest a hardcoded credential.
// Matching is case-insensitive.
var secretPatterns = []string{
	"api_key",
	"api-key",
	"apikey",
	"password",
	"secret_key",
	"secret-key",
	"secretkey",
	"private_key",
	"access_token",
	"auth_token",
}

// dangerousPatterns are code constructs worth a warning but not a denial.
// Matching is case-sensitive.
var dangerousPatterns = []string{
	"eval(",
	"exec(",
	"os.system(",
	"subprocess.call(",
	"__import__",
	"rm -rf",
}

// SecretsChecker denies files that appear to contain hardcoded credentials
// and warns about dangerous code constructs.
type SecretsChecker struct {
	cfg Config
}

// NewSecretsChecker builds a checker with the given configuration.
func NewSecretsChecker(cfg Config) *SecretsChecker {
	return &SecretsChecker{cfg: cfg}
}

// ShouldCheck reports whether the checker applies to this event. Deleted
// files have no content left to inspect.
func (c *SecretsChecker) ShouldCheck(event m.FileChangeEvent) bool {
	if event.Kind == m.Deleted {
		return false
	}

	return c.cfg.Applies(event)
}

// Check scans the file content for secret and dangerous patterns.
func (c *SecretsChecker) Check(_ context.Context, event m.FileChangeEvent) (m.CheckResult, error) {
	content, err := os.ReadFile(string(event.Path))
	if err != nil {
		return m.CheckResult{}, fmt.Errorf("read %s: %w", event.Path, err)
	}

	result := m.CheckResult{
		CheckerName: "secrets",
		FilePath:    event.Path,
		Status:      m.StatusApproved,
		ProducedAt:  time.Now(),
	}

	lower := strings.ToLower(string(content))
	for _, pattern := range secretPatterns {
		if strings.Contains(lower, pattern) {
			result.Issues = append(result.Issues, m.Issue{
				Category: "secret",
				Severity: "high",
				Message:  fmt.Sprintf("potential hardcoded secret %q, use environment variables instead", pattern),
			})
		}
	}

	if len(result.Issues) > 0 {
		result.Status = m.StatusDenied

		slog.Warn("potential secrets detected", "path", event.Path, "count", len(result.Issues))

		return result, nil
	}

	text := string(content)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(text, pattern) {
			result.Issues = append(result.Issues, m.Issue{
				Category: "dangerous_code",
				Severity: "medium",
				Message:  fmt.Sprintf("dangerous pattern %q, review carefully", pattern),
			})
		}
	}

	if len(result.Issues) > 0 {
		result.Status = m.StatusWarning
	}

	return result, nil
}
