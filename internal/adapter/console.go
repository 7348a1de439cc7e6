package adapter

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	m "github.com/BurtTheCoder/bouncer/internal/model"
)

var (
	approvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	deniedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	fixedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	pathStyle     = lipgloss.NewStyle().Bold(true)
	detailStyle   = lipgloss.NewStyle().Faint(true)
)

// ConsoleNotifier prints check results as styled status lines.
type ConsoleNotifier struct {
	out io.Writer
}

// NewConsoleNotifier creates a notifier writing to out.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

// Notify renders one line per check result plus a line per issue and fix.
func (n *ConsoleNotifier) Notify(_ context.Context, event m.FileChangeEvent, results []m.CheckResult) error {
	header := fmt.Sprintf("%s (%s)", pathStyle.Render(string(event.Path)), event.Kind)
	if _, err := fmt.Fprintln(n.out, header); err != nil {
		return err
	}

	for _, result := range results {
		line := fmt.Sprintf("  %s %s: %s",
			statusGlyph(result.Status), result.CheckerName, statusStyle(result.Status).Render(string(result.Status)))
		if _, err := fmt.Fprintln(n.out, line); err != nil {
			return err
		}

		for _, issue := range result.Issues {
			detail := fmt.Sprintf("    - [%s/%s] %s", issue.Category, issue.Severity, issue.Message)
			if _, err := fmt.Fprintln(n.out, detailStyle.Render(detail)); err != nil {
				return err
			}
		}

		for _, fix := range result.Fixes {
			detail := fmt.Sprintf("    + [%s] %s", fix.Category, fix.Message)
			if _, err := fmt.Fprintln(n.out, detailStyle.Render(detail)); err != nil {
				return err
			}
		}
	}

	return nil
}

func statusStyle(status m.Status) lipgloss.Style {
	switch status {
	case m.StatusDenied:
		return deniedStyle
	case m.StatusFixed:
		return fixedStyle
	case m.StatusWarning:
		return warningStyle
	default:
		return approvedStyle
	}
}

func statusGlyph(status m.Status) string {
	switch status {
	case m.StatusDenied:
		return "✗"
	case m.StatusFixed:
		return "🔧"
	case m.StatusWarning:
		return "!"
	default:
		return "✓"
	}
}
