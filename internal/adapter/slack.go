package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	m "github.com/BurtTheCoder/bouncer/internal/model"
)

// severityRank orders result statuses for the min-severity gate.
var severityRank = map[m.Status]int{
	m.StatusApproved: 0,
	m.StatusFixed:    1,
	m.StatusWarning:  2,
	m.StatusDenied:   3,
}

// SlackNotifier posts check results to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL  string
	channel     string
	minSeverity m.Status
	client      *http.Client
}

// NewSlackNotifier creates a notifier for the given webhook. minSeverity
// suppresses reports whose worst status ranks below it.
func NewSlackNotifier(webhookURL, channel string, minSeverity m.Status) *SlackNotifier {
	if channel == "" {
		channel = "#bouncer"
	}

	return &SlackNotifier{
		webhookURL:  webhookURL,
		channel:     channel,
		minSeverity: minSeverity,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify builds a block-kit message and posts it. Results below the
// configured severity are skipped silently.
func (n *SlackNotifier) Notify(ctx context.Context, event m.FileChangeEvent, results []m.CheckResult) error {
	if !n.shouldNotify(results) {
		return nil
	}

	payload, err := json.Marshal(n.buildMessage(event, results))
	if err != nil {
		return fmt.Errorf("encode slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close slack response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}

	slog.Debug("slack notification sent", "path", event.Path)

	return nil
}

func (n *SlackNotifier) shouldNotify(results []m.CheckResult) bool {
	min := severityRank[n.minSeverity]

	for _, result := range results {
		if severityRank[result.Status] >= min {
			return true
		}
	}

	return false
}

func (n *SlackNotifier) buildMessage(event m.FileChangeEvent, results []m.CheckResult) map[string]any {
	emoji, overall, color := overallStatus(results)

	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{
				"type": "plain_text",
				"text": fmt.Sprintf("%s Bouncer Report: %s", emoji, overall),
			},
		},
		{
			"type": "section",
			"fields": []map[string]any{
				{"type": "mrkdwn", "text": fmt.Sprintf("*File:*\n`%s`", filepath.Base(string(event.Path)))},
				{"type": "mrkdwn", "text": fmt.Sprintf("*Event:*\n%s", event.Kind)},
			},
		},
	}

	for _, result := range results {
		text := fmt.Sprintf("*%s %s:* %s", statusGlyph(result.Status), result.CheckerName, result.Status)

		if len(result.Issues) > 0 {
			text += fmt.Sprintf("\n• Issues: %d", len(result.Issues))
		}

		if len(result.Fixes) > 0 {
			text += fmt.Sprintf("\n• Fixes: %d", len(result.Fixes))
		}

		for _, msg := range result.Messages {
			if msg == "" {
				continue
			}

			if len(msg) > 200 {
				msg = msg[:200] + "..."
			}

			text += fmt.Sprintf("\n_%s_", msg)

			break
		}

		blocks = append(blocks, map[string]any{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": text},
		})
	}

	blocks = append(blocks, map[string]any{"type": "divider"})

	return map[string]any{
		"channel": n.channel,
		"blocks":  blocks,
		"attachments": []map[string]any{{
			"color":  color,
			"footer": "Bouncer - Quality control at the door",
			"ts":     event.ObservedAt.Unix(),
		}},
	}
}

func overallStatus(results []m.CheckResult) (emoji, label, color string) {
	worst := m.StatusApproved
	for _, result := range results {
		if severityRank[result.Status] > severityRank[worst] {
			worst = result.Status
		}
	}

	switch worst {
	case m.StatusDenied:
		return "❌", "DENIED", "#ff0000"
	case m.StatusWarning:
		return "⚠️", "WARNING", "#ffaa00"
	case m.StatusFixed:
		return "🔧", "FIXED", "#00aaff"
	default:
		return "✅", "APPROVED", "#00ff00"
	}
}
