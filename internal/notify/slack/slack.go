// Package slack sends triage notifications to Slack via incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/mailtriage/internal/triage"
)

const (
	maxSummaryLen = 3000
	httpTimeout   = 10 * time.Second
)

// Notifier sends escalation and compliance events to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a new Slack notifier. If webhookURL is empty, sends are no-ops.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// EscalationRaised posts an escalation notice to the configured webhook.
func (n *Notifier) EscalationRaised(ctx context.Context, item *triage.EmailWithAnalysis) error {
	if n.webhookURL == "" {
		return nil
	}
	return n.post(ctx, escalationMessage(item))
}

// ComplianceFlagged posts a compliance alert to the configured webhook.
func (n *Notifier) ComplianceFlagged(ctx context.Context, email *triage.Email, analysis *triage.Analysis) error {
	if n.webhookURL == "" {
		return nil
	}
	return n.post(ctx, complianceMessage(email, analysis))
}

func (n *Notifier) post(ctx context.Context, msg map[string]any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func escalationMessage(item *triage.EmailWithAnalysis) map[string]any {
	var priority, summary string
	if item.Analysis != nil {
		priority = item.Analysis.Priority
		summary = item.Analysis.Summary
	}

	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(fmt.Sprintf("%s Escalated: %s", priorityEmoji(priority), item.Subject)),
			{"type": "divider"},
			fieldsBlock(item),
			summaryBlock(summary),
			{"type": "divider"},
			contextBlock(item.ID, item.ReceivedAt),
		},
	}
}

func complianceMessage(email *triage.Email, analysis *triage.Analysis) map[string]any {
	reason := analysis.ComplianceReason
	if reason == "" {
		reason = "flagged"
	}

	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(fmt.Sprintf("\U0001f6a8 Compliance: %s", reason)),
			{"type": "divider"},
			{
				"type": "section",
				"fields": []map[string]any{
					{"type": "mrkdwn", "text": fmt.Sprintf("*From:* %s", email.Sender)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Subject:* %s", email.Subject)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Sentiment:* %s", analysis.Sentiment)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Priority:* %s", analysis.Priority)},
				},
			},
			summaryBlock(analysis.Summary),
			{"type": "divider"},
			contextBlock(email.ID, email.ReceivedAt),
		},
	}
}

func headerBlock(text string) map[string]any {
	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func fieldsBlock(item *triage.EmailWithAnalysis) map[string]any {
	fields := []map[string]any{
		{"type": "mrkdwn", "text": fmt.Sprintf("*From:* %s", item.Sender)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Assigned:* %s", item.EscalatedTo)},
	}
	if item.Analysis != nil {
		fields = append(fields,
			map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Intent:* %s", item.Analysis.Intent)},
			map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Sentiment:* %s", item.Analysis.Sentiment)},
			map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Priority:* %s", item.Analysis.Priority)},
			map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Action:* %s", item.Analysis.RecommendedAction)},
		)
	}
	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func summaryBlock(summary string) map[string]any {
	text := truncate(summary, maxSummaryLen)
	if text == "" {
		text = "_No summary available._"
	}
	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Summary*\n\n%s", text),
		},
	}
}

func contextBlock(id string, received time.Time) map[string]any {
	return map[string]any{
		"type": "context",
		"elements": []map[string]any{
			{
				"type": "mrkdwn",
				"text": fmt.Sprintf("mailtriage • email %s • received %s", id, received.UTC().Format("2006-01-02 15:04 UTC")),
			},
		},
	}
}

func priorityEmoji(priority string) string {
	switch strings.ToLower(priority) {
	case "high":
		return "\U0001f534" // red circle
	case "medium":
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
