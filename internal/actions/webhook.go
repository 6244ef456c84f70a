package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"threat-monitor/internal/models"
)

const pagerDutyEventsURL = "https://events.pagerduty.com/v2/enqueue"

// WebhookSender POSTs the full alert as JSON to the configured URL.
type WebhookSender struct {
	Client *http.Client
}

func (s *WebhookSender) Send(ctx context.Context, act models.AlertAction, alert models.ThreatAlert) error {
	url, err := configString(act, "url")
	if err != nil {
		return err
	}
	return postJSON(ctx, s.Client, url, alert)
}

// SlackSender posts a text summary to a Slack incoming webhook.
type SlackSender struct {
	Client *http.Client
}

func (s *SlackSender) Send(ctx context.Context, act models.AlertAction, alert models.ThreatAlert) error {
	url, err := configString(act, "webhook_url")
	if err != nil {
		return err
	}
	payload := map[string]any{
		"text": fmt.Sprintf(":rotating_light: *%s* [%s]\n%s\nSource: %s | Rule: %s",
			alert.Title, alert.Severity, alert.Description, alert.Source, alert.RuleName),
	}
	return postJSON(ctx, s.Client, url, payload)
}

// TeamsSender posts a MessageCard to a Microsoft Teams incoming webhook.
type TeamsSender struct {
	Client *http.Client
}

func (s *TeamsSender) Send(ctx context.Context, act models.AlertAction, alert models.ThreatAlert) error {
	url, err := configString(act, "webhook_url")
	if err != nil {
		return err
	}
	payload := map[string]any{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": teamsColor(alert.Severity),
		"summary":    alert.Title,
		"title":      fmt.Sprintf("[%s] %s", alert.Severity, alert.Title),
		"text":       fmt.Sprintf("%s<br>Source: %s<br>Rule: %s", alert.Description, alert.Source, alert.RuleName),
	}
	return postJSON(ctx, s.Client, url, payload)
}

// PagerDutySender triggers a PagerDuty Events API v2 incident.
type PagerDutySender struct {
	Client *http.Client
	// URL overrides the Events API endpoint. Used in tests.
	URL string
}

func (s *PagerDutySender) Send(ctx context.Context, act models.AlertAction, alert models.ThreatAlert) error {
	key, err := configString(act, "routing_key")
	if err != nil {
		return err
	}
	url := s.URL
	if url == "" {
		url = pagerDutyEventsURL
	}
	payload := map[string]any{
		"routing_key":  key,
		"event_action": "trigger",
		"dedup_key":    alert.ID,
		"payload": map[string]any{
			"summary":  alert.Title,
			"source":   alert.Source,
			"severity": pagerDutySeverity(alert.Severity),
			"custom_details": map[string]any{
				"rule":       alert.RuleName,
				"indicators": alert.Indicators,
			},
		},
	}
	return postJSON(ctx, s.Client, url, payload)
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("endpoint %s returned status %d", url, resp.StatusCode)
	}
	return nil
}

func configString(act models.AlertAction, key string) (string, error) {
	v, ok := act.Config[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s not set in %s action configuration", key, act.Type)
	}
	return v, nil
}

func teamsColor(sev models.Severity) string {
	switch sev {
	case models.SeverityCritical:
		return "d7000f"
	case models.SeverityHigh:
		return "ff8c00"
	case models.SeverityMedium:
		return "ffd700"
	default:
		return "2eb886"
	}
}

func pagerDutySeverity(sev models.Severity) string {
	switch sev {
	case models.SeverityCritical:
		return "critical"
	case models.SeverityHigh:
		return "error"
	case models.SeverityMedium:
		return "warning"
	default:
		return "info"
	}
}
