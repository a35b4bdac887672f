package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/moses7054/indexer-v2/internal/metrics"
)

type AlertType string

const (
	AlertTypeRunFailed      AlertType = "RUN_FAILED"
	AlertTypeDecodeFailures AlertType = "DECODE_FAILURES"
	AlertTypeExportFailed   AlertType = "EXPORT_FAILED"
)

// Alert is one notification about an exporter run.
type Alert struct {
	Type    AlertType
	RunID   string
	Network string
	Program string
	Title   string
	Message string
	Fields  map[string]string
}

type Alerter interface {
	Send(ctx context.Context, alert Alert) error
}

// MultiAlerter fans an alert out to every configured channel.
type MultiAlerter struct {
	alerters []Alerter
	logger   *slog.Logger
}

func NewMultiAlerter(logger *slog.Logger, alerters ...Alerter) *MultiAlerter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiAlerter{
		alerters: alerters,
		logger:   logger.With("component", "alerter"),
	}
}

// FromURLs builds an Alerter for whichever webhook URLs are non-empty.
// With none set it returns a NoopAlerter.
func FromURLs(slackURL, webhookURL string, logger *slog.Logger) Alerter {
	var alerters []Alerter
	if slackURL != "" {
		alerters = append(alerters, NewSlackAlerter(slackURL))
	}
	if webhookURL != "" {
		alerters = append(alerters, NewWebhookAlerter(webhookURL))
	}
	if len(alerters) == 0 {
		return &NoopAlerter{}
	}
	return NewMultiAlerter(logger, alerters...)
}

// Send delivers alert to every channel and returns the first failure.
// A failing channel does not stop delivery to the others.
func (m *MultiAlerter) Send(ctx context.Context, alert Alert) error {
	var firstErr error
	for _, a := range m.alerters {
		if err := a.Send(ctx, alert); err != nil {
			m.logger.Warn("alert send failed",
				"channel", alerterName(a),
				"type", alert.Type,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		metrics.AlertsSentTotal.WithLabelValues(alerterName(a), string(alert.Type)).Inc()
	}
	return firstErr
}

func alerterName(a Alerter) string {
	switch a.(type) {
	case *SlackAlerter:
		return "slack"
	case *WebhookAlerter:
		return "webhook"
	default:
		return "unknown"
	}
}

type SlackAlerter struct {
	webhookURL string
	client     *http.Client
}

func NewSlackAlerter(webhookURL string) *SlackAlerter {
	return &SlackAlerter{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SlackAlerter) Send(ctx context.Context, alert Alert) error {
	emoji := ":warning:"
	switch alert.Type {
	case AlertTypeRunFailed:
		emoji = ":rotating_light:"
	case AlertTypeExportFailed:
		emoji = ":floppy_disk:"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s *[%s]* %s (%s): %s\n%s",
		emoji, alert.Type, alert.Program, alert.Network, alert.Title, alert.Message)

	if len(alert.Fields) > 0 {
		keys := make([]string, 0, len(alert.Fields))
		for k := range alert.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "- *%s*: %s\n", k, alert.Fields[k])
		}
	}
	if alert.RunID != "" {
		fmt.Fprintf(&sb, "_run %s_", alert.RunID)
	}

	return postJSON(ctx, s.client, s.webhookURL, "slack", map[string]string{"text": sb.String()})
}

// WebhookAlerter posts the alert as a flat JSON object.
type WebhookAlerter struct {
	url    string
	client *http.Client
	now    func() time.Time
}

func NewWebhookAlerter(url string) *WebhookAlerter {
	return &WebhookAlerter{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

func (w *WebhookAlerter) Send(ctx context.Context, alert Alert) error {
	payload := map[string]any{
		"type":    string(alert.Type),
		"run_id":  alert.RunID,
		"network": alert.Network,
		"program": alert.Program,
		"title":   alert.Title,
		"message": alert.Message,
		"fields":  alert.Fields,
		"time":    w.now().UTC().Format(time.RFC3339),
	}
	return postJSON(ctx, w.client, w.url, "webhook", payload)
}

func postJSON(ctx context.Context, client *http.Client, url, channel string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", channel, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", channel, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s alert: %w", channel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d", channel, resp.StatusCode)
	}
	return nil
}

// NoopAlerter does nothing. Used when no alert channels are configured.
type NoopAlerter struct{}

func (n *NoopAlerter) Send(_ context.Context, _ Alert) error { return nil }
