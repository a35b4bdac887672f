package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAlert() Alert {
	return Alert{
		Type:    AlertTypeRunFailed,
		RunID:   "3f1c5a0e-run",
		Network: "devnet",
		Program: "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
		Title:   "Export run failed",
		Message: "fetch batch of 100 accounts: retries exhausted",
		Fields: map[string]string{
			"batch":    "3",
			"accounts": "250",
		},
	}
}

func captureServer(t *testing.T, status int) (*httptest.Server, *[]byte, *atomic.Int32) {
	t.Helper()
	var body []byte
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		if err == nil {
			body = b
		}
		hits.Add(1)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &body, &hits
}

func TestMultiAlerter_Send_AllChannels(t *testing.T) {
	slackSrv, _, slackHits := captureServer(t, http.StatusOK)
	webhookSrv, _, webhookHits := captureServer(t, http.StatusOK)

	multi := NewMultiAlerter(testLogger(), NewSlackAlerter(slackSrv.URL), NewWebhookAlerter(webhookSrv.URL))

	require.NoError(t, multi.Send(context.Background(), testAlert()))
	assert.Equal(t, int32(1), slackHits.Load())
	assert.Equal(t, int32(1), webhookHits.Load())
}

func TestMultiAlerter_PartialFailure(t *testing.T) {
	failSrv, _, _ := captureServer(t, http.StatusInternalServerError)
	goodSrv, _, goodHits := captureServer(t, http.StatusOK)

	multi := NewMultiAlerter(testLogger(), NewWebhookAlerter(failSrv.URL), NewWebhookAlerter(goodSrv.URL))

	err := multi.Send(context.Background(), testAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook returned status 500")
	assert.Equal(t, int32(1), goodHits.Load())
}

func TestFromURLs(t *testing.T) {
	assert.IsType(t, &NoopAlerter{}, FromURLs("", "", nil))
	assert.NoError(t, FromURLs("", "", nil).Send(context.Background(), testAlert()))

	multi, ok := FromURLs("https://hooks.slack.example/x", "https://alerts.example/hook", testLogger()).(*MultiAlerter)
	require.True(t, ok)
	require.Len(t, multi.alerters, 2)
	assert.Equal(t, "slack", alerterName(multi.alerters[0]))
	assert.Equal(t, "webhook", alerterName(multi.alerters[1]))
}

func TestSlackAlerter_PayloadFormat(t *testing.T) {
	srv, body, _ := captureServer(t, http.StatusOK)

	require.NoError(t, NewSlackAlerter(srv.URL).Send(context.Background(), testAlert()))

	var payload map[string]string
	require.NoError(t, json.Unmarshal(*body, &payload))
	text := payload["text"]

	assert.True(t, strings.HasPrefix(text, ":rotating_light: *[RUN_FAILED]*"), text)
	assert.Contains(t, text, "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA (devnet)")
	assert.Contains(t, text, "Export run failed")
	assert.Contains(t, text, "retries exhausted")
	assert.Less(t, strings.Index(text, "*accounts*"), strings.Index(text, "*batch*"), "fields are sorted")
	assert.Contains(t, text, "_run 3f1c5a0e-run_")

	emojiTests := []struct {
		alertType AlertType
		emoji     string
	}{
		{AlertTypeRunFailed, ":rotating_light:"},
		{AlertTypeDecodeFailures, ":warning:"},
		{AlertTypeExportFailed, ":floppy_disk:"},
	}
	for _, tc := range emojiTests {
		t.Run(fmt.Sprintf("emoji_%s", tc.alertType), func(t *testing.T) {
			emojiSrv, emojiBody, _ := captureServer(t, http.StatusOK)

			a := Alert{Type: tc.alertType, Network: "dev", Program: "p", Title: "t", Message: "m"}
			require.NoError(t, NewSlackAlerter(emojiSrv.URL).Send(context.Background(), a))

			var p map[string]string
			require.NoError(t, json.Unmarshal(*emojiBody, &p))
			assert.True(t, strings.HasPrefix(p["text"], tc.emoji), p["text"])
		})
	}
}

func TestWebhookAlerter_PayloadFormat(t *testing.T) {
	srv, body, _ := captureServer(t, http.StatusOK)

	webhook := NewWebhookAlerter(srv.URL)
	webhook.now = func() time.Time { return time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC) }

	require.NoError(t, webhook.Send(context.Background(), testAlert()))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(*body, &payload))

	assert.Equal(t, "RUN_FAILED", payload["type"])
	assert.Equal(t, "3f1c5a0e-run", payload["run_id"])
	assert.Equal(t, "devnet", payload["network"])
	assert.Equal(t, "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", payload["program"])
	assert.Equal(t, "Export run failed", payload["title"])
	assert.Equal(t, "2024-05-01T08:30:00Z", payload["time"])

	fields, ok := payload["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "250", fields["accounts"])
}

func TestWebhookAlerter_ContextCancelled(t *testing.T) {
	srv, _, hits := captureServer(t, http.StatusOK)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewWebhookAlerter(srv.URL).Send(ctx, testAlert())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), hits.Load())
}
