package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_AllVariablesNonNil(t *testing.T) {
	t.Parallel()

	vars := []struct {
		name string
		val  any
	}{
		{"RPCCallsTotal", RPCCallsTotal},
		{"RPCRateLimitWaits", RPCRateLimitWaits},
		{"RetryAttemptsTotal", RetryAttemptsTotal},
		{"RetryExhaustedTotal", RetryExhaustedTotal},
		{"RetryBackoffSeconds", RetryBackoffSeconds},
		{"LocatorAccountsFound", LocatorAccountsFound},
		{"FetcherBatchesProcessed", FetcherBatchesProcessed},
		{"FetcherBatchErrors", FetcherBatchErrors},
		{"FetcherLatency", FetcherLatency},
		{"FetcherReferenceLookups", FetcherReferenceLookups},
		{"DecoderResultsTotal", DecoderResultsTotal},
		{"DecoderTrimmedBytes", DecoderTrimmedBytes},
		{"ExportRecordsWritten", ExportRecordsWritten},
		{"ExportErrors", ExportErrors},
		{"RunDurationSeconds", RunDurationSeconds},
		{"RunLastSuccessTimestamp", RunLastSuccessTimestamp},
		{"AlertsSentTotal", AlertsSentTotal},
		{"BreakerState", BreakerState},
	}

	for _, v := range vars {
		assert.NotNilf(t, v.val, "%s should not be nil", v.name)
	}
}

func TestMetrics_CounterIncrement(t *testing.T) {
	t.Parallel()

	c := RPCCallsTotal.WithLabelValues("test-network", "getMultipleAccounts", "rate_limited")
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(c))

	assert.NotPanics(t, func() { RetryAttemptsTotal.WithLabelValues("test-stage", "rate_limited").Inc() })
	assert.NotPanics(t, func() { RetryExhaustedTotal.WithLabelValues("test-stage", "other").Inc() })
	assert.NotPanics(t, func() { FetcherReferenceLookups.WithLabelValues("test-network", "found").Inc() })
	assert.NotPanics(t, func() { DecoderResultsTotal.WithLabelValues("trimmed").Inc() })
}

func TestMetrics_HistogramObserveNoPanic(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { FetcherLatency.WithLabelValues("test-network").Observe(1.5) })
	assert.NotPanics(t, func() { RetryBackoffSeconds.WithLabelValues("test-stage").Observe(2) })
	assert.NotPanics(t, func() { DecoderTrimmedBytes.Observe(25) })
}

func TestWriteTextfile(t *testing.T) {
	RunDurationSeconds.Set(12.5)

	path := filepath.Join(t.TempDir(), "exporter.prom")
	require.NoError(t, WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "exporter_run_duration_seconds 12.5")
}
