package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline stage counters and histograms, partitioned by network.

var (
	// RPC
	RPCCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exporter",
		Subsystem: "rpc",
		Name:      "calls_total",
		Help:      "Total ledger RPC calls by method and status class",
	}, []string{"network", "method", "status"})

	RPCRateLimitWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exporter",
		Subsystem: "rpc",
		Name:      "rate_limit_waits_total",
		Help:      "Total RPC calls delayed by the client-side rate limiter",
	}, []string{"network"})

	// Retry
	RetryAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exporter",
		Subsystem: "retry",
		Name:      "attempts_total",
		Help:      "Total retries scheduled after a failed call",
	}, []string{"stage", "class"})

	RetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exporter",
		Subsystem: "retry",
		Name:      "exhausted_total",
		Help:      "Total calls that failed after the retry ceiling",
	}, []string{"stage", "class"})

	RetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exporter",
		Subsystem: "retry",
		Name:      "backoff_seconds",
		Help:      "Backoff delay applied before a retry, jitter included",
		Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"stage"})

	// Locator
	LocatorAccountsFound = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "exporter",
		Subsystem: "locator",
		Name:      "accounts_found",
		Help:      "Accounts returned by the most recent program enumeration",
	}, []string{"network"})

	// Fetcher
	FetcherBatchesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exporter",
		Subsystem: "fetcher",
		Name:      "batches_processed_total",
		Help:      "Total address batches fetched",
	}, []string{"network"})

	FetcherBatchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exporter",
		Subsystem: "fetcher",
		Name:      "batch_errors_total",
		Help:      "Total batches that failed after retry exhaustion",
	}, []string{"network"})

	FetcherLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exporter",
		Subsystem: "fetcher",
		Name:      "batch_duration_seconds",
		Help:      "Batch fetch duration including reference lookups and backoff",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"network"})

	FetcherReferenceLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exporter",
		Subsystem: "fetcher",
		Name:      "reference_lookups_total",
		Help:      "Per-address reference lookups by outcome (found, none, failed, skipped)",
	}, []string{"network", "outcome"})

	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "exporter",
		Subsystem: "fetcher",
		Name:      "breaker_state",
		Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open)",
	}, []string{"name"})

	// Decoder
	DecoderResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exporter",
		Subsystem: "decoder",
		Name:      "results_total",
		Help:      "Decode outcomes (ok, trimmed, failed, absent)",
	}, []string{"outcome"})

	DecoderTrimmedBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exporter",
		Subsystem: "decoder",
		Name:      "trimmed_bytes",
		Help:      "Trailing bytes removed before a record decoded successfully",
		Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
	})

	// Export
	ExportRecordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "exporter",
		Subsystem: "export",
		Name:      "records_written_total",
		Help:      "Total records written to the export file",
	})

	ExportErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "exporter",
		Subsystem: "export",
		Name:      "errors_total",
		Help:      "Total export write failures",
	})

	// Run
	RunDurationSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "exporter",
		Subsystem: "run",
		Name:      "duration_seconds",
		Help:      "Wall-clock duration of the most recent run",
	})

	RunLastSuccessTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "exporter",
		Subsystem: "run",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the most recent run that completed without a fatal error",
	})

	// Alerts
	AlertsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exporter",
		Subsystem: "alert",
		Name:      "sent_total",
		Help:      "Total alerts delivered by channel and type",
	}, []string{"channel", "type"})
)

// WriteTextfile dumps the default registry in the text exposition format,
// for node_exporter's textfile collector. The write is atomic.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
