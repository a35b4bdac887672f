package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/moses7054/indexer-v2/internal/alert"
	"github.com/moses7054/indexer-v2/internal/chain/ratelimit"
	"github.com/moses7054/indexer-v2/internal/chain/solana"
	"github.com/moses7054/indexer-v2/internal/circuitbreaker"
	"github.com/moses7054/indexer-v2/internal/config"
	"github.com/moses7054/indexer-v2/internal/export"
	"github.com/moses7054/indexer-v2/internal/metrics"
	"github.com/moses7054/indexer-v2/internal/pipeline"
	"github.com/moses7054/indexer-v2/internal/pipeline/fetcher"
	"github.com/moses7054/indexer-v2/internal/pipeline/locator"
	"github.com/moses7054/indexer-v2/internal/pipeline/retry"
	"github.com/moses7054/indexer-v2/internal/tracing"
)

const serviceName = "indexer-v2-exporter"

var initTracing = tracing.Init

func main() {
	os.Exit(realMain())
}

// realMain returns the process exit code. Deferred tracing shutdown runs
// before the process exits so the spans of a failed run are flushed.
func realMain() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := newLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting exporter",
		"rpc", cfg.Solana.RPCURL,
		"network", cfg.Solana.Network,
		"program", cfg.ProgramKey().String(),
		"account_size", cfg.Program.AccountSize,
		"batch_size", cfg.Pipeline.BatchSize,
		"fetch_references", cfg.Pipeline.FetchReferences,
		"strict_decode", cfg.Pipeline.StrictDecode,
		"export_dir", cfg.Export.Dir,
	)

	tracingEndpoint := ""
	if cfg.Tracing.Enabled {
		tracingEndpoint = cfg.Tracing.Endpoint
	}
	shutdownTracing, err := initTracing(context.Background(), serviceName, tracingEndpoint, cfg.Tracing.Insecure, cfg.Tracing.SampleRatio)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown error", "error", err)
		}
	}()
	if cfg.Tracing.Enabled {
		logger.Info("tracing enabled", "endpoint", cfg.Tracing.Endpoint)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := run(ctx, cfg, logger)
	if err != nil {
		logger.Error("exporter failed", "error", err)
		return 1
	}
	if summary.ExportErr != nil {
		logger.Warn("run finished without writing output", "run_id", summary.RunID, "error", summary.ExportErr)
		return 0
	}
	logger.Info("exporter finished", "run_id", summary.RunID, "output", summary.OutputPath, "rows", summary.Decoded)
	return 0
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// run executes one export pass. The metrics server, when configured, lives
// only as long as the pass.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pipeline.Summary, error) {
	runner := buildRunner(cfg, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(runCtx)

	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return runMetricsServer(gCtx, cfg.Metrics.Addr, logger)
		})
	}

	var summary *pipeline.Summary
	g.Go(func() error {
		defer cancel()
		s, err := runner.Run(gCtx)
		summary = s
		return err
	})

	err := g.Wait()

	if cfg.Metrics.Textfile != "" {
		if werr := metrics.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			logger.Warn("failed to write metrics textfile", "path", cfg.Metrics.Textfile, "error", werr)
		}
	}

	return summary, err
}

func buildRunner(cfg *config.Config, logger *slog.Logger) *pipeline.Runner {
	adapterOpts := []solana.Option{
		solana.WithCommitments(cfg.Solana.LocateCommitment, cfg.Solana.FetchCommitment),
	}
	if cfg.RPC.RPS > 0 {
		adapterOpts = append(adapterOpts, solana.WithLimiter(ratelimit.NewLimiter(cfg.RPC.RPS, cfg.RPC.Burst, cfg.Solana.Network)))
	}
	adapter := solana.NewAdapter(cfg.Solana.RPCURL, cfg.Solana.Network, logger, adapterOpts...)

	retrier := retry.New(retry.Policy{
		MaxRetries:      cfg.RateLimit.MaxRetries,
		OtherMaxRetries: cfg.RateLimit.OtherMaxRetries,
		BaseDelay:       cfg.RateLimit.BaseDelay(),
		MaxDelay:        cfg.RateLimit.MaxDelay(),
		MaxJitter:       cfg.RateLimit.MaxJitter(),
	}, logger)

	fetchOpts := []fetcher.Option{
		fetcher.WithReferences(cfg.Pipeline.FetchReferences),
		fetcher.WithRequestDelay(cfg.RateLimit.RequestDelay()),
		fetcher.WithBatchDelay(cfg.RateLimit.BatchDelay()),
	}
	if cfg.Pipeline.FetchReferences && cfg.Reference.BreakerThreshold > 0 {
		breakerLog := logger.With("component", "circuit_breaker")
		fetchOpts = append(fetchOpts, fetcher.WithReferenceBreaker(circuitbreaker.New(circuitbreaker.Config{
			Name:             "reference_lookup",
			FailureThreshold: cfg.Reference.BreakerThreshold,
			OpenTimeout:      cfg.Reference.BreakerOpenTimeout(),
			OnStateChange: func(from, to circuitbreaker.State) {
				breakerLog.Warn("reference breaker state changed", "from", from.String(), "to", to.String())
			},
		})))
	}

	loc := locator.New(adapter, cfg.ProgramKey(), cfg.Program.AccountSize, retrier, logger)
	f := fetcher.New(adapter, retrier, logger, fetchOpts...)
	exporter := export.New(cfg.Export.Dir, cfg.ExportPrefix(), logger)

	return pipeline.NewRunner(pipeline.Config{
		Network:               cfg.Solana.Network,
		Program:               cfg.ProgramKey(),
		BatchSize:             cfg.Pipeline.BatchSize,
		FetchReferences:       cfg.Pipeline.FetchReferences,
		StrictDecode:          cfg.Pipeline.StrictDecode,
		IncludeAccountAddress: cfg.Export.IncludeAccountAddress,
	}, loc, f, exporter, logger,
		pipeline.WithAlerter(alert.FromURLs(cfg.Alert.SlackWebhookURL, cfg.Alert.WebhookURL, logger)),
	)
}

func runMetricsServer(ctx context.Context, addr string, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics server: %w", err)
	}
	return serveMetrics(ctx, ln, logger)
}

func serveMetrics(ctx context.Context, ln net.Listener, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			logger.Warn("failed to write health response", "error", err)
		}
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown error", "error", err)
		}
	}()

	logger.Info("metrics server started", "addr", ln.Addr().String())
	if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
