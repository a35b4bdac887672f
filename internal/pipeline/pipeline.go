// Package pipeline runs one export: locate accounts, fetch them in batches,
// decode each record, and write the CSV file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/moses7054/indexer-v2/internal/alert"
	"github.com/moses7054/indexer-v2/internal/domain/model"
	"github.com/moses7054/indexer-v2/internal/export"
	"github.com/moses7054/indexer-v2/internal/metrics"
	"github.com/moses7054/indexer-v2/internal/pipeline/batch"
	"github.com/moses7054/indexer-v2/internal/pipeline/decoder"
	"github.com/moses7054/indexer-v2/internal/pipeline/fetcher"
	"github.com/moses7054/indexer-v2/internal/tracing"
)

// maxReportedFailures caps how many decode failures are listed in an alert.
const maxReportedFailures = 10

type Config struct {
	Network   string
	Program   solana.PublicKey
	BatchSize int
	// FetchReferences adds slot and signature columns to the output.
	FetchReferences bool
	// StrictDecode aborts the run on the first absent or undecodable account
	// instead of skipping it.
	StrictDecode          bool
	IncludeAccountAddress bool
}

type Locator interface {
	Locate(ctx context.Context) ([]solana.PublicKey, error)
}

type BatchFetcher interface {
	FetchBatch(ctx context.Context, batch []solana.PublicKey) ([]fetcher.FetchedAccount, error)
	Pause(ctx context.Context) error
}

type Exporter interface {
	Export(rows []export.Row) (string, error)
}

// DecodeFailure is an account that was skipped because it could not be decoded.
type DecodeFailure struct {
	Address solana.PublicKey
	Outcome decoder.Outcome
	Err     error
}

// Summary describes a finished (or aborted) run.
type Summary struct {
	RunID             string
	Located           int
	Batches           int
	Decoded           int
	Trimmed           int
	Absent            int
	Failed            int
	ReferencesFound   int
	ReferencesMissing int
	OutputPath        string
	ExportErr         error
	Failures          []DecodeFailure
	Duration          time.Duration
}

type Runner struct {
	cfg      Config
	locator  Locator
	fetcher  BatchFetcher
	exporter Exporter
	alerter  alert.Alerter
	logger   *slog.Logger
	newRunID func() string
}

type Option func(*Runner)

func WithAlerter(a alert.Alerter) Option {
	return func(r *Runner) {
		r.alerter = a
	}
}

func WithRunID(fn func() string) Option {
	return func(r *Runner) {
		r.newRunID = fn
	}
}

func NewRunner(cfg Config, locator Locator, fetcher BatchFetcher, exporter Exporter, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		cfg:      cfg,
		locator:  locator,
		fetcher:  fetcher,
		exporter: exporter,
		alerter:  &alert.NoopAlerter{},
		logger:   logger.With("component", "pipeline"),
		newRunID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Run performs one export. The returned error is non-nil only for fatal
// failures: enumeration, batch fetch exhaustion, invalid batch size, or a
// decode failure in strict mode. An export write failure is reported in the
// Summary and logged but does not fail the run.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: r.newRunID()}
	log := r.logger.With("run_id", summary.RunID)
	start := time.Now()

	ctx, span := tracing.Tracer("pipeline").Start(ctx, "pipeline.Run",
		otelTrace.WithAttributes(
			attribute.String("run_id", summary.RunID),
			attribute.String("network", r.cfg.Network),
			attribute.String("program", r.cfg.Program.String()),
		),
	)
	defer span.End()

	err := r.run(ctx, log, summary)
	summary.Duration = time.Since(start)
	metrics.RunDurationSeconds.Set(summary.Duration.Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run failed")
		log.Error("export run failed", "error", err, "duration", summary.Duration)
		r.sendAlert(ctx, log, alert.Alert{
			Type:    alert.AlertTypeRunFailed,
			RunID:   summary.RunID,
			Network: r.cfg.Network,
			Program: r.cfg.Program.String(),
			Title:   "Export run failed",
			Message: err.Error(),
			Fields: map[string]string{
				"located": strconv.Itoa(summary.Located),
				"batches": strconv.Itoa(summary.Batches),
			},
		})
		return summary, err
	}

	metrics.RunLastSuccessTimestamp.SetToCurrentTime()
	log.Info("export run completed",
		"located", summary.Located,
		"decoded", summary.Decoded,
		"trimmed", summary.Trimmed,
		"absent", summary.Absent,
		"failed", summary.Failed,
		"references_found", summary.ReferencesFound,
		"references_missing", summary.ReferencesMissing,
		"path", summary.OutputPath,
		"duration", summary.Duration,
	)
	return summary, nil
}

func (r *Runner) run(ctx context.Context, log *slog.Logger, summary *Summary) error {
	addresses, err := r.locator.Locate(ctx)
	if err != nil {
		return err
	}
	summary.Located = len(addresses)

	batches, err := batch.Partition(addresses, r.cfg.BatchSize)
	if err != nil {
		return err
	}
	log.Info("partitioned accounts", "accounts", len(addresses), "batches", len(batches), "batch_size", r.cfg.BatchSize)

	rows := make([]export.Row, 0, len(addresses))
	for i, b := range batches {
		fetched, err := r.fetcher.FetchBatch(ctx, b)
		if err != nil {
			return fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
		}
		summary.Batches++

		for _, acct := range fetched {
			row, err := r.decode(log, summary, acct)
			if err != nil {
				return err
			}
			if row != nil {
				rows = append(rows, row)
			}
		}
		log.Info("batch processed", "batch", i+1, "of", len(batches), "size", len(b))

		if i < len(batches)-1 {
			if err := r.fetcher.Pause(ctx); err != nil {
				return err
			}
		}
	}

	if summary.Failed > 0 || summary.Absent > 0 {
		r.reportSkipped(ctx, log, summary)
	}

	path, err := r.exporter.Export(rows)
	if err != nil {
		summary.ExportErr = err
		log.Error("error saving CSV file", "error", err, "records", len(rows))
		r.sendAlert(ctx, log, alert.Alert{
			Type:    alert.AlertTypeExportFailed,
			RunID:   summary.RunID,
			Network: r.cfg.Network,
			Program: r.cfg.Program.String(),
			Title:   "Export file could not be written",
			Message: err.Error(),
			Fields:  map[string]string{"records": strconv.Itoa(len(rows))},
		})
		return nil
	}
	summary.OutputPath = path
	return nil
}

// decode turns one fetched account into an export row. It returns a nil row
// for skipped accounts, and an error only in strict mode.
func (r *Runner) decode(log *slog.Logger, summary *Summary, acct fetcher.FetchedAccount) (export.Row, error) {
	res := decoder.DecodeBlob(acct.Blob)

	switch res.Outcome {
	case decoder.OutcomeAbsent:
		if r.cfg.StrictDecode {
			return nil, fmt.Errorf("account %s no longer exists", acct.Address)
		}
		summary.Absent++
		summary.Failures = append(summary.Failures, DecodeFailure{Address: acct.Address, Outcome: res.Outcome})
		log.Warn("account absent; skipping", "address", acct.Address.String())
		return nil, nil
	case decoder.OutcomeDecodeFailed:
		if r.cfg.StrictDecode {
			return nil, fmt.Errorf("account %s: %w", acct.Address, res.Err)
		}
		summary.Failed++
		summary.Failures = append(summary.Failures, DecodeFailure{Address: acct.Address, Outcome: res.Outcome, Err: res.Err})
		log.Warn("account could not be decoded; skipping", "address", acct.Address.String(), "error", res.Err)
		return nil, nil
	}

	summary.Decoded++
	if res.Trimmed > 0 {
		summary.Trimmed++
	}

	var row export.Row
	if r.cfg.FetchReferences {
		rec := res.Record
		if acct.Reference != nil {
			summary.ReferencesFound++
			rec = rec.WithReference(acct.Reference.Slot, acct.Reference.Signature)
		} else {
			summary.ReferencesMissing++
		}
		row = rec
	} else {
		row = model.AccountView{ApplicationRecord: res.Record}
	}

	if r.cfg.IncludeAccountAddress {
		row = model.AddressedRecord{AccountAddress: acct.Address.String(), Row: row}
	}
	return row, nil
}

func (r *Runner) reportSkipped(ctx context.Context, log *slog.Logger, summary *Summary) {
	fields := map[string]string{
		"failed":  strconv.Itoa(summary.Failed),
		"absent":  strconv.Itoa(summary.Absent),
		"decoded": strconv.Itoa(summary.Decoded),
	}
	for i, f := range summary.Failures {
		if i == maxReportedFailures {
			break
		}
		reason := string(f.Outcome)
		if f.Err != nil {
			reason = f.Err.Error()
		}
		fields[f.Address.String()] = reason
	}

	r.sendAlert(ctx, log, alert.Alert{
		Type:    alert.AlertTypeDecodeFailures,
		RunID:   summary.RunID,
		Network: r.cfg.Network,
		Program: r.cfg.Program.String(),
		Title:   "Accounts skipped during export",
		Message: fmt.Sprintf("%d of %d accounts were not exported", summary.Failed+summary.Absent, summary.Located),
		Fields:  fields,
	})
}

func (r *Runner) sendAlert(ctx context.Context, log *slog.Logger, a alert.Alert) {
	// Alerts still go out when the run was cancelled.
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	if err := r.alerter.Send(ctx, a); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("alert delivery failed", "type", a.Type, "error", err)
	}
}
