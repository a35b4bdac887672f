// Package locator enumerates the program accounts to export.
package locator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/moses7054/indexer-v2/internal/chain"
	"github.com/moses7054/indexer-v2/internal/metrics"
	"github.com/moses7054/indexer-v2/internal/pipeline/retry"
	"github.com/moses7054/indexer-v2/internal/tracing"
)

type Locator struct {
	client      chain.LedgerClient
	program     solana.PublicKey
	accountSize int
	retrier     *retry.Retrier
	logger      *slog.Logger
}

// New returns a Locator for accounts of exactly accountSize bytes owned by program.
// The retrier supplies the single rate-limit retry delay (its base delay, no jitter).
func New(client chain.LedgerClient, program solana.PublicKey, accountSize int, retrier *retry.Retrier, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{
		client:      client,
		program:     program,
		accountSize: accountSize,
		retrier:     retrier,
		logger:      logger.With("component", "locator"),
	}
}

// Locate returns the address of every matching account in ledger order.
// A rate-limited enumeration is retried once; every other failure is returned.
func (l *Locator) Locate(ctx context.Context) ([]solana.PublicKey, error) {
	ctx, span := tracing.Tracer("locator").Start(ctx, "locator.Locate")
	defer span.End()
	span.SetAttributes(
		attribute.String("program", l.program.String()),
		attribute.Int("account_size", l.accountSize),
	)

	accounts, err := l.client.ListAccountsByOwnerAndSize(ctx, l.program, l.accountSize)
	if err != nil {
		decision := retry.Classify(err)
		if !decision.IsRateLimited() {
			span.RecordError(err)
			span.SetStatus(codes.Error, "enumeration failed")
			return nil, fmt.Errorf("locate accounts of %s: %w", l.program, err)
		}

		delay := l.retrier.Policy().BaseDelay
		l.logger.Warn("account enumeration rate limited; retrying once",
			"classification_reason", decision.Reason,
			"delay", delay,
			"error", err,
		)
		metrics.RetryAttemptsTotal.WithLabelValues("locate", string(decision.Class)).Inc()
		if sleepErr := l.retrier.Sleep(ctx, delay); sleepErr != nil {
			return nil, sleepErr
		}

		accounts, err = l.client.ListAccountsByOwnerAndSize(ctx, l.program, l.accountSize)
		if err != nil {
			metrics.RetryExhaustedTotal.WithLabelValues("locate", string(retry.Classify(err).Class)).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "enumeration failed after retry")
			return nil, fmt.Errorf("locate accounts of %s after retry: %w", l.program, err)
		}
	}

	addresses := make([]solana.PublicKey, 0, len(accounts))
	for _, acct := range accounts {
		addresses = append(addresses, acct.Address)
	}

	metrics.LocatorAccountsFound.WithLabelValues(l.client.Network()).Set(float64(len(addresses)))
	span.SetAttributes(attribute.Int("accounts", len(addresses)))
	l.logger.Info("located program accounts", "program", l.program.String(), "count", len(addresses))
	return addresses, nil
}
