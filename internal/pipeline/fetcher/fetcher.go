package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/moses7054/indexer-v2/internal/chain"
	"github.com/moses7054/indexer-v2/internal/circuitbreaker"
	"github.com/moses7054/indexer-v2/internal/metrics"
	"github.com/moses7054/indexer-v2/internal/pipeline/retry"
	"github.com/moses7054/indexer-v2/internal/tracing"
)

const (
	defaultRequestDelay = 100 * time.Millisecond
	defaultBatchDelay   = 2000 * time.Millisecond

	stageAccounts  = "fetch_accounts"
	stageReference = "fetch_reference"
)

// FetchedAccount is one address of a batch with its account state and,
// when reference lookups are enabled, its most recent transaction.
// Blob is nil when the address has no account; Reference is nil when no
// reference was found or the lookup gave up.
type FetchedAccount struct {
	Address   solana.PublicKey
	Blob      *chain.AccountBlob
	Reference *chain.TxReference
}

// Fetcher retrieves batches from the ledger one request at a time, backing
// off on rate limits and spacing requests to stay under provider quotas.
type Fetcher struct {
	client  chain.LedgerClient
	retrier *retry.Retrier
	logger  *slog.Logger

	fetchReferences bool
	requestDelay    time.Duration
	batchDelay      time.Duration
	breaker         *circuitbreaker.Breaker
}

type Option func(*Fetcher)

// WithReferences toggles the per-address most-recent-transaction lookup.
func WithReferences(enabled bool) Option {
	return func(f *Fetcher) {
		f.fetchReferences = enabled
	}
}

// WithRequestDelay sets the pause before each reference lookup.
func WithRequestDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.requestDelay = d
	}
}

// WithBatchDelay sets the pause applied by Pause between batches.
func WithBatchDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.batchDelay = d
	}
}

// WithReferenceBreaker skips reference lookups while b is open.
func WithReferenceBreaker(b *circuitbreaker.Breaker) Option {
	return func(f *Fetcher) {
		f.breaker = b
	}
}

func New(client chain.LedgerClient, retrier *retry.Retrier, logger *slog.Logger, opts ...Option) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Fetcher{
		client:          client,
		retrier:         retrier,
		logger:          logger.With("component", "fetcher"),
		fetchReferences: true,
		requestDelay:    defaultRequestDelay,
		batchDelay:      defaultBatchDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// FetchBatch returns one FetchedAccount per address, in batch order.
// Failing to read the accounts themselves is fatal; failing to find a
// reference for an address is not.
func (f *Fetcher) FetchBatch(ctx context.Context, batch []solana.PublicKey) ([]FetchedAccount, error) {
	network := f.client.Network()
	ctx, span := tracing.Tracer("fetcher").Start(ctx, "fetcher.FetchBatch",
		otelTrace.WithAttributes(
			attribute.String("network", network),
			attribute.Int("batch_size", len(batch)),
			attribute.Bool("references", f.fetchReferences),
		),
	)
	defer span.End()
	start := time.Now()

	blobs, err := retry.Do(ctx, f.retrier, stageAccounts, func(ctx context.Context) ([]*chain.AccountBlob, error) {
		blobs, err := f.client.GetAccountBlobs(ctx, batch)
		if err == nil && len(blobs) != len(batch) {
			return nil, retry.Terminal(fmt.Errorf("ledger returned %d accounts for %d addresses", len(blobs), len(batch)))
		}
		return blobs, err
	})
	if err != nil {
		metrics.FetcherBatchErrors.WithLabelValues(network).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "account fetch failed")
		return nil, fmt.Errorf("fetch batch of %d accounts: %w", len(batch), err)
	}

	results := make([]FetchedAccount, len(batch))
	for i, addr := range batch {
		results[i] = FetchedAccount{Address: addr, Blob: blobs[i]}
	}

	if f.fetchReferences {
		for i := range results {
			ref, err := f.lookupReference(ctx, network, results[i].Address)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "reference lookups interrupted")
				return nil, err
			}
			results[i].Reference = ref
		}
	}

	metrics.FetcherBatchesProcessed.WithLabelValues(network).Inc()
	metrics.FetcherLatency.WithLabelValues(network).Observe(time.Since(start).Seconds())
	f.logger.Debug("batch fetched", "size", len(batch), "duration", time.Since(start))
	return results, nil
}

// lookupReference returns (nil, nil) when the address has no history or the
// lookup was abandoned. It only errors when ctx is done.
func (f *Fetcher) lookupReference(ctx context.Context, network string, addr solana.PublicKey) (*chain.TxReference, error) {
	if err := f.retrier.Sleep(ctx, f.requestDelay); err != nil {
		return nil, err
	}

	var ref *chain.TxReference
	lookup := func() error {
		var err error
		ref, err = retry.Do(ctx, f.retrier, stageReference, func(ctx context.Context) (*chain.TxReference, error) {
			return f.client.GetMostRecentReference(ctx, addr)
		})
		return err
	}

	var err error
	if f.breaker != nil {
		err = f.breaker.Call(lookup)
	} else {
		err = lookup()
	}
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		metrics.FetcherReferenceLookups.WithLabelValues(network, "skipped").Inc()
		return nil, nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		metrics.FetcherReferenceLookups.WithLabelValues(network, "failed").Inc()
		f.logger.Warn("no reference found; giving up on address",
			"address", addr.String(),
			"error", err,
		)
		return nil, nil
	}

	if ref == nil {
		metrics.FetcherReferenceLookups.WithLabelValues(network, "none").Inc()
		return nil, nil
	}
	metrics.FetcherReferenceLookups.WithLabelValues(network, "found").Inc()
	return ref, nil
}

// Pause waits out the inter-batch delay.
func (f *Fetcher) Pause(ctx context.Context) error {
	return f.retrier.Sleep(ctx, f.batchDelay)
}
