package solana

import (
	"context"
	"fmt"
	"log/slog"

	solanago "github.com/gagliardetto/solana-go"

	"github.com/moses7054/indexer-v2/internal/chain"
	"github.com/moses7054/indexer-v2/internal/chain/ratelimit"
	"github.com/moses7054/indexer-v2/internal/chain/solana/rpc"
	"github.com/moses7054/indexer-v2/internal/pipeline/retry"
)

const (
	defaultLocateCommitment = "finalized"
	defaultFetchCommitment  = "confirmed"
)

type Adapter struct {
	client           rpc.RPCClient
	logger           *slog.Logger
	network          string
	limiter          *ratelimit.Limiter
	locateCommitment string
	fetchCommitment  string
}

var _ chain.LedgerClient = (*Adapter)(nil)

type Option func(*Adapter)

// WithLimiter caps the request rate of every RPC call made by the adapter.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(a *Adapter) {
		a.limiter = l
	}
}

// WithCommitments overrides the commitment used for account enumeration
// (locate) and for per-batch account and reference reads (fetch).
func WithCommitments(locate, fetch string) Option {
	return func(a *Adapter) {
		if locate != "" {
			a.locateCommitment = locate
		}
		if fetch != "" {
			a.fetchCommitment = fetch
		}
	}
}

func NewAdapter(rpcURL, network string, logger *slog.Logger, opts ...Option) *Adapter {
	return newAdapter(rpc.NewClient(rpcURL, logger), network, logger, opts...)
}

func newAdapter(client rpc.RPCClient, network string, logger *slog.Logger, opts ...Option) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{
		client:           client,
		logger:           logger.With("chain", "solana", "network", network),
		network:          network,
		locateCommitment: defaultLocateCommitment,
		fetchCommitment:  defaultFetchCommitment,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

func (a *Adapter) Network() string {
	return a.network
}

func (a *Adapter) ListAccountsByOwnerAndSize(ctx context.Context, program solanago.PublicKey, size int) ([]chain.KeyedAccount, error) {
	const method = "getProgramAccounts"
	if err := a.wait(ctx); err != nil {
		return nil, err
	}

	raw, err := a.client.GetProgramAccounts(ctx, program.String(), &rpc.GetProgramAccountsOpts{
		Commitment: a.locateCommitment,
		DataSize:   size,
	})
	ratelimit.RecordRPCCall(a.network, method, err)
	if err != nil {
		return nil, err
	}

	out := make([]chain.KeyedAccount, 0, len(raw))
	for _, acct := range raw {
		addr, err := solanago.PublicKeyFromBase58(acct.Pubkey)
		if err != nil {
			return nil, retry.Terminal(fmt.Errorf("%s: invalid pubkey %q: %w", method, acct.Pubkey, err))
		}
		blob, err := toBlob(addr, &acct.Account)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		out = append(out, chain.KeyedAccount{Address: addr, Blob: *blob})
	}

	a.logger.Info("listed program accounts",
		"program", program.String(),
		"data_size", size,
		"count", len(out),
	)
	return out, nil
}

func (a *Adapter) GetAccountBlobs(ctx context.Context, addresses []solanago.PublicKey) ([]*chain.AccountBlob, error) {
	const method = "getMultipleAccounts"
	if len(addresses) == 0 {
		return []*chain.AccountBlob{}, nil
	}
	if err := a.wait(ctx); err != nil {
		return nil, err
	}

	keys := make([]string, len(addresses))
	for i, addr := range addresses {
		keys[i] = addr.String()
	}

	raw, err := a.client.GetMultipleAccounts(ctx, keys, a.fetchCommitment)
	ratelimit.RecordRPCCall(a.network, method, err)
	if err != nil {
		return nil, err
	}

	out := make([]*chain.AccountBlob, len(addresses))
	for i, acct := range raw {
		if acct == nil {
			continue
		}
		blob, err := toBlob(addresses[i], acct)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		out[i] = blob
	}
	return out, nil
}

func (a *Adapter) GetMostRecentReference(ctx context.Context, address solanago.PublicKey) (*chain.TxReference, error) {
	const method = "getSignaturesForAddress"
	if err := a.wait(ctx); err != nil {
		return nil, err
	}

	sigs, err := a.client.GetSignaturesForAddress(ctx, address.String(), &rpc.GetSignaturesOpts{
		Limit:      1,
		Commitment: a.fetchCommitment,
	})
	ratelimit.RecordRPCCall(a.network, method, err)
	if err != nil {
		return nil, err
	}
	if len(sigs) == 0 {
		return nil, nil
	}
	return &chain.TxReference{
		Slot:      sigs[0].Slot,
		Signature: sigs[0].Signature,
	}, nil
}

func (a *Adapter) wait(ctx context.Context) error {
	if a.limiter == nil {
		return nil
	}
	return a.limiter.Wait(ctx)
}

func toBlob(addr solanago.PublicKey, acct *rpc.Account) (*chain.AccountBlob, error) {
	owner, err := solanago.PublicKeyFromBase58(acct.Owner)
	if err != nil {
		return nil, retry.Terminal(fmt.Errorf("account %s: invalid owner %q: %w", addr, acct.Owner, err))
	}
	space := acct.Space
	if space == 0 {
		space = len(acct.Data)
	}
	return &chain.AccountBlob{
		Address:  addr,
		Data:     []byte(acct.Data),
		Owner:    owner,
		Lamports: acct.Lamports,
		Space:    space,
	}, nil
}
