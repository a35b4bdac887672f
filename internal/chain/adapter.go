package chain

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

//go:generate mockgen -destination=mocks/mock_ledger.go -package=mocks . LedgerClient

// LedgerClient abstracts the ledger RPC surface the export pipeline consumes.
// Every call is a single network round-trip; retry policy lives in the caller.
type LedgerClient interface {
	// Network returns the network label (e.g., "devnet", "mainnet").
	Network() string

	// ListAccountsByOwnerAndSize returns every account owned by program whose
	// data is exactly size bytes, in the order the ledger reports them.
	ListAccountsByOwnerAndSize(ctx context.Context, program solana.PublicKey, size int) ([]KeyedAccount, error)

	// GetAccountBlobs returns one entry per address in request order.
	// A nil entry means the address currently has no account.
	GetAccountBlobs(ctx context.Context, addresses []solana.PublicKey) ([]*AccountBlob, error)

	// GetMostRecentReference returns the newest transaction touching address,
	// or nil when the address has no history.
	GetMostRecentReference(ctx context.Context, address solana.PublicKey) (*TxReference, error)
}

// AccountBlob is the raw account state for one address at query time.
type AccountBlob struct {
	Address  solana.PublicKey
	Data     []byte
	Owner    solana.PublicKey
	Lamports uint64
	Space    int
}

// KeyedAccount pairs an address with the account blob returned alongside it.
type KeyedAccount struct {
	Address solana.PublicKey
	Blob    AccountBlob
}

// TxReference identifies the most recent transaction touching an address.
type TxReference struct {
	Slot      uint64
	Signature string
}
