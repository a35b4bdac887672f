package rpc

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// JSON-RPC request/response types

type Request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// HTTPStatusError is returned when the RPC endpoint answers with a non-200 status.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// AccountData is the ["<payload>", "base64"] pair used by account-returning methods.
type AccountData []byte

func (d *AccountData) UnmarshalJSON(raw []byte) error {
	var pair []string
	if err := json.Unmarshal(raw, &pair); err != nil {
		return fmt.Errorf("account data: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("account data: expected [data, encoding], got %d elements", len(pair))
	}
	if pair[1] != EncodingBase64 {
		return fmt.Errorf("account data: unsupported encoding %q", pair[1])
	}
	decoded, err := base64.StdEncoding.DecodeString(pair[0])
	if err != nil {
		return fmt.Errorf("account data: %w", err)
	}
	*d = decoded
	return nil
}

const EncodingBase64 = "base64"

// Account is the account object shared by getProgramAccounts and getMultipleAccounts.
type Account struct {
	Data       AccountData `json:"data"`
	Executable bool        `json:"executable"`
	Lamports   uint64      `json:"lamports"`
	Owner      string      `json:"owner"`
	RentEpoch  uint64      `json:"rentEpoch"`
	Space      int         `json:"space"`
}

// getProgramAccounts response element
type KeyedAccount struct {
	Pubkey  string  `json:"pubkey"`
	Account Account `json:"account"`
}

// getMultipleAccounts response
type MultipleAccountsResult struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value []*Account `json:"value"`
}

// getSignaturesForAddress response
type SignatureInfo struct {
	Signature          string      `json:"signature"`
	Slot               uint64      `json:"slot"`
	BlockTime          *int64      `json:"blockTime"`
	Err                interface{} `json:"err"`
	Memo               *string     `json:"memo"`
	ConfirmationStatus *string     `json:"confirmationStatus"`
}
