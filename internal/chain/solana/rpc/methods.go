package rpc

import (
	"context"
	"encoding/json"
	"fmt"
)

type GetProgramAccountsOpts struct {
	Commitment string
	DataSize   int // exact account size filter; 0 disables the filter
}

// GetProgramAccounts returns every account owned by programID matching the filters.
func (c *Client) GetProgramAccounts(ctx context.Context, programID string, opts *GetProgramAccountsOpts) ([]KeyedAccount, error) {
	config := map[string]interface{}{
		"encoding": EncodingBase64,
	}
	if opts != nil {
		if opts.Commitment != "" {
			config["commitment"] = opts.Commitment
		}
		if opts.DataSize > 0 {
			config["filters"] = []interface{}{
				map[string]interface{}{"dataSize": opts.DataSize},
			}
		}
	}

	params := []interface{}{programID, config}
	result, err := c.call(ctx, "getProgramAccounts", params)
	if err != nil {
		return nil, fmt.Errorf("getProgramAccounts: %w", err)
	}

	var accounts []KeyedAccount
	if err := json.Unmarshal(result, &accounts); err != nil {
		return nil, fmt.Errorf("unmarshal program accounts: %w", err)
	}
	return accounts, nil
}

// GetMultipleAccounts returns one entry per address, in request order.
// Addresses without an account yield a nil entry.
func (c *Client) GetMultipleAccounts(ctx context.Context, addresses []string, commitment string) ([]*Account, error) {
	if len(addresses) == 0 {
		return []*Account{}, nil
	}

	config := map[string]interface{}{
		"encoding": EncodingBase64,
	}
	if commitment != "" {
		config["commitment"] = commitment
	}

	params := []interface{}{addresses, config}
	result, err := c.call(ctx, "getMultipleAccounts", params)
	if err != nil {
		return nil, fmt.Errorf("getMultipleAccounts: %w", err)
	}

	var out MultipleAccountsResult
	if err := json.Unmarshal(result, &out); err != nil {
		return nil, fmt.Errorf("unmarshal multiple accounts: %w", err)
	}
	if len(out.Value) != len(addresses) {
		return nil, fmt.Errorf("getMultipleAccounts: length mismatch: requested %d, got %d", len(addresses), len(out.Value))
	}
	return out.Value, nil
}

// GetSignaturesForAddress returns transaction signatures for an address.
// Results are returned newest-first by default.
func (c *Client) GetSignaturesForAddress(ctx context.Context, address string, opts *GetSignaturesOpts) ([]SignatureInfo, error) {
	config := map[string]interface{}{
		"commitment": "confirmed",
	}
	if opts != nil {
		if opts.Limit > 0 {
			config["limit"] = opts.Limit
		}
		if opts.Commitment != "" {
			config["commitment"] = opts.Commitment
		}
	}

	params := []interface{}{address, config}
	result, err := c.call(ctx, "getSignaturesForAddress", params)
	if err != nil {
		return nil, fmt.Errorf("getSignaturesForAddress: %w", err)
	}

	var sigs []SignatureInfo
	if err := json.Unmarshal(result, &sigs); err != nil {
		return nil, fmt.Errorf("unmarshal signatures: %w", err)
	}
	return sigs, nil
}

type GetSignaturesOpts struct {
	Limit      int
	Commitment string
}
