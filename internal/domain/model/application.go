package model

import (
	"slices"
	"strconv"
)

var applicationColumns = []string{
	"owner_address",
	"bump_seed",
	"pre_req_ts",
	"pre_req_rs",
	"github_handle",
	"slot",
	"signature",
}

// ApplicationRecord is one decoded program account, optionally joined with
// the most recent transaction that touched it.
type ApplicationRecord struct {
	OwnerAddress string
	BumpSeed     uint8
	PreReqTS     bool
	PreReqRS     bool
	GithubHandle string
	Slot         *uint64
	Signature    *string
}

// WithReference returns a copy of r carrying the given slot and signature.
func (r ApplicationRecord) WithReference(slot uint64, signature string) ApplicationRecord {
	r.Slot = &slot
	r.Signature = &signature
	return r
}

// ApplicationColumns returns the export column order of an ApplicationRecord.
func ApplicationColumns() []string {
	return slices.Clone(applicationColumns)
}

func (r ApplicationRecord) Columns() []string {
	return ApplicationColumns()
}

// Values renders the record in column order. A missing slot is "0" and a
// missing signature is empty.
func (r ApplicationRecord) Values() []string {
	slot := "0"
	if r.Slot != nil {
		slot = strconv.FormatUint(*r.Slot, 10)
	}
	signature := ""
	if r.Signature != nil {
		signature = *r.Signature
	}
	return []string{
		r.OwnerAddress,
		strconv.FormatUint(uint64(r.BumpSeed), 10),
		strconv.FormatBool(r.PreReqTS),
		strconv.FormatBool(r.PreReqRS),
		r.GithubHandle,
		slot,
		signature,
	}
}

// accountFieldCount is the number of decoded account columns, before slot and signature.
const accountFieldCount = 5

// AccountView renders only the decoded account fields, without slot and signature.
type AccountView struct {
	ApplicationRecord
}

func (v AccountView) Columns() []string {
	return slices.Clone(applicationColumns[:accountFieldCount])
}

func (v AccountView) Values() []string {
	return v.ApplicationRecord.Values()[:accountFieldCount]
}

type tabular interface {
	Columns() []string
	Values() []string
}

// AddressedRecord prefixes a row with the program account address it was read from.
type AddressedRecord struct {
	AccountAddress string
	Row            tabular
}

func (r AddressedRecord) Columns() []string {
	return append([]string{"account_address"}, r.Row.Columns()...)
}

func (r AddressedRecord) Values() []string {
	return append([]string{r.AccountAddress}, r.Row.Values()...)
}
