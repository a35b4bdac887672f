// Package decoder turns raw program account data into ApplicationRecords.
//
// Account layout (borsh, little-endian):
//
//	[8]  discriminator (skipped)
//	[32] owner public key
//	u8   bump seed
//	u8   pre_req_ts flag
//	u8   pre_req_rs flag
//	u32  github handle length, followed by that many UTF-8 bytes
//
// Accounts are allocated at a fixed size, so short handles leave zero padding
// after the string. A strict parse rejects those; Decode then retries on
// successively shorter prefixes until one parses.
package decoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/moses7054/indexer-v2/internal/domain/model"
)

const (
	DiscriminatorSize = 8
	OwnerSize         = 32
	// MinBodySize is the smallest body that can parse: owner, three u8, and an empty string.
	MinBodySize = OwnerSize + 3 + 4
)

var (
	ErrShortBuffer   = errors.New("short buffer")
	ErrTrailingBytes = errors.New("trailing bytes after record")
	ErrInvalidUTF8   = errors.New("github handle is not valid utf-8")
)

// DecodeError is returned when neither the full body nor any truncation of it parses.
// Err is the failure from the untruncated parse.
type DecodeError struct {
	DataLen int
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode application account (%d bytes): %v", e.DataLen, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode parses raw account data, discriminator included. It is pure and deterministic.
func Decode(data []byte) (model.ApplicationRecord, error) {
	rec, _, err := decode(data)
	return rec, err
}

// decode also reports how many trailing bytes were dropped to reach a parse.
func decode(data []byte) (model.ApplicationRecord, int, error) {
	if len(data) < DiscriminatorSize {
		return model.ApplicationRecord{}, 0, &DecodeError{
			DataLen: len(data),
			Err:     fmt.Errorf("discriminator: %w", ErrShortBuffer),
		}
	}
	body := data[DiscriminatorSize:]

	rec, firstErr := parse(body)
	if firstErr == nil {
		return rec, 0, nil
	}

	for n := len(body) - 1; n >= 0; n-- {
		if rec, err := parse(body[:n]); err == nil {
			return rec, len(body) - n, nil
		}
	}
	return model.ApplicationRecord{}, 0, &DecodeError{DataLen: len(data), Err: firstErr}
}

// parse is the strict borsh read. Every byte of body must be consumed.
func parse(body []byte) (model.ApplicationRecord, error) {
	dec := bin.NewBorshDecoder(body)

	if dec.Remaining() < MinBodySize {
		return model.ApplicationRecord{}, fmt.Errorf("body of %d bytes: %w", len(body), ErrShortBuffer)
	}
	owner, err := dec.ReadNBytes(OwnerSize)
	if err != nil {
		return model.ApplicationRecord{}, fmt.Errorf("owner: %w", err)
	}
	bump, err := dec.ReadUint8()
	if err != nil {
		return model.ApplicationRecord{}, fmt.Errorf("bump: %w", err)
	}
	ts, err := dec.ReadUint8()
	if err != nil {
		return model.ApplicationRecord{}, fmt.Errorf("pre_req_ts: %w", err)
	}
	rs, err := dec.ReadUint8()
	if err != nil {
		return model.ApplicationRecord{}, fmt.Errorf("pre_req_rs: %w", err)
	}
	handleLen, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return model.ApplicationRecord{}, fmt.Errorf("github length: %w", err)
	}
	if uint64(handleLen) > uint64(dec.Remaining()) {
		return model.ApplicationRecord{}, fmt.Errorf("github length %d exceeds %d remaining: %w", handleLen, dec.Remaining(), ErrShortBuffer)
	}

	var handle []byte
	if handleLen > 0 {
		handle, err = dec.ReadNBytes(int(handleLen))
		if err != nil {
			return model.ApplicationRecord{}, fmt.Errorf("github: %w", err)
		}
	}
	if !utf8.Valid(handle) {
		return model.ApplicationRecord{}, ErrInvalidUTF8
	}
	if rest := dec.Remaining(); rest != 0 {
		return model.ApplicationRecord{}, fmt.Errorf("%d bytes: %w", rest, ErrTrailingBytes)
	}

	return model.ApplicationRecord{
		OwnerAddress: solana.PublicKeyFromBytes(owner).String(),
		BumpSeed:     bump,
		PreReqTS:     ts != 0,
		PreReqRS:     rs != 0,
		GithubHandle: string(handle),
	}, nil
}
