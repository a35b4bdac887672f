package decoder

import (
	"github.com/moses7054/indexer-v2/internal/chain"
	"github.com/moses7054/indexer-v2/internal/domain/model"
	"github.com/moses7054/indexer-v2/internal/metrics"
)

type Outcome string

const (
	OutcomeOK           Outcome = "ok"
	OutcomeDecodeFailed Outcome = "decode_failed"
	// OutcomeAbsent means the address had no account when it was fetched.
	OutcomeAbsent Outcome = "absent"
)

// Result is the per-account decode outcome. Record is set only for OutcomeOK,
// Err only for OutcomeDecodeFailed.
type Result struct {
	Outcome Outcome
	Record  model.ApplicationRecord
	Trimmed int
	Err     error
}

// DecodeBlob decodes a fetched account, treating a nil blob as absent.
func DecodeBlob(blob *chain.AccountBlob) Result {
	if blob == nil {
		metrics.DecoderResultsTotal.WithLabelValues("absent").Inc()
		return Result{Outcome: OutcomeAbsent}
	}

	rec, trimmed, err := decode(blob.Data)
	if err != nil {
		metrics.DecoderResultsTotal.WithLabelValues("failed").Inc()
		return Result{Outcome: OutcomeDecodeFailed, Err: err}
	}

	if trimmed > 0 {
		metrics.DecoderResultsTotal.WithLabelValues("trimmed").Inc()
		metrics.DecoderTrimmedBytes.Observe(float64(trimmed))
	} else {
		metrics.DecoderResultsTotal.WithLabelValues("ok").Inc()
	}
	return Result{Outcome: OutcomeOK, Record: rec, Trimmed: trimmed}
}
