// Package batch splits an ordered address list into fixed-size batches.
package batch

import (
	"errors"
	"fmt"
)

var ErrInvalidBatchSize = errors.New("batch size must be at least 1")

// Partition splits items into consecutive batches of size, preserving order.
// Only the last batch may be short. Empty input yields no batches.
// Batches share the backing array of items.
func Partition[T any](items []T, size int) ([][]T, error) {
	if size < 1 {
		return nil, fmt.Errorf("partition %d items into batches of %d: %w", len(items), size, ErrInvalidBatchSize)
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end:end])
	}
	return batches, nil
}
