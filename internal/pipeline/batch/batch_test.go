package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPartition_Sizes(t *testing.T) {
	testCases := []struct {
		name     string
		items    int
		size     int
		expected []int
	}{
		{name: "empty", items: 0, size: 100, expected: []int{}},
		{name: "single short batch", items: 3, size: 100, expected: []int{3}},
		{name: "exact multiple", items: 200, size: 100, expected: []int{100, 100}},
		{name: "remainder", items: 120, size: 50, expected: []int{50, 50, 20}},
		{name: "size one", items: 3, size: 1, expected: []int{1, 1, 1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			batches, err := Partition(seq(tc.items), tc.size)
			require.NoError(t, err)

			sizes := make([]int, 0, len(batches))
			for _, b := range batches {
				sizes = append(sizes, len(b))
			}
			assert.Equal(t, tc.expected, sizes)
		})
	}
}

func TestPartition_ConcatenationPreservesOrder(t *testing.T) {
	items := seq(257)

	batches, err := Partition(items, 64)
	require.NoError(t, err)

	var joined []int
	for i, b := range batches {
		assert.NotEmpty(t, b)
		assert.LessOrEqual(t, len(b), 64)
		if i < len(batches)-1 {
			assert.Len(t, b, 64)
		}
		joined = append(joined, b...)
	}
	assert.Equal(t, items, joined)
}

func TestPartition_AppendDoesNotClobberNextBatch(t *testing.T) {
	batches, err := Partition(seq(4), 2)
	require.NoError(t, err)

	_ = append(batches[0], 99)
	assert.Equal(t, []int{2, 3}, batches[1])
}

func TestPartition_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := Partition(seq(5), size)
		assert.ErrorIs(t, err, ErrInvalidBatchSize)
	}
}
