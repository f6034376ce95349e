package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	nan := Missing()

	tests := []struct {
		name     string
		values   []float64
		expected SeriesStats
	}{
		{
			name:     "empty series",
			values:   nil,
			expected: SeriesStats{Total: 0, Valid: 0, FirstIdx: -1, LastIdx: -1},
		},
		{
			name:     "all missing",
			values:   []float64{nan, nan, nan},
			expected: SeriesStats{Total: 3, Valid: 0, FirstIdx: -1, LastIdx: -1},
		},
		{
			name:   "varying values",
			values: []float64{nan, 5, 3, nan, 9},
			expected: SeriesStats{
				Total: 5, Valid: 3, FirstIdx: 1, LastIdx: 4,
				Min: 3, Max: 9, Constant: false,
			},
		},
		{
			name:   "constant values",
			values: []float64{7, nan, 7, 7},
			expected: SeriesStats{
				Total: 4, Valid: 3, FirstIdx: 0, LastIdx: 3,
				Min: 7, Max: 7, Constant: true,
			},
		},
		{
			name:   "single valid point",
			values: []float64{nan, 2.5, nan},
			expected: SeriesStats{
				Total: 3, Valid: 1, FirstIdx: 1, LastIdx: 1,
				Min: 2.5, Max: 2.5, Constant: true,
			},
		},
		{
			name:   "zero is a valid value",
			values: []float64{0, 0},
			expected: SeriesStats{
				Total: 2, Valid: 2, FirstIdx: 0, LastIdx: 1,
				Min: 0, Max: 0, Constant: true,
			},
		},
		{
			name:   "exact equality only",
			values: []float64{1.0, 1.0000001},
			expected: SeriesStats{
				Total: 2, Valid: 2, FirstIdx: 0, LastIdx: 1,
				Min: 1.0, Max: 1.0000001, Constant: false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Summarize(tt.values))
		})
	}
}

func TestSummarizeAll(t *testing.T) {
	stats := SummarizeAll(map[string][]float64{
		"a": {1, 2},
		"b": {Missing()},
	})

	assert.Len(t, stats, 2)
	assert.Equal(t, 2, stats["a"].Valid)
	assert.Equal(t, 0, stats["b"].Valid)
}
