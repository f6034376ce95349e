package stats

// SeriesStats describes the validity and shape of one aligned series.
// It drives default suppression of near-empty series from charts, legend
// annotation, and the debug exporter's textual summaries.
type SeriesStats struct {
	// Total is the series length (== timestamp-axis length).
	Total int
	// Valid counts the non-missing slots.
	Valid int
	// FirstIdx and LastIdx are the first and last valid indexes, -1 when
	// the series has no valid slot.
	FirstIdx int
	LastIdx  int
	// Min and Max are over valid values only; meaningless when Valid == 0.
	Min float64
	Max float64
	// Constant is true iff every valid value is exactly equal. Exact
	// equality is deliberate: inputs are already-rounded or integer
	// metrics, so no tolerance applies.
	Constant bool
}

// Summarize computes validity statistics for one aligned series.
func Summarize(values []float64) SeriesStats {
	stats := SeriesStats{
		Total:    len(values),
		FirstIdx: -1,
		LastIdx:  -1,
	}

	for i, v := range values {
		if IsMissing(v) {
			continue
		}
		if stats.Valid == 0 {
			stats.FirstIdx = i
			stats.Min = v
			stats.Max = v
			stats.Constant = true
		} else {
			if v < stats.Min {
				stats.Min = v
			}
			if v > stats.Max {
				stats.Max = v
			}
			if v != values[stats.FirstIdx] {
				stats.Constant = false
			}
		}
		stats.LastIdx = i
		stats.Valid++
	}

	return stats
}

// SummarizeAll computes statistics for a label -> series mapping.
func SummarizeAll(series map[string][]float64) map[string]SeriesStats {
	out := make(map[string]SeriesStats, len(series))
	for label, values := range series {
		out[label] = Summarize(values)
	}
	return out
}
