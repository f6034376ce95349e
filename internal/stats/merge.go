package stats

import (
	"log/slog"
	"sort"
)

// Merge collapses records that share a time value into a single record,
// because emission races can split one interval across duplicate or partial
// records. Records are processed in file order; a record whose time matches
// a previously merged record's time (not necessarily adjacent) is merged
// into it field-wise: a non-null incoming scalar overwrites, a null retains
// the existing value, and nested mappings merge key-wise recursively to the
// union of keys. When two records carry conflicting non-null values for the
// same field, the later record in file order wins; this tiebreak is an
// assumption, not a documented property of the emitter.
//
// Records without a usable time field are skipped with a warning. The
// result is ordered by ascending time and time values in it are strictly
// increasing.
func Merge(records []RawRecord) []RawRecord {
	merged := make([]RawRecord, 0, len(records))
	byTime := make(map[int64]RawRecord, len(records))
	skipped := 0

	for i, rec := range records {
		t, ok := recordTime(rec)
		if !ok {
			slog.Warn("skipping malformed record without usable time field",
				slog.Int("index", i))
			skipped++
			continue
		}
		if existing, seen := byTime[t]; seen {
			mergeRecord(existing, rec)
			continue
		}
		byTime[t] = rec
		merged = append(merged, rec)
	}

	if skipped > 0 {
		slog.Warn("records skipped during merge", slog.Int("skipped", skipped))
	}
	if len(merged) < len(records)-skipped {
		slog.Info("deduplicated records with shared timestamps",
			slog.Int("input", len(records)-skipped),
			slog.Int("unique", len(merged)))
	}

	// Stable sort keeps file order as the tiebreak for equal times, though
	// equal times cannot survive the merge above.
	sort.SliceStable(merged, func(i, j int) bool {
		ti, _ := recordTime(merged[i])
		tj, _ := recordTime(merged[j])
		return ti < tj
	})

	return merged
}

// mergeRecord merges src into dst field-wise, mutating dst.
func mergeRecord(dst, src RawRecord) {
	for key, value := range src {
		if value == nil {
			continue
		}
		if srcMap, ok := value.(map[string]interface{}); ok {
			if dstMap, ok := dst[key].(map[string]interface{}); ok {
				mergeRecord(dstMap, srcMap)
				continue
			}
		}
		dst[key] = value
	}
}

// recordTime extracts the integer time field (seconds) from a raw record.
func recordTime(rec RawRecord) (int64, bool) {
	switch v := rec["time"].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}
