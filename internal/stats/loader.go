package stats

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"

	apperrors "kafkastats/internal/errors"
)

// LoadFile reads a statistics file and decodes it into ordered raw records.
func LoadFile(path string) ([]RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewInputError("cannot read stats file", err).
			WithContext("path", path)
	}
	return Load(data)
}

// Load decodes statistics content into ordered raw records. Three input
// shapes are accepted: a single JSON object, a JSON array of objects, and
// multiple JSON objects concatenated with or without separators.
func Load(data []byte) ([]RawRecord, error) {
	records, err := decodeRecords(data)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewEmptyInputError("no statistics records found in input")
	}
	return records, nil
}

func decodeRecords(data []byte) ([]RawRecord, error) {
	// Try the whole content as one JSON value first.
	var value interface{}
	if err := json.Unmarshal(data, &value); err == nil {
		switch v := value.(type) {
		case []interface{}:
			records := make([]RawRecord, 0, len(v))
			for i, elem := range v {
				rec, ok := elem.(map[string]interface{})
				if !ok {
					slog.Warn("skipping non-object array element", slog.Int("index", i))
					continue
				}
				records = append(records, rec)
			}
			return records, nil
		case map[string]interface{}:
			return []RawRecord{v}, nil
		default:
			// A bare scalar parses but carries no record.
			return nil, nil
		}
	}

	// Trailing data: decode one value at a time until the input runs out.
	var records []RawRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var value interface{}
		err := dec.Decode(&value)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if len(records) == 0 {
				return nil, apperrors.NewParsingError("no valid JSON value at scan position", err)
			}
			// Keep what decoded cleanly; the tail is unusable.
			slog.Warn("stopping scan at undecodable trailing data",
				slog.Int("records_decoded", len(records)),
				slog.String("error", err.Error()))
			break
		}
		if rec, ok := value.(map[string]interface{}); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}
