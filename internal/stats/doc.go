// Package stats turns raw librdkafka statistics snapshots into aligned,
// gap-aware time series suitable for charting and diagnostics.
//
// # Architecture
//
// The package is a strictly sequential pipeline of five stages:
//
// 1. Loader: decodes a stats file into ordered raw records, auto-detecting
// whether the file holds a single JSON object, a JSON array, or multiple
// concatenated JSON objects
// 2. Merger: collapses records that share a `time` value into one record,
// field-wise and recursively through brokers/topics/partitions
// 3. Model builder: converts merged records into typed ClientSnapshot values
// with nullable fields and unit normalization (rtt/throttle µs -> ms)
// 4. Synthesizer: produces a TimeSeriesBundle of dense, positionally-aligned
// arrays, one slot per retained timestamp, with NaN as the missing marker
// 5. Summarizer: computes per-series validity statistics used for series
// filtering, legend labels, and debug exports
//
// # Usage
//
//	p := stats.NewPipeline(logger, "kafka_stats.json")
//	if err := p.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	bundle := p.Bundle()
//
// Domain sentinel values (-1 on lag/epoch fields, -1001 on offset fields)
// are resolved to NaN during synthesis; no consumer of a bundle ever sees a
// raw sentinel.
package stats
