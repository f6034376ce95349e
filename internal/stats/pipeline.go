package stats

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"time"

	apperrors "kafkastats/internal/errors"
)

// Pipeline owns one snapshot-to-time-series run: it loads a stats file,
// merges same-timestamp records, builds the typed snapshot sequence, and
// synthesizes the bundle. Each invocation gets its own Pipeline; there is
// no shared state across runs.
type Pipeline struct {
	logger    *slog.Logger
	statsFile string

	snapshots []*ClientSnapshot
	bundle    *TimeSeriesBundle
}

// NewPipeline creates a pipeline for the given stats file.
func NewPipeline(logger *slog.Logger, statsFile string) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:    logger,
		statsFile: statsFile,
	}
}

// Run executes the full pipeline: load, merge, build, synthesize. It is
// strictly sequential; each stage fully consumes its predecessor's output.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.InfoContext(ctx, "loading statistics file",
		slog.String("path", p.statsFile))

	records, err := LoadFile(p.statsFile)
	if err != nil {
		return err
	}

	merged := Merge(records)
	if len(merged) == 0 {
		return apperrors.NewEmptyInputError("no records with a usable time field survived merging")
	}

	p.snapshots = BuildSnapshots(merged)
	p.bundle = Synthesize(p.snapshots)

	p.logger.InfoContext(ctx, "pipeline complete",
		slog.Int("raw_records", len(records)),
		slog.Int("snapshots", len(p.snapshots)),
		slog.Int("brokers", len(p.bundle.Brokers)),
		slog.Int("topics", len(p.bundle.Topics)),
		slog.String("client_type", p.bundle.ClientType))

	if !p.bundle.Plottable() {
		p.logger.WarnContext(ctx, "fewer than two distinct timestamps; charts will not be generated",
			slog.Int("timestamps", len(p.bundle.Times)))
	}

	return nil
}

// Snapshots returns the ordered typed snapshot sequence.
func (p *Pipeline) Snapshots() []*ClientSnapshot {
	return p.snapshots
}

// Bundle returns the synthesized time-series bundle.
func (p *Pipeline) Bundle() *TimeSeriesBundle {
	return p.bundle
}

// PrintSummary writes a human-readable summary of the most recent snapshot:
// client identity, broker states with average RTT, and per-partition leader
// and consumer lag. Logical brokers and unassigned partitions are omitted;
// sentinel-valued lag shows as N/A.
func (p *Pipeline) PrintSummary(w io.Writer) {
	if len(p.snapshots) == 0 {
		fmt.Fprintln(w, "No stats available.")
		return
	}
	latest := p.snapshots[len(p.snapshots)-1]

	fmt.Fprintln(w, "\n--- Latest Statistics Summary ---")
	fmt.Fprintf(w, "Timestamp: %s\n", time.Unix(latest.Time, 0).UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "Client: %s (%s)\n", latest.Name, latest.ClientType)

	fmt.Fprintln(w, "\nBrokers:")
	for _, name := range sortedKeys(latest.Brokers) {
		broker := latest.Brokers[name]
		if broker.IsLogical() {
			continue
		}
		rtt := "N/A"
		if broker.RTTAvgMs != nil {
			rtt = fmt.Sprintf("%.3f", *broker.RTTAvgMs)
		}
		fmt.Fprintf(w, "  - %s: State=%s, RTT(avg)=%s ms\n", name, broker.State, rtt)
	}

	fmt.Fprintln(w, "\nTopics:")
	for _, name := range sortedKeys(latest.Topics) {
		topic := latest.Topics[name]
		fmt.Fprintf(w, "  - %s:\n", name)
		for _, pid := range sortedPartitionIDs(topic.Partitions) {
			part := topic.Partitions[pid]
			if part.IsPlaceholder() {
				continue
			}
			leader := "N/A"
			if part.Leader != nil {
				leader = strconv.FormatInt(*part.Leader, 10)
			}
			lag := "N/A"
			if part.ConsumerLag != nil && *part.ConsumerLag != sentinelUnassigned {
				lag = strconv.FormatInt(*part.ConsumerLag, 10)
			}
			fmt.Fprintf(w, "    - Partition %s: Leader=%s, Consumer Lag=%s\n", pid, leader, lag)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedPartitionIDs orders partition ids numerically; non-numeric ids sort
// first.
func sortedPartitionIDs(m map[string]*PartitionMetrics) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return partitionOrder(ids[i]) < partitionOrder(ids[j])
	})
	return ids
}

func partitionOrder(id string) int64 {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return -1
	}
	return n
}
