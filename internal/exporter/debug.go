package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "kafkastats/internal/errors"
	"kafkastats/internal/plotter"
	"kafkastats/internal/stats"
)

// DebugExporter writes the raw-value and summary text artifacts that back
// chart troubleshooting: a full bundle dump plus, per chart, a CSV of the
// exact plotted values and a per-series statistics summary.
type DebugExporter struct {
	logger *slog.Logger
	outDir string
}

// NewDebugExporter creates an exporter rooted at outDir.
func NewDebugExporter(logger *slog.Logger, outDir string) *DebugExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DebugExporter{logger: logger, outDir: outDir}
}

// Export writes all debug artifacts for a bundle: the raw dump and the
// per-chart CSV/summary pairs, split into brokers/ and topics/ subtrees.
func (e *DebugExporter) Export(ctx context.Context, bundle *stats.TimeSeriesBundle, figures []plotter.Figure) error {
	e.logger.InfoContext(ctx, "writing debug artifacts", slog.String("dir", e.outDir))

	if err := e.WriteRawDump(bundle); err != nil {
		return err
	}

	for _, fig := range figures {
		subDir := "topics"
		if fig.Name == "broker_metrics" {
			subDir = "brokers"
		}
		for _, chart := range fig.Charts {
			if err := e.writeChartDebug(ctx, chart, bundle.Times, filepath.Join(e.outDir, subDir)); err != nil {
				return err
			}
		}
	}

	return nil
}

// WriteRawDump writes the full bundle contents to debug_data.txt.
func (e *DebugExporter) WriteRawDump(bundle *stats.TimeSeriesBundle) error {
	if err := os.MkdirAll(e.outDir, 0755); err != nil {
		return apperrors.NewStorageError("failed to create debug directory", err)
	}

	var b strings.Builder

	b.WriteString("--- TIMESTAMPS ---\n")
	stamps := make([]string, len(bundle.Times))
	for i, t := range bundle.Times {
		stamps[i] = t.Format(time.RFC3339)
	}
	b.WriteString(strings.Join(stamps, ",") + "\n\n")

	b.WriteString("--- CLIENT_TYPE ---\n")
	b.WriteString(bundle.ClientType + "\n\n")

	b.WriteString("--- BROKERS ---\n")
	for _, name := range sortedKeys(bundle.Brokers) {
		series := bundle.Brokers[name]
		fmt.Fprintf(&b, "  %s:\n", name)
		writeSeriesLine(&b, "rtt", series.RTT)
		writeSeriesLine(&b, "throttle", series.Throttle)
		writeSeriesLine(&b, "state", series.State)
		writeSeriesLine(&b, "connects", series.Connects)
		writeSeriesLine(&b, "disconnects", series.Disconnects)
		writeSeriesLine(&b, "rxbytes", series.RxBytes)
		writeSeriesLine(&b, "txbytes", series.TxBytes)
		writeSeriesLine(&b, "rxerrs", series.RxErrs)
		writeSeriesLine(&b, "txerrs", series.TxErrs)
		writeSeriesLine(&b, "req_timeouts", series.ReqTimeouts)
		b.WriteString("\n")
	}

	b.WriteString("--- TOPICS ---\n")
	for _, topic := range sortedKeys(bundle.Topics) {
		for _, pid := range sortedKeys(bundle.Topics[topic]) {
			series := bundle.Topics[topic][pid]
			fmt.Fprintf(&b, "  %s-%s:\n", topic, pid)
			writeSeriesLine(&b, "lag", series.Lag)
			writeSeriesLine(&b, "lag_stored", series.LagStored)
			writeSeriesLine(&b, "committed", series.Committed)
			writeSeriesLine(&b, "stored", series.Stored)
			writeSeriesLine(&b, "leader_epoch", series.LeaderEpoch)
			b.WriteString("\n")
		}
	}

	path := filepath.Join(e.outDir, "debug_data.txt")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return apperrors.NewStorageError("failed to write debug dump", err).
			WithContext("path", path)
	}
	return nil
}

// writeChartDebug writes the CSV of plotted values and the statistics
// summary for one chart.
func (e *DebugExporter) writeChartDebug(ctx context.Context, chart plotter.Chart, times []time.Time, dir string) error {
	slug := plotter.Slugify(chart.Title)

	headers := []string{"timestamp"}
	for _, s := range chart.Series {
		headers = append(headers, plotter.Slugify(s.Label))
	}

	records := make([][]string, 0, len(times))
	for i, ts := range times {
		row := []string{ts.Format(time.RFC3339)}
		for _, s := range chart.Series {
			row = append(row, formatCell(s.Values[i]))
		}
		records = append(records, row)
	}

	csvPath := filepath.Join(dir, slug+".csv")
	if err := WriteCSV(csvPath, WriteOptions{Headers: headers, Records: records}); err != nil {
		return apperrors.NewStorageError("failed to write chart debug CSV", err).
			WithContext("path", csvPath)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Plot: %s\n", chart.Title)
	fmt.Fprintf(&b, "Points per series: %d\n\n", len(times))
	for _, s := range chart.Series {
		b.WriteString(summaryLine(s.Label, s.Stats))

		// Console hints for common visibility causes
		if s.Stats.Valid < 2 {
			e.logger.DebugContext(ctx, "series has too few valid points to draw a line",
				slog.String("plot", chart.Title),
				slog.String("series", s.Label),
				slog.Int("valid", s.Stats.Valid))
		} else if s.Stats.Constant {
			e.logger.DebugContext(ctx, "series is constant",
				slog.String("plot", chart.Title),
				slog.String("series", s.Label),
				slog.Float64("value", s.Stats.Min))
		}
	}

	summaryPath := filepath.Join(dir, slug+".summary.txt")
	if err := os.WriteFile(summaryPath, []byte(b.String()), 0644); err != nil {
		return apperrors.NewStorageError("failed to write chart debug summary", err).
			WithContext("path", summaryPath)
	}
	return nil
}

func summaryLine(label string, st stats.SeriesStats) string {
	if st.Valid == 0 {
		return fmt.Sprintf("- %s: total=%d, valid=0\n", label, st.Total)
	}
	return fmt.Sprintf("- %s: total=%d, valid=%d, first_idx=%d, last_idx=%d, min=%s, max=%s, constant=%t\n",
		label, st.Total, st.Valid, st.FirstIdx, st.LastIdx,
		formatCell(st.Min), formatCell(st.Max), st.Constant)
}

// formatCell renders a slot value; missing slots become empty cells.
func formatCell(v float64) string {
	if stats.IsMissing(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeSeriesLine(b *strings.Builder, name string, values []float64) {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = formatCell(v)
	}
	fmt.Fprintf(b, "    %s: [%s]\n", name, strings.Join(cells, ","))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
