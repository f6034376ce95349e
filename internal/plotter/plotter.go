// Package plotter turns a synthesized time-series bundle into chart figures
// and renders them as SVG files. It owns series filtering, legend labels,
// and figure layout; all data semantics live upstream in the stats package.
package plotter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"kafkastats/internal/stats"
)

// Options configures chart generation.
type Options struct {
	// ShowEmpty includes series with fewer than two valid points, which
	// are suppressed by default.
	ShowEmpty bool
	// LegendValid appends valid-point counts to legend labels.
	LegendValid bool
	// Annotate adds the small series/hidden/const counter to each chart.
	Annotate bool
	// LineWidth is the stroke width in points.
	LineWidth float64
}

// DefaultOptions mirror the CLI defaults.
func DefaultOptions() Options {
	return Options{
		ShowEmpty:   false,
		LegendValid: true,
		Annotate:    true,
		LineWidth:   3.0,
	}
}

// Series is one labeled line within a chart.
type Series struct {
	Label  string
	Values []float64
	Stats  stats.SeriesStats
}

// Chart is a single titled plot of one metric across multiple series.
type Chart struct {
	Title  string
	YLabel string
	// Step draws steps-post lines, used for discrete state values.
	Step bool
	// CenterY centers the y-axis on the data instead of anchoring at zero.
	CenterY bool
	Series  []Series
	// Hidden counts series suppressed by the valid-point filter.
	Hidden int
}

// Figure is a vertical stack of charts rendered into one output file.
type Figure struct {
	// Name is the output file stem, e.g. "broker_metrics".
	Name   string
	Charts []Chart
}

// BuildFigures assembles the chart figures for a bundle: one broker figure,
// plus one figure per topic for consumer clients.
func BuildFigures(bundle *stats.TimeSeriesBundle, opts Options) []Figure {
	figures := []Figure{buildBrokerFigure(bundle, opts)}

	if bundle.IsConsumer() {
		topics := make([]string, 0, len(bundle.Topics))
		for name := range bundle.Topics {
			topics = append(topics, name)
		}
		sort.Strings(topics)

		for _, topic := range topics {
			if len(bundle.Topics[topic]) == 0 {
				continue
			}
			figures = append(figures, buildTopicFigure(bundle, topic, opts))
		}
	}

	return figures
}

func buildBrokerFigure(bundle *stats.TimeSeriesBundle, opts Options) Figure {
	pick := func(get func(*stats.BrokerSeries) []float64) map[string][]float64 {
		m := make(map[string][]float64, len(bundle.Brokers))
		for name, series := range bundle.Brokers {
			m[name] = get(series)
		}
		return m
	}

	charts := []Chart{
		buildChart("Broker RTT", "RTT (ms)", pick(func(s *stats.BrokerSeries) []float64 { return s.RTT }), opts, chartStyle{centerY: true}),
		buildChart("Broker Data (TX)", "Cumulative Bytes", pick(func(s *stats.BrokerSeries) []float64 { return s.TxBytes }), opts, chartStyle{}),
		buildChart("Broker Data (RX)", "Cumulative Bytes", pick(func(s *stats.BrokerSeries) []float64 { return s.RxBytes }), opts, chartStyle{}),
		buildChart("Broker Connections", "Count", pick(func(s *stats.BrokerSeries) []float64 { return s.Connects }), opts, chartStyle{}),
		buildChart("Broker Disconnections", "Count", pick(func(s *stats.BrokerSeries) []float64 { return s.Disconnects }), opts, chartStyle{}),
		buildChart("Broker Throttle Time", "Throttle (ms)", pick(func(s *stats.BrokerSeries) []float64 { return s.Throttle }), opts, chartStyle{}),
		buildChart("Broker Receive Errors", "Cumulative Errors", pick(func(s *stats.BrokerSeries) []float64 { return s.RxErrs }), opts, chartStyle{}),
		buildChart("Broker Transmit Errors", "Cumulative Errors", pick(func(s *stats.BrokerSeries) []float64 { return s.TxErrs }), opts, chartStyle{}),
		buildChart("Broker Request Timeouts", "Count", pick(func(s *stats.BrokerSeries) []float64 { return s.ReqTimeouts }), opts, chartStyle{}),
		buildChart("Broker State", "State", pick(func(s *stats.BrokerSeries) []float64 { return s.State }), opts, chartStyle{step: true}),
	}

	for i := range charts {
		for j := range charts[i].Series {
			charts[i].Series[j].Label = prettifyLegend(charts[i].Series[j], opts, PrettyBrokerLabel)
		}
	}

	return Figure{Name: "broker_metrics", Charts: charts}
}

func buildTopicFigure(bundle *stats.TimeSeriesBundle, topic string, opts Options) Figure {
	partitions := bundle.Topics[topic]

	pick := func(get func(*stats.PartitionSeries) []float64) map[string][]float64 {
		m := make(map[string][]float64, len(partitions))
		for pid, series := range partitions {
			m[partitionLabel(pid, series)] = get(series)
		}
		return m
	}

	charts := []Chart{
		buildChart(topic+": Committed Offset", "Offset", pick(func(s *stats.PartitionSeries) []float64 { return s.Committed }), opts, chartStyle{centerY: true}),
		buildChart(topic+": Stored Offset", "Offset", pick(func(s *stats.PartitionSeries) []float64 { return s.Stored }), opts, chartStyle{centerY: true}),
		buildChart(topic+": Committed Leader Epoch", "Epoch", pick(func(s *stats.PartitionSeries) []float64 { return s.LeaderEpoch }), opts, chartStyle{centerY: true}),
		buildChart(topic+": Consumer Lag", "Lag (Messages)", pick(func(s *stats.PartitionSeries) []float64 { return s.Lag }), opts, chartStyle{}),
		buildChart(topic+": Stored Consumer Lag", "Lag (Messages)", pick(func(s *stats.PartitionSeries) []float64 { return s.LagStored }), opts, chartStyle{}),
	}

	for i := range charts {
		for j := range charts[i].Series {
			charts[i].Series[j].Label = prettifyLegend(charts[i].Series[j], opts, func(s string) string { return s })
		}
	}

	return Figure{Name: "topic_" + Slugify(topic), Charts: charts}
}

type chartStyle struct {
	step    bool
	centerY bool
}

// buildChart assembles one chart from a label -> values mapping, applying
// the valid-point filter and sorting series by label for stable output.
func buildChart(title, ylabel string, data map[string][]float64, opts Options, style chartStyle) Chart {
	chart := Chart{
		Title:   title,
		YLabel:  ylabel,
		Step:    style.step,
		CenterY: style.centerY,
	}

	labels := make([]string, 0, len(data))
	for label := range data {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		values := data[label]
		st := stats.Summarize(values)
		if st.Valid < 2 && !opts.ShowEmpty {
			chart.Hidden++
			continue
		}
		chart.Series = append(chart.Series, Series{
			Label:  label,
			Values: values,
			Stats:  st,
		})
	}

	return chart
}

// prettifyLegend builds the final legend label: transformed name plus the
// optional valid-point/constant annotation.
func prettifyLegend(s Series, opts Options, transform func(string) string) string {
	label := transform(s.Label)
	if !opts.LegendValid {
		return label
	}
	switch {
	case s.Stats.Valid == 0:
		return fmt.Sprintf("%s (no valid points)", label)
	case s.Stats.Constant:
		return fmt.Sprintf("%s (%d data points, constant=%s)", label, s.Stats.Valid, formatConstant(s.Stats.Min))
	default:
		return fmt.Sprintf("%s (%d data points)", label, s.Stats.Valid)
	}
}

// formatConstant renders a constant series value: large values as grouped
// integers, tiny non-zero values in scientific notation, the rest with two
// decimals.
func formatConstant(v float64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1000:
		return groupDigits(int64(v))
	case abs < 0.01 && v != 0:
		return fmt.Sprintf("%.2e", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// groupDigits formats an integer with comma thousands separators.
func groupDigits(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	out := b.String()
	if neg {
		out = "-" + out
	}
	return out
}

var (
	brokerIDPattern = regexp.MustCompile(`/(\d+)$`)
	slugPattern     = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// PrettyBrokerLabel converts a raw broker identifier to a readable label:
// "host:9092/5" -> "Broker #5", "host:9092/bootstrap" -> "Bootstrap".
func PrettyBrokerLabel(name string) string {
	if strings.HasSuffix(name, "/bootstrap") {
		return "Bootstrap"
	}
	if m := brokerIDPattern.FindStringSubmatch(name); m != nil {
		return "Broker #" + m[1]
	}
	return name
}

// partitionLabel builds a partition legend label with the last-known leader.
func partitionLabel(pid string, series *stats.PartitionSeries) string {
	if series.LastLeader != nil {
		return fmt.Sprintf("Partition %s (Leader %d)", pid, *series.LastLeader)
	}
	return "Partition " + pid
}

// Slugify converts a name to a filesystem-safe slug.
func Slugify(name string) string {
	return slugPattern.ReplaceAllString(name, "_")
}
