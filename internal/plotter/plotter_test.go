package plotter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kafkastats/internal/stats"
)

func testBundle(t *testing.T, records ...stats.RawRecord) *stats.TimeSeriesBundle {
	t.Helper()
	return stats.Synthesize(stats.BuildSnapshots(records))
}

func consumerRecord(ts int64, lag float64) stats.RawRecord {
	return map[string]interface{}{
		"time": float64(ts),
		"type": "consumer",
		"brokers": map[string]interface{}{
			"broker1:9092/1": map[string]interface{}{
				"state":   "UP",
				"rxbytes": float64(ts * 10),
				"rtt":     map[string]interface{}{"avg": float64(1000)},
			},
		},
		"topics": map[string]interface{}{
			"orders": map[string]interface{}{
				"partitions": map[string]interface{}{
					"0": map[string]interface{}{
						"partition":    float64(0),
						"leader":       float64(1),
						"consumer_lag": lag,
					},
				},
			},
		},
	}
}

func TestBuildFigures_ConsumerGetsTopicFigures(t *testing.T) {
	bundle := testBundle(t, consumerRecord(100, 5), consumerRecord(105, 3))

	figures := BuildFigures(bundle, DefaultOptions())
	require.Len(t, figures, 2)
	assert.Equal(t, "broker_metrics", figures[0].Name)
	assert.Equal(t, "topic_orders", figures[1].Name)
	assert.Len(t, figures[1].Charts, 5)
}

func TestBuildFigures_ProducerSkipsTopicFigures(t *testing.T) {
	bundle := testBundle(t, map[string]interface{}{
		"time": float64(100), "type": "producer",
		"brokers": map[string]interface{}{
			"b1:9092/1": map[string]interface{}{"state": "UP"},
		},
	})

	figures := BuildFigures(bundle, DefaultOptions())
	require.Len(t, figures, 1)
	assert.Equal(t, "broker_metrics", figures[0].Name)
}

func TestBuildChart_FiltersSparseSeries(t *testing.T) {
	nan := stats.Missing()
	data := map[string][]float64{
		"full":   {1, 2, 3},
		"single": {nan, 9, nan},
		"empty":  {nan, nan, nan},
	}

	chart := buildChart("t", "y", data, DefaultOptions(), chartStyle{})
	require.Len(t, chart.Series, 1)
	assert.Equal(t, 2, chart.Hidden)

	// show-empty keeps everything
	opts := DefaultOptions()
	opts.ShowEmpty = true
	chart = buildChart("t", "y", data, opts, chartStyle{})
	assert.Len(t, chart.Series, 3)
	assert.Zero(t, chart.Hidden)
}

func TestPrettyBrokerLabel(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"host.example:9092/5", "Broker #5"},
		{"host.example:9092/bootstrap", "Bootstrap"},
		{"GroupCoordinator", "GroupCoordinator"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, PrettyBrokerLabel(tt.in))
	}
}

func TestLegendLabels(t *testing.T) {
	bundle := testBundle(t, consumerRecord(100, 7), consumerRecord(105, 7))

	figures := BuildFigures(bundle, DefaultOptions())
	lagChart := figures[1].Charts[3]
	require.Len(t, lagChart.Series, 1)
	assert.Equal(t, "Partition 0 (Leader 1) (2 data points, constant=7.00)", lagChart.Series[0].Label)
}

func TestFormatConstant(t *testing.T) {
	assert.Equal(t, "1,234,567", formatConstant(1234567))
	assert.Equal(t, "-1,000", formatConstant(-1000))
	assert.Equal(t, "0.00", formatConstant(0))
	assert.Equal(t, "3.50", formatConstant(3.5))
	assert.Equal(t, "1.00e-03", formatConstant(0.001))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "orders.v2_events", Slugify("orders.v2 events"))
	assert.Equal(t, "a_b_c", Slugify("a/b:c"))
}

func TestRenderFigure_ProducesSVG(t *testing.T) {
	bundle := testBundle(t, consumerRecord(100, 5), consumerRecord(105, 3))
	figures := BuildFigures(bundle, DefaultOptions())

	svg := string(RenderFigure(figures[0], bundle.Times, DefaultOptions()))
	assert.Contains(t, svg, "<svg")
	assert.Contains(t, svg, "Broker RTT")
	assert.Contains(t, svg, "polyline")
	assert.Contains(t, svg, "</svg>")
}

func TestWriteFigures(t *testing.T) {
	bundle := testBundle(t, consumerRecord(100, 5), consumerRecord(105, 3))
	outDir := filepath.Join(t.TempDir(), "charts")

	paths, err := WriteFigures(context.Background(), bundle, DefaultOptions(), outDir)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestWriteFigures_InsufficientData(t *testing.T) {
	// One snapshot: zero artifacts plus a diagnostic, not an error.
	bundle := testBundle(t, consumerRecord(100, 5))
	outDir := filepath.Join(t.TempDir(), "charts")

	paths, err := WriteFigures(context.Background(), bundle, DefaultOptions(), outDir)
	require.NoError(t, err)
	assert.Empty(t, paths)

	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRenderFigure_EmptyChartShowsPlaceholder(t *testing.T) {
	fig := Figure{Name: "x", Charts: []Chart{{Title: "Empty", YLabel: "y"}}}
	svg := string(RenderFigure(fig, []time.Time{time.Unix(100, 0), time.Unix(105, 0)}, DefaultOptions()))
	assert.Contains(t, svg, "No Data Available")
}
