package stats

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "kafkastats/internal/errors"
)

const consumerFixture = `
{"name":"rdkafka#consumer-1","type":"consumer","ts":100000000,"time":100,"brokers":{"broker1:9092/1":{"name":"broker1:9092/1","state":"UP","connects":1,"rxbytes":1000,"txbytes":500,"rtt":{"avg":1200}}},"topics":{"orders":{"topic":"orders","partitions":{"0":{"partition":0,"leader":1,"consumer_lag":10,"committed_offset":90,"stored_offset":95,"committed_leader_epoch":2}}}}}
{"name":"rdkafka#consumer-1","type":"consumer","ts":105000000,"time":105,"brokers":{"broker1:9092/1":{"name":"broker1:9092/1","state":"UP","connects":1,"rxbytes":2000,"txbytes":900,"rtt":{"avg":1400}}},"topics":{"orders":{"topic":"orders","partitions":{"0":{"partition":0,"leader":1,"consumer_lag":5,"committed_offset":95,"stored_offset":100,"committed_leader_epoch":2}}}}}
{"name":"rdkafka#consumer-1","type":"consumer","ts":105000456,"time":105,"brokers":{"broker2:9092/2":{"name":"broker2:9092/2","state":"UP","rxbytes":100}},"topics":{}}
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestPipeline_Run(t *testing.T) {
	p := NewPipeline(nil, writeFixture(t, consumerFixture))
	require.NoError(t, p.Run(context.Background()))

	// Three raw records, two distinct times.
	require.Len(t, p.Snapshots(), 2)

	bundle := p.Bundle()
	require.NotNil(t, bundle)
	assert.True(t, bundle.Plottable())
	assert.True(t, bundle.IsConsumer())

	// broker2 appears only in the merged second snapshot; its arrays are
	// still full length with a missing first slot.
	b2 := bundle.Brokers["broker2:9092/2"]
	require.NotNil(t, b2)
	require.Len(t, b2.RxBytes, 2)
	assert.True(t, IsMissing(b2.RxBytes[0]))
	assert.Equal(t, 100.0, b2.RxBytes[1])

	// Cumulative counters stay raw, no rate derivation.
	b1 := bundle.Brokers["broker1:9092/1"]
	assert.Equal(t, []float64{1000, 2000}, b1.RxBytes)
}

func TestPipeline_RunMissingFile(t *testing.T) {
	p := NewPipeline(nil, filepath.Join(t.TempDir(), "absent.json"))
	err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInput))
	assert.Nil(t, p.Bundle())
}

func TestPipeline_RunAllRecordsMalformed(t *testing.T) {
	p := NewPipeline(nil, writeFixture(t, `{"name":"x"}{"name":"y"}`))
	err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyInput))
}

func TestPipeline_MalformedRecordSkipped(t *testing.T) {
	content := `{"name":"x"}` + "\n" + `{"time":100,"type":"producer"}`
	p := NewPipeline(nil, writeFixture(t, content))
	require.NoError(t, p.Run(context.Background()))
	require.Len(t, p.Snapshots(), 1)
	assert.Equal(t, int64(100), p.Snapshots()[0].Time)
}

func TestPipeline_PrintSummary(t *testing.T) {
	p := NewPipeline(nil, writeFixture(t, consumerFixture))
	require.NoError(t, p.Run(context.Background()))

	var buf bytes.Buffer
	p.PrintSummary(&buf)
	out := buf.String()

	assert.Contains(t, out, "Latest Statistics Summary")
	assert.Contains(t, out, "Client: rdkafka#consumer-1 (consumer)")
	assert.Contains(t, out, "broker1:9092/1: State=UP, RTT(avg)=1.400 ms")
	assert.Contains(t, out, "Partition 0: Leader=1, Consumer Lag=5")
}

func TestPipeline_PrintSummaryUnassignedLag(t *testing.T) {
	content := `{"time":100,"type":"consumer","topics":{"orders":{"partitions":{"0":{"partition":0,"leader":1,"consumer_lag":-1}}}}}`
	p := NewPipeline(nil, writeFixture(t, content))
	require.NoError(t, p.Run(context.Background()))

	var buf bytes.Buffer
	p.PrintSummary(&buf)
	assert.Contains(t, buf.String(), "Consumer Lag=N/A")
}

func TestPipeline_PrintSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewPipeline(nil, "unused").PrintSummary(&buf)
	assert.Contains(t, buf.String(), "No stats available.")
}

func TestPipeline_SingleSnapshotSummaryStillWorks(t *testing.T) {
	content := `{"time":100,"type":"consumer","name":"c1","brokers":{},"topics":{}}`
	p := NewPipeline(nil, writeFixture(t, content))
	require.NoError(t, p.Run(context.Background()))

	assert.False(t, p.Bundle().Plottable())

	var buf bytes.Buffer
	p.PrintSummary(&buf)
	assert.Contains(t, buf.String(), "Client: c1 (consumer)")
}
