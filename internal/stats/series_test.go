package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize_AxisAndAlignment(t *testing.T) {
	snaps := BuildSnapshots([]RawRecord{
		consumerRecord(100),
		consumerRecord(105),
		consumerRecord(110),
	})

	bundle := Synthesize(snaps)
	require.Len(t, bundle.Times, 3)
	assert.Equal(t, time.Unix(100, 0).UTC(), bundle.Times[0])
	assert.Equal(t, "consumer", bundle.ClientType)
	assert.True(t, bundle.Plottable())

	// Logical broker entry must not be tracked.
	assert.NotContains(t, bundle.Brokers, "broker1:9092/bootstrap")
	// Placeholder partition (-1) must not be tracked.
	require.Contains(t, bundle.Topics, "orders")
	assert.NotContains(t, bundle.Topics["orders"], "-1")

	// Every array has exactly one slot per axis index.
	series := bundle.Brokers["broker1:9092/1"]
	require.NotNil(t, series)
	for _, arr := range [][]float64{
		series.RTT, series.Throttle, series.State, series.Connects,
		series.Disconnects, series.RxBytes, series.TxBytes,
		series.RxErrs, series.TxErrs, series.ReqTimeouts,
	} {
		assert.Len(t, arr, 3)
	}
	p := bundle.Topics["orders"]["0"]
	for _, arr := range [][]float64{p.Lag, p.LagStored, p.Committed, p.Stored, p.LeaderEpoch} {
		assert.Len(t, arr, 3)
	}
}

func TestSynthesize_AbsentBrokerGetsMissingSlot(t *testing.T) {
	// Broker b1 present only in snapshots 1 and 3: its rtt array still has
	// length 3 with the middle slot missing.
	withBroker := func(ts int64) RawRecord {
		return map[string]interface{}{
			"time": float64(ts),
			"type": "producer",
			"brokers": map[string]interface{}{
				"b1:9092/1": map[string]interface{}{
					"state": "UP",
					"rtt":   map[string]interface{}{"avg": float64(2000)},
				},
			},
		}
	}
	without := map[string]interface{}{"time": float64(105), "type": "producer"}

	bundle := Synthesize(BuildSnapshots([]RawRecord{withBroker(100), without, withBroker(110)}))

	series := bundle.Brokers["b1:9092/1"]
	require.NotNil(t, series)
	require.Len(t, series.RTT, 3)
	assert.Equal(t, 2.0, series.RTT[0])
	assert.True(t, IsMissing(series.RTT[1]))
	assert.Equal(t, 2.0, series.RTT[2])
}

func TestSynthesize_SentinelsBecomeMissing(t *testing.T) {
	record := map[string]interface{}{
		"time": float64(100),
		"type": "consumer",
		"topics": map[string]interface{}{
			"orders": map[string]interface{}{
				"partitions": map[string]interface{}{
					"0": map[string]interface{}{
						"partition":              float64(0),
						"leader":                 float64(1),
						"consumer_lag":           float64(-1),
						"consumer_lag_stored":    float64(0),
						"committed_offset":       float64(-1001),
						"stored_offset":          float64(-1001),
						"committed_leader_epoch": float64(-1),
					},
				},
			},
		},
	}

	bundle := Synthesize(BuildSnapshots([]RawRecord{record}))
	p := bundle.Topics["orders"]["0"]
	require.NotNil(t, p)

	// Sentinels resolve to the missing marker, never the raw value.
	assert.True(t, IsMissing(p.Lag[0]))
	assert.True(t, IsMissing(p.Committed[0]))
	assert.True(t, IsMissing(p.Stored[0]))
	assert.True(t, IsMissing(p.LeaderEpoch[0]))

	// A genuine zero next to a sentinel stays valid.
	assert.Equal(t, 0.0, p.LagStored[0])
}

func TestSynthesize_LastLeaderTracked(t *testing.T) {
	mk := func(ts int64, leader float64) RawRecord {
		return map[string]interface{}{
			"time": float64(ts),
			"type": "consumer",
			"topics": map[string]interface{}{
				"orders": map[string]interface{}{
					"partitions": map[string]interface{}{
						"0": map[string]interface{}{
							"partition": float64(0),
							"leader":    leader,
						},
					},
				},
			},
		}
	}

	bundle := Synthesize(BuildSnapshots([]RawRecord{mk(100, 2), mk(105, 3), mk(110, -1)}))
	p := bundle.Topics["orders"]["0"]
	require.NotNil(t, p.LastLeader)
	// Sentinel leader never overwrites the last known id.
	assert.Equal(t, int64(3), *p.LastLeader)
}

func TestSynthesize_SingleSnapshotNotPlottable(t *testing.T) {
	bundle := Synthesize(BuildSnapshots([]RawRecord{consumerRecord(100)}))
	require.Len(t, bundle.Times, 1)
	assert.False(t, bundle.Plottable())

	// Arrays still align with the one-slot axis.
	assert.Len(t, bundle.Brokers["broker1:9092/1"].RTT, 1)
}

func TestSynthesize_Empty(t *testing.T) {
	bundle := Synthesize(nil)
	assert.Empty(t, bundle.Times)
	assert.False(t, bundle.Plottable())
	assert.Empty(t, bundle.Brokers)
}

func TestSynthesize_StateOrdinalSeries(t *testing.T) {
	mk := func(ts int64, state string) RawRecord {
		return map[string]interface{}{
			"time": float64(ts),
			"type": "producer",
			"brokers": map[string]interface{}{
				"b1:9092/1": map[string]interface{}{"state": state},
			},
		}
	}

	bundle := Synthesize(BuildSnapshots([]RawRecord{
		mk(100, "INIT"), mk(105, "UP"), mk(110, "DOWN"), mk(115, "SSL_HANDSHAKE"),
	}))

	state := bundle.Brokers["b1:9092/1"].State
	assert.Equal(t, 0.0, state[0])
	assert.Equal(t, 1.0, state[1])
	assert.Equal(t, -1.0, state[2])
	assert.True(t, IsMissing(state[3]))
}
