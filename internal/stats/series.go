package stats

import (
	"math"
	"time"
)

// Domain sentinels emitted by librdkafka. Resolved to NaN during synthesis;
// no later stage re-inspects these constants.
const (
	// sentinelUnassigned marks lag/epoch/partition/leader fields of
	// partitions not assigned to this consumer.
	sentinelUnassigned = -1
	// sentinelNoOffset marks offset fields with no committed/stored value yet.
	sentinelNoOffset = -1001
)

// Missing is the marker used for any slot deemed not-applicable: entity
// absent from a snapshot, field null, or raw value equal to a sentinel.
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether a slot holds the missing marker.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// BrokerSeries holds the aligned per-broker arrays. Every array has exactly
// one slot per timestamp-axis index. Byte and error counters are raw
// cumulative values; rate derivation is the consumer's job because the
// intervals between timestamps are irregular.
type BrokerSeries struct {
	RTT         []float64
	Throttle    []float64
	State       []float64
	Connects    []float64
	Disconnects []float64
	RxBytes     []float64
	TxBytes     []float64
	RxErrs      []float64
	TxErrs      []float64
	ReqTimeouts []float64
}

// PartitionSeries holds the aligned per-partition arrays for one
// (topic, partition) pair.
type PartitionSeries struct {
	Lag         []float64
	LagStored   []float64
	Committed   []float64
	Stored      []float64
	LeaderEpoch []float64

	// LastLeader is the most recent non-sentinel leader broker id, kept as
	// a labelling aid for chart legends.
	LastLeader *int64
}

// TimeSeriesBundle is the synthesizer output: a timestamp axis plus, for
// every entity observed in any snapshot, dense positionally-aligned arrays.
type TimeSeriesBundle struct {
	Times      []time.Time
	ClientType string

	// Brokers maps broker name to its aligned series. Logical broker
	// entries (bootstrap, group coordinator) are not tracked.
	Brokers map[string]*BrokerSeries

	// Topics maps topic name -> partition id -> aligned series. The
	// unassigned-partition placeholder (id -1) is not tracked.
	Topics map[string]map[string]*PartitionSeries
}

// Plottable reports whether the bundle has enough distinct timestamps to
// chart. A bundle with fewer than two timestamps is still summary-printable.
func (b *TimeSeriesBundle) Plottable() bool {
	return len(b.Times) >= 2
}

// IsConsumer reports whether the bundle came from a consumer client.
func (b *TimeSeriesBundle) IsConsumer() bool {
	return b.ClientType == "consumer"
}

// Synthesize walks the ordered snapshots and produces one bundle. Every
// produced array has the same length as the timestamp axis regardless of
// which snapshots an entity participated in.
func Synthesize(snapshots []*ClientSnapshot) *TimeSeriesBundle {
	bundle := &TimeSeriesBundle{
		Times:   make([]time.Time, 0, len(snapshots)),
		Brokers: make(map[string]*BrokerSeries),
		Topics:  make(map[string]map[string]*PartitionSeries),
	}
	if len(snapshots) == 0 {
		return bundle
	}
	bundle.ClientType = snapshots[0].ClientType

	for _, snap := range snapshots {
		bundle.Times = append(bundle.Times, time.Unix(snap.Time, 0).UTC())
	}

	n := len(snapshots)

	// Union of entities observed in any snapshot.
	for _, snap := range snapshots {
		for name, broker := range snap.Brokers {
			if broker.IsLogical() {
				continue
			}
			if _, ok := bundle.Brokers[name]; !ok {
				bundle.Brokers[name] = newBrokerSeries(n)
			}
		}
		for topicName, topic := range snap.Topics {
			for pid, part := range topic.Partitions {
				if part.IsPlaceholder() {
					continue
				}
				if _, ok := bundle.Topics[topicName]; !ok {
					bundle.Topics[topicName] = make(map[string]*PartitionSeries)
				}
				if _, ok := bundle.Topics[topicName][pid]; !ok {
					bundle.Topics[topicName][pid] = newPartitionSeries(n)
				}
			}
		}
	}

	for i, snap := range snapshots {
		for name, series := range bundle.Brokers {
			fillBrokerSlot(series, i, snap.Brokers[name])
		}
		for topicName, partitions := range bundle.Topics {
			topic := snap.Topics[topicName]
			for pid, series := range partitions {
				var part *PartitionMetrics
				if topic != nil {
					part = topic.Partitions[pid]
				}
				fillPartitionSlot(series, i, part)
			}
		}
	}

	return bundle
}

func newBrokerSeries(n int) *BrokerSeries {
	return &BrokerSeries{
		RTT:         missingSlots(n),
		Throttle:    missingSlots(n),
		State:       missingSlots(n),
		Connects:    missingSlots(n),
		Disconnects: missingSlots(n),
		RxBytes:     missingSlots(n),
		TxBytes:     missingSlots(n),
		RxErrs:      missingSlots(n),
		TxErrs:      missingSlots(n),
		ReqTimeouts: missingSlots(n),
	}
}

func newPartitionSeries(n int) *PartitionSeries {
	return &PartitionSeries{
		Lag:         missingSlots(n),
		LagStored:   missingSlots(n),
		Committed:   missingSlots(n),
		Stored:      missingSlots(n),
		LeaderEpoch: missingSlots(n),
	}
}

func missingSlots(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = Missing()
	}
	return s
}

func fillBrokerSlot(series *BrokerSeries, i int, broker *BrokerMetrics) {
	if broker == nil {
		return
	}
	series.RTT[i] = floatOrMissing(broker.RTTAvgMs)
	series.Throttle[i] = floatOrMissing(broker.ThrottleAvgMs)
	series.State[i] = floatOrMissing(broker.StateOrdinal())
	series.Connects[i] = counterOrMissing(broker.Connects)
	series.Disconnects[i] = counterOrMissing(broker.Disconnects)
	series.RxBytes[i] = counterOrMissing(broker.RxBytes)
	series.TxBytes[i] = counterOrMissing(broker.TxBytes)
	series.RxErrs[i] = counterOrMissing(broker.RxErrs)
	series.TxErrs[i] = counterOrMissing(broker.TxErrs)
	series.ReqTimeouts[i] = counterOrMissing(broker.ReqTimeouts)
}

func fillPartitionSlot(series *PartitionSeries, i int, part *PartitionMetrics) {
	if part == nil {
		return
	}
	series.Lag[i] = lagOrMissing(part.ConsumerLag)
	series.LagStored[i] = lagOrMissing(part.ConsumerLagStored)
	series.Committed[i] = offsetOrMissing(part.CommittedOffset)
	series.Stored[i] = offsetOrMissing(part.StoredOffset)
	series.LeaderEpoch[i] = lagOrMissing(part.CommittedLeaderEpoch)

	if part.Leader != nil && *part.Leader != sentinelUnassigned {
		leader := *part.Leader
		series.LastLeader = &leader
	}
}

func floatOrMissing(v *float64) float64 {
	if v == nil {
		return Missing()
	}
	return *v
}

func counterOrMissing(v *int64) float64 {
	if v == nil {
		return Missing()
	}
	return float64(*v)
}

// lagOrMissing resolves the -1 "not assigned" sentinel on lag/epoch fields.
func lagOrMissing(v *int64) float64 {
	if v == nil || *v == sentinelUnassigned {
		return Missing()
	}
	return float64(*v)
}

// offsetOrMissing resolves the -1001 "no value yet" sentinel on offsets.
func offsetOrMissing(v *int64) float64 {
	if v == nil || *v == sentinelNoOffset {
		return Missing()
	}
	return float64(*v)
}
