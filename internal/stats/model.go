package stats

// RawRecord is one undecoded statistics record as emitted by the client.
type RawRecord = map[string]interface{}

// ClientSnapshot is a single statistics instant after merge and typing.
// Immutable once built; the owning Pipeline holds the ordered sequence.
type ClientSnapshot struct {
	// Time is the snapshot timestamp in seconds, the primary key for
	// ordering and dedup. TS is the microsecond timestamp, informational.
	Time int64
	TS   *int64

	Name       string
	ClientType string

	Brokers map[string]*BrokerMetrics
	Topics  map[string]*TopicMetrics
}

// BrokerMetrics holds the per-broker connection statistics. Counters are
// cumulative since client start. All fields are nullable because the schema
// varies by librdkafka version and client type.
type BrokerMetrics struct {
	Name   string
	Source string
	State  string

	Connects    *int64
	Disconnects *int64
	RxBytes     *int64
	TxBytes     *int64
	RxErrs      *int64
	TxErrs      *int64
	ReqTimeouts *int64

	// RTTAvgMs and ThrottleAvgMs are converted from microseconds to
	// milliseconds at build time so every downstream consumer works in ms.
	RTTAvgMs      *float64
	ThrottleAvgMs *float64
}

// StateOrdinal maps the broker state string to a chartable ordinal:
// UP -> 1, INIT -> 0, DOWN -> -1. Unrecognized states return nil.
func (b *BrokerMetrics) StateOrdinal() *float64 {
	var ord float64
	switch b.State {
	case "UP":
		ord = 1
	case "INIT":
		ord = 0
	case "DOWN":
		ord = -1
	default:
		return nil
	}
	return &ord
}

// IsLogical reports whether this is librdkafka's logical (bootstrap/group
// coordinator) broker entry rather than a real broker connection.
func (b *BrokerMetrics) IsLogical() bool {
	return b.Source == "logical"
}

// TopicMetrics holds the per-partition statistics for one topic.
type TopicMetrics struct {
	Topic      string
	Partitions map[string]*PartitionMetrics
}

// PartitionMetrics holds consumer offset/lag statistics for one partition.
// Fields may carry domain sentinels in raw form: -1 on partition/leader/lag/
// epoch means "not assigned to this consumer", -1001 on offsets means "no
// committed/stored value yet". Sentinels are resolved during synthesis.
type PartitionMetrics struct {
	Partition            *int64
	Leader               *int64
	ConsumerLag          *int64
	ConsumerLagStored    *int64
	CommittedOffset      *int64
	StoredOffset         *int64
	CommittedLeaderEpoch *int64
}

// IsPlaceholder reports whether this is the unassigned-partition placeholder
// entry (partition id -1) that librdkafka emits per topic.
func (p *PartitionMetrics) IsPlaceholder() bool {
	return p.Partition != nil && *p.Partition == sentinelUnassigned
}

// BuildSnapshots converts merged raw records into typed snapshots, in order.
// Records are expected to have passed Merge, so every record carries a
// usable time field.
func BuildSnapshots(records []RawRecord) []*ClientSnapshot {
	snapshots := make([]*ClientSnapshot, 0, len(records))
	for _, rec := range records {
		t, ok := recordTime(rec)
		if !ok {
			continue
		}
		snapshots = append(snapshots, buildSnapshot(rec, t))
	}
	return snapshots
}

func buildSnapshot(rec RawRecord, t int64) *ClientSnapshot {
	snap := &ClientSnapshot{
		Time:       t,
		TS:         getInt64(rec, "ts"),
		Name:       getString(rec, "name"),
		ClientType: getString(rec, "type"),
		Brokers:    make(map[string]*BrokerMetrics),
		Topics:     make(map[string]*TopicMetrics),
	}

	for name, v := range getMap(rec, "brokers") {
		bdata, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		snap.Brokers[name] = buildBroker(name, bdata)
	}

	for name, v := range getMap(rec, "topics") {
		tdata, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		snap.Topics[name] = buildTopic(name, tdata)
	}

	return snap
}

func buildBroker(name string, data map[string]interface{}) *BrokerMetrics {
	b := &BrokerMetrics{
		Name:        name,
		Source:      getString(data, "source"),
		State:       getString(data, "state"),
		Connects:    getInt64(data, "connects"),
		Disconnects: getInt64(data, "disconnects"),
		RxBytes:     getInt64(data, "rxbytes"),
		TxBytes:     getInt64(data, "txbytes"),
		RxErrs:      getInt64(data, "rxerrs"),
		TxErrs:      getInt64(data, "txerrs"),
		ReqTimeouts: getInt64(data, "req_timeouts"),
	}
	if n := getString(data, "name"); n != "" {
		b.Name = n
	}

	// rtt.avg and throttle.avg arrive in microseconds
	if avg := getFloat64(getMap(data, "rtt"), "avg"); avg != nil {
		ms := *avg / 1000
		b.RTTAvgMs = &ms
	}
	if avg := getFloat64(getMap(data, "throttle"), "avg"); avg != nil {
		ms := *avg / 1000
		b.ThrottleAvgMs = &ms
	}

	return b
}

func buildTopic(name string, data map[string]interface{}) *TopicMetrics {
	t := &TopicMetrics{
		Topic:      name,
		Partitions: make(map[string]*PartitionMetrics),
	}
	if n := getString(data, "topic"); n != "" {
		t.Topic = n
	}

	for pid, v := range getMap(data, "partitions") {
		pdata, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		t.Partitions[pid] = &PartitionMetrics{
			Partition:            getInt64(pdata, "partition"),
			Leader:               getInt64(pdata, "leader"),
			ConsumerLag:          getInt64(pdata, "consumer_lag"),
			ConsumerLagStored:    getInt64(pdata, "consumer_lag_stored"),
			CommittedOffset:      getInt64(pdata, "committed_offset"),
			StoredOffset:         getInt64(pdata, "stored_offset"),
			CommittedLeaderEpoch: getInt64(pdata, "committed_leader_epoch"),
		}
	}

	return t
}

// Defensive field access. JSON numbers decode as float64; an absent or
// mistyped key yields nil rather than a panic.

func getString(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	if mm, ok := m[key].(map[string]interface{}); ok {
		return mm
	}
	return nil
}

func getInt64(m map[string]interface{}, key string) *int64 {
	if m == nil {
		return nil
	}
	switch v := m[key].(type) {
	case float64:
		n := int64(v)
		return &n
	case int64:
		n := v
		return &n
	case int:
		n := int64(v)
		return &n
	}
	return nil
}

func getFloat64(m map[string]interface{}, key string) *float64 {
	if m == nil {
		return nil
	}
	switch v := m[key].(type) {
	case float64:
		f := v
		return &f
	case int64:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	}
	return nil
}
