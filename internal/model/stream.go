package model

// StreamType selects which detection rules apply to a stream.
type StreamType string

const (
	StreamGeneric      StreamType = "generic"
	StreamBudget       StreamType = "budget"
	StreamTaskFailures StreamType = "task_failures"
	StreamLatency      StreamType = "latency"
)

// ParseStreamType maps a raw type string onto the closed StreamType set.
// Unrecognized values, including the empty string, become StreamGeneric.
func ParseStreamType(s string) StreamType {
	switch t := StreamType(s); t {
	case StreamBudget, StreamTaskFailures, StreamLatency:
		return t
	default:
		return StreamGeneric
	}
}

// UnknownStreamName is used for streams that arrive without a name.
const UnknownStreamName = "unknown"

// StreamMetric is one observed stream with every optional field already
// resolved. Loaders apply the defaults; detection code never sees an absent value.
type StreamMetric struct {
	Name     string
	Type     StreamType
	Current  float64
	Baseline float64

	// budget
	Spent     float64 // defaults to Current
	Limit     float64 // defaults to Baseline
	Projected float64 // defaults to Spent

	// task_failures
	Total    float64
	Failures float64

	// latency
	P95Ms float64 // defaults to Current
}

// DetectionConfig holds the thresholds for a detection run.
type DetectionConfig struct {
	SpikeMultiplier      float64 `json:"spike_multiplier" yaml:"spike_multiplier" validate:"gt=0"`
	FailureRateThreshold float64 `json:"failure_rate_threshold" yaml:"failure_rate_threshold" validate:"gte=0"`
	LatencyThresholdMs   float64 `json:"latency_threshold_ms" yaml:"latency_threshold_ms" validate:"gt=0"`
}

// Detection defaults.
const (
	DefaultSpikeMultiplier      = 2.0
	DefaultFailureRateThreshold = 0.2
	DefaultLatencyThresholdMs   = 60000.0
)

// DefaultDetectionConfig returns the thresholds used when a snapshot sets none.
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		SpikeMultiplier:      DefaultSpikeMultiplier,
		FailureRateThreshold: DefaultFailureRateThreshold,
		LatencyThresholdMs:   DefaultLatencyThresholdMs,
	}
}

// Validate reports thresholds that would make detection meaningless.
func (c DetectionConfig) Validate() error {
	return validateStruct("detection config", c)
}

// Snapshot is the detector's input: config plus the streams to evaluate.
type Snapshot struct {
	Config  DetectionConfig
	Streams []StreamMetric
}
