package loader

import (
	"time"

	"github.com/crimson-sun/vigil/internal/model"
)

// Raw document shapes. Pointer fields distinguish "absent" from zero so that
// per-field defaults can be applied.

type rawSnapshot struct {
	Config  rawConfig   `json:"config" yaml:"config"`
	Streams []rawStream `json:"streams" yaml:"streams"`
}

type rawConfig struct {
	SpikeMultiplier      *float64 `json:"spike_multiplier" yaml:"spike_multiplier"`
	FailureRateThreshold *float64 `json:"failure_rate_threshold" yaml:"failure_rate_threshold"`
	LatencyThresholdMs   *float64 `json:"latency_threshold_ms" yaml:"latency_threshold_ms"`
}

func (c rawConfig) resolve() model.DetectionConfig {
	cfg := model.DefaultDetectionConfig()
	cfg.SpikeMultiplier = or(c.SpikeMultiplier, cfg.SpikeMultiplier)
	cfg.FailureRateThreshold = or(c.FailureRateThreshold, cfg.FailureRateThreshold)
	cfg.LatencyThresholdMs = or(c.LatencyThresholdMs, cfg.LatencyThresholdMs)
	return cfg
}

type rawStream struct {
	Name     *string  `json:"name" yaml:"name"`
	Type     *string  `json:"type" yaml:"type"`
	Current  *float64 `json:"current" yaml:"current"`
	Baseline *float64 `json:"baseline" yaml:"baseline"`

	Spent     *float64 `json:"spent" yaml:"spent"`
	Limit     *float64 `json:"limit" yaml:"limit"`
	Projected *float64 `json:"projected" yaml:"projected"`

	Total    *float64 `json:"total" yaml:"total"`
	Failures *float64 `json:"failures" yaml:"failures"`

	P95Ms *float64 `json:"p95_ms" yaml:"p95_ms"`
}

// resolve applies the documented defaults: spent falls back to current,
// limit to baseline, projected to the resolved spent, p95 to current, and
// everything else to zero.
func (s rawStream) resolve() model.StreamMetric {
	m := model.StreamMetric{
		Name:     model.UnknownStreamName,
		Type:     model.StreamGeneric,
		Current:  or(s.Current, 0),
		Baseline: or(s.Baseline, 0),
		Total:    or(s.Total, 0),
		Failures: or(s.Failures, 0),
	}
	if s.Name != nil {
		m.Name = *s.Name
	}
	if s.Type != nil {
		m.Type = model.ParseStreamType(*s.Type)
	}
	m.Spent = or(s.Spent, m.Current)
	m.Limit = or(s.Limit, m.Baseline)
	m.Projected = or(s.Projected, m.Spent)
	m.P95Ms = or(s.P95Ms, m.Current)
	return m
}

func or(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

type rawReport struct {
	Timestamp string       `json:"timestamp" yaml:"timestamp"`
	Anomalies []rawAnomaly `json:"anomalies" yaml:"anomalies"`
}

// timestamp parses the report's generation time; an unparsable or absent
// value yields the zero time since nothing downstream depends on it.
func (r rawReport) timestamp() time.Time {
	ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return ts
}

type rawAnomaly struct {
	Stream   string         `json:"stream" yaml:"stream"`
	Type     string         `json:"type" yaml:"type"`
	Severity string         `json:"severity" yaml:"severity"`
	Details  map[string]any `json:"details" yaml:"details"`
}

type rawPlaybook struct {
	Rules map[string][]map[string]any `json:"rules" yaml:"rules"`
}
