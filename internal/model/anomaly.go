package model

import (
	"sort"
	"time"
)

// AnomalyType names the rule that produced an anomaly. Reports read back from
// disk may carry types this package does not define; those are kept verbatim.
type AnomalyType string

const (
	AnomalySpike             AnomalyType = "spike"
	AnomalyBudgetOverrunRisk AnomalyType = "budget_overrun_risk"
	AnomalyFailureBurst      AnomalyType = "failure_burst"
	AnomalyLatencyRegression AnomalyType = "latency_regression"
)

// Severity of an anomaly. High means the metric crossed the escalation margin.
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ParseSeverity returns SeverityMedium for an empty string and the value
// unchanged otherwise.
func ParseSeverity(s string) Severity {
	if s == "" {
		return SeverityMedium
	}
	return Severity(s)
}

// Anomaly is one rule firing against one stream.
type Anomaly struct {
	Stream   string      `json:"stream"`
	Type     AnomalyType `json:"type"`
	Severity Severity    `json:"severity"`
	Details  Details     `json:"details"`
}

// AnomalyReport is the detector's output document.
type AnomalyReport struct {
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
	Anomalies []Anomaly `json:"anomalies"`
}

// NewAnomalyReport stamps the anomalies with ts (converted to UTC).
func NewAnomalyReport(ts time.Time, anomalies []Anomaly) AnomalyReport {
	if anomalies == nil {
		anomalies = []Anomaly{}
	}
	return AnomalyReport{Timestamp: ts.UTC(), Count: len(anomalies), Anomalies: anomalies}
}

// Field is one named detail value, in the order the rule recorded it.
type Field struct {
	Name  string
	Value any
}

// Details carries the metric values a rule used to reach its decision.
type Details interface {
	Fields() []Field
}

// SpikeDetails backs AnomalySpike.
type SpikeDetails struct {
	Current    float64 `json:"current"`
	Baseline   float64 `json:"baseline"`
	Multiplier float64 `json:"multiplier"` // current/baseline, 2 dp
}

func (d SpikeDetails) Fields() []Field {
	return []Field{{"current", d.Current}, {"baseline", d.Baseline}, {"multiplier", d.Multiplier}}
}

// BudgetDetails backs AnomalyBudgetOverrunRisk.
type BudgetDetails struct {
	Spent     float64 `json:"spent"`
	Limit     float64 `json:"limit"`
	Projected float64 `json:"projected"`
}

func (d BudgetDetails) Fields() []Field {
	return []Field{{"spent", d.Spent}, {"limit", d.Limit}, {"projected", d.Projected}}
}

// FailureDetails backs AnomalyFailureBurst.
type FailureDetails struct {
	FailureRate float64 `json:"failure_rate"` // 4 dp
	Threshold   float64 `json:"threshold"`
	Total       float64 `json:"total"`
}

func (d FailureDetails) Fields() []Field {
	return []Field{{"failure_rate", d.FailureRate}, {"threshold", d.Threshold}, {"total", d.Total}}
}

// LatencyDetails backs AnomalyLatencyRegression.
type LatencyDetails struct {
	P95Ms       float64 `json:"p95_ms"`
	ThresholdMs float64 `json:"threshold_ms"`
}

func (d LatencyDetails) Fields() []Field {
	return []Field{{"p95_ms", d.P95Ms}, {"threshold_ms", d.ThresholdMs}}
}

// GenericDetails holds details for anomaly types without a dedicated struct.
type GenericDetails map[string]any

// Fields returns the entries sorted by key.
func (d GenericDetails) Fields() []Field {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{k, d[k]})
	}
	return fields
}

// detailsDecoders rebuilds typed details from a decoded key/value map. A
// decoder reports false when a key is missing or not a number.
var detailsDecoders = map[AnomalyType]func(m map[string]any) (Details, bool){
	AnomalySpike: func(m map[string]any) (Details, bool) {
		v, ok := numbers(m, "current", "baseline", "multiplier")
		if !ok {
			return nil, false
		}
		return SpikeDetails{Current: v[0], Baseline: v[1], Multiplier: v[2]}, true
	},
	AnomalyBudgetOverrunRisk: func(m map[string]any) (Details, bool) {
		v, ok := numbers(m, "spent", "limit", "projected")
		if !ok {
			return nil, false
		}
		return BudgetDetails{Spent: v[0], Limit: v[1], Projected: v[2]}, true
	},
	AnomalyFailureBurst: func(m map[string]any) (Details, bool) {
		v, ok := numbers(m, "failure_rate", "threshold", "total")
		if !ok {
			return nil, false
		}
		return FailureDetails{FailureRate: v[0], Threshold: v[1], Total: v[2]}, true
	},
	AnomalyLatencyRegression: func(m map[string]any) (Details, bool) {
		v, ok := numbers(m, "p95_ms", "threshold_ms")
		if !ok {
			return nil, false
		}
		return LatencyDetails{P95Ms: v[0], ThresholdMs: v[1]}, true
	},
}

// DetailsFromMap converts decoded details into the typed form for t. Unknown
// types, and known types whose map lacks a field, keep the map as
// GenericDetails so nothing is invented or dropped.
func DetailsFromMap(t AnomalyType, m map[string]any) Details {
	if dec, ok := detailsDecoders[t]; ok && len(m) > 0 {
		if d, ok := dec(m); ok {
			return d
		}
	}
	if m == nil {
		return GenericDetails{}
	}
	return GenericDetails(m)
}

// numbers looks up keys in order. ok is false if any is absent or non-numeric.
func numbers(m map[string]any, keys ...string) ([]float64, bool) {
	out := make([]float64, len(keys))
	for i, k := range keys {
		f, ok := ToFloat(m[k])
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// ToFloat converts the numeric types produced by the JSON and YAML decoders.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
