package detector

import (
	"math"
	"time"

	"github.com/crimson-sun/vigil/internal/model"
)

// Escalation margins. Each is a fixed multiple of the rule's base threshold.
const (
	budgetHighFactor  = 1.2
	failureHighFactor = 1.5
	latencyHighFactor = 1.5
)

// Option configures a Detector.
type Option func(*Detector)

// WithClock sets the time source used to stamp reports. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// Detector evaluates metric streams against the rule table.
type Detector struct {
	cfg model.DetectionConfig
	now func() time.Time
}

// New creates a Detector with the given thresholds.
func New(cfg model.DetectionConfig, opts ...Option) *Detector {
	d := &Detector{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config returns the thresholds the detector was built with.
func (d *Detector) Config() model.DetectionConfig {
	return d.cfg
}

// Detect evaluates every stream and returns the stamped report.
// Anomalies keep input stream order, then rule table order within a stream.
func (d *Detector) Detect(streams []model.StreamMetric) model.AnomalyReport {
	anomalies := make([]model.Anomaly, 0)
	for _, s := range streams {
		anomalies = append(anomalies, d.Evaluate(s)...)
	}
	return model.NewAnomalyReport(d.now(), anomalies)
}

// Evaluate runs every rule that applies to the stream's type.
// A stream may trigger several anomalies.
func (d *Detector) Evaluate(s model.StreamMetric) []model.Anomaly {
	var out []model.Anomaly
	for _, r := range rules {
		if !r.applies(s.Type) {
			continue
		}
		sev, details, ok := r.eval(s, d.cfg)
		if !ok {
			continue
		}
		out = append(out, model.Anomaly{
			Stream:   s.Name,
			Type:     r.anomaly,
			Severity: sev,
			Details:  details,
		})
	}
	return out
}

// rule is one row of the detection table.
type rule struct {
	anomaly model.AnomalyType
	applies func(model.StreamType) bool
	eval    func(s model.StreamMetric, cfg model.DetectionConfig) (model.Severity, model.Details, bool)
}

// rules is evaluated top to bottom. Adding a rule means adding a row.
var rules = []rule{
	{model.AnomalySpike, anyType, evalSpike},
	{model.AnomalyBudgetOverrunRisk, only(model.StreamBudget), evalBudget},
	{model.AnomalyFailureBurst, only(model.StreamTaskFailures), evalFailureBurst},
	{model.AnomalyLatencyRegression, only(model.StreamLatency), evalLatency},
}

// RuleTypes lists the anomaly types the detector can emit, in table order.
func RuleTypes() []model.AnomalyType {
	types := make([]model.AnomalyType, len(rules))
	for i, r := range rules {
		types[i] = r.anomaly
	}
	return types
}

func anyType(model.StreamType) bool { return true }

func only(t model.StreamType) func(model.StreamType) bool {
	return func(st model.StreamType) bool { return st == t }
}

func evalSpike(s model.StreamMetric, cfg model.DetectionConfig) (model.Severity, model.Details, bool) {
	if s.Baseline <= 0 || s.Current < s.Baseline*cfg.SpikeMultiplier {
		return "", nil, false
	}
	sev := severity(s.Current >= s.Baseline*(cfg.SpikeMultiplier+1))
	return sev, model.SpikeDetails{
		Current:    s.Current,
		Baseline:   s.Baseline,
		Multiplier: round(s.Current/s.Baseline, 2),
	}, true
}

func evalBudget(s model.StreamMetric, _ model.DetectionConfig) (model.Severity, model.Details, bool) {
	if s.Limit <= 0 || s.Projected <= s.Limit {
		return "", nil, false
	}
	sev := severity(s.Projected > s.Limit*budgetHighFactor)
	return sev, model.BudgetDetails{Spent: s.Spent, Limit: s.Limit, Projected: s.Projected}, true
}

func evalFailureBurst(s model.StreamMetric, cfg model.DetectionConfig) (model.Severity, model.Details, bool) {
	if s.Total <= 0 {
		return "", nil, false
	}
	rate := s.Failures / s.Total
	if rate < cfg.FailureRateThreshold {
		return "", nil, false
	}
	sev := severity(rate >= cfg.FailureRateThreshold*failureHighFactor)
	return sev, model.FailureDetails{
		FailureRate: round(rate, 4),
		Threshold:   cfg.FailureRateThreshold,
		Total:       s.Total,
	}, true
}

func evalLatency(s model.StreamMetric, cfg model.DetectionConfig) (model.Severity, model.Details, bool) {
	if s.P95Ms < cfg.LatencyThresholdMs {
		return "", nil, false
	}
	sev := severity(s.P95Ms >= cfg.LatencyThresholdMs*latencyHighFactor)
	return sev, model.LatencyDetails{P95Ms: s.P95Ms, ThresholdMs: cfg.LatencyThresholdMs}, true
}

func severity(high bool) model.Severity {
	if high {
		return model.SeverityHigh
	}
	return model.SeverityMedium
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
