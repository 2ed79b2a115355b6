// Package metrics counts what a run found and decided, for export through the
// node_exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/crimson-sun/vigil/internal/model"
)

const namespace = "vigil"

// Stage labels for LastRun.
const (
	StageDetect = "detect"
	StageAct    = "act"
)

// Recorder owns a private registry so exported files contain only vigil series.
type Recorder struct {
	registry *prometheus.Registry

	StreamsEvaluated prometheus.Counter
	Anomalies        *prometheus.CounterVec
	Actions          *prometheus.CounterVec
	LastRun          *prometheus.GaugeVec
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		StreamsEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streams_evaluated_total",
			Help:      "Metric streams evaluated by the detector.",
		}),
		Anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_total",
			Help:      "Anomalies emitted, by type and severity.",
		}, []string{"type", "severity"}),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Remediation actions selected, by resolved priority.",
		}, []string{"priority"}),
		LastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed stage.",
		}, []string{"stage"}),
	}
	r.registry.MustRegister(r.StreamsEvaluated, r.Anomalies, r.Actions, r.LastRun)
	return r
}

// ObserveDetection records one detector run over the given number of streams.
func (r *Recorder) ObserveDetection(streams int, report model.AnomalyReport) {
	r.StreamsEvaluated.Add(float64(streams))
	for _, a := range report.Anomalies {
		r.Anomalies.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
	}
	r.LastRun.WithLabelValues(StageDetect).Set(unix(report.Timestamp))
}

// ObservePlan records one selector run.
func (r *Recorder) ObservePlan(plan model.ActionPlan) {
	for _, it := range plan.Items {
		for _, act := range it.Actions {
			r.Actions.WithLabelValues(string(act.Priority)).Inc()
		}
	}
	r.LastRun.WithLabelValues(StageAct).Set(unix(plan.Timestamp))
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all series in the Prometheus text format. The parent
// directory is created if needed.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("metrics: mkdir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}

func unix(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
