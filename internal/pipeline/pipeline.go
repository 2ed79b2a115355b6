package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/vigil/internal/audit"
	"github.com/crimson-sun/vigil/internal/engine/detector"
	"github.com/crimson-sun/vigil/internal/engine/selector"
	"github.com/crimson-sun/vigil/internal/loader"
	"github.com/crimson-sun/vigil/internal/metrics"
	"github.com/crimson-sun/vigil/internal/model"
	"github.com/crimson-sun/vigil/internal/output"
	"github.com/crimson-sun/vigil/internal/output/file"
	"github.com/crimson-sun/vigil/internal/output/multi"
	"github.com/crimson-sun/vigil/internal/output/stdout"
)

// StdoutPath selects stdout instead of a file for any output path.
const StdoutPath = "-"

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics records every stage into r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(p *Pipeline) { p.metrics = r }
}

// WithClock sets the time source used to stamp documents. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithStdout sets where "-" outputs go. Default: os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(p *Pipeline) { p.stdout = w }
}

// WithPretty indents JSON written to stdout.
func WithPretty(pretty bool) Option {
	return func(p *Pipeline) { p.pretty = pretty }
}

// Pipeline wires loaders, the detector, the selector and outputs into the
// two batch stages. Every input is loaded and evaluated before any output is
// opened, so a bad input never leaves a partial result behind.
type Pipeline struct {
	metrics *metrics.Recorder
	now     func() time.Time
	stdout  io.Writer
	pretty  bool
}

// New creates a Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{now: time.Now, stdout: os.Stdout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DetectRequest names the files for the detection stage.
type DetectRequest struct {
	Input string // metrics snapshot
	Out   string // anomaly report
}

// ActRequest names the files for the action stage.
type ActRequest struct {
	Anomalies string // anomaly report
	Playbook  string
	Out       string // action plan
	Audit     string // Markdown audit
}

// RunRequest names the files for both stages in one go.
type RunRequest struct {
	Input        string
	Playbook     string
	AnomaliesOut string // optional; the report is passed in memory either way
	Out          string
	Audit        string
}

// Detect loads a snapshot, evaluates it and writes the anomaly report.
func (p *Pipeline) Detect(ctx context.Context, req DetectRequest) (model.AnomalyReport, error) {
	if req.Out == "" {
		return model.AnomalyReport{}, errors.New("pipeline detect: output path required")
	}
	log := runLogger("detect")

	report, err := p.detect(req.Input, log)
	if err != nil {
		return model.AnomalyReport{}, err
	}
	if err := p.publish(ctx, document{report, []target{{path: req.Out}}}); err != nil {
		return model.AnomalyReport{}, fmt.Errorf("pipeline detect: %w", err)
	}
	log.Info("anomaly report written", "path", req.Out, "anomalies", report.Count)
	return report, nil
}

// Act loads an anomaly report and playbook and writes the plan and audit.
func (p *Pipeline) Act(ctx context.Context, req ActRequest) (model.ActionPlan, error) {
	if req.Out == "" || req.Audit == "" {
		return model.ActionPlan{}, errors.New("pipeline act: output and audit paths required")
	}
	log := runLogger("act")

	report, err := loader.LoadAnomalyReport(req.Anomalies)
	if err != nil {
		return model.ActionPlan{}, fmt.Errorf("pipeline act: %w", err)
	}
	plan, err := p.selectActions(report, req.Playbook, log)
	if err != nil {
		return model.ActionPlan{}, err
	}
	if err := p.publish(ctx, planDocument(plan, req.Out, req.Audit)); err != nil {
		return model.ActionPlan{}, fmt.Errorf("pipeline act: %w", err)
	}
	log.Info("action plan written", "path", req.Out, "audit", req.Audit, "items", plan.Count)
	return plan, nil
}

// Run chains both stages. The anomaly report is also written when
// AnomaliesOut is set; it is published together with the plan and audit, so
// a failure in either stage leaves no file behind.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (model.ActionPlan, error) {
	if req.Out == "" || req.Audit == "" {
		return model.ActionPlan{}, errors.New("pipeline run: output and audit paths required")
	}
	log := runLogger("run")

	report, err := p.detect(req.Input, log)
	if err != nil {
		return model.ActionPlan{}, err
	}
	plan, err := p.selectActions(report, req.Playbook, log)
	if err != nil {
		return model.ActionPlan{}, err
	}

	docs := []document{planDocument(plan, req.Out, req.Audit)}
	if req.AnomaliesOut != "" {
		docs = append([]document{{report, []target{{path: req.AnomaliesOut}}}}, docs...)
	}
	if err := p.publish(ctx, docs...); err != nil {
		return model.ActionPlan{}, fmt.Errorf("pipeline run: %w", err)
	}
	if req.AnomaliesOut != "" {
		log.Info("anomaly report written", "path", req.AnomaliesOut, "anomalies", report.Count)
	}
	log.Info("action plan written", "path", req.Out, "audit", req.Audit, "items", plan.Count)
	return plan, nil
}

func (p *Pipeline) detect(input string, log *slog.Logger) (model.AnomalyReport, error) {
	snap, err := loader.LoadSnapshot(input)
	if err != nil {
		return model.AnomalyReport{}, fmt.Errorf("pipeline detect: %w", err)
	}
	det := detector.New(snap.Config, detector.WithClock(p.now))
	report := det.Detect(snap.Streams)
	log.Debug("detection complete",
		"streams", len(snap.Streams),
		"anomalies", report.Count,
		"spike_multiplier", snap.Config.SpikeMultiplier,
	)
	if p.metrics != nil {
		p.metrics.ObserveDetection(len(snap.Streams), report)
	}
	return report, nil
}

func (p *Pipeline) selectActions(report model.AnomalyReport, playbookPath string, log *slog.Logger) (model.ActionPlan, error) {
	pb, err := loader.LoadPlaybook(playbookPath)
	if err != nil {
		return model.ActionPlan{}, fmt.Errorf("pipeline act: %w", err)
	}
	plan := selector.New(pb, selector.WithClock(p.now)).Select(report)
	log.Debug("selection complete", "items", plan.Count, "rule_keys", len(pb.Rules))
	if p.metrics != nil {
		p.metrics.ObservePlan(plan)
	}
	return plan, nil
}

// target is one destination for a document. A nil enc means JSON.
type target struct {
	path string
	enc  output.Encoder
}

// document is one result and every place it goes.
type document struct {
	doc     any
	targets []target
}

func planDocument(plan model.ActionPlan, out, auditPath string) document {
	return document{plan, []target{{path: out}, {path: auditPath, enc: audit.Encoder}}}
}

func (p *Pipeline) open(t target) (output.Output, error) {
	if t.path == StdoutPath {
		var opts []stdout.Option
		if t.enc != nil {
			opts = append(opts, stdout.WithEncoder(t.enc))
		}
		return stdout.NewWriter(p.stdout, p.pretty, opts...), nil
	}
	var opts []file.Option
	if t.enc != nil {
		opts = append(opts, file.WithEncoder(t.enc))
	}
	return file.New(t.path, opts...)
}

// publish opens every target of every document, writes each document to its
// targets and only then closes them. Any failure before that aborts all of
// them, so either every file appears or none does.
func (p *Pipeline) publish(ctx context.Context, docs ...document) error {
	sinks := make([]*multi.Multi, 0, len(docs))
	abort := func() {
		for _, s := range sinks {
			s.Abort()
		}
	}
	for _, d := range docs {
		outs := make([]output.Output, 0, len(d.targets))
		for _, t := range d.targets {
			o, err := p.open(t)
			if err != nil {
				multi.New(outs...).Abort()
				abort()
				return err
			}
			outs = append(outs, o)
		}
		sinks = append(sinks, multi.New(outs...))
	}
	for i, d := range docs {
		if err := sinks[i].Write(ctx, d.doc); err != nil {
			abort()
			return err
		}
	}
	var errs []error
	for _, s := range sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

func runLogger(stage string) *slog.Logger {
	return slog.With("run_id", uuid.NewString(), "stage", stage)
}
