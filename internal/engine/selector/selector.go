package selector

import (
	"maps"
	"time"

	"github.com/crimson-sun/vigil/internal/model"
)

// Option configures a Selector.
type Option func(*Selector)

// WithClock sets the time source used to stamp plans. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Selector) { s.now = now }
}

// Selector maps anomalies to remediation actions using a playbook.
type Selector struct {
	playbook model.Playbook
	now      func() time.Time
}

// New creates a Selector for the given playbook.
func New(pb model.Playbook, opts ...Option) *Selector {
	s := &Selector{playbook: pb, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select resolves actions for every anomaly in the report, preserving order.
func (s *Selector) Select(report model.AnomalyReport) model.ActionPlan {
	items := make([]model.ActionItem, 0, len(report.Anomalies))
	for _, a := range report.Anomalies {
		items = append(items, s.Resolve(a))
	}
	return model.NewActionPlan(s.now(), items)
}

// Resolve applies every candidate rule for the anomaly's type, in playbook order.
func (s *Selector) Resolve(a model.Anomaly) model.ActionItem {
	rules := s.playbook.Candidates(a.Type)
	actions := make([]model.ResolvedAction, 0, len(rules))
	for _, r := range rules {
		actions = append(actions, resolve(r, a.Severity))
	}
	return model.ActionItem{Anomaly: a, Actions: actions}
}

// resolve copies the rule and settles its priority. Escalation beats a preset
// priority; a preset priority beats the normal default. An empty priority
// counts as unset.
func resolve(r model.ActionRule, sev model.Severity) model.ResolvedAction {
	act := model.ResolvedAction{
		Action:         r.Action,
		EscalateOnHigh: r.EscalateOnHigh,
		Priority:       r.Priority,
		Params:         maps.Clone(r.Params),
	}
	switch {
	case sev == model.SeverityHigh && r.EscalateOnHigh:
		act.Priority = model.PriorityUrgent
	case act.Priority == "":
		act.Priority = model.PriorityNormal
	}
	return act
}
