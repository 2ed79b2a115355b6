package model

import (
	"encoding/json"
	"time"
)

// DefaultRuleKey is the playbook entry used when an anomaly type has no rules of its own.
const DefaultRuleKey = "default"

// Priority of a resolved action. Rules may preset any string; the selector
// only ever produces urgent and normal itself.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityNormal Priority = "normal"
)

// ActionRule is one remediation template in a playbook.
type ActionRule struct {
	Action         string   `json:"action" validate:"required"`
	EscalateOnHigh bool     `json:"escalate_on_high"`
	Priority       Priority `json:"priority,omitempty"`

	// Params holds any other keys the rule carried (runbook links, targets,
	// channels). They are passed through to resolved actions untouched.
	Params map[string]any `json:"-" validate:"-"`
}

// Playbook maps anomaly types to ordered rule lists.
type Playbook struct {
	Rules map[string][]ActionRule `json:"rules" validate:"dive,dive"`
}

// DefaultPlaybook is used when no playbook file exists: an empty default list.
func DefaultPlaybook() Playbook {
	return Playbook{Rules: map[string][]ActionRule{DefaultRuleKey: {}}}
}

// Candidates returns the rules for t, falling back to the default list.
// The result is never nil.
func (p Playbook) Candidates(t AnomalyType) []ActionRule {
	if rules, ok := p.Rules[string(t)]; ok {
		return nonNil(rules)
	}
	if rules, ok := p.Rules[DefaultRuleKey]; ok {
		return nonNil(rules)
	}
	return []ActionRule{}
}

// Validate reports rules without an action. Such rules still resolve; the
// result is advisory.
func (p Playbook) Validate() error {
	return validateStruct("playbook", p)
}

func nonNil(rules []ActionRule) []ActionRule {
	if rules == nil {
		return []ActionRule{}
	}
	return rules
}

// ResolvedAction is a rule copied onto an anomaly with its final priority.
type ResolvedAction struct {
	Action         string
	EscalateOnHigh bool
	Priority       Priority
	Params         map[string]any
}

// MarshalJSON writes Params inline next to the rule's own keys. The rule's
// keys win on collision. An empty action is left out, as the rule had none.
func (a ResolvedAction) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(a.Params)+3)
	for k, v := range a.Params {
		m[k] = v
	}
	if a.Action != "" {
		m["action"] = a.Action
	} else {
		delete(m, "action")
	}
	m["escalate_on_high"] = a.EscalateOnHigh
	m["priority"] = a.Priority
	return json.Marshal(m)
}

// ActionItem pairs an anomaly with the actions selected for it.
type ActionItem struct {
	Anomaly Anomaly          `json:"anomaly"`
	Actions []ResolvedAction `json:"actions"`
}

// ActionPlan is the selector's output document.
type ActionPlan struct {
	Timestamp time.Time    `json:"timestamp"`
	Count     int          `json:"count"`
	Items     []ActionItem `json:"items"`
}

// NewActionPlan stamps the items with ts (converted to UTC).
func NewActionPlan(ts time.Time, items []ActionItem) ActionPlan {
	if items == nil {
		items = []ActionItem{}
	}
	return ActionPlan{Timestamp: ts.UTC(), Count: len(items), Items: items}
}
