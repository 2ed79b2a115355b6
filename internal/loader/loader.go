// Package loader reads the pipeline's input documents. Missing files are
// replaced by empty defaults and only undecodable documents are errors.
// Suspicious values (a zero threshold, a rule without an action) are logged
// and passed through.
// All field defaults are applied here, once, so downstream code works on
// fully resolved values.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/vigil/internal/model"
)

// ErrMalformed marks a document that could not be decoded.
var ErrMalformed = errors.New("malformed document")

// LoadSnapshot reads a metrics snapshot. A missing file yields zero streams
// and the default detection config.
func LoadSnapshot(path string) (model.Snapshot, error) {
	var raw rawSnapshot
	found, err := readDocument(path, &raw)
	if err != nil {
		return model.Snapshot{}, err
	}
	if !found {
		slog.Info("snapshot not found, using empty snapshot", "path", path)
	}

	snap := model.Snapshot{
		Config:  raw.Config.resolve(),
		Streams: make([]model.StreamMetric, 0, len(raw.Streams)),
	}
	if err := snap.Config.Validate(); err != nil {
		slog.Warn("detection config out of range, using it as given", "path", path, "error", err)
	}
	for _, s := range raw.Streams {
		snap.Streams = append(snap.Streams, s.resolve())
	}
	return snap, nil
}

// LoadAnomalyReport reads a detector report. A missing file yields no anomalies.
func LoadAnomalyReport(path string) (model.AnomalyReport, error) {
	var raw rawReport
	found, err := readDocument(path, &raw)
	if err != nil {
		return model.AnomalyReport{}, err
	}
	if !found {
		slog.Info("anomaly report not found, using empty report", "path", path)
	}

	anomalies := make([]model.Anomaly, 0, len(raw.Anomalies))
	for _, a := range raw.Anomalies {
		typ := model.AnomalyType(a.Type)
		anomalies = append(anomalies, model.Anomaly{
			Stream:   a.Stream,
			Type:     typ,
			Severity: model.ParseSeverity(a.Severity),
			Details:  model.DetailsFromMap(typ, a.Details),
		})
	}
	return model.NewAnomalyReport(raw.timestamp(), anomalies), nil
}

// LoadPlaybook reads a playbook. A missing file yields an empty default list.
func LoadPlaybook(path string) (model.Playbook, error) {
	var raw rawPlaybook
	found, err := readDocument(path, &raw)
	if err != nil {
		return model.Playbook{}, err
	}
	if !found {
		slog.Info("playbook not found, using empty default rules", "path", path)
		return model.DefaultPlaybook(), nil
	}

	pb := model.Playbook{Rules: make(map[string][]model.ActionRule, len(raw.Rules))}
	for key, list := range raw.Rules {
		rules := make([]model.ActionRule, 0, len(list))
		for i, m := range list {
			r, err := ruleFromMap(m)
			if err != nil {
				return model.Playbook{}, fmt.Errorf("loader: %s: rules[%s][%d]: %w: %w", path, key, i, ErrMalformed, err)
			}
			rules = append(rules, r)
		}
		pb.Rules[key] = rules
	}
	if err := pb.Validate(); err != nil {
		slog.Warn("playbook has incomplete rules", "path", path, "error", err)
	}
	return pb, nil
}

// readDocument decodes path into v, choosing YAML or JSON by extension.
// found is false (and err nil) when the file does not exist.
func readDocument(path string, v any) (found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loader: read %s: %w", path, err)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, v)
	} else {
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return true, fmt.Errorf("loader: parse %s: %w: %w", path, ErrMalformed, err)
	}
	return true, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// ruleFromMap splits a decoded rule into its known keys and pass-through params.
func ruleFromMap(m map[string]any) (model.ActionRule, error) {
	var r model.ActionRule
	for k, v := range m {
		switch k {
		case "action":
			s, ok := v.(string)
			if !ok {
				return r, fmt.Errorf("action must be a string, got %T", v)
			}
			r.Action = s
		case "escalate_on_high":
			if v == nil {
				continue
			}
			b, ok := v.(bool)
			if !ok {
				return r, fmt.Errorf("escalate_on_high must be a boolean, got %T", v)
			}
			r.EscalateOnHigh = b
		case "priority":
			if v == nil {
				continue
			}
			s, ok := v.(string)
			if !ok {
				return r, fmt.Errorf("priority must be a string, got %T", v)
			}
			r.Priority = model.Priority(s)
		default:
			if r.Params == nil {
				r.Params = make(map[string]any)
			}
			r.Params[k] = v
		}
	}
	return r, nil
}
