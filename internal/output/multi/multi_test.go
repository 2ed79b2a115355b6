package multi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crimson-sun/vigil/internal/model"
)

// mockOutput records calls for test assertions.
type mockOutput struct {
	docs   []any
	closed bool
	err    error // if set, Write and Close return this error
}

func (m *mockOutput) Write(_ context.Context, doc any) error {
	m.docs = append(m.docs, doc)
	return m.err
}

func (m *mockOutput) Close() error {
	m.closed = true
	return m.err
}

// stagingOutput is a mockOutput that can also discard what it holds.
type stagingOutput struct {
	mockOutput
	aborted bool
}

func (s *stagingOutput) Abort() error {
	s.aborted = true
	s.docs = nil
	return nil
}

func testPlan() model.ActionPlan {
	return model.NewActionPlan(time.Now(), []model.ActionItem{{
		Anomaly: model.Anomaly{Stream: "db-cpu", Type: model.AnomalySpike, Severity: model.SeverityHigh},
		Actions: []model.ResolvedAction{{Action: "scale-out", Priority: model.PriorityUrgent}},
	}})
}

func TestFanOutDeliversToAll(t *testing.T) {
	a := &mockOutput{}
	b := &mockOutput{}
	c := &mockOutput{}
	m := New(a, b, c)

	if err := m.Write(context.Background(), testPlan()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, out := range []*mockOutput{a, b, c} {
		if len(out.docs) != 1 {
			t.Fatalf("output %d: got %d docs, want 1", i, len(out.docs))
		}
		plan, ok := out.docs[0].(model.ActionPlan)
		if !ok {
			t.Fatalf("output %d: got %T, want model.ActionPlan", i, out.docs[0])
		}
		if plan.Items[0].Anomaly.Stream != "db-cpu" {
			t.Errorf("output %d: got stream %q, want db-cpu", i, plan.Items[0].Anomaly.Stream)
		}
	}
}

func TestErrorDoesNotPreventDelivery(t *testing.T) {
	failing := &mockOutput{err: errors.New("disk full")}
	healthy := &mockOutput{}
	m := New(failing, healthy)

	err := m.Write(context.Background(), testPlan())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(healthy.docs) != 1 {
		t.Fatalf("healthy output got %d docs, want 1", len(healthy.docs))
	}
	if len(failing.docs) != 1 {
		t.Fatalf("failing output got %d docs, want 1", len(failing.docs))
	}
}

func TestCloseCollectsErrors(t *testing.T) {
	a := &mockOutput{err: errors.New("err-a")}
	b := &mockOutput{err: errors.New("err-b")}
	m := New(a, b)

	err := m.Close()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, a.err) || !errors.Is(err, b.err) {
		t.Errorf("expected both errors joined, got %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("Close should be called on all outputs even when errors occur")
	}
}

func TestEmptyMulti(t *testing.T) {
	m := New()
	if err := m.Write(context.Background(), testPlan()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAbortDiscardsStagedOutputs(t *testing.T) {
	staged := &stagingOutput{}
	plain := &mockOutput{}
	m := New(staged, plain)

	m.Write(context.Background(), testPlan())
	if err := m.Abort(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !staged.aborted || staged.closed {
		t.Error("staging output should be aborted, not closed")
	}
	if len(staged.docs) != 0 {
		t.Errorf("staging output kept %d docs after Abort", len(staged.docs))
	}
	if !plain.closed {
		t.Error("output without Abort should be closed")
	}
}
