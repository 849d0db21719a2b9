package core

import (
	"context"
	"testing"
)

func TestHistory_EvictsOldest(t *testing.T) {
	h := NewHistory(3)
	for _, src := range []string{"a", "b", "c", "d"} {
		h.Add(Outcome{Source: src})
	}

	got := h.Recent(0)
	if len(got) != 3 {
		t.Fatalf("len(Recent) = %d, want 3", len(got))
	}
	want := []string{"d", "c", "b"}
	for i, o := range got {
		if o.Source != want[i] {
			t.Errorf("Recent[%d].Source = %q, want %q", i, o.Source, want[i])
		}
	}

	if got := h.Recent(1); len(got) != 1 || got[0].Source != "d" {
		t.Errorf("Recent(1) = %+v, want only d", got)
	}
}

func TestHistory_Last(t *testing.T) {
	h := NewHistory(0)
	h.Add(Outcome{RunID: "1", Source: "timeline"})
	h.Add(Outcome{RunID: "2", Source: "materials"})
	h.Add(Outcome{RunID: "3", Source: "timeline"})

	o, ok := h.Last("timeline")
	if !ok || o.RunID != "3" {
		t.Errorf("Last(timeline) = %q, %v, want 3, true", o.RunID, ok)
	}
	if _, ok := h.Last("catalog"); ok {
		t.Error("Last(catalog) found an outcome, want none")
	}
}

func TestTriggerFromContext(t *testing.T) {
	if got := TriggerFromContext(context.Background()); got != "" {
		t.Errorf("TriggerFromContext(empty) = %q, want empty", got)
	}
	ctx := ContextWithTrigger(context.Background(), TriggerSchedule)
	if got := TriggerFromContext(ctx); got != TriggerSchedule {
		t.Errorf("TriggerFromContext = %q, want %q", got, TriggerSchedule)
	}
}
