package model

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to SubmissionStatus
		want     bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusError, true},
		{StatusRunning, StatusCompleted, true},
		{StatusRunning, StatusError, true},
		{StatusRunning, StatusPending, false},
		{StatusCompleted, StatusError, false},
		{StatusError, StatusCompleted, false},
		{StatusCompleted, StatusRunning, false},
		{StatusPending, StatusPending, false},
		{StatusRunning, StatusRunning, false},
		{"bogus", StatusRunning, false},
		{StatusPending, "bogus", false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestPredecessors(t *testing.T) {
	eq := func(a, b []SubmissionStatus) bool {
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}
	if got := Predecessors(StatusRunning); !eq(got, []SubmissionStatus{StatusPending}) {
		t.Errorf("Predecessors(running) = %v", got)
	}
	if got := Predecessors(StatusCompleted); !eq(got, []SubmissionStatus{StatusPending, StatusRunning}) {
		t.Errorf("Predecessors(completed) = %v", got)
	}
	if got := Predecessors(StatusPending); len(got) != 0 {
		t.Errorf("Predecessors(pending) = %v, want none", got)
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []SubmissionStatus{StatusCompleted, StatusError} {
		if !s.Terminal() {
			t.Errorf("%q should be terminal", s)
		}
	}
	for _, s := range []SubmissionStatus{StatusPending, StatusRunning} {
		if s.Terminal() {
			t.Errorf("%q should not be terminal", s)
		}
	}
}

func TestParseSubmissionKind(t *testing.T) {
	for in, want := range map[string]SubmissionKind{"RUN": KindRun, "run": KindRun, " Submit ": KindSubmit} {
		got, ok := ParseSubmissionKind(in)
		if !ok || got != want {
			t.Errorf("ParseSubmissionKind(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseSubmissionKind("TEST"); ok {
		t.Error("TEST should not parse")
	}
}
