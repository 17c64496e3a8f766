package model

import (
	"reflect"
	"testing"
	"time"
)

func sampleProblems() []Problem {
	return []Problem{
		{ID: "prob-1", Title: "Sum", Difficulty: DifficultyEasy},
		{ID: "prob-2", Title: "Graph", Difficulty: DifficultyHard},
		{ID: "prob-3", Title: "Strings", Difficulty: DifficultyEasy},
		{ID: "prob-4", Title: "DP", Difficulty: DifficultyMedium},
	}
}

func TestFilterByDifficulty(t *testing.T) {
	got := FilterByDifficulty(sampleProblems(), DifficultyEasy)
	if len(got) != 2 || got[0].ID != "prob-1" || got[1].ID != "prob-3" {
		t.Fatalf("Easy filter = %+v", got)
	}
	if all := FilterByDifficulty(sampleProblems(), ""); len(all) != 4 {
		t.Fatalf("empty filter kept %d, want 4", len(all))
	}
}

func TestFilterByDifficultyIdempotent(t *testing.T) {
	for _, d := range []ProblemDifficulty{"", DifficultyEasy, DifficultyMedium, DifficultyHard} {
		once := FilterByDifficulty(sampleProblems(), d)
		twice := FilterByDifficulty(once, d)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("filter %q not idempotent: %v vs %v", d, once, twice)
		}
	}
}

func TestProblemPublicStripsJudgeData(t *testing.T) {
	p := Problem{ID: "prob-1", Input: "1 2", Output: "3", ExampleInput: "2 2", ExampleOutput: "4"}
	pub := p.Public()
	if pub.Input != "" || pub.Output != "" {
		t.Fatalf("judge data leaked: %+v", pub)
	}
	if pub.ExampleInput != "2 2" || p.Input != "1 2" {
		t.Fatalf("Public changed the wrong fields: %+v / %+v", pub, p)
	}
}

func TestProblemDeleted(t *testing.T) {
	now := time.Now()
	if (&Problem{}).Deleted() {
		t.Error("fresh problem reported deleted")
	}
	if !(&Problem{DeletedAt: &now}).Deleted() {
		t.Error("soft-deleted problem not reported deleted")
	}
}
