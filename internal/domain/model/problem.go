package model

import (
	"time"
)

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "Easy"
	DifficultyMedium ProblemDifficulty = "Medium"
	DifficultyHard   ProblemDifficulty = "Hard"
)

// Valid reports whether d is one of the enumerated difficulties.
func (d ProblemDifficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Problem struct {
	ID            string            `json:"id"`
	Slug          string            `json:"slug"`
	Title         string            `json:"title"`
	Description   string            `json:"description"` // Markdown
	Difficulty    ProblemDifficulty `json:"difficulty"`
	ExampleInput  string            `json:"example_input"`
	ExampleOutput string            `json:"example_output"`
	Input         string            `json:"input,omitempty"`  // Judge input, admin only view
	Output        string            `json:"output,omitempty"` // Judge output, admin only view
	CreatedByID   *string           `json:"created_by_id,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	DeletedAt     *time.Time        `json:"deleted_at,omitempty"`
}

// Deleted reports whether the soft-deletion marker is set.
func (p *Problem) Deleted() bool {
	return p.DeletedAt != nil
}

// Public returns a copy with the judge data stripped.
func (p Problem) Public() Problem {
	p.Input = ""
	p.Output = ""
	return p
}

// FilterByDifficulty keeps the problems whose difficulty equals d exactly.
// An empty d keeps everything.
func FilterByDifficulty(problems []Problem, d ProblemDifficulty) []Problem {
	out := make([]Problem, 0, len(problems))
	for _, p := range problems {
		if d == "" || p.Difficulty == d {
			out = append(out, p)
		}
	}
	return out
}
