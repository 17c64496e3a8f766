package views

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"learncode/internal/domain/model"
)

type ProblemLister interface {
	ListProblems(ctx context.Context, difficulty string) ([]model.Problem, error)
}

// Catalog lists problems with an optional client-side difficulty filter.
type Catalog struct {
	mu       sync.RWMutex
	client   ProblemLister
	problems []model.Problem
	filter   model.ProblemDifficulty
	err      string
}

func NewCatalog(client ProblemLister) *Catalog {
	return &Catalog{client: client}
}

// Load fetches the full list. On failure the previous list is kept and the
// error is recorded.
func (c *Catalog) Load(ctx context.Context) error {
	problems, err := c.client.ListProblems(ctx, "")
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.err = err.Error()
		return err
	}
	c.problems = problems
	c.err = ""
	return nil
}

// SetFilter selects a difficulty. "" and "All" clear the filter.
func (c *Catalog) SetFilter(raw string) error {
	raw = strings.TrimSpace(raw)
	var d model.ProblemDifficulty
	if raw != "" && !strings.EqualFold(raw, "all") {
		d = model.ProblemDifficulty(strings.ToUpper(raw[:1]) + strings.ToLower(raw[1:]))
		if !d.Valid() {
			return fmt.Errorf("unknown difficulty %q, want Easy, Medium, Hard or All", raw)
		}
	}
	c.mu.Lock()
	c.filter = d
	c.mu.Unlock()
	return nil
}

func (c *Catalog) Filter() model.ProblemDifficulty {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// Visible is the loaded list narrowed by the filter.
func (c *Catalog) Visible() []model.Problem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return model.FilterByDifficulty(c.problems, c.filter)
}

// Select maps a 1-based index in Visible to the workspace route.
func (c *Catalog) Select(n int) (string, error) {
	visible := c.Visible()
	if n < 1 || n > len(visible) {
		return "", fmt.Errorf("no problem #%d (have %d)", n, len(visible))
	}
	return WorkspaceRoute(visible[n-1].ID), nil
}

func (c *Catalog) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func WorkspaceRoute(problemID string) string {
	return "/problems/" + problemID
}
