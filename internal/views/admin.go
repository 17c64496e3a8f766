package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"learncode/internal/client"
	"learncode/internal/domain/model"

	"gopkg.in/go-playground/validator.v9"
)

type AdminClient interface {
	AdminListProblems(ctx context.Context) ([]model.Problem, error)
	CreateProblem(ctx context.Context, in client.ProblemInput) (*model.Problem, error)
	DeleteProblem(ctx context.Context, id string) error
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// ProblemForm is the authoring form. It doubles as the YAML problem file format.
type ProblemForm struct {
	Title         string `yaml:"title" validate:"required"`
	Description   string `yaml:"description" validate:"required"`
	Difficulty    string `yaml:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	Input         string `yaml:"input" validate:"required"`
	Output        string `yaml:"output" validate:"required"`
	ExampleInput  string `yaml:"example_input" validate:"required"`
	ExampleOutput string `yaml:"example_output" validate:"required"`
}

var formValidator = validator.New()

// Validate reports every missing or malformed field.
func (f ProblemForm) Validate() error {
	err := formValidator.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "oneof" {
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func (f ProblemForm) input() client.ProblemInput {
	return client.ProblemInput{
		Title:         strings.TrimSpace(f.Title),
		Description:   f.Description,
		Difficulty:    model.ProblemDifficulty(f.Difficulty),
		Input:         f.Input,
		Output:        f.Output,
		ExampleInput:  f.ExampleInput,
		ExampleOutput: f.ExampleOutput,
	}
}

// Admin is the authoring view: a form for new problems and the problem list
// with delete.
type Admin struct {
	client  AdminClient
	confirm Confirmer

	mu       sync.Mutex
	form     ProblemForm
	problems []model.Problem
	err      string
	message  string
}

func NewAdmin(c AdminClient, confirm Confirmer) *Admin {
	return &Admin{client: c, confirm: confirm}
}

func (a *Admin) Load(ctx context.Context) error {
	problems, err := a.client.AdminListProblems(ctx)
	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.err = err.Error()
		return err
	}
	a.problems = problems
	a.err = ""
	return nil
}

func (a *Admin) SetForm(f ProblemForm) {
	a.mu.Lock()
	a.form = f
	a.mu.Unlock()
}

func (a *Admin) Form() ProblemForm {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.form
}

// Create validates and sends the form. The form is cleared only on success.
func (a *Admin) Create(ctx context.Context) (*model.Problem, error) {
	form := a.Form()
	if err := form.Validate(); err != nil {
		a.setErr(err.Error())
		return nil, err
	}
	p, err := a.client.CreateProblem(ctx, form.input())
	if err != nil {
		a.setErr(err.Error())
		return nil, err
	}

	a.mu.Lock()
	a.form = ProblemForm{}
	a.err = ""
	a.message = fmt.Sprintf("Problem %q created as %s", p.Title, p.ID)
	a.mu.Unlock()
	return p, nil
}

// Delete asks for confirmation, then deletes the problem and drops it from the
// local list without re-fetching. It reports whether a delete happened.
func (a *Admin) Delete(ctx context.Context, id string) (bool, error) {
	title := id
	a.mu.Lock()
	for _, p := range a.problems {
		if p.ID == id {
			title = p.Title
			break
		}
	}
	a.mu.Unlock()

	if a.confirm == nil || !a.confirm.Confirm(fmt.Sprintf("Delete problem %q (%s)?", title, id)) {
		return false, nil
	}

	if err := a.client.DeleteProblem(ctx, id); err != nil {
		a.setErr(err.Error())
		return false, err
	}

	a.mu.Lock()
	kept := a.problems[:0:0]
	for _, p := range a.problems {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	a.problems = kept
	a.err = ""
	a.message = fmt.Sprintf("Problem %s deleted", id)
	a.mu.Unlock()
	return true, nil
}

func (a *Admin) Problems() []model.Problem {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.Problem, len(a.problems))
	copy(out, a.problems)
	return out
}

func (a *Admin) Err() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

func (a *Admin) Message() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.message
}

func (a *Admin) setErr(msg string) {
	a.mu.Lock()
	a.err = msg
	a.mu.Unlock()
}
