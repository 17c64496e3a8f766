// Package fakes holds in-memory repositories for tests.
package fakes

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"learncode/internal/common"
	"learncode/internal/domain/model"
	"learncode/internal/domain/repository"
)

var ErrInjected = errors.New("injected failure")

type ProblemRepo struct {
	mu       sync.Mutex
	problems map[string]model.Problem
	order    []string
	FailList bool
}

var _ repository.ProblemRepository = (*ProblemRepo)(nil)

func NewProblemRepo(problems ...model.Problem) *ProblemRepo {
	r := &ProblemRepo{problems: map[string]model.Problem{}}
	for _, p := range problems {
		r.put(p)
	}
	return r
}

func (r *ProblemRepo) put(p model.Problem) {
	if _, ok := r.problems[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.problems[p.ID] = p
}

func (r *ProblemRepo) CreateProblem(_ context.Context, p *model.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.problems {
		if existing.Slug == p.Slug {
			return common.ErrConflict
		}
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.put(*p)
	return nil
}

func (r *ProblemRepo) FindProblemByID(_ context.Context, id string) (*model.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.problems[id]
	if !ok || p.Deleted() {
		return nil, common.ErrNotFound
	}
	return &p, nil
}

func (r *ProblemRepo) FindProblemBySlug(_ context.Context, slug string) (*model.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.problems {
		if p.Slug == slug && !p.Deleted() {
			return &p, nil
		}
	}
	return nil, common.ErrNotFound
}

// ListProblems returns soft-deleted rows too so callers' own filtering is exercised.
func (r *ProblemRepo) ListProblems(_ context.Context, d model.ProblemDifficulty) ([]model.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailList {
		return nil, ErrInjected
	}
	out := []model.Problem{}
	for _, id := range r.order {
		p := r.problems[id]
		if d == "" || p.Difficulty == d {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ProblemRepo) SoftDeleteProblem(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.problems[id]
	if !ok || p.Deleted() {
		return common.ErrNotFound
	}
	now := time.Now()
	p.DeletedAt = &now
	r.problems[id] = p
	return nil
}

// SubmissionRepo is a SubmissionRepository enforcing the same forward-only
// transitions as the real stores.
type SubmissionRepo struct {
	mu         sync.Mutex
	subs       map[string]model.Submission
	FailCreate bool
	FailGet    bool
}

var _ repository.SubmissionRepository = (*SubmissionRepo)(nil)

func NewSubmissionRepo() *SubmissionRepo {
	return &SubmissionRepo{subs: map[string]model.Submission{}}
}

func (r *SubmissionRepo) CreateSubmission(_ context.Context, sub *model.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCreate {
		return ErrInjected
	}
	if _, ok := r.subs[sub.ID]; ok {
		return common.ErrConflict
	}
	now := time.Now()
	sub.CreatedAt = now.Add(time.Duration(len(r.subs)) * time.Millisecond)
	sub.UpdatedAt = sub.CreatedAt
	r.subs[sub.ID] = *sub
	return nil
}

func (r *SubmissionRepo) GetSubmissionByID(_ context.Context, id string) (*model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailGet {
		return nil, ErrInjected
	}
	s, ok := r.subs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &s, nil
}

func (r *SubmissionRepo) UpdateSubmissionStatus(_ context.Context, id string, status model.SubmissionStatus, result *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return common.ErrNotFound
	}
	if !model.CanTransition(s.Status, status) {
		return common.ErrInvalidTransition
	}
	s.Status = status
	if result != nil {
		v := *result
		s.Result = &v
	}
	s.UpdatedAt = time.Now()
	r.subs[id] = s
	return nil
}

func (r *SubmissionRepo) ListSubmissionsForUserProblem(_ context.Context, userID, problemID string, limit int) ([]model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Submission{}
	for _, s := range r.subs {
		if s.UserID == userID && s.ProblemID == problemID && s.Kind == model.KindSubmit {
			s.Code = ""
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Put stores sub as-is, bypassing transition checks.
func (r *SubmissionRepo) Put(sub model.Submission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.ID] = sub
}

type UserRepo struct {
	mu      sync.Mutex
	users   map[string]model.User
	Touched []string
}

var _ repository.UserRepository = (*UserRepo)(nil)

func NewUserRepo(users ...model.User) *UserRepo {
	r := &UserRepo{users: map[string]model.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *UserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Login == user.Login {
			return common.ErrConflict
		}
	}
	user.CreatedAt = time.Now()
	user.LastLoginAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) FindByLogin(_ context.Context, login string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Login == login {
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *UserRepo) UpsertGithubUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if u.GithubID != nil && user.GithubID != nil && *u.GithubID == *user.GithubID {
			u.Login = user.Login
			u.IsAdmin = u.IsAdmin || user.IsAdmin
			u.LastLoginAt = time.Now()
			r.users[id] = u
			return &u, nil
		}
	}
	out := *user
	out.CreatedAt = time.Now()
	out.LastLoginAt = out.CreatedAt
	r.users[out.ID] = out
	return &out, nil
}

func (r *UserRepo) TouchLastLogin(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Touched = append(r.Touched, id)
	return nil
}

// StateRepo is an OAuthStateRepository without expiry.
type StateRepo struct {
	mu     sync.Mutex
	states map[string]string
}

var _ repository.OAuthStateRepository = (*StateRepo)(nil)

func NewStateRepo() *StateRepo {
	return &StateRepo{states: map[string]string{}}
}

func (r *StateRepo) Save(_ context.Context, state, redirect string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.states[state]; ok {
		return common.ErrConflict
	}
	r.states[state] = redirect
	return nil
}

func (r *StateRepo) Consume(_ context.Context, state string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	redirect, ok := r.states[state]
	if !ok {
		return "", common.ErrUnauthorized
	}
	delete(r.states, state)
	return redirect, nil
}

// States returns the outstanding state values.
func (r *StateRepo) States() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.states))
	for s := range r.states {
		out = append(out, s)
	}
	return out
}
