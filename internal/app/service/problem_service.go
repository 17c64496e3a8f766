package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"learncode/internal/common"
	"learncode/internal/domain/model"
	"learncode/internal/domain/repository"
	"learncode/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

type ProblemService struct {
	problemRepo repository.ProblemRepository
}

func NewProblemService(problemRepo repository.ProblemRepository) *ProblemService {
	return &ProblemService{problemRepo: problemRepo}
}

// CreateProblemRequest mirrors the authoring form. Every field is required.
type CreateProblemRequest struct {
	Title         string                  `json:"title" yaml:"title" validate:"required"`
	Description   string                  `json:"description" yaml:"description" validate:"required"`
	Difficulty    model.ProblemDifficulty `json:"difficulty" yaml:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	Input         string                  `json:"input" yaml:"input" validate:"required"`
	Output        string                  `json:"output" yaml:"output" validate:"required"`
	ExampleInput  string                  `json:"example_input" yaml:"example_input" validate:"required"`
	ExampleOutput string                  `json:"example_output" yaml:"example_output" validate:"required"`
}

type CreateProblemResponse struct {
	Message string         `json:"message"`
	Problem *model.Problem `json:"problem"`
}

func newProblemID() string {
	return "prob-" + uuid.NewString()[:8]
}

func (s *ProblemService) CreateProblem(ctx context.Context, userID string, req CreateProblemRequest) (*model.Problem, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	problem := &model.Problem{
		ID:            newProblemID(),
		Title:         req.Title,
		Description:   req.Description,
		Difficulty:    req.Difficulty,
		ExampleInput:  req.ExampleInput,
		ExampleOutput: req.ExampleOutput,
		Input:         req.Input,
		Output:        req.Output,
	}
	if userID != "" {
		problem.CreatedByID = &userID
	}

	problem.Slug = slug.Make(req.Title)
	if problem.Slug == "" {
		problem.Slug = problem.ID
	}
	if _, err := s.problemRepo.FindProblemBySlug(ctx, problem.Slug); err == nil {
		problem.Slug = problem.Slug + "-" + strings.TrimPrefix(problem.ID, "prob-")
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("check slug: %w", err)
	}

	if err := s.problemRepo.CreateProblem(ctx, problem); err != nil {
		return nil, err
	}
	logger.L().Info("problem created", zap.String("problem_id", problem.ID), zap.String("slug", problem.Slug))
	return problem, nil
}

// GetProblem resolves a problem by id or, failing that, by slug. Judge data is
// stripped unless withJudgeData is set.
func (s *ProblemService) GetProblem(ctx context.Context, idOrSlug string, withJudgeData bool) (*model.Problem, error) {
	problem, err := s.problemRepo.FindProblemByID(ctx, idOrSlug)
	if errors.Is(err, common.ErrNotFound) {
		problem, err = s.problemRepo.FindProblemBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, err
	}
	if problem.Deleted() {
		return nil, common.ErrNotFound
	}
	if !withJudgeData {
		p := problem.Public()
		problem = &p
	}
	return problem, nil
}

func (s *ProblemService) ListProblems(ctx context.Context, difficulty string, withJudgeData bool) ([]model.Problem, error) {
	d, err := parseDifficulty(difficulty)
	if err != nil {
		return nil, err
	}
	problems, err := s.problemRepo.ListProblems(ctx, d)
	if err != nil {
		return nil, err
	}

	out := make([]model.Problem, 0, len(problems))
	for _, p := range problems {
		if p.Deleted() {
			continue
		}
		if !withJudgeData {
			p = p.Public()
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *ProblemService) DeleteProblem(ctx context.Context, id string) error {
	if err := s.problemRepo.SoftDeleteProblem(ctx, id); err != nil {
		return err
	}
	logger.L().Info("problem deleted", zap.String("problem_id", id))
	return nil
}

// parseDifficulty treats "" and "All" as no filter.
func parseDifficulty(raw string) (model.ProblemDifficulty, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return "", nil
	}
	d := model.ProblemDifficulty(raw)
	if !d.Valid() {
		return "", fmt.Errorf("unknown difficulty %q: %w", raw, common.ErrBadRequest)
	}
	return d, nil
}
