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
	"go.uber.org/zap"
)

const submissionListLimit = 50

type Enqueuer interface {
	Enqueue(ctx context.Context, sub *model.Submission) error
}

type SubmissionService struct {
	problemRepo    repository.ProblemRepository
	submissionRepo repository.SubmissionRepository
	runRepo        repository.SubmissionStore
	jobs           Enqueuer
}

func NewSubmissionService(
	problemRepo repository.ProblemRepository,
	submissionRepo repository.SubmissionRepository,
	runRepo repository.SubmissionStore,
	jobs Enqueuer,
) *SubmissionService {
	return &SubmissionService{
		problemRepo:    problemRepo,
		submissionRepo: submissionRepo,
		runRepo:        runRepo,
		jobs:           jobs,
	}
}

type CreateSubmissionRequest struct {
	ProblemID string `json:"problem_id" validate:"required"`
	Language  string `json:"language" validate:"required,oneof=python nodejs cpp java"`
	Code      string `json:"code" validate:"required"`
	Type      string `json:"type"`
}

type CreateSubmissionResponse struct {
	SubmissionID string                 `json:"submission_id"`
	Status       model.SubmissionStatus `json:"status"`
	Type         model.SubmissionKind   `json:"type"`
}

// store picks the backing store for a submission kind.
func (s *SubmissionService) store(kind model.SubmissionKind) repository.SubmissionStore {
	if kind == model.KindRun {
		return s.runRepo
	}
	return s.submissionRepo
}

func (s *SubmissionService) CreateSubmission(ctx context.Context, userID string, req CreateSubmissionRequest) (*CreateSubmissionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	kind := model.KindSubmit
	if req.Type != "" {
		k, ok := model.ParseSubmissionKind(req.Type)
		if !ok {
			return nil, fmt.Errorf("type must be RUN or SUBMIT: %w", common.ErrValidation)
		}
		kind = k
	}

	problem, err := s.problemRepo.FindProblemByID(ctx, req.ProblemID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("problem %s not found: %w", req.ProblemID, common.ErrNotFound)
		}
		return nil, err
	}

	sub := &model.Submission{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProblemID: problem.ID,
		Language:  req.Language,
		Code:      req.Code,
		Kind:      kind,
		Status:    model.StatusPending,
	}
	store := s.store(kind)
	if err := store.CreateSubmission(ctx, sub); err != nil {
		return nil, err
	}

	if err := s.jobs.Enqueue(ctx, sub); err != nil {
		logger.L().Error("enqueue failed", zap.String("submission_id", sub.ID), zap.Error(err))
		msg := "failed to schedule execution"
		if uerr := store.UpdateSubmissionStatus(ctx, sub.ID, model.StatusError, &msg); uerr != nil {
			logger.L().Error("mark unscheduled submission failed", zap.String("submission_id", sub.ID), zap.Error(uerr))
		}
		return nil, fmt.Errorf("enqueue submission %s: %v: %w", sub.ID, err, common.ErrServiceUnavailable)
	}

	logger.L().Info("submission queued",
		zap.String("submission_id", sub.ID),
		zap.String("problem_id", sub.ProblemID),
		zap.String("type", string(kind)),
		zap.String("language", sub.Language))
	return &CreateSubmissionResponse{SubmissionID: sub.ID, Status: sub.Status, Type: kind}, nil
}

// GetSubmission looks a submission up in the run store, then in the graded
// store. Other users' submissions are reported as not found.
func (s *SubmissionService) GetSubmission(ctx context.Context, userID, id string) (*model.Submission, error) {
	sub, err := s.runRepo.GetSubmissionByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		sub, err = s.submissionRepo.GetSubmissionByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, common.ErrNotFound
	}
	return sub, nil
}

// GetRun returns one RUN submission, scoped to its problem.
func (s *SubmissionService) GetRun(ctx context.Context, userID, problemID, submissionID string) (*model.Submission, error) {
	if problemID == "" || submissionID == "" {
		return nil, fmt.Errorf("problem_id and submission_id are required: %w", common.ErrBadRequest)
	}
	sub, err := s.runRepo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID || sub.ProblemID != problemID {
		return nil, common.ErrNotFound
	}
	return sub, nil
}

// ListSubmissions returns the caller's graded submissions for a problem, newest first.
func (s *SubmissionService) ListSubmissions(ctx context.Context, userID, problemID string) ([]model.Submission, error) {
	if strings.TrimSpace(problemID) == "" {
		return nil, fmt.Errorf("problem_id is required: %w", common.ErrBadRequest)
	}
	return s.submissionRepo.ListSubmissionsForUserProblem(ctx, userID, problemID, submissionListLimit)
}
