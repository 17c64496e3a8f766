package service

import (
	"context"
	"errors"
	"fmt"

	"learncode/internal/common"
	"learncode/internal/domain/model"
	"learncode/internal/domain/repository"
	"learncode/internal/platform/logger"

	"go.uber.org/zap"
)

// ResultService applies status changes reported by a runner. The in-process
// worker and the runner webhook both go through it.
type ResultService struct {
	submissionRepo repository.SubmissionStore
	runRepo        repository.SubmissionStore
}

func NewResultService(submissionRepo, runRepo repository.SubmissionStore) *ResultService {
	return &ResultService{submissionRepo: submissionRepo, runRepo: runRepo}
}

func (s *ResultService) storeFor(ctx context.Context, res model.ExecutionResult) (repository.SubmissionStore, error) {
	switch res.Kind {
	case model.KindRun:
		return s.runRepo, nil
	case model.KindSubmit:
		return s.submissionRepo, nil
	case "":
		if _, err := s.runRepo.GetSubmissionByID(ctx, res.SubmissionID); err == nil {
			return s.runRepo, nil
		} else if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return s.submissionRepo, nil
	}
	return nil, fmt.Errorf("unknown submission type %q: %w", res.Kind, common.ErrValidation)
}

// ApplyResult moves the submission to res.Status. A repeated delivery of the
// status the submission already holds is accepted and ignored.
func (s *ResultService) ApplyResult(ctx context.Context, res model.ExecutionResult) error {
	if res.SubmissionID == "" {
		return fmt.Errorf("submission_id is required: %w", common.ErrValidation)
	}
	if !res.Status.Valid() || res.Status == model.StatusPending {
		return fmt.Errorf("status %q cannot be reported: %w", res.Status, common.ErrValidation)
	}
	if res.Result != nil && !res.Status.Terminal() {
		return fmt.Errorf("result is only allowed with a terminal status: %w", common.ErrValidation)
	}

	store, err := s.storeFor(ctx, res)
	if err != nil {
		return err
	}

	err = store.UpdateSubmissionStatus(ctx, res.SubmissionID, res.Status, res.Result)
	if errors.Is(err, common.ErrInvalidTransition) {
		cur, gerr := store.GetSubmissionByID(ctx, res.SubmissionID)
		if gerr == nil && cur.Status == res.Status {
			logger.L().Warn("duplicate status report ignored",
				zap.String("submission_id", res.SubmissionID), zap.String("status", string(res.Status)))
			return nil
		}
	}
	if err != nil {
		return err
	}

	logger.L().Info("submission status updated",
		zap.String("submission_id", res.SubmissionID), zap.String("status", string(res.Status)))
	return nil
}
