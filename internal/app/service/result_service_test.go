package service

import (
	"context"
	"testing"

	"learncode/internal/common"
	"learncode/internal/domain/model"
	"learncode/internal/testutil"
	"learncode/internal/testutil/fakes"
)

func newResultFixture() (*ResultService, *fakes.SubmissionRepo, *fakes.SubmissionRepo) {
	subs, runs := fakes.NewSubmissionRepo(), fakes.NewSubmissionRepo()
	subs.Put(model.Submission{ID: "sub-1", Kind: model.KindSubmit, Status: model.StatusPending})
	runs.Put(model.Submission{ID: "run-1", Kind: model.KindRun, Status: model.StatusPending})
	return NewResultService(subs, runs), subs, runs
}

func TestApplyResultForwardOnly(t *testing.T) {
	svc, subs, _ := newResultFixture()
	ctx := context.Background()

	testutil.MustNoError(t, svc.ApplyResult(ctx, model.ExecutionResult{SubmissionID: "sub-1", Kind: model.KindSubmit, Status: model.StatusRunning}))
	testutil.MustNoError(t, svc.ApplyResult(ctx, model.ExecutionResult{SubmissionID: "sub-1", Kind: model.KindSubmit, Status: model.StatusCompleted, Result: strPtr("6")}))

	err := svc.ApplyResult(ctx, model.ExecutionResult{SubmissionID: "sub-1", Kind: model.KindSubmit, Status: model.StatusError, Result: strPtr("late")})
	testutil.AssertErrorIs(t, err, common.ErrInvalidTransition)

	got, _ := subs.GetSubmissionByID(ctx, "sub-1")
	testutil.AssertEqual(t, got.Status, model.StatusCompleted)
	testutil.AssertEqual(t, *got.Result, "6")
}

func TestApplyResultDuplicateIgnored(t *testing.T) {
	svc, _, _ := newResultFixture()
	ctx := context.Background()
	res := model.ExecutionResult{SubmissionID: "sub-1", Kind: model.KindSubmit, Status: model.StatusCompleted, Result: strPtr("6")}

	testutil.MustNoError(t, svc.ApplyResult(ctx, res))
	testutil.MustNoError(t, svc.ApplyResult(ctx, res))
}

func TestApplyResultInfersRunStore(t *testing.T) {
	svc, _, runs := newResultFixture()
	ctx := context.Background()

	testutil.MustNoError(t, svc.ApplyResult(ctx, model.ExecutionResult{SubmissionID: "run-1", Status: model.StatusError, Result: strPtr("boom")}))
	got, _ := runs.GetSubmissionByID(ctx, "run-1")
	testutil.AssertEqual(t, got.Status, model.StatusError)
}

func TestApplyResultValidation(t *testing.T) {
	svc, _, _ := newResultFixture()
	ctx := context.Background()

	bad := []model.ExecutionResult{
		{Status: model.StatusRunning},
		{SubmissionID: "sub-1", Status: model.StatusPending},
		{SubmissionID: "sub-1", Status: "done"},
		{SubmissionID: "sub-1", Status: model.StatusRunning, Result: strPtr("early")},
		{SubmissionID: "sub-1", Kind: "TEST", Status: model.StatusRunning},
	}
	for _, res := range bad {
		testutil.AssertErrorIs(t, svc.ApplyResult(ctx, res), common.ErrValidation)
	}

	err := svc.ApplyResult(ctx, model.ExecutionResult{SubmissionID: "nope", Kind: model.KindSubmit, Status: model.StatusRunning})
	testutil.AssertErrorIs(t, err, common.ErrNotFound)
}
