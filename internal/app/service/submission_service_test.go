package service

import (
	"context"
	"testing"

	"learncode/internal/common"
	"learncode/internal/domain/model"
	"learncode/internal/testutil"
	"learncode/internal/testutil/fakes"
)

type submissionFixture struct {
	svc   *SubmissionService
	subs  *fakes.SubmissionRepo
	runs  *fakes.SubmissionRepo
	queue *recordingQueue
}

func newSubmissionFixture() *submissionFixture {
	problems := fakes.NewProblemRepo(model.Problem{ID: "prob-1", Slug: "sum", Difficulty: model.DifficultyEasy})
	f := &submissionFixture{subs: fakes.NewSubmissionRepo(), runs: fakes.NewSubmissionRepo(), queue: &recordingQueue{}}
	f.svc = NewSubmissionService(problems, f.subs, f.runs, NewExecutionJobService(f.queue))
	return f
}

func TestCreateSubmissionDefaultsToSubmit(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	resp, err := f.svc.CreateSubmission(ctx, "user-1", CreateSubmissionRequest{ProblemID: "prob-1", Language: "python", Code: "print(6)"})
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, resp.Type, model.KindSubmit)
	testutil.AssertEqual(t, resp.Status, model.StatusPending)

	stored, err := f.subs.GetSubmissionByID(ctx, resp.SubmissionID)
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, stored.UserID, "user-1")
	_, err = f.runs.GetSubmissionByID(ctx, resp.SubmissionID)
	testutil.AssertErrorIs(t, err, common.ErrNotFound)

	testutil.AssertEqual(t, len(f.queue.jobs), 1)
	testutil.AssertEqual(t, f.queue.jobs[0].SubmissionID, resp.SubmissionID)
	testutil.AssertEqual(t, f.queue.jobs[0].Kind, model.KindSubmit)
}

func TestCreateSubmissionRunGoesToRunStore(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	resp, err := f.svc.CreateSubmission(ctx, "user-1", CreateSubmissionRequest{ProblemID: "prob-1", Language: "cpp", Code: "int main(){}", Type: "run"})
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, resp.Type, model.KindRun)

	_, err = f.runs.GetSubmissionByID(ctx, resp.SubmissionID)
	testutil.MustNoError(t, err)
	_, err = f.subs.GetSubmissionByID(ctx, resp.SubmissionID)
	testutil.AssertErrorIs(t, err, common.ErrNotFound)
	testutil.AssertEqual(t, f.queue.jobs[0].Kind, model.KindRun)
}

func TestCreateSubmissionRejectsBadInput(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	cases := []CreateSubmissionRequest{
		{ProblemID: "prob-1", Language: "cobol", Code: "x"},
		{ProblemID: "prob-1", Language: "python"},
		{Language: "python", Code: "x"},
		{ProblemID: "prob-1", Language: "python", Code: "x", Type: "TEST"},
	}
	for _, req := range cases {
		_, err := f.svc.CreateSubmission(ctx, "user-1", req)
		testutil.AssertErrorIs(t, err, common.ErrValidation)
	}

	_, err := f.svc.CreateSubmission(ctx, "user-1", CreateSubmissionRequest{ProblemID: "prob-404", Language: "python", Code: "x"})
	testutil.AssertErrorIs(t, err, common.ErrNotFound)
	testutil.AssertEqual(t, len(f.queue.jobs), 0)
}

func TestCreateSubmissionEnqueueFailureMarksError(t *testing.T) {
	f := newSubmissionFixture()
	f.queue.err = errQueueDown
	ctx := context.Background()

	_, err := f.svc.CreateSubmission(ctx, "user-1", CreateSubmissionRequest{ProblemID: "prob-1", Language: "python", Code: "x"})
	testutil.AssertErrorIs(t, err, common.ErrServiceUnavailable)

	list, lerr := f.subs.ListSubmissionsForUserProblem(ctx, "user-1", "prob-1", 10)
	testutil.MustNoError(t, lerr)
	testutil.AssertEqual(t, len(list), 1)
	testutil.AssertEqual(t, list[0].Status, model.StatusError)
	testutil.AssertEqual(t, *list[0].Result, "failed to schedule execution")
}

func TestGetSubmissionOwnership(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()
	resp, err := f.svc.CreateSubmission(ctx, "user-1", CreateSubmissionRequest{ProblemID: "prob-1", Language: "python", Code: "x"})
	testutil.MustNoError(t, err)

	got, err := f.svc.GetSubmission(ctx, "user-1", resp.SubmissionID)
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, got.ID, resp.SubmissionID)

	_, err = f.svc.GetSubmission(ctx, "user-2", resp.SubmissionID)
	testutil.AssertErrorIs(t, err, common.ErrNotFound)
}

func TestGetRunScopedToProblem(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()
	resp, err := f.svc.CreateSubmission(ctx, "user-1", CreateSubmissionRequest{ProblemID: "prob-1", Language: "python", Code: "x", Type: "RUN"})
	testutil.MustNoError(t, err)

	_, err = f.svc.GetRun(ctx, "user-1", "prob-1", resp.SubmissionID)
	testutil.MustNoError(t, err)
	_, err = f.svc.GetRun(ctx, "user-1", "prob-2", resp.SubmissionID)
	testutil.AssertErrorIs(t, err, common.ErrNotFound)
	_, err = f.svc.GetRun(ctx, "user-1", "", resp.SubmissionID)
	testutil.AssertErrorIs(t, err, common.ErrBadRequest)
}

func TestListSubmissionsExcludesRuns(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()
	for _, typ := range []string{"SUBMIT", "RUN", "SUBMIT"} {
		_, err := f.svc.CreateSubmission(ctx, "user-1", CreateSubmissionRequest{ProblemID: "prob-1", Language: "python", Code: "x", Type: typ})
		testutil.MustNoError(t, err)
	}

	list, err := f.svc.ListSubmissions(ctx, "user-1", "prob-1")
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, len(list), 2)

	_, err = f.svc.ListSubmissions(ctx, "user-1", " ")
	testutil.AssertErrorIs(t, err, common.ErrBadRequest)
}
