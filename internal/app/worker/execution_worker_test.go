package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"learncode/internal/app/runner"
	"learncode/internal/app/service"
	"learncode/internal/domain/model"
	"learncode/internal/domain/repository"
	"learncode/internal/testutil"
	"learncode/internal/testutil/fakes"
)

type scriptedRunner struct {
	mu     sync.Mutex
	out    *runner.Output
	err    error
	inputs []string
}

func (r *scriptedRunner) Run(_ context.Context, language, code, input string) (*runner.Output, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = append(r.inputs, input)
	return r.out, r.err
}

type recordingSource struct {
	mu       sync.Mutex
	requeued []model.ExecutionJob
}

func (s *recordingSource) Pop(ctx context.Context, _ time.Duration) (*model.ExecutionJob, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *recordingSource) Requeue(_ context.Context, job model.ExecutionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.Attempts++
	s.requeued = append(s.requeued, job)
	return nil
}

type workerFixture struct {
	w      *ExecutionWorker
	subs   *fakes.SubmissionRepo
	runs   repository.SubmissionStore
	exec   *scriptedRunner
	source *recordingSource
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()
	_, rdb := testutil.NewRedis(t)
	problems := fakes.NewProblemRepo(model.Problem{
		ID: "prob-1", Slug: "sum", Difficulty: model.DifficultyEasy,
		ExampleInput: "1 2", ExampleOutput: "3",
		Input: "3 3", Output: "6",
	})
	f := &workerFixture{
		subs:   fakes.NewSubmissionRepo(),
		runs:   repository.NewRedisRunRepository(rdb, time.Hour),
		exec:   &scriptedRunner{},
		source: &recordingSource{},
	}
	results := service.NewResultService(f.subs, f.runs)
	f.w = NewExecutionWorker(rdb, f.source, problems, f.subs, f.runs, results, f.exec, Options{
		LockPrefix: "test:lock:",
		LockTTL:    time.Minute,
		TimeLimit:  5 * time.Second,
	})
	return f
}

func (f *workerFixture) submit(t *testing.T, id string, kind model.SubmissionKind) model.ExecutionJob {
	t.Helper()
	sub := &model.Submission{ID: id, UserID: "user-1", ProblemID: "prob-1", Language: model.LanguagePython, Code: "print(6)", Kind: kind, Status: model.StatusPending}
	store := repository.SubmissionStore(f.subs)
	if kind == model.KindRun {
		store = f.runs
	}
	testutil.MustNoError(t, store.CreateSubmission(context.Background(), sub))
	return model.ExecutionJob{SubmissionID: id, ProblemID: "prob-1", Kind: kind}
}

func TestSubmitMatchingOutputCompletes(t *testing.T) {
	f := newWorkerFixture(t)
	f.exec.out = &runner.Output{Stdout: "6\n"}
	job := f.submit(t, "sub-1", model.KindSubmit)

	f.w.processJobWithLock(context.Background(), job)

	got, err := f.subs.GetSubmissionByID(context.Background(), "sub-1")
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, got.Status, model.StatusCompleted)
	testutil.AssertEqual(t, *got.Result, "6")
	testutil.AssertEqual(t, f.exec.inputs[0], "3 3")
}

func TestSubmitMismatchIsError(t *testing.T) {
	f := newWorkerFixture(t)
	f.exec.out = &runner.Output{Stdout: "7\n"}
	job := f.submit(t, "sub-1", model.KindSubmit)

	f.w.processJobWithLock(context.Background(), job)

	got, err := f.subs.GetSubmissionByID(context.Background(), "sub-1")
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, got.Status, model.StatusError)
}

func TestRunUsesExampleData(t *testing.T) {
	f := newWorkerFixture(t)
	f.exec.out = &runner.Output{Stdout: "3"}
	job := f.submit(t, "run-1", model.KindRun)

	f.w.processJobWithLock(context.Background(), job)

	got, err := f.runs.GetSubmissionByID(context.Background(), "run-1")
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, got.Status, model.StatusCompleted)
	testutil.AssertEqual(t, f.exec.inputs[0], "1 2")
}

func TestTimeLimitIsError(t *testing.T) {
	f := newWorkerFixture(t)
	f.exec.out = &runner.Output{}
	f.exec.err = runner.ErrTimeLimit
	job := f.submit(t, "sub-1", model.KindSubmit)

	f.w.processJobWithLock(context.Background(), job)

	got, _ := f.subs.GetSubmissionByID(context.Background(), "sub-1")
	testutil.AssertEqual(t, got.Status, model.StatusError)
	testutil.AssertEqual(t, *got.Result, "time limit exceeded (5s)")
}

func TestFinishedSubmissionIsSkipped(t *testing.T) {
	f := newWorkerFixture(t)
	done := "6"
	f.subs.Put(model.Submission{ID: "sub-1", ProblemID: "prob-1", Kind: model.KindSubmit, Status: model.StatusCompleted, Result: &done})

	f.w.processJobWithLock(context.Background(), model.ExecutionJob{SubmissionID: "sub-1", Kind: model.KindSubmit})

	testutil.AssertEqual(t, len(f.exec.inputs), 0)
}

func TestMissingProblemFinishesWithError(t *testing.T) {
	f := newWorkerFixture(t)
	f.subs.Put(model.Submission{ID: "sub-1", ProblemID: "prob-gone", Kind: model.KindSubmit, Status: model.StatusPending})

	f.w.processJobWithLock(context.Background(), model.ExecutionJob{SubmissionID: "sub-1", Kind: model.KindSubmit})

	got, _ := f.subs.GetSubmissionByID(context.Background(), "sub-1")
	testutil.AssertEqual(t, got.Status, model.StatusError)
	testutil.AssertEqual(t, *got.Result, "problem is no longer available")
}

func TestHeldLockRequeues(t *testing.T) {
	f := newWorkerFixture(t)
	f.exec.out = &runner.Output{Stdout: "6"}
	job := f.submit(t, "sub-1", model.KindSubmit)
	testutil.MustNoError(t, f.w.rdb.Set(context.Background(), "test:lock:sub-1", "someone-else", time.Minute).Err())

	f.w.processJobWithLock(context.Background(), job)

	testutil.AssertEqual(t, len(f.exec.inputs), 0)
	testutil.AssertEqual(t, len(f.source.requeued), 1)
	got, _ := f.subs.GetSubmissionByID(context.Background(), "sub-1")
	testutil.AssertEqual(t, got.Status, model.StatusPending)

	// A job that has exhausted its attempts is dropped and its submission failed.
	job.Attempts = 4
	f.w.processJobWithLock(context.Background(), job)
	testutil.AssertEqual(t, len(f.source.requeued), 1)
	testutil.AssertEqual(t, len(f.exec.inputs), 0)
	got, _ = f.subs.GetSubmissionByID(context.Background(), "sub-1")
	testutil.AssertEqual(t, got.Status, model.StatusError)
	testutil.AssertTrue(t, got.Result != nil, "dropped job has no result message")
}

func TestDroppedRunJobFailsRunSubmission(t *testing.T) {
	f := newWorkerFixture(t)
	job := f.submit(t, "run-1", model.KindRun)
	testutil.MustNoError(t, f.w.rdb.Set(context.Background(), "test:lock:run-1", "someone-else", time.Minute).Err())

	job.Attempts = 4
	f.w.processJobWithLock(context.Background(), job)

	got, err := f.runs.GetSubmissionByID(context.Background(), "run-1")
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, got.Status, model.StatusError)
	testutil.AssertEqual(t, len(f.source.requeued), 0)
}

func TestLockReleasedAfterJob(t *testing.T) {
	f := newWorkerFixture(t)
	f.exec.out = &runner.Output{Stdout: "6"}
	job := f.submit(t, "sub-1", model.KindSubmit)

	f.w.processJobWithLock(context.Background(), job)

	n, err := f.w.rdb.Exists(context.Background(), "test:lock:sub-1").Result()
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, n, int64(0))
}

func TestCancelledRunIsRequeued(t *testing.T) {
	f := newWorkerFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.exec.out = nil
	f.exec.err = context.Canceled
	job := f.submit(t, "sub-1", model.KindSubmit)

	// The runner reports cancellation the way a killed process would.
	cancelling := &cancelOnRun{inner: f.exec, cancel: cancel}
	f.w.exec = cancelling

	f.w.processJobWithLock(ctx, job)

	testutil.AssertEqual(t, len(f.source.requeued), 1)
	got, _ := f.subs.GetSubmissionByID(context.Background(), "sub-1")
	testutil.AssertEqual(t, got.Status, model.StatusRunning)
}

type cancelOnRun struct {
	inner  runner.Runner
	cancel context.CancelFunc
}

func (c *cancelOnRun) Run(ctx context.Context, language, code, input string) (*runner.Output, error) {
	c.cancel()
	return c.inner.Run(ctx, language, code, input)
}

func TestStartStopsOnCancel(t *testing.T) {
	f := newWorkerFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.w.Start(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
