package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learncode/internal/app/runner"
	"learncode/internal/common"
	"learncode/internal/domain/model"
	"learncode/internal/domain/repository"
	"learncode/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// JobSource is the consumer side of the execution queue.
type JobSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*model.ExecutionJob, error)
	Requeue(ctx context.Context, job model.ExecutionJob) error
}

type ResultApplier interface {
	ApplyResult(ctx context.Context, res model.ExecutionResult) error
}

type Options struct {
	LockPrefix  string
	LockTTL     time.Duration
	TimeLimit   time.Duration
	PopTimeout  time.Duration
	MaxAttempts int // requeues of a job whose lock is held elsewhere
}

type ExecutionWorker struct {
	id             string
	rdb            *redis.Client
	queue          JobSource
	problemRepo    repository.ProblemRepository
	submissionRepo repository.SubmissionStore
	runRepo        repository.SubmissionStore
	results        ResultApplier
	exec           runner.Runner
	opts           Options
}

func NewExecutionWorker(
	rdb *redis.Client,
	queue JobSource,
	problemRepo repository.ProblemRepository,
	submissionRepo repository.SubmissionStore,
	runRepo repository.SubmissionStore,
	results ResultApplier,
	exec runner.Runner,
	opts Options,
) *ExecutionWorker {
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = 5 * time.Second
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = time.Minute
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	return &ExecutionWorker{
		id:             uuid.NewString()[:8],
		rdb:            rdb,
		queue:          queue,
		problemRepo:    problemRepo,
		submissionRepo: submissionRepo,
		runRepo:        runRepo,
		results:        results,
		exec:           exec,
		opts:           opts,
	}
}

// KEYS[1] lock key; ARGV[1] the value written by the holder.
var releaseLockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`)

// Start consumes jobs one at a time until ctx is cancelled.
func (w *ExecutionWorker) Start(ctx context.Context) {
	log := logger.L().With(zap.String("worker", w.id))
	log.Info("execution worker started")
	for {
		if ctx.Err() != nil {
			log.Info("execution worker stopping")
			return
		}
		job, err := w.queue.Pop(ctx, w.opts.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Error("pop from execution queue", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			continue
		}
		w.processJobWithLock(ctx, *job)
	}
}

func (w *ExecutionWorker) processJobWithLock(ctx context.Context, job model.ExecutionJob) {
	log := logger.L().With(zap.String("worker", w.id), zap.String("submission_id", job.SubmissionID))
	key := w.opts.LockPrefix + job.SubmissionID
	lockValue := uuid.NewString()

	ok, err := w.rdb.SetNX(ctx, key, lockValue, w.opts.LockTTL).Result()
	if err != nil || !ok {
		if err != nil {
			log.Error("acquire execution lock", zap.Error(err))
		}
		if job.Attempts+1 >= w.opts.MaxAttempts {
			log.Warn("dropping job, lock unavailable", zap.Int("attempts", job.Attempts+1))
			w.abandon(ctx, job)
			return
		}
		if rerr := w.queue.Requeue(ctx, job); rerr != nil {
			log.Error("requeue job", zap.Error(rerr))
		}
		return
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n, err := releaseLockScript.Run(releaseCtx, w.rdb, []string{key}, lockValue).Int()
		if err != nil {
			log.Error("release execution lock", zap.Error(err))
		} else if n == 0 {
			log.Warn("execution lock expired before release")
		}
	}()

	if err := w.handleJob(ctx, job); err != nil {
		log.Error("execution job failed", zap.Error(err))
	}
}

// abandon fails a job that will not be retried, so pollers see a terminal status.
func (w *ExecutionWorker) abandon(ctx context.Context, job model.ExecutionJob) {
	result := "execution could not be scheduled, please try again"
	err := w.results.ApplyResult(ctx, model.ExecutionResult{
		SubmissionID: job.SubmissionID,
		Kind:         job.Kind,
		Status:       model.StatusError,
		Result:       &result,
	})
	if err != nil && !errors.Is(err, common.ErrInvalidTransition) && !errors.Is(err, common.ErrNotFound) {
		logger.L().Error("fail abandoned job", zap.String("submission_id", job.SubmissionID), zap.Error(err))
	}
}

func (w *ExecutionWorker) store(kind model.SubmissionKind) repository.SubmissionStore {
	if kind == model.KindRun {
		return w.runRepo
	}
	return w.submissionRepo
}

func (w *ExecutionWorker) handleJob(ctx context.Context, job model.ExecutionJob) error {
	log := logger.L().With(zap.String("worker", w.id), zap.String("submission_id", job.SubmissionID))

	sub, err := w.store(job.Kind).GetSubmissionByID(ctx, job.SubmissionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			log.Warn("submission vanished before execution")
			return nil
		}
		return fmt.Errorf("load submission: %w", err)
	}
	if sub.Status.Terminal() {
		log.Info("submission already finished", zap.String("status", string(sub.Status)))
		return nil
	}

	if sub.Status == model.StatusPending {
		err := w.results.ApplyResult(ctx, model.ExecutionResult{
			SubmissionID: sub.ID, Kind: sub.Kind, Status: model.StatusRunning,
		})
		if errors.Is(err, common.ErrInvalidTransition) {
			log.Info("submission claimed elsewhere")
			return nil
		}
		if err != nil {
			return fmt.Errorf("mark running: %w", err)
		}
	}

	problem, err := w.problemRepo.FindProblemByID(ctx, sub.ProblemID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return w.finish(ctx, sub, runner.Verdict{Status: model.StatusError, Result: "problem is no longer available"})
		}
		return fmt.Errorf("load problem: %w", err)
	}

	input, expected := problem.Input, problem.Output
	if sub.Kind == model.KindRun {
		input, expected = problem.ExampleInput, problem.ExampleOutput
	}

	out, runErr := w.exec.Run(ctx, sub.Language, sub.Code, input)
	if ctx.Err() != nil {
		// Shutting down mid-run. The submission stays running and the job goes
		// back on the queue for the next worker.
		requeueCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.queue.Requeue(requeueCtx, job); err != nil {
			return fmt.Errorf("requeue interrupted job: %w", err)
		}
		return nil
	}

	verdict := runner.Judge(expected, out, runErr, w.opts.TimeLimit)
	if out != nil {
		log.Info("execution finished",
			zap.String("status", string(verdict.Status)),
			zap.Duration("duration", out.Duration),
			zap.Int("exit_code", out.ExitCode))
	}
	return w.finish(ctx, sub, verdict)
}

func (w *ExecutionWorker) finish(ctx context.Context, sub *model.Submission, v runner.Verdict) error {
	result := v.Result
	return w.results.ApplyResult(ctx, model.ExecutionResult{
		SubmissionID: sub.ID,
		Kind:         sub.Kind,
		Status:       v.Status,
		Result:       &result,
	})
}
