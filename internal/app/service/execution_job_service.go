package service

import (
	"context"
	"time"

	"learncode/internal/domain/model"
)

// JobQueue is the producer side of the execution queue.
type JobQueue interface {
	Push(ctx context.Context, job model.ExecutionJob) error
}

type ExecutionJobService struct {
	queue JobQueue
}

func NewExecutionJobService(queue JobQueue) *ExecutionJobService {
	return &ExecutionJobService{queue: queue}
}

// Enqueue schedules sub for execution by a worker.
func (s *ExecutionJobService) Enqueue(ctx context.Context, sub *model.Submission) error {
	return s.queue.Push(ctx, model.ExecutionJob{
		SubmissionID: sub.ID,
		ProblemID:    sub.ProblemID,
		Kind:         sub.Kind,
		EnqueuedAt:   time.Now().UTC(),
	})
}
