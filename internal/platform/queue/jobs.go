package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"learncode/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// JobQueue is a FIFO of execution jobs kept in a Redis list.
// Producers LPUSH, consumers BRPOP.
type JobQueue struct {
	rdb  *redis.Client
	name string
}

func NewJobQueue(rdb *redis.Client, name string) *JobQueue {
	return &JobQueue{rdb: rdb, name: name}
}

func (q *JobQueue) Push(ctx context.Context, job model.ExecutionJob) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("push job %s: %w", job.SubmissionID, err)
	}
	return nil
}

// Requeue puts a job back at the consuming end so it is picked up next.
func (q *JobQueue) Requeue(ctx context.Context, job model.ExecutionJob) error {
	job.Attempts++
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("requeue job %s: %w", job.SubmissionID, err)
	}
	return nil
}

// Pop blocks up to timeout for a job. It returns (nil, nil) when the wait times out.
func (q *JobQueue) Pop(ctx context.Context, timeout time.Duration) (*model.ExecutionJob, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("pop job: %w", err)
	}
	// res is [queueName, value]
	if len(res) < 2 {
		return nil, fmt.Errorf("pop job: unexpected reply %v", res)
	}
	var job model.ExecutionJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}

func (q *JobQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.name).Result()
}
