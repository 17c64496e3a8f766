package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learncode/internal/common"
	"learncode/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// Run submissions only live long enough for the author to read the result.
type redisRunRepository struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisRunRepository(rdb *redis.Client, ttl time.Duration) SubmissionStore {
	return &redisRunRepository{rdb: rdb, prefix: "learncode:run:", ttl: ttl}
}

// KEYS[1] submission hash; ARGV: status, updated_at, has_result, result, allowed previous statuses...
var runTransitionScript = redis.NewScript(`
local cur = redis.call("HGET", KEYS[1], "status")
if not cur then
    return -1
end
for i = 5, #ARGV do
    if ARGV[i] == cur then
        redis.call("HSET", KEYS[1], "status", ARGV[1], "updated_at", ARGV[2])
        if ARGV[3] == "1" then
            redis.call("HSET", KEYS[1], "result", ARGV[4])
        end
        return 1
    end
end
return 0
`)

func (r *redisRunRepository) key(id string) string {
	return r.prefix + id
}

func (r *redisRunRepository) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	fields := map[string]interface{}{
		"id":         sub.ID,
		"user_id":    sub.UserID,
		"problem_id": sub.ProblemID,
		"language":   sub.Language,
		"code":       sub.Code,
		"kind":       string(sub.Kind),
		"status":     string(sub.Status),
		"created_at": now.Format(time.RFC3339Nano),
		"updated_at": now.Format(time.RFC3339Nano),
	}
	if sub.Result != nil {
		fields["result"] = *sub.Result
	}

	key := r.key(sub.ID)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisRunRepository.CreateSubmission: %w", err)
	}
	return nil
}

func (r *redisRunRepository) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	vals, err := r.rdb.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisRunRepository.GetSubmissionByID: %w", err)
	}
	if len(vals) == 0 {
		return nil, common.ErrNotFound
	}

	sub := &model.Submission{
		ID:        vals["id"],
		UserID:    vals["user_id"],
		ProblemID: vals["problem_id"],
		Language:  vals["language"],
		Code:      vals["code"],
		Kind:      model.SubmissionKind(vals["kind"]),
		Status:    model.SubmissionStatus(vals["status"]),
	}
	if res, ok := vals["result"]; ok {
		sub.Result = &res
	}
	if sub.CreatedAt, err = time.Parse(time.RFC3339Nano, vals["created_at"]); err != nil {
		return nil, fmt.Errorf("redisRunRepository.GetSubmissionByID created_at: %w", err)
	}
	if sub.UpdatedAt, err = time.Parse(time.RFC3339Nano, vals["updated_at"]); err != nil {
		return nil, fmt.Errorf("redisRunRepository.GetSubmissionByID updated_at: %w", err)
	}
	return sub, nil
}

func (r *redisRunRepository) UpdateSubmissionStatus(ctx context.Context, id string, status model.SubmissionStatus, result *string) error {
	preds := model.Predecessors(status)
	if len(preds) == 0 {
		return fmt.Errorf("no status leads to %q: %w", status, common.ErrInvalidTransition)
	}

	hasResult, resultVal := "0", ""
	if result != nil {
		hasResult, resultVal = "1", *result
	}
	args := []interface{}{string(status), time.Now().UTC().Format(time.RFC3339Nano), hasResult, resultVal}
	for _, p := range preds {
		args = append(args, string(p))
	}

	n, err := runTransitionScript.Run(ctx, r.rdb, []string{r.key(id)}, args...).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redisRunRepository.UpdateSubmissionStatus: %w", err)
	}
	switch n {
	case 1:
		return nil
	case -1:
		return common.ErrNotFound
	default:
		return fmt.Errorf("run %s cannot move to %q: %w", id, status, common.ErrInvalidTransition)
	}
}
