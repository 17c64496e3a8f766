package model

import (
	"time"
)

// ExecutionJob is the unit pushed onto the execution queue.
type ExecutionJob struct {
	SubmissionID string         `json:"submission_id"`
	ProblemID    string         `json:"problem_id"`
	Kind         SubmissionKind `json:"kind"`
	Attempts     int            `json:"attempts"`
	EnqueuedAt   time.Time      `json:"enqueued_at"`
}

// ExecutionResult reports a status change produced by a runner, either the
// in-process worker or an external runner calling the webhook.
type ExecutionResult struct {
	SubmissionID string           `json:"submission_id"`
	Kind         SubmissionKind   `json:"type"`
	Status       SubmissionStatus `json:"status"`
	Result       *string          `json:"result,omitempty"`
}
