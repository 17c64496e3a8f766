package model

import (
	"strings"
	"time"
)

type SubmissionStatus string
type SubmissionKind string

const (
	StatusPending   SubmissionStatus = "pending"
	StatusRunning   SubmissionStatus = "running"
	StatusCompleted SubmissionStatus = "completed"
	StatusError     SubmissionStatus = "error"

	KindRun    SubmissionKind = "RUN"    // Sample data only, not kept in history
	KindSubmit SubmissionKind = "SUBMIT" // Judged against the hidden data and persisted
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Terminal reports whether no further transition may follow s.
func (s SubmissionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

func (s SubmissionStatus) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusRunning:
		return 1
	case StatusCompleted, StatusError:
		return 2
	}
	return -1
}

// CanTransition reports whether a submission in status from may move to status to.
// Only forward moves are allowed: pending -> running -> completed|error, and
// pending -> error for jobs that fail before they start.
func CanTransition(from, to SubmissionStatus) bool {
	if !from.Valid() || !to.Valid() || from.Terminal() {
		return false
	}
	return to.rank() > from.rank()
}

// Predecessors lists the statuses from which to is reachable.
func Predecessors(to SubmissionStatus) []SubmissionStatus {
	var out []SubmissionStatus
	for _, from := range []SubmissionStatus{StatusPending, StatusRunning, StatusCompleted, StatusError} {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

// ParseSubmissionKind accepts RUN/SUBMIT in any case.
func ParseSubmissionKind(s string) (SubmissionKind, bool) {
	switch SubmissionKind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindRun:
		return KindRun, true
	case KindSubmit:
		return KindSubmit, true
	}
	return "", false
}

type Submission struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	ProblemID string           `json:"problem_id"`
	Language  string           `json:"language"`
	Code      string           `json:"code,omitempty"` // Omitted from listings
	Kind      SubmissionKind   `json:"type"`
	Status    SubmissionStatus `json:"status"`
	Result    *string          `json:"result,omitempty"` // Set only at a terminal status
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
