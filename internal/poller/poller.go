// Package poller follows a submission until it reaches a terminal status.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learncode/internal/domain/model"
)

const (
	DefaultRunInterval    = time.Second
	DefaultSubmitInterval = 2 * time.Second
)

var (
	ErrRegression  = errors.New("submission status moved backwards")
	ErrMaxAttempts = errors.New("submission did not finish in time")
)

// Source is the status API the poller reads from.
type Source interface {
	GetRunSubmission(ctx context.Context, problemID, submissionID string) (*model.Submission, error)
	ListSubmissions(ctx context.Context, problemID string) ([]model.Submission, error)
}

// Observer receives every status the poller sees, in order.
type Observer func(sub model.Submission)

type Target struct {
	ProblemID    string
	SubmissionID string
	Kind         model.SubmissionKind
}

type Config struct {
	RunInterval    time.Duration
	SubmitInterval time.Duration
	// MaxAttempts bounds the number of queries. Zero means unbounded.
	MaxAttempts int
}

type Poller struct {
	src Source
	cfg Config
}

func New(src Source, cfg Config) *Poller {
	if cfg.RunInterval <= 0 {
		cfg.RunInterval = DefaultRunInterval
	}
	if cfg.SubmitInterval <= 0 {
		cfg.SubmitInterval = DefaultSubmitInterval
	}
	return &Poller{src: src, cfg: cfg}
}

func (p *Poller) interval(kind model.SubmissionKind) time.Duration {
	if kind == model.KindRun {
		return p.cfg.RunInterval
	}
	return p.cfg.SubmitInterval
}

// Poll queries sequentially until the submission is completed or errored,
// ctx is cancelled, or a query fails. A failed query is not retried. Once ctx
// is cancelled no further query is issued and observe is not called again.
func (p *Poller) Poll(ctx context.Context, t Target, observe Observer) (*model.Submission, error) {
	if t.ProblemID == "" || t.SubmissionID == "" {
		return nil, fmt.Errorf("poll: problem and submission ids are required")
	}
	wait := p.interval(t.Kind)

	var last model.SubmissionStatus
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sub, err := p.query(ctx, t)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("poll submission %s: %w", t.SubmissionID, err)
		}

		if sub != nil {
			if !sub.Status.Valid() {
				return nil, fmt.Errorf("poll submission %s: unknown status %q", t.SubmissionID, sub.Status)
			}
			if last != "" && sub.Status != last && !model.CanTransition(last, sub.Status) {
				return nil, fmt.Errorf("%w: %s -> %s", ErrRegression, last, sub.Status)
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if observe != nil {
				observe(*sub)
			}
			last = sub.Status
			if sub.Status.Terminal() {
				return sub, nil
			}
		}

		if p.cfg.MaxAttempts > 0 && attempt >= p.cfg.MaxAttempts {
			return nil, fmt.Errorf("%w after %d queries", ErrMaxAttempts, attempt)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// query returns nil without error when a SUBMIT submission is not listed yet.
func (p *Poller) query(ctx context.Context, t Target) (*model.Submission, error) {
	if t.Kind == model.KindRun {
		return p.src.GetRunSubmission(ctx, t.ProblemID, t.SubmissionID)
	}
	subs, err := p.src.ListSubmissions(ctx, t.ProblemID)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		if subs[i].ID == t.SubmissionID {
			return &subs[i], nil
		}
	}
	return nil, nil
}
