package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"learncode/internal/client"
	"learncode/internal/domain/model"
	"learncode/internal/poller"
)

type WorkspaceClient interface {
	poller.Source
	GetProblem(ctx context.Context, id string) (*model.Problem, error)
	Submit(ctx context.Context, req client.SubmitRequest) (*client.SubmitResponse, error)
}

// WorkspaceState is a snapshot of the view.
type WorkspaceState struct {
	Problem    *model.Problem
	Language   string
	Code       string
	Submission *model.Submission // latest observed status of the last run or submit
	Polling    int               // outstanding polls
	Err        string
}

// Workspace holds one problem, the source being edited and the submissions
// issued from it. Each run or submit is followed by its own poll goroutine.
// Polls belong to the problem they were issued for: opening another problem,
// StopPolling and Close all end them.
type Workspace struct {
	client   WorkspaceClient
	poller   *poller.Poller
	onUpdate func(WorkspaceState)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	pollCtx    context.Context
	pollCancel context.CancelFunc
	problem    *model.Problem
	language string
	code     string
	current  *model.Submission
	polling  int
	err      string
}

// NewWorkspace binds the view lifetime to parent. onUpdate, if set, is called
// after every state change, outside the lock.
func NewWorkspace(parent context.Context, c WorkspaceClient, p *poller.Poller, onUpdate func(WorkspaceState)) *Workspace {
	ctx, cancel := context.WithCancel(parent)
	w := &Workspace{
		client:   c,
		poller:   p,
		onUpdate: onUpdate,
		ctx:      ctx,
		cancel:   cancel,
		language: model.LanguagePython,
	}
	w.pollCtx, w.pollCancel = context.WithCancel(ctx)
	return w
}

// resetPolls cancels every outstanding poll and starts a new scope.
// Callers hold w.mu.
func (w *Workspace) resetPolls() {
	w.pollCancel()
	w.pollCtx, w.pollCancel = context.WithCancel(w.ctx)
}

func (w *Workspace) Open(problemID string) error {
	p, err := w.client.GetProblem(w.ctx, problemID)
	w.mu.Lock()
	if err != nil {
		w.err = err.Error()
	} else {
		w.resetPolls()
		w.problem = p
		w.current = nil
		w.err = ""
	}
	w.mu.Unlock()
	w.notify()
	return err
}

func (w *Workspace) SetLanguage(lang string) error {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !model.IsSupportedLanguage(lang) {
		return fmt.Errorf("unsupported language %q, want one of %s", lang, strings.Join(model.SupportedLanguages, ", "))
	}
	w.mu.Lock()
	w.language = lang
	w.mu.Unlock()
	return nil
}

func (w *Workspace) SetCode(code string) {
	w.mu.Lock()
	w.code = code
	w.mu.Unlock()
}

// Run executes the code against the sample data.
func (w *Workspace) Run() error {
	return w.submit(model.KindRun)
}

// Submit grades the code against the judge data.
func (w *Workspace) Submit() error {
	return w.submit(model.KindSubmit)
}

func (w *Workspace) submit(kind model.SubmissionKind) error {
	if err := w.ctx.Err(); err != nil {
		return errors.New("workspace is closed")
	}
	w.mu.Lock()
	if w.problem == nil {
		w.mu.Unlock()
		return errors.New("no problem open")
	}
	if strings.TrimSpace(w.code) == "" {
		w.mu.Unlock()
		return errors.New("no code to send")
	}
	req := client.SubmitRequest{ProblemID: w.problem.ID, Language: w.language, Code: w.code, Type: kind}
	w.mu.Unlock()

	resp, err := w.client.Submit(w.ctx, req)
	if err != nil {
		w.setErr(err.Error())
		return err
	}

	w.mu.Lock()
	if w.problem == nil || w.problem.ID != req.ProblemID {
		// Another problem was opened while the request was in flight.
		w.mu.Unlock()
		return errors.New("problem changed before the submission was accepted")
	}
	scope := w.pollCtx
	w.current = &model.Submission{
		ID:        resp.SubmissionID,
		ProblemID: req.ProblemID,
		Language:  req.Language,
		Kind:      kind,
		Status:    resp.Status,
	}
	w.err = ""
	w.polling++
	w.mu.Unlock()
	w.notify()

	target := poller.Target{ProblemID: req.ProblemID, SubmissionID: resp.SubmissionID, Kind: kind}
	w.wg.Add(1)
	go w.follow(scope, target)
	return nil
}

// isCurrent reports whether updates for id may still change the view.
// Callers hold w.mu.
func (w *Workspace) isCurrent(scope context.Context, id string) bool {
	return scope.Err() == nil && w.current != nil && w.current.ID == id
}

func (w *Workspace) follow(scope context.Context, t poller.Target) {
	defer w.wg.Done()
	_, err := w.poller.Poll(scope, t, func(sub model.Submission) {
		w.mu.Lock()
		if !w.isCurrent(scope, sub.ID) {
			w.mu.Unlock()
			return
		}
		s := sub
		w.current = &s
		w.mu.Unlock()
		w.notify()
	})

	w.mu.Lock()
	w.polling--
	failed := err != nil && w.isCurrent(scope, t.SubmissionID)
	if failed {
		w.err = err.Error()
	}
	w.mu.Unlock()
	if failed {
		w.notify()
	}
}

// Wait blocks until every outstanding poll has returned.
func (w *Workspace) Wait() {
	w.wg.Wait()
}

// WaitContext is Wait that gives up when ctx is done.
func (w *Workspace) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StopPolling ends every outstanding poll but keeps the view open.
func (w *Workspace) StopPolling() {
	w.mu.Lock()
	w.resetPolls()
	w.mu.Unlock()
	w.wg.Wait()
}

// Close tears the view down. Outstanding polls stop before their next query.
func (w *Workspace) Close() {
	w.cancel()
	w.wg.Wait()
}

func (w *Workspace) State() WorkspaceState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

func (w *Workspace) snapshot() WorkspaceState {
	st := WorkspaceState{
		Problem:  w.problem,
		Language: w.language,
		Code:     w.code,
		Polling:  w.polling,
		Err:      w.err,
	}
	if w.current != nil {
		s := *w.current
		st.Submission = &s
	}
	return st
}

func (w *Workspace) setErr(msg string) {
	w.mu.Lock()
	w.err = msg
	w.mu.Unlock()
	w.notify()
}

func (w *Workspace) notify() {
	if w.onUpdate == nil || w.ctx.Err() != nil {
		return
	}
	w.onUpdate(w.State())
}
