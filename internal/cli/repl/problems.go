package repl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"learncode/internal/domain/model"
	"learncode/internal/session"
	"learncode/internal/views"
)

func (r *Session) cmdProblems(ctx context.Context, args []string) error {
	filter := ""
	if len(args) > 0 {
		filter = args[0]
	}
	if err := r.catalog.SetFilter(filter); err != nil {
		return err
	}
	if !r.navigate(ctx, session.RouteProblems) {
		return nil
	}
	return r.showProblems(ctx)
}

func (r *Session) showProblems(ctx context.Context) error {
	if err := r.catalog.Load(ctx); err != nil {
		return err
	}
	visible := r.catalog.Visible()
	if len(visible) == 0 {
		r.printf("No problems")
		if f := r.catalog.Filter(); f != "" {
			r.printf(" with difficulty %s", f)
		}
		r.printf("\n")
		return nil
	}
	for i, p := range visible {
		r.printf("%3d. %-8s %-14s %s\n", i+1, p.Difficulty, p.ID, p.Title)
	}
	return nil
}

func (r *Session) cmdOpen(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: open <n|id>")
	}
	route := views.WorkspaceRoute(args[0])
	if n, ok := atoiIndex(args[0]); ok {
		var err error
		if route, err = r.catalog.Select(n); err != nil {
			return err
		}
	}
	if !r.navigate(ctx, route) {
		return nil
	}

	ws := views.NewWorkspace(ctx, r.client, r.poller, r.onWorkspaceUpdate)
	if err := ws.Open(strings.TrimPrefix(route, "/problems/")); err != nil {
		ws.Close()
		return err
	}
	r.closeWorkspace()
	r.ws = ws
	st := ws.State()
	p := st.Problem
	r.printf("\n%s  [%s]  %s\n\n%s\n\nExample input:\n%s\n\nExample output:\n%s\n\nLanguage: %s\n",
		p.Title, p.Difficulty, p.ID, p.Description, p.ExampleInput, p.ExampleOutput, st.Language)
	return nil
}

func (r *Session) onWorkspaceUpdate(st views.WorkspaceState) {
	if st.Submission == nil {
		return
	}
	s := st.Submission
	r.printf("[%s %s] %s\n", s.Kind, shortID(s.ID), s.Status)
	if s.Status.Terminal() && s.Result != nil {
		r.printf("%s\n", *s.Result)
	}
}

func (r *Session) workspace(ctx context.Context) (*views.Workspace, error) {
	if r.ws == nil {
		return nil, errors.New("no problem open, use open <n|id>")
	}
	st := r.ws.State()
	if st.Problem == nil {
		return nil, errors.New("no problem open, use open <n|id>")
	}
	if !r.navigate(ctx, views.WorkspaceRoute(st.Problem.ID)) {
		return nil, errors.New("session ended")
	}
	return r.ws, nil
}

func (r *Session) cmdLang(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: lang <python|nodejs|cpp|java>")
	}
	ws, err := r.workspace(ctx)
	if err != nil {
		return err
	}
	if err := ws.SetLanguage(args[0]); err != nil {
		return err
	}
	r.printf("Language: %s\n", ws.State().Language)
	return nil
}

func (r *Session) cmdLoad(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: load <file>")
	}
	ws, err := r.workspace(ctx)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	ws.SetCode(string(data))
	r.printf("Loaded %d bytes\n", len(data))
	return nil
}

func (r *Session) cmdRun(ctx context.Context, _ []string) error {
	return r.send(ctx, model.KindRun)
}

func (r *Session) cmdSubmit(ctx context.Context, _ []string) error {
	return r.send(ctx, model.KindSubmit)
}

func (r *Session) send(ctx context.Context, kind model.SubmissionKind) error {
	ws, err := r.workspace(ctx)
	if err != nil {
		return err
	}
	if kind == model.KindRun {
		err = ws.Run()
	} else {
		err = ws.Submit()
	}
	if err != nil {
		return err
	}
	// ^C stops following the submission and returns to the prompt.
	waitCtx, stop := r.interrupt(ctx)
	defer stop()
	if err := ws.WaitContext(waitCtx); err != nil {
		ws.StopPolling()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.printf("Stopped following the submission, it keeps running on the server.\n")
		return nil
	}
	if msg := ws.State().Err; msg != "" {
		return errors.New(msg)
	}
	return nil
}

func (r *Session) cmdHistory(ctx context.Context, _ []string) error {
	ws, err := r.workspace(ctx)
	if err != nil {
		return err
	}
	subs, err := r.client.ListSubmissions(ctx, ws.State().Problem.ID)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		r.printf("No submissions yet\n")
		return nil
	}
	for _, s := range subs {
		r.printf("%s  %s  %-7s %-10s\n", s.CreatedAt.Local().Format("2006-01-02 15:04:05"), shortID(s.ID), s.Language, s.Status)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
