package repl

import (
	"context"
	"errors"
	"fmt"
	"os"

	"learncode/internal/session"
	"learncode/internal/views"

	"gopkg.in/yaml.v3"
)

func (r *Session) cmdAdmin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: admin list | admin add <file.yaml> | admin delete <id>")
	}
	switch args[0] {
	case "list":
		if !r.navigate(ctx, session.RouteAdmin+"/problems") {
			return nil
		}
		return r.adminList(ctx)
	case "add":
		if len(args) != 2 {
			return errors.New("usage: admin add <file.yaml>")
		}
		if !r.navigate(ctx, session.RouteAdmin+"/add") {
			return nil
		}
		return r.adminAdd(ctx, args[1])
	case "delete":
		if len(args) != 2 {
			return errors.New("usage: admin delete <id>")
		}
		if !r.navigate(ctx, session.RouteAdmin+"/problems") {
			return nil
		}
		return r.adminDelete(ctx, args[1])
	}
	return fmt.Errorf("unknown admin command %q", args[0])
}

func (r *Session) adminList(ctx context.Context) error {
	if err := r.admin.Load(ctx); err != nil {
		return err
	}
	problems := r.admin.Problems()
	if len(problems) == 0 {
		r.printf("No problems\n")
		return nil
	}
	for _, p := range problems {
		r.printf("%-14s %-8s %-30s %s\n", p.ID, p.Difficulty, p.Slug, p.Title)
	}
	return nil
}

func (r *Session) adminAdd(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read problem file: %w", err)
	}
	var form views.ProblemForm
	if err := yaml.Unmarshal(data, &form); err != nil {
		return fmt.Errorf("parse problem file: %w", err)
	}
	r.admin.SetForm(form)
	if _, err := r.admin.Create(ctx); err != nil {
		return err
	}
	r.printf("%s\n", r.admin.Message())
	return nil
}

func (r *Session) adminDelete(ctx context.Context, id string) error {
	if len(r.admin.Problems()) == 0 {
		if err := r.admin.Load(ctx); err != nil {
			return err
		}
	}
	deleted, err := r.admin.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		r.printf("Cancelled\n")
		return nil
	}
	r.printf("%s\n", r.admin.Message())
	return nil
}
