package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"learncode/internal/common"
	"learncode/internal/domain/model"
	"learncode/internal/testutil"
	"learncode/internal/testutil/fakes"
)

func validProblem(title string) CreateProblemRequest {
	return CreateProblemRequest{
		Title:         title,
		Description:   "Add two numbers.",
		Difficulty:    model.DifficultyEasy,
		Input:         "3 3",
		Output:        "6",
		ExampleInput:  "1 2",
		ExampleOutput: "3",
	}
}

func TestCreateProblem(t *testing.T) {
	svc := NewProblemService(fakes.NewProblemRepo())
	p, err := svc.CreateProblem(context.Background(), "admin-1", validProblem("  Two Sum "))
	testutil.MustNoError(t, err)

	testutil.AssertTrue(t, strings.HasPrefix(p.ID, "prob-"), "id carries the prob- prefix")
	testutil.AssertEqual(t, p.Title, "Two Sum")
	testutil.AssertEqual(t, p.Slug, "two-sum")
	testutil.AssertEqual(t, *p.CreatedByID, "admin-1")
}

func TestCreateProblemSlugCollision(t *testing.T) {
	svc := NewProblemService(fakes.NewProblemRepo())
	ctx := context.Background()
	first, err := svc.CreateProblem(ctx, "admin-1", validProblem("Two Sum"))
	testutil.MustNoError(t, err)
	second, err := svc.CreateProblem(ctx, "admin-1", validProblem("Two Sum"))
	testutil.MustNoError(t, err)

	testutil.AssertTrue(t, first.Slug != second.Slug, "colliding titles get distinct slugs")
	testutil.AssertTrue(t, strings.HasPrefix(second.Slug, "two-sum-"), "suffix appended to the slug")
}

func TestCreateProblemValidation(t *testing.T) {
	svc := NewProblemService(fakes.NewProblemRepo())

	req := validProblem("Two Sum")
	req.ExampleOutput = ""
	_, err := svc.CreateProblem(context.Background(), "admin-1", req)
	testutil.AssertErrorIs(t, err, common.ErrValidation)
	testutil.AssertTrue(t, strings.Contains(err.Error(), "ExampleOutput is required"), err.Error())

	req = validProblem("Two Sum")
	req.Difficulty = "Impossible"
	_, err = svc.CreateProblem(context.Background(), "admin-1", req)
	testutil.AssertErrorIs(t, err, common.ErrValidation)

	req = validProblem("   ")
	_, err = svc.CreateProblem(context.Background(), "admin-1", req)
	testutil.AssertErrorIs(t, err, common.ErrValidation)
}

func seededProblems() *fakes.ProblemRepo {
	deleted := time.Now()
	return fakes.NewProblemRepo(
		model.Problem{ID: "prob-1", Slug: "sum", Title: "Sum", Difficulty: model.DifficultyEasy, Input: "3 3", Output: "6"},
		model.Problem{ID: "prob-2", Slug: "graph", Title: "Graph", Difficulty: model.DifficultyHard, Input: "x", Output: "y"},
		model.Problem{ID: "prob-3", Slug: "gone", Title: "Gone", Difficulty: model.DifficultyEasy, DeletedAt: &deleted},
	)
}

func TestListProblems(t *testing.T) {
	svc := NewProblemService(seededProblems())
	ctx := context.Background()

	all, err := svc.ListProblems(ctx, "", false)
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, len(all), 2)
	for _, p := range all {
		testutil.AssertTrue(t, p.ID != "prob-3", "deleted problem listed")
		testutil.AssertEqual(t, p.Input, "")
		testutil.AssertEqual(t, p.Output, "")
	}

	easy, err := svc.ListProblems(ctx, "Easy", false)
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, len(easy), 1)
	testutil.AssertEqual(t, easy[0].ID, "prob-1")

	allAgain, err := svc.ListProblems(ctx, "All", true)
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, len(allAgain), 2)
	testutil.AssertEqual(t, allAgain[0].Output, "6")

	_, err = svc.ListProblems(ctx, "Nightmare", false)
	testutil.AssertErrorIs(t, err, common.ErrBadRequest)
}

func TestGetProblemByIDOrSlug(t *testing.T) {
	svc := NewProblemService(seededProblems())
	ctx := context.Background()

	p, err := svc.GetProblem(ctx, "prob-1", false)
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, p.Output, "")

	p, err = svc.GetProblem(ctx, "graph", true)
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, p.ID, "prob-2")
	testutil.AssertEqual(t, p.Output, "y")

	_, err = svc.GetProblem(ctx, "prob-3", false)
	testutil.AssertErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteProblem(t *testing.T) {
	repo := seededProblems()
	svc := NewProblemService(repo)
	ctx := context.Background()

	testutil.MustNoError(t, svc.DeleteProblem(ctx, "prob-1"))
	_, err := svc.GetProblem(ctx, "prob-1", false)
	testutil.AssertErrorIs(t, err, common.ErrNotFound)

	testutil.AssertErrorIs(t, svc.DeleteProblem(ctx, "prob-1"), common.ErrNotFound)
}
