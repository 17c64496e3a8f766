package repository

import (
	"context"
	"testing"
	"time"

	"learncode/internal/common"
	"learncode/internal/testutil"
)

func TestOAuthStateConsumedOnce(t *testing.T) {
	_, rdb := testutil.NewRedis(t)
	repo := NewRedisOAuthStateRepository(rdb)
	ctx := context.Background()

	testutil.MustNoError(t, repo.Save(ctx, "state-1", "http://localhost:3000/auth/callback", time.Minute))

	redirect, err := repo.Consume(ctx, "state-1")
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, redirect, "http://localhost:3000/auth/callback")

	_, err = repo.Consume(ctx, "state-1")
	testutil.AssertErrorIs(t, err, common.ErrUnauthorized)
}

func TestOAuthStateDuplicateSave(t *testing.T) {
	_, rdb := testutil.NewRedis(t)
	repo := NewRedisOAuthStateRepository(rdb)
	ctx := context.Background()

	testutil.MustNoError(t, repo.Save(ctx, "state-1", "a", time.Minute))
	testutil.AssertErrorIs(t, repo.Save(ctx, "state-1", "b", time.Minute), common.ErrConflict)
}

func TestOAuthStateExpires(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	repo := NewRedisOAuthStateRepository(rdb)
	ctx := context.Background()

	testutil.MustNoError(t, repo.Save(ctx, "state-1", "a", time.Minute))
	mr.FastForward(2 * time.Minute)
	_, err := repo.Consume(ctx, "state-1")
	testutil.AssertErrorIs(t, err, common.ErrUnauthorized)
}
