package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learncode/internal/common"

	"github.com/redis/go-redis/v9"
)

// OAuthStateRepository remembers issued OAuth state values and where to send
// the user once the provider calls back. A state can be consumed once.
type OAuthStateRepository interface {
	Save(ctx context.Context, state, redirect string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (string, error)
}

type redisOAuthStateRepository struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisOAuthStateRepository(rdb *redis.Client) OAuthStateRepository {
	return &redisOAuthStateRepository{rdb: rdb, prefix: "learncode:oauth_state:"}
}

func (r *redisOAuthStateRepository) Save(ctx context.Context, state, redirect string, ttl time.Duration) error {
	ok, err := r.rdb.SetNX(ctx, r.prefix+state, redirect, ttl).Result()
	if err != nil {
		return fmt.Errorf("redisOAuthStateRepository.Save: %w", err)
	}
	if !ok {
		return fmt.Errorf("oauth state already issued: %w", common.ErrConflict)
	}
	return nil
}

func (r *redisOAuthStateRepository) Consume(ctx context.Context, state string) (string, error) {
	redirect, err := r.rdb.GetDel(ctx, r.prefix+state).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("unknown or expired oauth state: %w", common.ErrUnauthorized)
		}
		return "", fmt.Errorf("redisOAuthStateRepository.Consume: %w", err)
	}
	return redirect, nil
}
