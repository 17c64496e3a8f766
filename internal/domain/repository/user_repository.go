package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"learncode/internal/common"
	"learncode/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByLogin(ctx context.Context, login string) (*model.User, error)
	// UpsertGithubUser inserts the user keyed by GitHub id or refreshes its login
	// and last login time. The admin flag is only ever raised, never cleared.
	UpsertGithubUser(ctx context.Context, user *model.User) (*model.User, error)
	TouchLastLogin(ctx context.Context, id string) error
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, login, github_id, COALESCE(password_hash, ''), is_admin, created_at, last_login_at`

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, login, github_id, password_hash, is_admin)
	          VALUES ($1, $2, $3, NULLIF($4, ''), $5)
	          RETURNING created_at, last_login_at`
	err := r.db.QueryRowContext(ctx, query, user.ID, user.Login, user.GithubID, user.PasswordHash, user.IsAdmin).
		Scan(&user.CreatedAt, &user.LastLoginAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return fmt.Errorf("user with given login already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *pgUserRepository) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE login = $1`, login)
}

func (r *pgUserRepository) findOne(ctx context.Context, query string, arg string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Login, &user.GithubID, &user.PasswordHash, &user.IsAdmin, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.findOne: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) UpsertGithubUser(ctx context.Context, user *model.User) (*model.User, error) {
	query := `INSERT INTO users (id, login, github_id, is_admin)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (github_id) DO UPDATE SET
	              login = EXCLUDED.login,
	              is_admin = users.is_admin OR EXCLUDED.is_admin,
	              last_login_at = CURRENT_TIMESTAMP
	          RETURNING ` + userColumns
	out := &model.User{}
	err := r.db.QueryRowContext(ctx, query, user.ID, user.Login, user.GithubID, user.IsAdmin).Scan(
		&out.ID, &out.Login, &out.GithubID, &out.PasswordHash, &out.IsAdmin, &out.CreatedAt, &out.LastLoginAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // login taken by a local account
			return nil, fmt.Errorf("login %q already in use: %w", user.Login, common.ErrConflict)
		}
		return nil, fmt.Errorf("pgUserRepository.UpsertGithubUser: %w", err)
	}
	return out, nil
}

func (r *pgUserRepository) TouchLastLogin(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = CURRENT_TIMESTAMP WHERE id = $1`, id); err != nil {
		return fmt.Errorf("pgUserRepository.TouchLastLogin: %w", err)
	}
	return nil
}
