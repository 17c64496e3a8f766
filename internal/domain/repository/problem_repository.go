package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"learncode/internal/common"
	"learncode/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type ProblemRepository interface {
	CreateProblem(ctx context.Context, problem *model.Problem) error
	FindProblemByID(ctx context.Context, id string) (*model.Problem, error)
	FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error)
	ListProblems(ctx context.Context, difficulty model.ProblemDifficulty) ([]model.Problem, error)
	SoftDeleteProblem(ctx context.Context, id string) error
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

const problemColumns = `id, slug, title, description, difficulty, example_input, example_output,
	judge_input, judge_output, created_by, created_at, updated_at, deleted_at`

func (r *pgProblemRepository) CreateProblem(ctx context.Context, p *model.Problem) error {
	query := `INSERT INTO problems (id, slug, title, description, difficulty, example_input, example_output, judge_input, judge_output, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, p.ID, p.Slug, p.Title, p.Description, p.Difficulty,
		p.ExampleInput, p.ExampleOutput, p.Input, p.Output, p.CreatedByID).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for slug
			return fmt.Errorf("problem with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.CreateProblem: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	return r.findOne(ctx, "id", id)
}

func (r *pgProblemRepository) FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	return r.findOne(ctx, "slug", slug)
}

func (r *pgProblemRepository) findOne(ctx context.Context, column, value string) (*model.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems WHERE ` + column + ` = $1 AND deleted_at IS NULL`
	problem, err := scanProblem(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.findOne by %s: %w", column, err)
	}
	return problem, nil
}

func (r *pgProblemRepository) ListProblems(ctx context.Context, difficulty model.ProblemDifficulty) ([]model.Problem, error) {
	var query strings.Builder
	query.WriteString(`SELECT ` + problemColumns + ` FROM problems WHERE deleted_at IS NULL`)

	var args []interface{}
	if difficulty != "" {
		query.WriteString(" AND difficulty = $1")
		args = append(args, difficulty)
	}
	query.WriteString(" ORDER BY created_at ASC")

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListProblems query: %w", err)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, fmt.Errorf("pgProblemRepository.ListProblems scan: %w", err)
		}
		problems = append(problems, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListProblems rows.Err: %w", err)
	}
	return problems, nil
}

func (r *pgProblemRepository) SoftDeleteProblem(ctx context.Context, id string) error {
	query := `UPDATE problems SET deleted_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.SoftDeleteProblem: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgProblemRepository.SoftDeleteProblem rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProblem(row rowScanner) (*model.Problem, error) {
	p := &model.Problem{}
	var deletedAt sql.NullTime
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Description, &p.Difficulty, &p.ExampleInput, &p.ExampleOutput,
		&p.Input, &p.Output, &p.CreatedByID, &p.CreatedAt, &p.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		p.DeletedAt = &deletedAt.Time
	}
	return p, nil
}
