package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"learncode/internal/common"
	"learncode/internal/domain/model"
)

// SubmissionStore is the storage contract shared by graded (PostgreSQL) and
// run-only (Redis) submissions.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, sub *model.Submission) error
	GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error)
	// UpdateSubmissionStatus applies a forward transition atomically. It returns
	// common.ErrInvalidTransition when the stored status does not allow it.
	UpdateSubmissionStatus(ctx context.Context, id string, status model.SubmissionStatus, result *string) error
}

type SubmissionRepository interface {
	SubmissionStore
	ListSubmissionsForUserProblem(ctx context.Context, userID, problemID string, limit int) ([]model.Submission, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	query := `INSERT INTO submissions (id, user_id, problem_id, language, code, kind, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, sub.ID, sub.UserID, sub.ProblemID, sub.Language, sub.Code, sub.Kind, sub.Status).
		Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CreateSubmission: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	query := `SELECT id, user_id, problem_id, language, code, kind, status, result, created_at, updated_at
	          FROM submissions WHERE id = $1`
	sub := &model.Submission{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sub.ID, &sub.UserID, &sub.ProblemID, &sub.Language, &sub.Code, &sub.Kind, &sub.Status, &sub.Result, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionByID: %w", err)
	}
	return sub, nil
}

func (r *pgSubmissionRepository) UpdateSubmissionStatus(ctx context.Context, id string, status model.SubmissionStatus, result *string) error {
	preds := model.Predecessors(status)
	if len(preds) == 0 {
		return fmt.Errorf("no status leads to %q: %w", status, common.ErrInvalidTransition)
	}

	args := []interface{}{status, result, id}
	placeholders := make([]string, len(preds))
	for i, p := range preds {
		args = append(args, p)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := `UPDATE submissions SET status = $1, result = COALESCE($2, result), updated_at = CURRENT_TIMESTAMP
	          WHERE id = $3 AND status IN (` + strings.Join(placeholders, ",") + `)`

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.UpdateSubmissionStatus: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.UpdateSubmissionStatus rows affected: %w", err)
	}
	if n == 0 {
		if _, err := r.GetSubmissionByID(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("submission %s cannot move to %q: %w", id, status, common.ErrInvalidTransition)
	}
	return nil
}

func (r *pgSubmissionRepository) ListSubmissionsForUserProblem(ctx context.Context, userID, problemID string, limit int) ([]model.Submission, error) {
	query := `SELECT id, user_id, problem_id, language, kind, status, result, created_at, updated_at
	          FROM submissions WHERE user_id = $1 AND problem_id = $2 AND kind = $3
	          ORDER BY created_at DESC LIMIT $4`
	rows, err := r.db.QueryContext(ctx, query, userID, problemID, model.KindSubmit, limit)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListSubmissionsForUserProblem query: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(&s.ID, &s.UserID, &s.ProblemID, &s.Language, &s.Kind, &s.Status, &s.Result, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListSubmissionsForUserProblem scan: %w", err)
		}
		subs = append(subs, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListSubmissionsForUserProblem rows.Err: %w", err)
	}
	return subs, nil
}
