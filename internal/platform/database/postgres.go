package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"learncode/internal/platform/config"
	"learncode/internal/platform/logger"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"go.uber.org/zap"
)

var DB *sql.DB

func Connect() error {
	var err error
	DB, err = sql.Open("pgx", config.AppConfig.DBConnStr)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = DB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	logger.L().Info("connected to PostgreSQL", zap.String("host", config.AppConfig.DBHost), zap.String("db", config.AppConfig.DBName))
	return nil
}

// Migrate creates the tables the server needs if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}

func Close() {
	if DB != nil {
		DB.Close()
		logger.L().Info("database connection closed")
	}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		login         TEXT NOT NULL UNIQUE,
		github_id     TEXT UNIQUE,
		password_hash TEXT,
		is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_login_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS problems (
		id             TEXT PRIMARY KEY,
		slug           TEXT NOT NULL UNIQUE,
		title          TEXT NOT NULL,
		description    TEXT NOT NULL,
		difficulty     TEXT NOT NULL,
		example_input  TEXT NOT NULL,
		example_output TEXT NOT NULL,
		judge_input    TEXT NOT NULL,
		judge_output   TEXT NOT NULL,
		created_by     TEXT REFERENCES users(id),
		created_at     TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		deleted_at     TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS submissions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		problem_id TEXT NOT NULL REFERENCES problems(id),
		language   TEXT NOT NULL,
		code       TEXT NOT NULL,
		kind       TEXT NOT NULL,
		status     TEXT NOT NULL,
		result     TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS submissions_user_problem_idx ON submissions (user_id, problem_id, created_at DESC)`,
}
