package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"learncode/internal/common/security"
	"learncode/internal/domain/model"
	"learncode/internal/platform/config"
)

func TestMain(m *testing.M) {
	config.AppConfig = &config.Config{JWTKey: []byte("test-secret"), JWTExp: time.Hour}
	security.InitJWT()
	os.Exit(m.Run())
}

type recordingQueue struct {
	jobs []model.ExecutionJob
	err  error
}

func (q *recordingQueue) Push(_ context.Context, job model.ExecutionJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

var errQueueDown = errors.New("queue down")

func strPtr(s string) *string { return &s }
