package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"learncode/internal/api"
	"learncode/internal/app/runner"
	"learncode/internal/app/service"
	"learncode/internal/app/worker"
	"learncode/internal/common/security"
	"learncode/internal/domain/repository"
	"learncode/internal/platform/config"
	"learncode/internal/platform/database"
	"learncode/internal/platform/logger"
	"learncode/internal/platform/queue"

	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	config.Load()
	cfg := config.AppConfig
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.L()

	// 2. Initialize JWT
	security.InitJWT()

	// 3. Initialize Database
	if err := database.Connect(); err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer database.Close()
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, database.DB); err != nil {
		cancelMigrate()
		log.Fatal("migrate database", zap.Error(err))
	}
	cancelMigrate()

	// 4. Initialize Redis
	if err := queue.ConnectRedis(); err != nil {
		log.Fatal("connect redis", zap.Error(err))
	}
	defer queue.CloseRedis()
	jobQueue := queue.NewJobQueue(queue.RDB, cfg.ExecutionQueueName)

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	problemRepo := repository.NewPgProblemRepository(database.DB)
	submissionRepo := repository.NewPgSubmissionRepository(database.DB)
	runRepo := repository.NewRedisRunRepository(queue.RDB, cfg.RunResultTTL)
	stateRepo := repository.NewRedisOAuthStateRepository(queue.RDB)

	// 6. Initialize Services
	authService := service.NewAuthService(userRepo, stateRepo,
		service.NewGithubProvider(cfg.GithubClientID, cfg.GithubClientSecret, cfg.GithubCallbackURL),
		service.AuthOptions{
			FrontendURL:  cfg.FrontendURL,
			StateTTL:     cfg.OAuthStateTTL,
			IsAdminLogin: cfg.IsAdminLogin,
		})
	problemService := service.NewProblemService(problemRepo)
	execJobService := service.NewExecutionJobService(jobQueue)
	submissionService := service.NewSubmissionService(problemRepo, submissionRepo, runRepo, execJobService)
	resultService := service.NewResultService(submissionRepo, runRepo)

	// 7. Initialize Execution Workers
	exec, closeRunner, err := newRunner(cfg)
	if err != nil {
		log.Fatal("init runner", zap.Error(err))
	}
	defer closeRunner()

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	var workers sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		w := worker.NewExecutionWorker(queue.RDB, jobQueue, problemRepo, submissionRepo, runRepo, resultService, exec,
			worker.Options{
				LockPrefix: cfg.ExecutionLockPrefix,
				LockTTL:    time.Duration(cfg.ExecutionLockTTLSeconds) * time.Second,
				TimeLimit:  cfg.ExecutionTimeLimit,
			})
		workers.Add(1)
		go func() {
			defer workers.Done()
			w.Start(workerCtx)
		}()
	}
	log.Info("execution workers started", zap.Int("count", cfg.WorkerCount), zap.String("runner", cfg.RunnerBackend))

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(api.Services{
		Auth:          authService,
		Problems:      problemService,
		Submissions:   submissionService,
		Results:       resultService,
		WebhookSecret: cfg.WebhookSecret,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("server starting", zap.String("port", cfg.APIPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.String("port", cfg.APIPort), zap.Error(err))
		}
	}()

	<-stop // Wait for interrupt signal

	log.Info("shutting down server")
	workerCancel() // Signal workers to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	workers.Wait()
	log.Info("server and workers stopped")
}

func newRunner(cfg *config.Config) (runner.Runner, func(), error) {
	switch cfg.RunnerBackend {
	case "docker":
		d, err := runner.NewDockerRunner(cfg.ExecutionTimeLimit)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := d.PullImages(ctx); err != nil {
			d.Close()
			return nil, nil, err
		}
		return d, func() { d.Close() }, nil
	case "local", "":
		return runner.NewLocalRunner(cfg.ExecutionTimeLimit), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown RUNNER_BACKEND %q", cfg.RunnerBackend)
}
