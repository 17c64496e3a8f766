package api

import (
	"net/http"
	"time"

	"learncode/internal/api/handler"
	"learncode/internal/api/middleware"
	"learncode/internal/app/service"
	"learncode/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/klauspost/compress/gzhttp"
)

type Services struct {
	Auth          *service.AuthService
	Problems      *service.ProblemService
	Submissions   *service.SubmissionService
	Results       *service.ResultService
	WebhookSecret string
}

func NewRouter(s Services) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(func(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) })

	// Searches "Authorization: Bearer T" and puts the verification outcome in
	// the context; middleware.Authenticator enforces it per route.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handler.NewAuthHandler(s.Auth)
	r.Route("/auth", authHandler.RegisterRoutes)

	problemHandler := handler.NewProblemHandler(s.Problems)
	r.Route("/problems", problemHandler.RegisterRoutes)
	r.Route("/admin", problemHandler.RegisterAdminRoutes)

	submissionHandler := handler.NewSubmissionHandler(s.Submissions)
	submissionHandler.RegisterRoutes(r)

	webhookHandler := handler.NewWebhookHandler(s.Results, s.WebhookSecret)
	r.Route("/webhook", webhookHandler.RegisterRoutes)

	return r
}
