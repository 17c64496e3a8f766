package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"learncode/internal/common"
	"learncode/internal/common/security"
	"learncode/internal/domain/model"
	"learncode/internal/domain/repository"
	"learncode/internal/platform/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthOptions struct {
	FrontendURL string
	StateTTL    time.Duration
	// IsAdminLogin decides which GitHub logins are granted the admin flag.
	IsAdminLogin func(login string) bool
}

type AuthService struct {
	userRepo repository.UserRepository
	states   repository.OAuthStateRepository
	github   GithubProvider
	opts     AuthOptions
}

func NewAuthService(
	userRepo repository.UserRepository,
	states repository.OAuthStateRepository,
	github GithubProvider,
	opts AuthOptions,
) *AuthService {
	if opts.IsAdminLogin == nil {
		opts.IsAdminLogin = func(string) bool { return false }
	}
	if opts.StateTTL <= 0 {
		opts.StateTTL = 10 * time.Minute
	}
	return &AuthService{userRepo: userRepo, states: states, github: github, opts: opts}
}

type SignupRequest struct {
	Login    string `json:"login" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	req.Login = strings.TrimSpace(req.Login)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Login:        req.Login,
		PasswordHash: hashedPassword,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByLogin(ctx, strings.TrimSpace(req.Login))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized // Generic message for security
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.PasswordHash == "" || !security.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, common.ErrUnauthorized
	}

	if err := s.userRepo.TouchLastLogin(ctx, user.ID); err != nil {
		logger.L().Warn("touch last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	return s.issue(user)
}

// BeginGithubLogin records a fresh state and returns the GitHub authorization
// URL. redirect is where the token is delivered after the callback; it must
// be the front end or a loopback address.
func (s *AuthService) BeginGithubLogin(ctx context.Context, redirect string) (string, error) {
	if redirect == "" {
		redirect = strings.TrimRight(s.opts.FrontendURL, "/") + "/auth/callback"
	}
	if !s.allowedRedirect(redirect) {
		return "", fmt.Errorf("redirect_uri %q is not allowed: %w", redirect, common.ErrBadRequest)
	}

	state := uuid.NewString()
	if err := s.states.Save(ctx, state, redirect, s.opts.StateTTL); err != nil {
		return "", err
	}
	return s.github.AuthCodeURL(state), nil
}

// CompleteGithubLogin handles the provider callback and returns the redirect
// URL carrying the issued token.
func (s *AuthService) CompleteGithubLogin(ctx context.Context, state, code string) (string, error) {
	if state == "" || code == "" {
		return "", fmt.Errorf("state and code are required: %w", common.ErrBadRequest)
	}
	redirect, err := s.states.Consume(ctx, state)
	if err != nil {
		return "", err
	}

	gu, err := s.github.FetchUser(ctx, code)
	if err != nil {
		logger.L().Warn("github login failed", zap.Error(err))
		return "", fmt.Errorf("github login failed: %w", common.ErrUnauthorized)
	}

	githubID := strconv.FormatInt(gu.ID, 10)
	user, err := s.userRepo.UpsertGithubUser(ctx, &model.User{
		ID:       uuid.NewString(),
		Login:    gu.Login,
		GithubID: &githubID,
		IsAdmin:  s.opts.IsAdminLogin(gu.Login),
	})
	if err != nil {
		return "", err
	}

	resp, err := s.issue(user)
	if err != nil {
		return "", err
	}
	logger.L().Info("github login", zap.String("user_id", user.ID), zap.String("login", user.Login))

	u, err := url.Parse(redirect)
	if err != nil {
		return "", fmt.Errorf("stored redirect %q: %w", redirect, err)
	}
	q := u.Query()
	q.Set("token", resp.Token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Verify resolves the principal behind a verified token.
func (s *AuthService) Verify(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("user no longer exists: %w", common.ErrUnauthorized)
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResponse, error) {
	token, err := security.GenerateToken(user.ID, user.Role())
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.PasswordHash = "" // Clear password before returning
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) allowedRedirect(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	if front, err := url.Parse(s.opts.FrontendURL); err == nil && front.Host != "" &&
		u.Scheme == front.Scheme && u.Host == front.Host {
		return true
	}
	if u.Scheme != "http" {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
