package handler

import (
	"encoding/json"
	"net/http"

	"learncode/internal/api/middleware"
	"learncode/internal/app/service"
	"learncode/internal/common"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/github", h.githubLogin)
	r.Get("/github/callback", h.githubCallback)
	r.Post("/signup", h.signup)
	r.Post("/login", h.login)

	r.With(middleware.Authenticator).Get("/verify", h.verify)
}

func (h *AuthHandler) githubLogin(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.authService.BeginGithubLogin(r.Context(), r.URL.Query().Get("redirect_uri"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (h *AuthHandler) githubCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target, err := h.authService.CompleteGithubLogin(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	resp, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) verify(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	user, err := h.authService.Verify(r.Context(), userID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}
