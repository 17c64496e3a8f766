package handler

import (
	"encoding/json"
	"net/http"

	"learncode/internal/api/middleware"
	"learncode/internal/app/service"
	"learncode/internal/common"

	"github.com/go-chi/chi/v5"
)

type ProblemHandler struct {
	problemService *service.ProblemService
}

func NewProblemHandler(ps *service.ProblemService) *ProblemHandler {
	return &ProblemHandler{problemService: ps}
}

// RegisterRoutes mounts the catalog under /problems.
func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Get("/", h.listProblems)
	r.Get("/{problemID}", h.getProblem) // id or slug
}

// RegisterAdminRoutes mounts authoring under /admin.
func (h *ProblemHandler) RegisterAdminRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Use(middleware.AdminOnly)
	r.Post("/add", h.createProblem)
	r.Get("/problems", h.adminListProblems)
	r.Delete("/problems/{problemID}", h.deleteProblem)
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	problems, err := h.problemService.ListProblems(r.Context(), r.URL.Query().Get("difficulty"), false)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problems)
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	problem, err := h.problemService.GetProblem(r.Context(), chi.URLParam(r, "problemID"), false)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	problem, err := h.problemService.CreateProblem(r.Context(), userID, req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, service.CreateProblemResponse{
		Message: "Problem created successfully",
		Problem: problem,
	})
}

func (h *ProblemHandler) adminListProblems(w http.ResponseWriter, r *http.Request) {
	problems, err := h.problemService.ListProblems(r.Context(), r.URL.Query().Get("difficulty"), true)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problems)
}

func (h *ProblemHandler) deleteProblem(w http.ResponseWriter, r *http.Request) {
	if err := h.problemService.DeleteProblem(r.Context(), chi.URLParam(r, "problemID")); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Problem deleted successfully"})
}
