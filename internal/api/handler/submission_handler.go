package handler

import (
	"encoding/json"
	"net/http"

	"learncode/internal/api/middleware"
	"learncode/internal/app/service"
	"learncode/internal/common"
	"learncode/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type SubmissionHandler struct {
	submissionService *service.SubmissionService
}

func NewSubmissionHandler(ss *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: ss}
}

// RegisterRoutes mounts POST /submit and the /submissions queries on the root router.
func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(auth chi.Router) {
		auth.Use(middleware.Authenticator) // All submission routes require auth
		auth.Post("/submit", h.createSubmission)
		auth.Get("/submissions", h.querySubmissions)
		auth.Get("/submissions/{submissionID}", h.getSubmission)
	})
}

func (h *SubmissionHandler) createSubmission(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	resp, err := h.submissionService.CreateSubmission(r.Context(), userID, req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusAccepted, resp) // Accepted (202) as it's async
}

func (h *SubmissionHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	sub, err := h.submissionService.GetSubmission(r.Context(), userID, chi.URLParam(r, "submissionID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}

// querySubmissions serves ?problem_id&submission_id&type=RUN with one
// submission and ?problem_id&type=SUBMIT with the caller's graded history.
func (h *SubmissionHandler) querySubmissions(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	q := r.URL.Query()
	problemID, submissionID := q.Get("problem_id"), q.Get("submission_id")

	var kind model.SubmissionKind
	if raw := q.Get("type"); raw != "" {
		k, ok := model.ParseSubmissionKind(raw)
		if !ok {
			common.RespondWithError(w, http.StatusBadRequest, "type must be RUN or SUBMIT")
			return
		}
		kind = k
	}

	switch {
	case kind == model.KindRun:
		sub, err := h.submissionService.GetRun(r.Context(), userID, problemID, submissionID)
		if err != nil {
			common.RespondWithErr(w, err)
			return
		}
		common.RespondWithJSON(w, http.StatusOK, sub)
	case kind == "" && submissionID != "":
		sub, err := h.submissionService.GetSubmission(r.Context(), userID, submissionID)
		if err != nil {
			common.RespondWithErr(w, err)
			return
		}
		common.RespondWithJSON(w, http.StatusOK, sub)
	default:
		subs, err := h.submissionService.ListSubmissions(r.Context(), userID, problemID)
		if err != nil {
			common.RespondWithErr(w, err)
			return
		}
		common.RespondWithJSON(w, http.StatusOK, subs)
	}
}
