package handler

import (
	"encoding/json"
	"net/http"

	"learncode/internal/api/middleware"
	"learncode/internal/app/service"
	"learncode/internal/common"
	"learncode/internal/domain/model"
	"learncode/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type WebhookHandler struct {
	resultService *service.ResultService
	secret        string
}

func NewWebhookHandler(rs *service.ResultService, secret string) *WebhookHandler {
	return &WebhookHandler{resultService: rs, secret: secret}
}

func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.WebhookSecret(h.secret))
	r.Post("/execution", h.handleExecutionResult)
}

func (h *WebhookHandler) handleExecutionResult(w http.ResponseWriter, r *http.Request) {
	var payload model.ExecutionResult
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.L().Warn("webhook: invalid payload", zap.Error(err))
		common.RespondWithError(w, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	if err := h.resultService.ApplyResult(r.Context(), payload); err != nil {
		logger.L().Warn("webhook: result rejected", zap.String("submission_id", payload.SubmissionID), zap.Error(err))
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Result applied for submission " + payload.SubmissionID})
}
