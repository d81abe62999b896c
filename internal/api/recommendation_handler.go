package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tripkit/tripkit-api/internal/api/shared"
	"github.com/tripkit/tripkit-api/internal/queue"
	"github.com/tripkit/tripkit-api/internal/service"
	"github.com/tripkit/tripkit-api/internal/store"
)

// serviceName is reported by the health endpoint.
const serviceName = "travel-recommendation-api"

// RecommendationHandler handles recommendation-related HTTP requests.
type RecommendationHandler struct {
	service *service.RecommendationService
}

// NewRecommendationHandler creates a RecommendationHandler.
func NewRecommendationHandler(svc *service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{service: svc}
}

// Recommend handles POST /api/recommend requests. Submission is
// idempotent under fingerprint dedup: identical requests receive the same
// task ID while the earlier task is pending or succeeded.
func (h *RecommendationHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error(), err)
		return
	}

	taskID, err := h.service.Submit(r.Context(), req.toDomain())
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) || errors.Is(err, queue.ErrUnavailable) {
			shared.RespondWithError(w, r, http.StatusServiceUnavailable, "Submission temporarily unavailable", err)
			return
		}
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to submit request", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, TaskCreationResponse{TaskID: taskID})
}

// GetResult handles GET /api/result/{taskID} requests.
func (h *RecommendationHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	task, err := h.service.GetResult(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Task not found", err)
			return
		}
		if errors.Is(err, store.ErrUnavailable) {
			shared.RespondWithError(w, r, http.StatusServiceUnavailable, "Task state temporarily unavailable", err)
			return
		}
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to read task state", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskResultResponse{
		TaskID: task.ID,
		Status: task.Status,
		Result: task.Result,
	})
}

// QueuePosition handles GET /api/queue/position/{taskID} requests.
func (h *RecommendationHandler) QueuePosition(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	status, err := h.service.QueuePosition(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, queue.ErrUnavailable) {
			shared.RespondWithError(w, r, http.StatusServiceUnavailable, "Queue status temporarily unavailable", err)
			return
		}
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to read queue status", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, QueueStatusResponse{
		Total:    status.Total,
		Position: status.Position,
	})
}

// Health handles GET /health requests.
func (h *RecommendationHandler) Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: serviceName,
	})
}
