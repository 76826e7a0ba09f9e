package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mrk-construction/crm-engine/pkg/auth"
	"github.com/mrk-construction/crm-engine/pkg/models"
	"github.com/mrk-construction/crm-engine/pkg/services"
)

// ActivityHandler handles per-lead activity log endpoints.
type ActivityHandler struct {
	activityService services.ActivityService
	logger          *zap.Logger
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(activityService services.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{activityService: activityService, logger: logger}
}

// RegisterRoutes registers the activity handler's routes on the given mux.
func (h *ActivityHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/leads/{id}/activities", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/leads/{id}/activities", authMiddleware.RequireAuth(h.Create))
}

// List handles GET /api/leads/{id}/activities.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUser(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}
	leadID, ok := ParseLeadID(w, r, h.logger)
	if !ok {
		return
	}

	activities, err := h.activityService.ListByLead(r.Context(), user, leadID)
	if err != nil {
		ServiceError(w, h.logger, "list_activities_failed", err)
		return
	}
	if activities == nil {
		activities = []*models.Activity{}
	}
	if err := WriteJSON(w, http.StatusOK, activities); err != nil {
		h.logger.Error("Failed to encode activities response", zap.Error(err))
	}
}

type createActivityRequest struct {
	ActivityType string  `json:"activity_type"`
	Notes        *string `json:"notes"`
}

// Create handles POST /api/leads/{id}/activities.
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUser(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}
	leadID, ok := ParseLeadID(w, r, h.logger)
	if !ok {
		return
	}

	var req createActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	activity, err := h.activityService.Create(r.Context(), user, leadID, req.ActivityType, req.Notes)
	if err != nil {
		ServiceError(w, h.logger, "create_activity_failed", err)
		return
	}
	if err := WriteJSON(w, http.StatusCreated, activity); err != nil {
		h.logger.Error("Failed to encode activity response", zap.Error(err))
	}
}
