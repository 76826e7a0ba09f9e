package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mrk-construction/crm-engine/pkg/auth"
	"github.com/mrk-construction/crm-engine/pkg/models"
	"github.com/mrk-construction/crm-engine/pkg/rbac"
	"github.com/mrk-construction/crm-engine/pkg/services"
)

// CampaignMappingHandler handles campaign classification rule endpoints.
// All routes are admin only.
type CampaignMappingHandler struct {
	mappingService services.CampaignMappingService
	logger         *zap.Logger
}

// NewCampaignMappingHandler creates a new CampaignMappingHandler.
func NewCampaignMappingHandler(mappingService services.CampaignMappingService, logger *zap.Logger) *CampaignMappingHandler {
	return &CampaignMappingHandler{mappingService: mappingService, logger: logger}
}

// RegisterRoutes registers the mapping handler's routes on the given mux.
func (h *CampaignMappingHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/campaign-mappings", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/campaign-mappings", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("PUT /api/campaign-mappings/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/campaign-mappings/{id}", authMiddleware.RequireAuth(h.Deactivate))
}

// List handles GET /api/campaign-mappings.
func (h *CampaignMappingHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	mappings, err := h.mappingService.List(r.Context())
	if err != nil {
		ServiceError(w, h.logger, "list_mappings_failed", err)
		return
	}
	if mappings == nil {
		mappings = []*models.CampaignMapping{}
	}
	if err := WriteJSON(w, http.StatusOK, mappings); err != nil {
		h.logger.Error("Failed to encode mappings response", zap.Error(err))
	}
}

type mappingRequest struct {
	ContainsText   string `json:"contains_text"`
	ProjectTypeKey string `json:"project_type_key"`
	Priority       int    `json:"priority"`
	IsActive       *bool  `json:"is_active"`
}

// Create handles POST /api/campaign-mappings.
func (h *CampaignMappingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var req mappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	mapping := &models.CampaignMapping{
		ContainsText:   req.ContainsText,
		ProjectTypeKey: req.ProjectTypeKey,
		Priority:       req.Priority,
		IsActive:       req.IsActive == nil || *req.IsActive,
	}
	if err := h.mappingService.Create(r.Context(), mapping); err != nil {
		ServiceError(w, h.logger, "create_mapping_failed", err)
		return
	}
	if err := WriteJSON(w, http.StatusCreated, mapping); err != nil {
		h.logger.Error("Failed to encode mapping response", zap.Error(err))
	}
}

// Update handles PUT /api/campaign-mappings/{id}.
func (h *CampaignMappingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id, ok := ParseMappingID(w, r, h.logger)
	if !ok {
		return
	}
	var req mappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	mapping := &models.CampaignMapping{
		ID:             id,
		ContainsText:   req.ContainsText,
		ProjectTypeKey: req.ProjectTypeKey,
		Priority:       req.Priority,
		IsActive:       req.IsActive == nil || *req.IsActive,
	}
	if err := h.mappingService.Update(r.Context(), mapping); err != nil {
		ServiceError(w, h.logger, "update_mapping_failed", err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, mapping); err != nil {
		h.logger.Error("Failed to encode mapping response", zap.Error(err))
	}
}

// Deactivate handles DELETE /api/campaign-mappings/{id} as a soft disable.
func (h *CampaignMappingHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id, ok := ParseMappingID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.mappingService.Deactivate(r.Context(), id); err != nil {
		ServiceError(w, h.logger, "deactivate_mapping_failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CampaignMappingHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	user, ok := auth.GetUser(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return false
	}
	if err := rbac.RequireAdmin(user); err != nil {
		ServiceError(w, h.logger, "admin_required", err)
		return false
	}
	return true
}
