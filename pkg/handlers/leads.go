package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrk-construction/crm-engine/pkg/auth"
	"github.com/mrk-construction/crm-engine/pkg/metrics"
	"github.com/mrk-construction/crm-engine/pkg/models"
	"github.com/mrk-construction/crm-engine/pkg/services"
)

// LeadHandler handles lead CRUD, listing and lifecycle endpoints.
type LeadHandler struct {
	leadService services.LeadService
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewLeadHandler creates a new LeadHandler.
func NewLeadHandler(leadService services.LeadService, m *metrics.Metrics, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{leadService: leadService, metrics: m, logger: logger}
}

// RegisterRoutes registers the lead handler's routes on the given mux.
func (h *LeadHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/leads", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/leads", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/leads/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PATCH /api/leads/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("POST /api/leads/{id}/transition", authMiddleware.RequireAuth(h.Transition))
	mux.HandleFunc("POST /api/leads/{id}/assign-closer", authMiddleware.RequireAuth(h.AssignCloser))
	mux.HandleFunc("GET /api/leads/{id}/history", authMiddleware.RequireAuth(h.History))
}

// List handles GET /api/leads with filter and pagination query params.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUser(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}

	q := r.URL.Query()
	input := services.LeadListInput{
		Search: q.Get("search"),
	}
	if v := q.Get("status"); v != "" {
		input.Status = &v
	}
	if v := q.Get("temperature"); v != "" {
		input.Temperature = &v
	}
	if v := q.Get("source"); v != "" {
		input.Source = &v
	}
	input.ProjectTypeKey = q.Get("project_type")
	if v := q.Get("project_type_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 16)
		if err != nil {
			_ = ErrorResponse(w, http.StatusBadRequest, "invalid_project_type", "project_type_id must be numeric")
			return
		}
		typeID := int16(id)
		input.ProjectTypeID = &typeID
	}
	if v := q.Get("bot_completed"); v != "" {
		completed := v == "true"
		input.BotCompleted = &completed
	}
	if v := q.Get("assignee_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			_ = ErrorResponse(w, http.StatusBadRequest, "invalid_assignee_id", "Invalid assignee ID format")
			return
		}
		input.AssigneeID = &id
	}
	if v := q.Get("page"); v != "" {
		input.Page, _ = strconv.Atoi(v)
	}
	if v := q.Get("page_size"); v != "" {
		input.PageSize, _ = strconv.Atoi(v)
	}

	page, err := h.leadService.List(r.Context(), user, input)
	if err != nil {
		ServiceError(w, h.logger, "list_leads_failed", err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, page); err != nil {
		h.logger.Error("Failed to encode leads response", zap.Error(err))
	}
}

// Get handles GET /api/leads/{id}.
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUser(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}
	leadID, ok := ParseLeadID(w, r, h.logger)
	if !ok {
		return
	}

	lead, err := h.leadService.Get(r.Context(), user, leadID)
	if err != nil {
		ServiceError(w, h.logger, "get_lead_failed", err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, lead); err != nil {
		h.logger.Error("Failed to encode lead response", zap.Error(err))
	}
}

type createLeadRequest struct {
	FullName      string  `json:"full_name"`
	Phone         string  `json:"phone"`
	Email         *string `json:"email"`
	City          *string `json:"city"`
	Street        *string `json:"street"`
	Temperature   *string `json:"temperature"`
	ProjectTypeID int16   `json:"project_type_id"`
}

// Create handles POST /api/leads for manual lead entry.
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUser(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}

	var req createLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	lead := &models.Lead{
		FullName:      req.FullName,
		Phone:         req.Phone,
		Email:         req.Email,
		City:          req.City,
		Street:        req.Street,
		Temperature:   req.Temperature,
		ProjectTypeID: req.ProjectTypeID,
	}
	if err := h.leadService.Create(r.Context(), user, lead); err != nil {
		ServiceError(w, h.logger, "create_lead_failed", err)
		return
	}
	if err := WriteJSON(w, http.StatusCreated, lead); err != nil {
		h.logger.Error("Failed to encode lead response", zap.Error(err))
	}
}

type updateLeadRequest struct {
	FullName      *string    `json:"full_name"`
	Phone         *string    `json:"phone"`
	Email         *string    `json:"email"`
	City          *string    `json:"city"`
	Street        *string    `json:"street"`
	Temperature   *string    `json:"temperature"`
	ProjectTypeID *int16     `json:"project_type_id"`
	QualifierID   *uuid.UUID `json:"qualifier_id"`
	CloserID      *uuid.UUID `json:"closer_id"`
}

// Update handles PATCH /api/leads/{id}.
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUser(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}
	leadID, ok := ParseLeadID(w, r, h.logger)
	if !ok {
		return
	}

	var req updateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	lead, err := h.leadService.Update(r.Context(), user, leadID, services.LeadUpdateInput{
		FullName:      req.FullName,
		Phone:         req.Phone,
		Email:         req.Email,
		City:          req.City,
		Street:        req.Street,
		Temperature:   req.Temperature,
		ProjectTypeID: req.ProjectTypeID,
		QualifierID:   req.QualifierID,
		CloserID:      req.CloserID,
	})
	if err != nil {
		ServiceError(w, h.logger, "update_lead_failed", err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, lead); err != nil {
		h.logger.Error("Failed to encode lead response", zap.Error(err))
	}
}

type transitionRequest struct {
	Status string `json:"status"`
}

// Transition handles POST /api/leads/{id}/transition.
func (h *LeadHandler) Transition(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUser(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}
	leadID, ok := ParseLeadID(w, r, h.logger)
	if !ok {
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	lead, err := h.leadService.Transition(r.Context(), user, leadID, req.Status)
	if err != nil {
		ServiceError(w, h.logger, "transition_failed", err)
		return
	}
	h.metrics.LeadTransitions.WithLabelValues(req.Status).Inc()

	if err := WriteJSON(w, http.StatusOK, lead); err != nil {
		h.logger.Error("Failed to encode lead response", zap.Error(err))
	}
}

type assignCloserRequest struct {
	CloserID uuid.UUID `json:"closer_id"`
}

// AssignCloser handles POST /api/leads/{id}/assign-closer.
func (h *LeadHandler) AssignCloser(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUser(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}
	leadID, ok := ParseLeadID(w, r, h.logger)
	if !ok {
		return
	}

	var req assignCloserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.CloserID == uuid.Nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_closer_id", "closer_id is required")
		return
	}

	lead, err := h.leadService.AssignCloser(r.Context(), user, leadID, req.CloserID)
	if err != nil {
		ServiceError(w, h.logger, "assign_closer_failed", err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, lead); err != nil {
		h.logger.Error("Failed to encode lead response", zap.Error(err))
	}
}

// History handles GET /api/leads/{id}/history.
func (h *LeadHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUser(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}
	leadID, ok := ParseLeadID(w, r, h.logger)
	if !ok {
		return
	}

	history, err := h.leadService.History(r.Context(), user, leadID)
	if err != nil {
		ServiceError(w, h.logger, "get_history_failed", err)
		return
	}
	if history == nil {
		history = []*models.LeadStatusHistory{}
	}
	if err := WriteJSON(w, http.StatusOK, history); err != nil {
		h.logger.Error("Failed to encode history response", zap.Error(err))
	}
}
