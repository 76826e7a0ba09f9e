package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mrk-construction/crm-engine/pkg/auth"
	"github.com/mrk-construction/crm-engine/pkg/repositories"
)

// ProjectTypeHandler serves the fixed project track catalog.
type ProjectTypeHandler struct {
	projectTypeRepo repositories.ProjectTypeRepository
	logger          *zap.Logger
}

// NewProjectTypeHandler creates a new ProjectTypeHandler.
func NewProjectTypeHandler(projectTypeRepo repositories.ProjectTypeRepository, logger *zap.Logger) *ProjectTypeHandler {
	return &ProjectTypeHandler{projectTypeRepo: projectTypeRepo, logger: logger}
}

// RegisterRoutes registers the project type handler's routes on the given mux.
func (h *ProjectTypeHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/project-types", authMiddleware.RequireAuth(h.List))
}

// List handles GET /api/project-types.
func (h *ProjectTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	types, err := h.projectTypeRepo.List(r.Context())
	if err != nil {
		ServiceError(w, h.logger, "list_project_types_failed", err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, types); err != nil {
		h.logger.Error("Failed to encode project types response", zap.Error(err))
	}
}
