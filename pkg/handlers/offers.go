package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mrk-construction/crm-engine/pkg/auth"
	"github.com/mrk-construction/crm-engine/pkg/models"
	"github.com/mrk-construction/crm-engine/pkg/services"
)

// maxOfferDocumentSize caps uploaded offer PDFs at 20 MiB.
const maxOfferDocumentSize = 20 << 20

// OfferHandler handles price offer endpoints including PDF documents.
type OfferHandler struct {
	offerService services.OfferService
	logger       *zap.Logger
}

// NewOfferHandler creates a new OfferHandler.
func NewOfferHandler(offerService services.OfferService, logger *zap.Logger) *OfferHandler {
	return &OfferHandler{offerService: offerService, logger: logger}
}

// RegisterRoutes registers the offer handler's routes on the given mux.
func (h *OfferHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/leads/{id}/offers", authMiddleware.RequireAuth(h.ListByLead))
	mux.HandleFunc("POST /api/leads/{id}/offers", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("PATCH /api/offers/{id}", authMiddleware.RequireAuth(h.UpdateStatus))
	mux.HandleFunc("POST /api/offers/{id}/document", authMiddleware.RequireAuth(h.UploadDocument))
	mux.HandleFunc("GET /api/offers/{id}/document", authMiddleware.RequireAuth(h.DownloadDocument))
}

// ListByLead handles GET /api/leads/{id}/offers.
func (h *OfferHandler) ListByLead(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUser(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}
	leadID, ok := ParseLeadID(w, r, h.logger)
	if !ok {
		return
	}

	offers, err := h.offerService.ListByLead(r.Context(), user, leadID)
	if err != nil {
		ServiceError(w, h.logger, "list_offers_failed", err)
		return
	}
	if offers == nil {
		offers = []*models.Offer{}
	}
	if err := WriteJSON(w, http.StatusOK, offers); err != nil {
		h.logger.Error("Failed to encode offers response", zap.Error(err))
	}
}

type createOfferRequest struct {
	AmountEstimated *float64 `json:"amount_estimated"`
}

// Create handles POST /api/leads/{id}/offers.
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUser(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}
	leadID, ok := ParseLeadID(w, r, h.logger)
	if !ok {
		return
	}

	var req createOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	offer, err := h.offerService.Create(r.Context(), user, leadID, req.AmountEstimated)
	if err != nil {
		ServiceError(w, h.logger, "create_offer_failed", err)
		return
	}
	if err := WriteJSON(w, http.StatusCreated, offer); err != nil {
		h.logger.Error("Failed to encode offer response", zap.Error(err))
	}
}

type updateOfferRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/offers/{id}.
func (h *OfferHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUser(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}
	offerID, ok := ParseOfferID(w, r, h.logger)
	if !ok {
		return
	}

	var req updateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	offer, err := h.offerService.UpdateStatus(r.Context(), user, offerID, req.Status)
	if err != nil {
		ServiceError(w, h.logger, "update_offer_failed", err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, offer); err != nil {
		h.logger.Error("Failed to encode offer response", zap.Error(err))
	}
}

// UploadDocument handles POST /api/offers/{id}/document as a multipart
// form with a "file" part.
func (h *OfferHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUser(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}
	offerID, ok := ParseOfferID(w, r, h.logger)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxOfferDocumentSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_upload", "Expected multipart form with a file part")
		return
	}
	defer file.Close()

	offer, err := h.offerService.AttachDocument(r.Context(), user, offerID, header.Filename, file)
	if err != nil {
		ServiceError(w, h.logger, "upload_document_failed", err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, offer); err != nil {
		h.logger.Error("Failed to encode offer response", zap.Error(err))
	}
}

// DownloadDocument handles GET /api/offers/{id}/document.
func (h *OfferHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUser(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}
	offerID, ok := ParseOfferID(w, r, h.logger)
	if !ok {
		return
	}

	doc, err := h.offerService.OpenDocument(r.Context(), user, offerID)
	if err != nil {
		ServiceError(w, h.logger, "download_document_failed", err)
		return
	}
	defer doc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="offer-`+offerID.String()+`.pdf"`)
	if _, err := io.Copy(w, doc); err != nil {
		h.logger.Error("Failed to stream offer document", zap.Error(err))
	}
}
