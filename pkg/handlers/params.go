package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseLeadID extracts and validates the lead ID from the URL path.
// Returns the parsed UUID and true, or writes an error response and
// returns false.
func ParseLeadID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "id", "invalid_lead_id", "Invalid lead ID format", logger)
}

// ParseUserID extracts and validates the user ID from the URL path.
func ParseUserID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "id", "invalid_user_id", "Invalid user ID format", logger)
}

// ParseOfferID extracts and validates the offer ID from the URL path.
func ParseOfferID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "id", "invalid_offer_id", "Invalid offer ID format", logger)
}

// ParseMappingID extracts the numeric campaign mapping ID from the URL path.
func ParseMappingID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	idStr := r.PathValue("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		logger.Debug("invalid mapping id", zap.String("raw", idStr))
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_mapping_id", "Invalid mapping ID format")
		return 0, false
	}
	return id, true
}

// parseUUID is the internal helper that does the actual parsing work.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		logger.Debug("invalid path parameter",
			zap.String("param", pathParam),
			zap.String("raw", idStr))
		_ = ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage)
		return uuid.Nil, false
	}
	return id, true
}
