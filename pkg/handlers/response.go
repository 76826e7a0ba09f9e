package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mrk-construction/crm-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ServiceError maps service layer errors onto HTTP status codes. Unmatched
// errors are logged and reported as a bare internal error.
func ServiceError(w http.ResponseWriter, logger *zap.Logger, errorCode string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrInvalidRole):
		_ = ErrorResponse(w, http.StatusBadRequest, errorCode, err.Error())
	case errors.Is(err, apperrors.ErrUnauthorized):
		_ = ErrorResponse(w, http.StatusUnauthorized, errorCode, err.Error())
	case errors.Is(err, apperrors.ErrForbidden):
		_ = ErrorResponse(w, http.StatusForbidden, errorCode, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		_ = ErrorResponse(w, http.StatusNotFound, errorCode, err.Error())
	case errors.Is(err, apperrors.ErrConflict):
		_ = ErrorResponse(w, http.StatusConflict, errorCode, err.Error())
	default:
		logger.Error("request failed", zap.String("error_code", errorCode), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, errorCode, "internal error")
	}
}
