package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/canvass-hq/canvass-engine/pkg/apperrors"
	"github.com/canvass-hq/canvass-engine/pkg/retry"
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
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// HandleServiceError maps a service error onto the HTTP taxonomy: validation
// (400), unknown location (404), duplicate lead / duplicate address (409),
// exhausted contention (503, retryable by the caller), everything else (500).
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var writeErr error
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		writeErr = ErrorResponse(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		writeErr = ErrorResponse(w, http.StatusNotFound, "not_found", "location not found")
	case errors.Is(err, apperrors.ErrDuplicateLead):
		writeErr = ErrorResponse(w, http.StatusConflict, "door_already_has_lead", "door already has a lead")
	case errors.Is(err, apperrors.ErrAddressExists):
		writeErr = ErrorResponse(w, http.StatusConflict, "address_exists", "address already exists")
	case errors.Is(err, apperrors.ErrConflict) || retry.IsRetryable(err):
		logger.Warn("Request lost a concurrency conflict after retries", zap.Error(err))
		writeErr = ErrorResponse(w, http.StatusServiceUnavailable, "conflict_retry", "concurrent update contention, please retry")
	default:
		logger.Error("Request failed", zap.Error(err))
		writeErr = ErrorResponse(w, http.StatusInternalServerError, "db_error", err.Error())
	}
	if writeErr != nil {
		logger.Error("Failed to write error response", zap.Error(writeErr))
	}
}
