package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// ParseLocationID extracts and validates the location ID from the request path.
// Returns the parsed ID and true on success, or 0 and false on error
// (after writing an error response).
// Expects path parameter: lid
func ParseLocationID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	idStr := r.PathValue("lid")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_location_id", "Invalid location ID format"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return id, true
}

// ParseLocationFilter extracts the optional location_id query filter.
// Returns nil when the parameter is absent. A malformed value yields an error
// response and false.
func ParseLocationFilter(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*int64, bool) {
	idStr := r.URL.Query().Get("location_id")
	if idStr == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_location_id", "Invalid location_id filter"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, false
	}
	return &id, true
}
