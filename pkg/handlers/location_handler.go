package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/canvass-hq/canvass-engine/pkg/models"
	"github.com/canvass-hq/canvass-engine/pkg/services"
)

// CreateLocationRequest for POST /api/locations
type CreateLocationRequest struct {
	Address string `json:"address"`
}

// AdjustCountersRequest for POST /api/locations/{lid}/counters
type AdjustCountersRequest struct {
	Ops []models.CounterOp `json:"ops"`
}

// LocationResponse wraps a single location snapshot.
type LocationResponse struct {
	OK       bool             `json:"ok"`
	Location *models.Location `json:"location"`
}

// LocationListResponse for the location listings.
type LocationListResponse struct {
	Locations []*models.Location `json:"locations"`
}

// LocationHandler handles location HTTP requests.
type LocationHandler struct {
	locationService services.LocationService
	logger          *zap.Logger
}

// NewLocationHandler creates a new location handler.
func NewLocationHandler(locationService services.LocationService, logger *zap.Logger) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
		logger:          logger,
	}
}

// RegisterRoutes registers the location handler's routes on the given mux.
func (h *LocationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/locations", h.Create)
	mux.HandleFunc("GET /api/locations", h.List)
	mux.HandleFunc("GET /api/locations/{lid}", h.Get)
	mux.HandleFunc("POST /api/locations/{lid}/counters", h.AdjustCounters)
}

// Create handles POST /api/locations
func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	loc, err := h.locationService.Create(r.Context(), req.Address)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, LocationResponse{OK: true, Location: loc}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/locations
// With ?recent=true only the newest locations are returned, for the picker.
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		locations []*models.Location
		err       error
	)
	if r.URL.Query().Get("recent") == "true" {
		locations, err = h.locationService.ListRecent(r.Context())
	} else {
		locations, err = h.locationService.List(r.Context())
	}
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, LocationListResponse{Locations: locations}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/locations/{lid}
func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseLocationID(w, r, h.logger)
	if !ok {
		return
	}

	loc, err := h.locationService.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, LocationResponse{OK: true, Location: loc}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AdjustCounters handles POST /api/locations/{lid}/counters
func (h *LocationHandler) AdjustCounters(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseLocationID(w, r, h.logger)
	if !ok {
		return
	}

	var req AdjustCountersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	loc, err := h.locationService.AdjustCounters(r.Context(), id, req.Ops)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, LocationResponse{OK: true, Location: loc}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
