package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/canvass-hq/canvass-engine/pkg/middleware"
	"github.com/canvass-hq/canvass-engine/pkg/models"
	"github.com/canvass-hq/canvass-engine/pkg/services"
)

// DoorRequest identifies a door within the location addressed by the path.
type DoorRequest struct {
	Stiege    string `json:"stiege"`
	Stockwerk string `json:"stockwerk"`
	Tuere     string `json:"tuere"`
}

// AdvanceStatusRequest for POST /api/locations/{lid}/doors/advance
type AdvanceStatusRequest struct {
	DoorRequest
	Event models.DoorStatusValue `json:"event"`
}

// DoorEventsResponse for GET /api/door-events
type DoorEventsResponse struct {
	Events []*models.DoorEvent `json:"events"`
}

// CanvassHandler handles door canvassing HTTP requests.
type CanvassHandler struct {
	canvassService services.CanvassService
	logger         *zap.Logger
}

// NewCanvassHandler creates a new canvass handler.
func NewCanvassHandler(canvassService services.CanvassService, logger *zap.Logger) *CanvassHandler {
	return &CanvassHandler{
		canvassService: canvassService,
		logger:         logger,
	}
}

// RegisterRoutes registers the canvass handler's routes on the given mux.
func (h *CanvassHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/locations/{lid}/doors/knock", h.Knock)
	mux.HandleFunc("POST /api/locations/{lid}/doors/advance", h.AdvanceStatus)
	mux.HandleFunc("GET /api/door-events", h.ListDoorEvents)
}

// decodeBody parses the location ID from the path and the JSON body into v.
// Writes the error response itself on failure.
func (h *CanvassHandler) decodeBody(w http.ResponseWriter, r *http.Request, v any) (int64, bool) {
	locationID, ok := ParseLocationID(w, r, h.logger)
	if !ok {
		return 0, false
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}

	return locationID, true
}

// Knock handles POST /api/locations/{lid}/doors/knock
func (h *CanvassHandler) Knock(w http.ResponseWriter, r *http.Request) {
	var req DoorRequest
	locationID, ok := h.decodeBody(w, r, &req)
	if !ok {
		return
	}
	key := models.DoorKey{LocationID: locationID, Stiege: req.Stiege, Stockwerk: req.Stockwerk, Tuere: req.Tuere}

	loc, err := h.canvassService.Knock(r.Context(), key)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	middleware.RecordKnock()

	if err := WriteJSON(w, http.StatusOK, LocationResponse{OK: true, Location: loc}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AdvanceStatus handles POST /api/locations/{lid}/doors/advance
func (h *CanvassHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	var req AdvanceStatusRequest
	locationID, ok := h.decodeBody(w, r, &req)
	if !ok {
		return
	}
	key := models.DoorKey{LocationID: locationID, Stiege: req.Stiege, Stockwerk: req.Stockwerk, Tuere: req.Tuere}

	loc, err := h.canvassService.AdvanceStatus(r.Context(), key, req.Event)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	middleware.RecordStatusAdvance(string(req.Event))

	if err := WriteJSON(w, http.StatusOK, LocationResponse{OK: true, Location: loc}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListDoorEvents handles GET /api/door-events
func (h *CanvassHandler) ListDoorEvents(w http.ResponseWriter, r *http.Request) {
	locationID, ok := ParseLocationFilter(w, r, h.logger)
	if !ok {
		return
	}

	events, err := h.canvassService.ListDoorEvents(r.Context(), locationID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, DoorEventsResponse{Events: events}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
