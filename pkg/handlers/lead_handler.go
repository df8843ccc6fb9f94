package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/canvass-hq/canvass-engine/pkg/middleware"
	"github.com/canvass-hq/canvass-engine/pkg/models"
	"github.com/canvass-hq/canvass-engine/pkg/services"
)

// CreateLeadRequest for POST /api/leads
type CreateLeadRequest struct {
	LocationID int64   `json:"location_id"`
	Stiege     string  `json:"stiege"`
	Stockwerk  string  `json:"stockwerk"`
	Tuere      string  `json:"tuere"`
	FirstName  string  `json:"first_name"`
	LastName   *string `json:"last_name,omitempty"`
}

// CreateLeadResponse returns the created lead with the refreshed aggregate.
type CreateLeadResponse struct {
	OK       bool             `json:"ok"`
	Lead     *models.Lead     `json:"lead"`
	Location *models.Location `json:"location"`
}

// LeadListResponse for GET /api/leads
type LeadListResponse struct {
	Leads []*models.LeadListing `json:"leads"`
}

// LeadHandler handles lead HTTP requests.
type LeadHandler struct {
	canvassService services.CanvassService
	logger         *zap.Logger
}

// NewLeadHandler creates a new lead handler.
func NewLeadHandler(canvassService services.CanvassService, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{
		canvassService: canvassService,
		logger:         logger,
	}
}

// RegisterRoutes registers the lead handler's routes on the given mux.
func (h *LeadHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/leads", h.Create)
	mux.HandleFunc("GET /api/leads", h.List)
}

// Create handles POST /api/leads
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	key := models.DoorKey{
		LocationID: req.LocationID,
		Stiege:     req.Stiege,
		Stockwerk:  req.Stockwerk,
		Tuere:      req.Tuere,
	}

	lead, loc, err := h.canvassService.RecordLead(r.Context(), key, req.FirstName, req.LastName)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	middleware.RecordLeadCreated()

	if err := WriteJSON(w, http.StatusCreated, CreateLeadResponse{OK: true, Lead: lead, Location: loc}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/leads
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	locationID, ok := ParseLocationFilter(w, r, h.logger)
	if !ok {
		return
	}

	leads, err := h.canvassService.ListLeads(r.Context(), locationID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, LeadListResponse{Leads: leads}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
