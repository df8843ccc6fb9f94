package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/canvass-hq/canvass-engine/pkg/apperrors"
	"github.com/canvass-hq/canvass-engine/pkg/models"
	"github.com/canvass-hq/canvass-engine/pkg/repositories"
)

// LocationService defines the interface for location operations.
type LocationService interface {
	Create(ctx context.Context, address string) (*models.Location, error)
	Get(ctx context.Context, id int64) (*models.Location, error)
	List(ctx context.Context) ([]*models.Location, error)
	ListRecent(ctx context.Context) ([]*models.Location, error)
	AdjustCounters(ctx context.Context, id int64, ops []models.CounterOp) (*models.Location, error)
}

// locationService implements LocationService.
type locationService struct {
	locationRepo repositories.LocationRepository
	recentLimit  int
	logger       *zap.Logger
}

// NewLocationService creates a new location service with dependencies.
func NewLocationService(locationRepo repositories.LocationRepository, recentLimit int, logger *zap.Logger) LocationService {
	return &locationService{
		locationRepo: locationRepo,
		recentLimit:  recentLimit,
		logger:       logger,
	}
}

// Create registers a new canvassing location by address.
func (s *locationService) Create(ctx context.Context, address string) (*models.Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("%w: address is required", apperrors.ErrValidation)
	}

	loc, err := s.locationRepo.Create(ctx, address)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Location created",
		zap.Int64("location_id", loc.ID),
		zap.String("uuid", loc.UUID.String()))

	return loc, nil
}

// Get retrieves a location with its current counters.
func (s *locationService) Get(ctx context.Context, id int64) (*models.Location, error) {
	return s.locationRepo.Get(ctx, id)
}

// List retrieves all locations with their counters, newest first.
func (s *locationService) List(ctx context.Context) ([]*models.Location, error) {
	return s.locationRepo.List(ctx)
}

// ListRecent retrieves the most recently created locations for the picker.
func (s *locationService) ListRecent(ctx context.Context) ([]*models.Location, error) {
	return s.locationRepo.ListRecent(ctx, s.recentLimit)
}

// AdjustCounters applies manual, clamped counter corrections.
func (s *locationService) AdjustCounters(ctx context.Context, id int64, ops []models.CounterOp) (*models.Location, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("%w: at least one counter op is required", apperrors.ErrValidation)
	}
	for _, op := range ops {
		if !models.IsValidCounterField(op.Field) {
			return nil, fmt.Errorf("%w: unknown counter field %q", apperrors.ErrValidation, op.Field)
		}
	}

	return s.locationRepo.AdjustCounters(ctx, id, ops)
}

// Ensure locationService implements LocationService at compile time.
var _ LocationService = (*locationService)(nil)
