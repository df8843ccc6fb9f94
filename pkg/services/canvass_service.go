package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/canvass-hq/canvass-engine/pkg/apperrors"
	"github.com/canvass-hq/canvass-engine/pkg/config"
	"github.com/canvass-hq/canvass-engine/pkg/database"
	"github.com/canvass-hq/canvass-engine/pkg/models"
	"github.com/canvass-hq/canvass-engine/pkg/repositories"
	"github.com/canvass-hq/canvass-engine/pkg/retry"
)

// CanvassService defines the canvassing workflow: the three entry points a
// caller needs when working a building, plus the bounded monitoring listings.
// Every mutating operation returns the refreshed location aggregate.
type CanvassService interface {
	Knock(ctx context.Context, key models.DoorKey) (*models.Location, error)
	AdvanceStatus(ctx context.Context, key models.DoorKey, to models.DoorStatusValue) (*models.Location, error)
	RecordLead(ctx context.Context, key models.DoorKey, firstName string, lastName *string) (*models.Lead, *models.Location, error)
	ListDoorEvents(ctx context.Context, locationID *int64) ([]*models.DoorEvent, error)
	ListLeads(ctx context.Context, locationID *int64) ([]*models.LeadListing, error)
}

// canvassService implements CanvassService.
type canvassService struct {
	db           database.TxRunner
	doorRepo     repositories.DoorStatusRepository
	locationRepo repositories.LocationRepository
	leadRepo     repositories.LeadRepository
	retryCfg     *retry.Config
	cfg          config.CanvassConfig
	logger       *zap.Logger
}

// NewCanvassService creates a new canvassing workflow service.
func NewCanvassService(
	db database.TxRunner,
	doorRepo repositories.DoorStatusRepository,
	locationRepo repositories.LocationRepository,
	leadRepo repositories.LeadRepository,
	cfg config.CanvassConfig,
	logger *zap.Logger,
) CanvassService {
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.TxMaxRetries

	return &canvassService{
		db:           db,
		doorRepo:     doorRepo,
		locationRepo: locationRepo,
		leadRepo:     leadRepo,
		retryCfg:     retryCfg,
		cfg:          cfg,
		logger:       logger,
	}
}

// Knock records a contact attempt at a door. The door's ledger record is
// created at not_opened if this is the first interaction, otherwise only its
// updated_at is refreshed; the location's knock count always increments,
// repeat visits included.
func (s *canvassService) Knock(ctx context.Context, key models.DoorKey) (*models.Location, error) {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err)
	}

	var loc *models.Location
	err := retry.DoIfRetryable(ctx, s.retryCfg, func() error {
		return s.db.InTx(ctx, func(ctx context.Context) error {
			_, created, err := s.doorRepo.GetOrInitForUpdate(ctx, key)
			if err != nil {
				return err
			}
			if !created {
				if err := s.doorRepo.Touch(ctx, key); err != nil {
					return err
				}
			}

			loc, err = s.locationRepo.IncrementKnockCount(ctx, key.LocationID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Door knocked",
		zap.Int64("location_id", key.LocationID),
		zap.Int("door_count", loc.DoorCount))

	return loc, nil
}

// AdvanceStatus moves a door to the requested status if the transition policy
// allows it. Downgrades are successful no-ops: the caller gets the current
// aggregate back unchanged. Legal transitions write the new status and apply
// the implied counter delta as one atomic unit.
func (s *canvassService) AdvanceStatus(ctx context.Context, key models.DoorKey, to models.DoorStatusValue) (*models.Location, error) {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err)
	}
	if !models.IsValidTargetStatus(to) {
		return nil, fmt.Errorf("%w: invalid target status %q", apperrors.ErrValidation, to)
	}

	var loc *models.Location
	err := retry.DoIfRetryable(ctx, s.retryCfg, func() error {
		return s.db.InTx(ctx, func(ctx context.Context) error {
			from, _, err := s.doorRepo.GetOrInitForUpdate(ctx, key)
			if err != nil {
				return err
			}

			delta, apply := models.ComputeTransition(from, to)
			if !apply {
				loc, err = s.locationRepo.Get(ctx, key.LocationID)
				return err
			}

			if err := s.doorRepo.SetStatus(ctx, key, to); err != nil {
				return err
			}
			loc, err = s.locationRepo.ApplyDelta(ctx, key.LocationID, delta)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	return loc, nil
}

// RecordLead converts a door: the status advances to lead (with the implied
// counter delta) and the lead is appended to the register.
//
// The status/aggregate pair commits in its own transaction before the
// register insert, so a duplicate-lead conflict never unwinds the status
// change. Calling again for an already-converted door is safe: the first
// phase is idempotent and the second surfaces ErrDuplicateLead.
func (s *canvassService) RecordLead(ctx context.Context, key models.DoorKey, firstName string, lastName *string) (*models.Lead, *models.Location, error) {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err)
	}
	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		return nil, nil, fmt.Errorf("%w: first_name is required", apperrors.ErrValidation)
	}

	var loc *models.Location
	err := retry.DoIfRetryable(ctx, s.retryCfg, func() error {
		return s.db.InTx(ctx, func(ctx context.Context) error {
			from, _, err := s.doorRepo.GetOrInitForUpdate(ctx, key)
			if err != nil {
				return err
			}

			if from == models.StatusLead {
				loc, err = s.locationRepo.Get(ctx, key.LocationID)
				return err
			}

			delta, _ := models.ComputeTransition(from, models.StatusLead)
			if err := s.doorRepo.SetStatus(ctx, key, models.StatusLead); err != nil {
				return err
			}
			loc, err = s.locationRepo.ApplyDelta(ctx, key.LocationID, delta)
			return err
		})
	})
	if err != nil {
		return nil, nil, err
	}

	lead := &models.Lead{
		LocationID: key.LocationID,
		Stiege:     key.Stiege,
		Stockwerk:  key.Stockwerk,
		Tuere:      key.Tuere,
		FirstName:  firstName,
		LastName:   lastName,
	}
	if err := s.leadRepo.Insert(ctx, lead); err != nil {
		return nil, nil, err
	}

	s.logger.Info("Lead recorded",
		zap.Int64("location_id", key.LocationID),
		zap.String("lead_uuid", lead.LeadUUID.String()))

	return lead, loc, nil
}

// ListDoorEvents returns the most recently updated door statuses, optionally
// filtered by location, bounded to the configured page size.
func (s *canvassService) ListDoorEvents(ctx context.Context, locationID *int64) ([]*models.DoorEvent, error) {
	return s.doorRepo.ListEvents(ctx, locationID, s.cfg.DoorEventsPageSize)
}

// ListLeads returns the most recent leads, optionally filtered by location,
// bounded to the configured page size.
func (s *canvassService) ListLeads(ctx context.Context, locationID *int64) ([]*models.LeadListing, error) {
	return s.leadRepo.List(ctx, locationID, s.cfg.LeadsPageSize)
}

// Ensure canvassService implements CanvassService at compile time.
var _ CanvassService = (*canvassService)(nil)
