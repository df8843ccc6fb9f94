package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/canvass-hq/canvass-engine/pkg/apperrors"
	"github.com/canvass-hq/canvass-engine/pkg/database"
	"github.com/canvass-hq/canvass-engine/pkg/models"
)

// LocationRepository defines the interface for location and aggregate-counter
// data access. Counter mutations are single atomic UPDATE expressions so that
// concurrent deltas for the same location serialize inside the database
// instead of racing through read-modify-write cycles.
type LocationRepository interface {
	Create(ctx context.Context, address string) (*models.Location, error)
	Get(ctx context.Context, id int64) (*models.Location, error)
	List(ctx context.Context) ([]*models.Location, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Location, error)
	IncrementKnockCount(ctx context.Context, id int64) (*models.Location, error)
	ApplyDelta(ctx context.Context, id int64, delta models.AggregateDelta) (*models.Location, error)
	AdjustCounters(ctx context.Context, id int64, ops []models.CounterOp) (*models.Location, error)
}

// locationRepository implements LocationRepository using PostgreSQL.
type locationRepository struct {
	db *database.DB
}

// NewLocationRepository creates a new location repository.
func NewLocationRepository(db *database.DB) LocationRepository {
	return &locationRepository{db: db}
}

const locationColumns = `id, uuid, address, door_count, doors_opened, leads, rejections, created_at`

func scanLocation(row pgx.Row) (*models.Location, error) {
	var loc models.Location
	err := row.Scan(
		&loc.ID,
		&loc.UUID,
		&loc.Address,
		&loc.DoorCount,
		&loc.DoorsOpened,
		&loc.Leads,
		&loc.Rejections,
		&loc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isForeignKeyViolation reports whether err is a Postgres foreign-key error.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// Create inserts a new location with zeroed counters.
// Returns ErrAddressExists when the address is already registered.
func (r *locationRepository) Create(ctx context.Context, address string) (*models.Location, error) {
	query := `
		INSERT INTO locations (uuid, address)
		VALUES ($1, $2)
		RETURNING ` + locationColumns

	loc, err := scanLocation(r.db.Querier(ctx).QueryRow(ctx, query, uuid.New(), address))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrAddressExists
		}
		return nil, fmt.Errorf("failed to create location: %w", err)
	}

	return loc, nil
}

// Get retrieves a location with its current counters.
func (r *locationRepository) Get(ctx context.Context, id int64) (*models.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`

	loc, err := scanLocation(r.db.Querier(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get location: %w", err)
	}

	return loc, nil
}

// List retrieves all locations, newest first.
func (r *locationRepository) List(ctx context.Context) ([]*models.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations ORDER BY id DESC`

	return r.queryLocations(ctx, query)
}

// ListRecent retrieves the most recently created locations, bounded to limit.
func (r *locationRepository) ListRecent(ctx context.Context, limit int) ([]*models.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations ORDER BY id DESC LIMIT $1`

	return r.queryLocations(ctx, query, limit)
}

func (r *locationRepository) queryLocations(ctx context.Context, query string, args ...any) ([]*models.Location, error) {
	rows, err := r.db.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	var locations []*models.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read locations: %w", err)
	}

	return locations, nil
}

// IncrementKnockCount adds one knock attempt, unconditionally. Every physical
// knock counts, including repeat visits to a door in a terminal state.
func (r *locationRepository) IncrementKnockCount(ctx context.Context, id int64) (*models.Location, error) {
	query := `
		UPDATE locations
		SET door_count = door_count + 1
		WHERE id = $1
		RETURNING ` + locationColumns

	loc, err := scanLocation(r.db.Querier(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to increment knock count: %w", err)
	}

	return loc, nil
}

// ApplyDelta applies a transition delta to the location counters. Each field
// is adjusted atomically and floored at zero; the clamp is a safety net only,
// real decrements always pair with an earlier matching increment.
func (r *locationRepository) ApplyDelta(ctx context.Context, id int64, delta models.AggregateDelta) (*models.Location, error) {
	query := `
		UPDATE locations
		SET doors_opened = GREATEST(0, doors_opened + $2),
		    leads = GREATEST(0, leads + $3),
		    rejections = GREATEST(0, rejections + $4)
		WHERE id = $1
		RETURNING ` + locationColumns

	loc, err := scanLocation(r.db.Querier(ctx).QueryRow(ctx, query, id, delta.DoorsOpened, delta.Leads, delta.Rejections))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to apply aggregate delta: %w", err)
	}

	return loc, nil
}

// AdjustCounters applies manual counter corrections. Ops on the same field
// accumulate before the single atomic write; every field is floored at zero.
func (r *locationRepository) AdjustCounters(ctx context.Context, id int64, ops []models.CounterOp) (*models.Location, error) {
	deltas := map[models.CounterField]int{}
	for _, op := range ops {
		deltas[op.Field] += op.Delta
	}

	query := `
		UPDATE locations
		SET door_count = GREATEST(0, door_count + $2),
		    doors_opened = GREATEST(0, doors_opened + $3),
		    leads = GREATEST(0, leads + $4),
		    rejections = GREATEST(0, rejections + $5)
		WHERE id = $1
		RETURNING ` + locationColumns

	loc, err := scanLocation(r.db.Querier(ctx).QueryRow(ctx, query, id,
		deltas[models.FieldDoorCount],
		deltas[models.FieldDoorsOpened],
		deltas[models.FieldLeads],
		deltas[models.FieldRejections],
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to adjust counters: %w", err)
	}

	return loc, nil
}

// Ensure locationRepository implements LocationRepository at compile time.
var _ LocationRepository = (*locationRepository)(nil)
