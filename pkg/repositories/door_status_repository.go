package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/canvass-hq/canvass-engine/pkg/apperrors"
	"github.com/canvass-hq/canvass-engine/pkg/database"
	"github.com/canvass-hq/canvass-engine/pkg/models"
)

// DoorStatusRepository defines the interface for the door-status ledger.
//
// GetOrInitForUpdate must run inside a transaction: the row lock it takes is
// what serializes concurrent workflow operations on the same door, and it only
// lives as long as the transaction does.
type DoorStatusRepository interface {
	GetOrInitForUpdate(ctx context.Context, key models.DoorKey) (status models.DoorStatusValue, created bool, err error)
	Touch(ctx context.Context, key models.DoorKey) error
	SetStatus(ctx context.Context, key models.DoorKey, status models.DoorStatusValue) error
	ListEvents(ctx context.Context, locationID *int64, limit int) ([]*models.DoorEvent, error)
}

// doorStatusRepository implements DoorStatusRepository using PostgreSQL.
type doorStatusRepository struct {
	db *database.DB
}

// NewDoorStatusRepository creates a new door-status repository.
func NewDoorStatusRepository(db *database.DB) DoorStatusRepository {
	return &doorStatusRepository{db: db}
}

// GetOrInitForUpdate returns the door's current status with its row locked,
// creating the record at not_opened if the door has never been touched.
//
// The insert uses ON CONFLICT DO NOTHING so two callers hitting a brand-new
// door cannot create divergent rows: the loser of the insert race simply
// re-reads (and blocks on) the winner's row. The bounded loop only cycles
// when a competing transaction inserts and then is rolled back between our
// select and insert, which contention makes vanishingly rare.
func (r *doorStatusRepository) GetOrInitForUpdate(ctx context.Context, key models.DoorKey) (models.DoorStatusValue, bool, error) {
	q := r.db.Querier(ctx)

	selectQuery := `
		SELECT status FROM door_status
		WHERE location_id = $1 AND stiege = $2 AND stockwerk = $3 AND tuere = $4
		FOR UPDATE`

	insertQuery := `
		INSERT INTO door_status (location_id, stiege, stockwerk, tuere, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (location_id, stiege, stockwerk, tuere) DO NOTHING
		RETURNING status`

	var status models.DoorStatusValue
	for attempt := 0; attempt < 3; attempt++ {
		err := q.QueryRow(ctx, selectQuery, key.LocationID, key.Stiege, key.Stockwerk, key.Tuere).Scan(&status)
		if err == nil {
			return status, false, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return "", false, fmt.Errorf("failed to read door status: %w", err)
		}

		err = q.QueryRow(ctx, insertQuery, key.LocationID, key.Stiege, key.Stockwerk, key.Tuere, models.StatusNotOpened).Scan(&status)
		if err == nil {
			return status, true, nil
		}
		if isForeignKeyViolation(err) {
			// The referenced location does not exist.
			return "", false, apperrors.ErrNotFound
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return "", false, fmt.Errorf("failed to init door status: %w", err)
		}
		// Insert hit a concurrent row; select again.
	}

	return "", false, fmt.Errorf("door status init contention: %w", apperrors.ErrConflict)
}

// Touch refreshes updated_at without changing the status. Used when a door is
// knocked again but its status is not advancing.
func (r *doorStatusRepository) Touch(ctx context.Context, key models.DoorKey) error {
	query := `
		UPDATE door_status
		SET updated_at = now()
		WHERE location_id = $1 AND stiege = $2 AND stockwerk = $3 AND tuere = $4`

	result, err := r.db.Querier(ctx).Exec(ctx, query, key.LocationID, key.Stiege, key.Stockwerk, key.Tuere)
	if err != nil {
		return fmt.Errorf("failed to touch door status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// SetStatus writes the new status unconditionally. Whether the write is legal
// is the transition policy's decision, made before this is called.
func (r *doorStatusRepository) SetStatus(ctx context.Context, key models.DoorKey, status models.DoorStatusValue) error {
	query := `
		UPDATE door_status
		SET status = $5, updated_at = now()
		WHERE location_id = $1 AND stiege = $2 AND stockwerk = $3 AND tuere = $4`

	result, err := r.db.Querier(ctx).Exec(ctx, query, key.LocationID, key.Stiege, key.Stockwerk, key.Tuere, status)
	if err != nil {
		return fmt.Errorf("failed to set door status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// ListEvents retrieves door-status rows joined with their location address,
// most recently updated first, bounded to limit. The bound is a pragmatic cap
// for the monitoring view; there is no cursor.
func (r *doorStatusRepository) ListEvents(ctx context.Context, locationID *int64, limit int) ([]*models.DoorEvent, error) {
	query := `
		SELECT ds.id, ds.location_id, l.address, ds.stiege, ds.stockwerk, ds.tuere, ds.status, ds.created_at, ds.updated_at
		FROM door_status ds
		JOIN locations l ON l.id = ds.location_id`

	args := []any{}
	if locationID != nil {
		query += ` WHERE ds.location_id = $1`
		args = append(args, *locationID)
	}
	query += fmt.Sprintf(` ORDER BY ds.updated_at DESC, ds.id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list door events: %w", err)
	}
	defer rows.Close()

	var events []*models.DoorEvent
	for rows.Next() {
		var ev models.DoorEvent
		err := rows.Scan(
			&ev.ID,
			&ev.LocationID,
			&ev.Address,
			&ev.Stiege,
			&ev.Stockwerk,
			&ev.Tuere,
			&ev.Status,
			&ev.CreatedAt,
			&ev.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan door event: %w", err)
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read door events: %w", err)
	}

	return events, nil
}

// Ensure doorStatusRepository implements DoorStatusRepository at compile time.
var _ DoorStatusRepository = (*doorStatusRepository)(nil)
