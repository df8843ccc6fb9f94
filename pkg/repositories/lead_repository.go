package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/canvass-hq/canvass-engine/pkg/apperrors"
	"github.com/canvass-hq/canvass-engine/pkg/database"
	"github.com/canvass-hq/canvass-engine/pkg/models"
)

// LeadRepository defines the interface for the lead register. The register is
// append-only; there is no update or delete path.
type LeadRepository interface {
	Insert(ctx context.Context, lead *models.Lead) error
	List(ctx context.Context, locationID *int64, limit int) ([]*models.LeadListing, error)
}

// leadRepository implements LeadRepository using PostgreSQL.
type leadRepository struct {
	db *database.DB
}

// NewLeadRepository creates a new lead repository.
func NewLeadRepository(db *database.DB) LeadRepository {
	return &leadRepository{db: db}
}

// Insert creates the lead record, generating its public identifier.
// Returns ErrDuplicateLead if the door already converted; the unique
// constraint on the door key is what enforces one lead per door.
func (r *leadRepository) Insert(ctx context.Context, lead *models.Lead) error {
	lead.LeadUUID = uuid.New()

	query := `
		INSERT INTO door_leads (lead_uuid, location_id, stiege, stockwerk, tuere, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.Querier(ctx).QueryRow(ctx, query,
		lead.LeadUUID,
		lead.LocationID,
		lead.Stiege,
		lead.Stockwerk,
		lead.Tuere,
		lead.FirstName,
		lead.LastName,
	).Scan(&lead.ID, &lead.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateLead
		}
		return fmt.Errorf("failed to insert lead: %w", err)
	}

	return nil
}

// List retrieves leads joined with their location address, newest first,
// bounded to limit.
func (r *leadRepository) List(ctx context.Context, locationID *int64, limit int) ([]*models.LeadListing, error) {
	query := `
		SELECT dl.id, dl.lead_uuid, dl.location_id, l.address, dl.stiege, dl.stockwerk, dl.tuere, dl.first_name, dl.last_name, dl.created_at
		FROM door_leads dl
		JOIN locations l ON l.id = dl.location_id`

	args := []any{}
	if locationID != nil {
		query += ` WHERE dl.location_id = $1`
		args = append(args, *locationID)
	}
	query += fmt.Sprintf(` ORDER BY dl.created_at DESC, dl.id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []*models.LeadListing
	for rows.Next() {
		var ll models.LeadListing
		err := rows.Scan(
			&ll.ID,
			&ll.LeadUUID,
			&ll.LocationID,
			&ll.Address,
			&ll.Stiege,
			&ll.Stockwerk,
			&ll.Tuere,
			&ll.FirstName,
			&ll.LastName,
			&ll.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, &ll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leads: %w", err)
	}

	return leads, nil
}

// Ensure leadRepository implements LeadRepository at compile time.
var _ LeadRepository = (*leadRepository)(nil)
