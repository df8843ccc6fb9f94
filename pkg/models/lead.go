package models

import (
	"time"

	"github.com/google/uuid"
)

// Lead is the append-only record of a converted door. At most one lead exists
// per door; the register enforces this with a uniqueness constraint on the
// door key.
type Lead struct {
	ID         int64     `json:"id"`
	LeadUUID   uuid.UUID `json:"lead_uuid"`
	LocationID int64     `json:"location_id"`
	Stiege     string    `json:"stiege"`
	Stockwerk  string    `json:"stockwerk"`
	Tuere      string    `json:"tuere"`
	FirstName  string    `json:"first_name"`
	LastName   *string   `json:"last_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// LeadListing is a lead joined with its location address, as served by the
// desktop leads view.
type LeadListing struct {
	Lead
	Address string `json:"address"`
}
