package models

import (
	"fmt"
	"strings"
	"time"
)

// DoorStatusValue is the canvassing state of a single door.
type DoorStatusValue string

const (
	StatusNotOpened DoorStatusValue = "not_opened"
	StatusOpened    DoorStatusValue = "opened"
	StatusLead      DoorStatusValue = "lead"
	StatusRejection DoorStatusValue = "rejection"
)

// statusRank orders statuses for the no-downgrade rule. Lead and rejection
// share a rank: they are lateral states and either may supersede the other.
var statusRank = map[DoorStatusValue]int{
	StatusNotOpened: 0,
	StatusOpened:    1,
	StatusLead:      2,
	StatusRejection: 2,
}

// IsValidStatus checks if the given value is a known door status.
func IsValidStatus(s DoorStatusValue) bool {
	_, ok := statusRank[s]
	return ok
}

// IsValidTargetStatus checks if the given value is a status a caller may
// advance a door to. not_opened is the implicit initial state only.
func IsValidTargetStatus(s DoorStatusValue) bool {
	return s == StatusOpened || s == StatusLead || s == StatusRejection
}

// Rank returns the monotonicity rank of a status.
func Rank(s DoorStatusValue) int {
	return statusRank[s]
}

// DoorKey identifies one physical door within a location.
// Stiege, Stockwerk and Tuere are the building section, floor and door label
// as printed on site; they are opaque caller-supplied text.
type DoorKey struct {
	LocationID int64  `json:"location_id"`
	Stiege     string `json:"stiege"`
	Stockwerk  string `json:"stockwerk"`
	Tuere      string `json:"tuere"`
}

// Normalize trims surrounding whitespace from the key's text fields.
func (k DoorKey) Normalize() DoorKey {
	k.Stiege = strings.TrimSpace(k.Stiege)
	k.Stockwerk = strings.TrimSpace(k.Stockwerk)
	k.Tuere = strings.TrimSpace(k.Tuere)
	return k
}

// Validate checks that all key fields are present.
func (k DoorKey) Validate() error {
	if k.LocationID <= 0 {
		return fmt.Errorf("location_id is required")
	}
	if k.Stiege == "" {
		return fmt.Errorf("stiege is required")
	}
	if k.Stockwerk == "" {
		return fmt.Errorf("stockwerk is required")
	}
	if k.Tuere == "" {
		return fmt.Errorf("tuere is required")
	}
	return nil
}

// DoorStatus is the ledger record for one door. A door with no record is
// implicitly not_opened.
type DoorStatus struct {
	ID        int64           `json:"id"`
	Key       DoorKey         `json:"key"`
	Status    DoorStatusValue `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// DoorEvent is a door-status row joined with its location address, as served
// by the monitoring listing.
type DoorEvent struct {
	ID         int64           `json:"id"`
	LocationID int64           `json:"location_id"`
	Address    string          `json:"address"`
	Stiege     string          `json:"stiege"`
	Stockwerk  string          `json:"stockwerk"`
	Tuere      string          `json:"tuere"`
	Status     DoorStatusValue `json:"event"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
