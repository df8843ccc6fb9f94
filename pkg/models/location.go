package models

import (
	"time"

	"github.com/google/uuid"
)

// Location represents a building (or address) being canvassed, together with
// its rollup counters. Counters are only ever mutated through deltas computed
// from door-status transitions, plus the unconditional knock count.
type Location struct {
	ID          int64     `json:"id"`
	UUID        uuid.UUID `json:"uuid"`
	Address     string    `json:"address"`
	DoorCount   int       `json:"door_count"`   // knock attempts, repeats included
	DoorsOpened int       `json:"doors_opened"` // doors that reached opened or beyond
	Leads       int       `json:"leads"`        // doors currently at lead
	Rejections  int       `json:"rejections"`   // doors currently at rejection
	CreatedAt   time.Time `json:"created_at"`
}

// CounterField names a Location counter that may be adjusted manually.
type CounterField string

const (
	FieldDoorCount   CounterField = "door_count"
	FieldDoorsOpened CounterField = "doors_opened"
	FieldLeads       CounterField = "leads"
	FieldRejections  CounterField = "rejections"
)

// ValidCounterFields contains all adjustable counter fields.
var ValidCounterFields = []CounterField{FieldDoorCount, FieldDoorsOpened, FieldLeads, FieldRejections}

// IsValidCounterField checks if the given field name is adjustable.
func IsValidCounterField(field CounterField) bool {
	for _, f := range ValidCounterFields {
		if f == field {
			return true
		}
	}
	return false
}

// CounterOp is a single manual counter adjustment. The resulting value is
// clamped at zero, matching delta application.
type CounterOp struct {
	Field CounterField `json:"field"`
	Delta int          `json:"delta"`
}
