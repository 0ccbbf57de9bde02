package models

import (
	"github.com/google/uuid"
)

// Unit represents a housing unit (apartment) that applications queue for.
// Maps to: unit table
type Unit struct {
	// Unit identity, shared with the external listing service
	UnitUUID uuid.UUID `db:"unit_uuid" json:"unit_uuid"`

	// Project this unit is sold under
	ProjectUUID uuid.UUID `db:"project_uuid" json:"project_uuid"`

	// Whether the unit can still take reservations
	IsAvailable bool `db:"is_available" json:"is_available"`
}
