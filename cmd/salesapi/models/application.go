package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/helcity/homesales/common/apperr"
)

// ApplicationRegime is the allocation policy governing an application's
// queue behavior.
type ApplicationRegime string

const (
	// RegimePriorityOrdered queues are ordered by the priority key
	// (right-of-occupancy number) at insertion time.
	RegimePriorityOrdered ApplicationRegime = "PRIORITY_ORDERED"

	// RegimeLotteryPoolA and RegimeLotteryPoolB append at the end of the
	// queue; their final order is decided by the lottery. The two pools
	// behave identically from the queue engine's perspective.
	RegimeLotteryPoolA ApplicationRegime = "LOTTERY_POOL_A"
	RegimeLotteryPoolB ApplicationRegime = "LOTTERY_POOL_B"
)

// Lottery reports whether the regime participates in the lottery draw.
func (r ApplicationRegime) Lottery() bool {
	return r == RegimeLotteryPoolA || r == RegimeLotteryPoolB
}

// Known reports whether the regime is one the queue engine supports.
func (r ApplicationRegime) Known() bool {
	return r == RegimePriorityOrdered || r.Lottery()
}

// Application represents a housing application submitted for one or more
// units.
// Maps to: application table
type Application struct {
	ApplicationUUID uuid.UUID `db:"application_uuid" json:"application_uuid"`

	Regime ApplicationRegime `db:"regime" json:"regime"`

	// PriorityKey orders priority-regime applications; smaller sorts
	// first. Ignored for lottery regimes.
	PriorityKey int `db:"priority_key" json:"priority_key"`

	// SubmittedLate partitions the priority-ordered queue: late
	// applications always sort after on-time ones, whatever their key.
	SubmittedLate bool `db:"submitted_late" json:"submitted_late"`

	IsApproved           bool   `db:"is_approved" json:"is_approved"`
	IsRejected           bool   `db:"is_rejected" json:"is_rejected"`
	RejectionDescription string `db:"rejection_description" json:"rejection_description,omitempty"`

	// HasAcceptedOffer requires IsApproved
	HasAcceptedOffer bool `db:"has_accepted_offer" json:"has_accepted_offer"`

	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
}

// Validate enforces the application flag invariants.
func (a *Application) Validate() error {
	if !a.Regime.Known() {
		return apperr.Validationf("unknown regime %q", a.Regime)
	}
	if a.IsApproved && a.IsRejected {
		return apperr.Validationf("application cannot be approved and rejected at the same time")
	}
	if a.HasAcceptedOffer && !a.IsApproved {
		return apperr.Validationf("the offer cannot be accepted before the application is approved")
	}
	return nil
}

// ApplicationUnitLink joins an application to one desired unit. Exactly one
// reservation may exist per link.
// Maps to: application_unit_link table
type ApplicationUnitLink struct {
	LinkUUID        uuid.UUID `db:"link_uuid" json:"link_uuid"`
	ApplicationUUID uuid.UUID `db:"application_uuid" json:"application_uuid"`
	UnitUUID        uuid.UUID `db:"unit_uuid" json:"unit_uuid"`
}
