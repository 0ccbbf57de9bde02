package models

import (
	"time"

	"github.com/google/uuid"
)

// ReservationState represents the lifecycle state of a reservation
type ReservationState string

const (
	StateSubmitted              ReservationState = "SUBMITTED"
	StateReserved               ReservationState = "RESERVED"
	StateReservationAgreement   ReservationState = "RESERVATION_AGREEMENT"
	StateOffered                ReservationState = "OFFERED"
	StateOfferAccepted          ReservationState = "OFFER_ACCEPTED"
	StateOfferExpired           ReservationState = "OFFER_EXPIRED"
	StateAcceptedByMunicipality ReservationState = "ACCEPTED_BY_MUNICIPALITY"
	StateSold                   ReservationState = "SOLD"
	StateCanceled               ReservationState = "CANCELED"
	StateReview                 ReservationState = "REVIEW"
)

// allowedTransitions is the per-state allow-list. CANCELED is terminal.
var allowedTransitions = map[ReservationState][]ReservationState{
	StateSubmitted:              {StateReserved, StateReview, StateCanceled},
	StateReview:                 {StateSubmitted, StateReserved, StateCanceled},
	StateReserved:               {StateReservationAgreement, StateOffered, StateAcceptedByMunicipality, StateCanceled},
	StateReservationAgreement:   {StateOffered, StateCanceled},
	StateOffered:                {StateOfferAccepted, StateOfferExpired, StateCanceled},
	StateOfferAccepted:          {StateSold, StateAcceptedByMunicipality, StateCanceled},
	StateOfferExpired:           {StateOffered, StateCanceled},
	StateAcceptedByMunicipality: {StateSold, StateCanceled},
	StateSold:                   {StateCanceled},
	StateCanceled:               {},
}

// CanTransitionTo reports whether the allow-list permits moving to next.
func (s ReservationState) CanTransitionTo(next ReservationState) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether the state is one of the known lifecycle states.
func (s ReservationState) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CancellationReason explains why a reservation left the queue
type CancellationReason string

const (
	ReasonTerminated         CancellationReason = "TERMINATED"
	ReasonCanceled           CancellationReason = "CANCELED"
	ReasonContractTerminated CancellationReason = "CONTRACT_TERMINATED"
	ReasonTransferred        CancellationReason = "TRANSFERRED"
)

// Valid reports whether the reason is a known cancellation reason.
func (r CancellationReason) Valid() bool {
	switch r {
	case ReasonTerminated, ReasonCanceled, ReasonContractTerminated, ReasonTransferred:
		return true
	}
	return false
}

// Reservation represents one application-unit link's place in a unit's
// queue. Canceled reservations are kept for audit and drop out of the
// active queue view; they are never deleted.
// Maps to: apartment_reservation table
type Reservation struct {
	ID int64 `db:"id" json:"id"`

	UnitUUID uuid.UUID `db:"unit_uuid" json:"unit_uuid"`
	LinkUUID uuid.UUID `db:"link_uuid" json:"link_uuid"`

	// QueuePosition is zero-based and, over the unit's active
	// reservations, always forms the contiguous set {0..count-1}.
	QueuePosition int `db:"queue_position" json:"queue_position"`

	State ReservationState `db:"state" json:"state"`

	CancellationReason *CancellationReason `db:"cancellation_reason" json:"cancellation_reason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Active reports whether the reservation still occupies a queue position.
func (r *Reservation) Active() bool {
	return r.State != StateCanceled
}

// QueueEntry is the queue engine's view of one active reservation joined
// with the application fields that position computation needs.
type QueueEntry struct {
	ReservationID   int64             `db:"reservation_id" json:"reservation_id"`
	LinkUUID        uuid.UUID         `db:"link_uuid" json:"link_uuid"`
	ApplicationUUID uuid.UUID         `db:"application_uuid" json:"application_uuid"`
	Position        int               `db:"queue_position" json:"queue_position"`
	State           ReservationState  `db:"state" json:"state"`
	Regime          ApplicationRegime `db:"regime" json:"regime"`
	PriorityKey     int               `db:"priority_key" json:"priority_key"`
	SubmittedLate   bool              `db:"submitted_late" json:"submitted_late"`
}
