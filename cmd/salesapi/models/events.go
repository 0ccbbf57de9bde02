package models

import (
	"time"

	"github.com/google/uuid"
)

// ChangeEventType classifies a queue mutation
type ChangeEventType string

const (
	ChangeAdded   ChangeEventType = "ADDED"
	ChangeRemoved ChangeEventType = "REMOVED"
)

// ChangeEvent is an immutable record of one queue mutation. Rows are
// append-only; nothing ever updates them.
// Maps to: queue_change_event table
type ChangeEvent struct {
	ID            int64           `db:"id" json:"id"`
	ReservationID int64           `db:"reservation_id" json:"reservation_id"`
	Type          ChangeEventType `db:"type" json:"type"`
	Comment       string          `db:"comment" json:"comment,omitempty"`
	Timestamp     time.Time       `db:"timestamp" json:"timestamp"`
}

// StateChangeEvent is an immutable record of one reservation state
// transition.
// Maps to: state_change_event table
type StateChangeEvent struct {
	ID            int64               `db:"id" json:"id"`
	ReservationID int64               `db:"reservation_id" json:"reservation_id"`
	FromState     ReservationState    `db:"from_state" json:"from_state"`
	ToState       ReservationState    `db:"to_state" json:"to_state"`
	Actor         string              `db:"actor" json:"actor,omitempty"`
	Comment       string              `db:"comment" json:"comment,omitempty"`
	Reason        *CancellationReason `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	Timestamp     time.Time           `db:"timestamp" json:"timestamp"`
}

// LotteryEvent records one execution of the lottery for a unit. The seed
// makes the draw reproducible for audit.
// Maps to: lottery_event table
type LotteryEvent struct {
	ID        int64     `db:"id" json:"id"`
	UnitUUID  uuid.UUID `db:"unit_uuid" json:"unit_uuid"`
	Seed      int64     `db:"seed" json:"seed"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// LotteryResult records the final position the lottery assigned to one
// application-unit link. Unique per (event, link).
// Maps to: lottery_result table
type LotteryResult struct {
	EventID        int64     `db:"event_id" json:"event_id"`
	LinkUUID       uuid.UUID `db:"link_uuid" json:"link_uuid"`
	ResultPosition int       `db:"result_position" json:"result_position"`
}
