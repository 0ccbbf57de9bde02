package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/helcity/homesales/cmd/salesapi/models"
)

// Store is the reservation store contract consumed by the queue, state and
// lottery services. ReservationRepository implements it against Postgres;
// tests implement it in memory.
type Store interface {
	// Reservation fetches one reservation by id, canceled or not.
	Reservation(ctx context.Context, id int64) (*models.Reservation, error)

	// ReservationByLink fetches the reservation owned by a link.
	ReservationByLink(ctx context.Context, linkID uuid.UUID) (*models.Reservation, error)

	// ActiveQueue returns a unit's active reservations joined with their
	// application fields, ordered ascending by queue position.
	ActiveQueue(ctx context.Context, unitID uuid.UUID) ([]models.QueueEntry, error)

	// StateHistory returns a reservation's state transitions, oldest first.
	StateHistory(ctx context.Context, reservationID int64) ([]*models.StateChangeEvent, error)

	// WithUnit runs fn inside a transaction that holds the unit's queue
	// lock. All mutations of a unit's queue go through here; concurrent
	// calls for the same unit serialize, different units proceed in
	// parallel. Any error from fn rolls back every write.
	WithUnit(ctx context.Context, unitID uuid.UUID, fn func(q UnitQueue) error) error
}

// UnitQueue is the transactional view of one unit's reservation queue.
// Every method runs inside the transaction opened by Store.WithUnit, so a
// failure in any step discards them all.
type UnitQueue interface {
	// Reservation re-reads one reservation inside the transaction. State
	// checks must run against this view, not against a read taken before
	// the unit lock was acquired.
	Reservation(ctx context.Context, id int64) (*models.Reservation, error)

	// ActiveEntries returns the unit's active reservations ordered
	// ascending by queue position.
	ActiveEntries(ctx context.Context) ([]models.QueueEntry, error)

	// Shift adds delta (+1 on insertion, -1 on removal) to the position of
	// every active reservation at or after fromPosition, as one bulk
	// conditional update.
	Shift(ctx context.Context, fromPosition, delta int) error

	// Insert persists a new reservation at its assigned position and
	// fills in its generated id.
	Insert(ctx context.Context, res *models.Reservation) error

	// UpdatePosition moves a single reservation to a new position.
	UpdatePosition(ctx context.Context, reservationID int64, position int) error

	// UpdateState persists a state change, with an optional cancellation
	// reason when the new state is CANCELED.
	UpdateState(ctx context.Context, reservationID int64, state models.ReservationState, reason *models.CancellationReason) error

	// RecordChange appends an immutable queue change event.
	RecordChange(ctx context.Context, ev *models.ChangeEvent) error

	// RecordStateChange appends an immutable state change event.
	RecordStateChange(ctx context.Context, ev *models.StateChangeEvent) error

	// HasLotteryRun reports whether a lottery event already exists for
	// the unit.
	HasLotteryRun(ctx context.Context) (bool, error)

	// RecordLotteryEvent appends a lottery event and fills in its id.
	RecordLotteryEvent(ctx context.Context, ev *models.LotteryEvent) error

	// RecordLotteryResult appends one lottery result row.
	RecordLotteryResult(ctx context.Context, res *models.LotteryResult) error

	// RecordAudit appends an audit log entry in the same transaction as
	// the mutation it documents.
	RecordAudit(ctx context.Context, entry *models.AuditEntry) error
}
