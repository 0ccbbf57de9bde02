package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helcity/homesales/cmd/salesapi/models"
	"github.com/helcity/homesales/common/db"
)

// ReservationRepository handles database operations for reservations and
// implements Store against Postgres.
type ReservationRepository struct {
	db *db.DB
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(database *db.DB) *ReservationRepository {
	return &ReservationRepository{db: database}
}

const reservationColumns = `id, unit_uuid, link_uuid, queue_position, state, cancellation_reason, created_at`

// Reservation fetches one reservation by id
func (r *ReservationRepository) Reservation(ctx context.Context, id int64) (*models.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM apartment_reservation
		WHERE id = $1
	`

	return scanReservation(r.db.QueryRow(ctx, query, id))
}

// ReservationByLink fetches the reservation owned by an application-unit link
func (r *ReservationRepository) ReservationByLink(ctx context.Context, linkID uuid.UUID) (*models.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM apartment_reservation
		WHERE link_uuid = $1
	`

	return scanReservation(r.db.QueryRow(ctx, query, linkID))
}

func scanReservation(row pgx.Row) (*models.Reservation, error) {
	res := &models.Reservation{}
	err := row.Scan(
		&res.ID,
		&res.UnitUUID,
		&res.LinkUUID,
		&res.QueuePosition,
		&res.State,
		&res.CancellationReason,
		&res.CreatedAt,
	)
	if err != nil {
		return nil, db.TranslateError(fmt.Errorf("get reservation: %w", err))
	}

	return res, nil
}

// ActiveQueue returns a unit's active reservations ordered by position
func (r *ReservationRepository) ActiveQueue(ctx context.Context, unitID uuid.UUID) ([]models.QueueEntry, error) {
	return queryActiveEntries(ctx, r.db, unitID)
}

// StateHistory returns a reservation's state transitions, oldest first
func (r *ReservationRepository) StateHistory(ctx context.Context, reservationID int64) ([]*models.StateChangeEvent, error) {
	query := `
		SELECT id, reservation_id, from_state, to_state, actor, comment, cancellation_reason, timestamp
		FROM state_change_event
		WHERE reservation_id = $1
		ORDER BY id ASC
	`

	rows, err := r.db.Query(ctx, query, reservationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get state history: %w", err)
	}
	defer rows.Close()

	var events []*models.StateChangeEvent
	for rows.Next() {
		ev := &models.StateChangeEvent{}
		err := rows.Scan(
			&ev.ID,
			&ev.ReservationID,
			&ev.FromState,
			&ev.ToState,
			&ev.Actor,
			&ev.Comment,
			&ev.Reason,
			&ev.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan state change event: %w", err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating state history: %w", err)
	}

	return events, nil
}

// WithUnit runs fn inside a transaction holding the unit's queue lock.
// The advisory lock serializes every shift on the same unit; the lock
// timeout set by db.WithTx turns contention into a retriable conflict.
func (r *ReservationRepository) WithUnit(ctx context.Context, unitID uuid.UUID, fn func(q UnitQueue) error) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
		if _, err := tx.Exec(ctx, query, unitID.String()); err != nil {
			return fmt.Errorf("lock unit queue: %w", err)
		}

		return fn(&unitQueue{tx: tx, unitID: unitID})
	})
}

// unitQueue implements UnitQueue over an open transaction
type unitQueue struct {
	tx     pgx.Tx
	unitID uuid.UUID
}

// Reservation re-reads one reservation inside the transaction
func (q *unitQueue) Reservation(ctx context.Context, id int64) (*models.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM apartment_reservation
		WHERE id = $1
	`

	return scanReservation(q.tx.QueryRow(ctx, query, id))
}

// ActiveEntries returns the unit's active reservations ordered by position
func (q *unitQueue) ActiveEntries(ctx context.Context) ([]models.QueueEntry, error) {
	return queryActiveEntries(ctx, q.tx, q.unitID)
}

// Shift moves every active position at or after fromPosition by delta as
// one bulk conditional update, never a per-row read-modify-write loop.
func (q *unitQueue) Shift(ctx context.Context, fromPosition, delta int) error {
	query := `
		UPDATE apartment_reservation
		SET queue_position = queue_position + $3
		WHERE unit_uuid = $1 AND state <> $4 AND queue_position >= $2
	`

	_, err := q.tx.Exec(ctx, query, q.unitID, fromPosition, delta, models.StateCanceled)
	if err != nil {
		return fmt.Errorf("failed to shift queue positions: %w", err)
	}

	return nil
}

// Insert persists a new reservation and fills in its generated id
func (q *unitQueue) Insert(ctx context.Context, res *models.Reservation) error {
	query := `
		INSERT INTO apartment_reservation (unit_uuid, link_uuid, queue_position, state, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`

	err := q.tx.QueryRow(ctx, query,
		res.UnitUUID,
		res.LinkUUID,
		res.QueuePosition,
		res.State,
	).Scan(&res.ID, &res.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	return nil
}

// UpdatePosition moves a single reservation to a new position
func (q *unitQueue) UpdatePosition(ctx context.Context, reservationID int64, position int) error {
	query := `
		UPDATE apartment_reservation
		SET queue_position = $2
		WHERE id = $1
	`

	tag, err := q.tx.Exec(ctx, query, reservationID, position)
	if err != nil {
		return fmt.Errorf("failed to update queue position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reservation %d not found", reservationID)
	}

	return nil
}

// UpdateState persists a state change with an optional cancellation reason
func (q *unitQueue) UpdateState(ctx context.Context, reservationID int64, state models.ReservationState, reason *models.CancellationReason) error {
	query := `
		UPDATE apartment_reservation
		SET state = $2, cancellation_reason = $3
		WHERE id = $1
	`

	tag, err := q.tx.Exec(ctx, query, reservationID, state, reason)
	if err != nil {
		return fmt.Errorf("failed to update reservation state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reservation %d not found", reservationID)
	}

	return nil
}

// RecordChange appends an immutable queue change event
func (q *unitQueue) RecordChange(ctx context.Context, ev *models.ChangeEvent) error {
	query := `
		INSERT INTO queue_change_event (reservation_id, type, comment)
		VALUES ($1, $2, $3)
		RETURNING id, timestamp
	`

	err := q.tx.QueryRow(ctx, query, ev.ReservationID, ev.Type, ev.Comment).
		Scan(&ev.ID, &ev.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to record change event: %w", err)
	}

	return nil
}

// RecordStateChange appends an immutable state change event
func (q *unitQueue) RecordStateChange(ctx context.Context, ev *models.StateChangeEvent) error {
	query := `
		INSERT INTO state_change_event (reservation_id, from_state, to_state, actor, comment, cancellation_reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, timestamp
	`

	err := q.tx.QueryRow(ctx, query,
		ev.ReservationID,
		ev.FromState,
		ev.ToState,
		ev.Actor,
		ev.Comment,
		ev.Reason,
	).Scan(&ev.ID, &ev.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to record state change event: %w", err)
	}

	return nil
}

// HasLotteryRun reports whether a lottery event exists for the unit
func (q *unitQueue) HasLotteryRun(ctx context.Context) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM lottery_event WHERE unit_uuid = $1)`

	var exists bool
	if err := q.tx.QueryRow(ctx, query, q.unitID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check lottery event existence: %w", err)
	}

	return exists, nil
}

// RecordLotteryEvent appends a lottery event and fills in its id
func (q *unitQueue) RecordLotteryEvent(ctx context.Context, ev *models.LotteryEvent) error {
	query := `
		INSERT INTO lottery_event (unit_uuid, seed)
		VALUES ($1, $2)
		RETURNING id, timestamp
	`

	err := q.tx.QueryRow(ctx, query, ev.UnitUUID, ev.Seed).Scan(&ev.ID, &ev.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to record lottery event: %w", err)
	}

	return nil
}

// RecordLotteryResult appends one lottery result row
func (q *unitQueue) RecordLotteryResult(ctx context.Context, res *models.LotteryResult) error {
	query := `
		INSERT INTO lottery_result (event_id, link_uuid, result_position)
		VALUES ($1, $2, $3)
	`

	_, err := q.tx.Exec(ctx, query, res.EventID, res.LinkUUID, res.ResultPosition)
	if err != nil {
		return fmt.Errorf("failed to record lottery result: %w", err)
	}

	return nil
}

// RecordAudit appends an audit log entry inside the transaction
func (q *unitQueue) RecordAudit(ctx context.Context, entry *models.AuditEntry) error {
	return insertAuditEntry(ctx, q.tx, entry)
}

// queryActiveEntries is shared by the pool-level and transactional reads
func queryActiveEntries(ctx context.Context, querier db.Querier, unitID uuid.UUID) ([]models.QueueEntry, error) {
	query := `
		SELECT r.id, r.link_uuid, l.application_uuid, r.queue_position, r.state,
		       a.regime, a.priority_key, a.submitted_late
		FROM apartment_reservation r
		JOIN application_unit_link l ON l.link_uuid = r.link_uuid
		JOIN application a ON a.application_uuid = l.application_uuid
		WHERE r.unit_uuid = $1 AND r.state <> $2
		ORDER BY r.queue_position ASC
	`

	rows, err := querier.Query(ctx, query, unitID, models.StateCanceled)
	if err != nil {
		return nil, fmt.Errorf("failed to list active queue: %w", err)
	}
	defer rows.Close()

	var entries []models.QueueEntry
	for rows.Next() {
		var entry models.QueueEntry
		err := rows.Scan(
			&entry.ReservationID,
			&entry.LinkUUID,
			&entry.ApplicationUUID,
			&entry.Position,
			&entry.State,
			&entry.Regime,
			&entry.PriorityKey,
			&entry.SubmittedLate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue entries: %w", err)
	}

	return entries, nil
}
