package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/helcity/homesales/cmd/salesapi/models"
	"github.com/helcity/homesales/cmd/salesapi/repository"
	"github.com/helcity/homesales/common/apperr"
	"github.com/helcity/homesales/common/logger"
	"github.com/helcity/homesales/common/queue"
)

// QueueService owns a unit's active reservation set: it assigns insertion
// positions, keeps positions contiguous across adds and removals, and
// records a change event for every mutation.
type QueueService struct {
	store repository.Store
	bus   queue.Queue
	log   *logger.Logger
}

// NewQueueService creates a new queue service
func NewQueueService(store repository.Store, bus queue.Queue, log *logger.Logger) *QueueService {
	return &QueueService{
		store: store,
		bus:   bus,
		log:   log,
	}
}

// AddApplicationToQueue adds the application to the queues of all the
// units it applied to. Each unit's add sequence (compute position, shift,
// insert, change event, audit entry) runs as one transaction.
func (s *QueueService) AddApplicationToQueue(ctx context.Context, app *models.Application, links []*models.ApplicationUnitLink, actor, comment string) error {
	if err := app.Validate(); err != nil {
		return err
	}

	for _, link := range links {
		var created models.Reservation

		err := s.store.WithUnit(ctx, link.UnitUUID, func(q repository.UnitQueue) error {
			entries, err := q.ActiveEntries(ctx)
			if err != nil {
				return err
			}

			position, err := insertionPosition(entries, app)
			if err != nil {
				return err
			}

			if position < len(entries) {
				if err := q.Shift(ctx, position, +1); err != nil {
					return err
				}
			}

			created = models.Reservation{
				UnitUUID:      link.UnitUUID,
				LinkUUID:      link.LinkUUID,
				QueuePosition: position,
				State:         models.StateSubmitted,
			}
			if err := q.Insert(ctx, &created); err != nil {
				return err
			}

			if err := q.RecordChange(ctx, &models.ChangeEvent{
				ReservationID: created.ID,
				Type:          models.ChangeAdded,
				Comment:       comment,
			}); err != nil {
				return err
			}

			return q.RecordAudit(ctx, &models.AuditEntry{
				Actor:     actor,
				Operation: models.AuditCreate,
				Target:    fmt.Sprintf("reservation:%d", created.ID),
				Status:    models.AuditSuccess,
			})
		})
		if err != nil {
			return fmt.Errorf("add application %s to unit %s queue: %w", app.ApplicationUUID, link.UnitUUID, err)
		}

		s.log.Info("application added to queue",
			"application_uuid", app.ApplicationUUID,
			"unit_uuid", link.UnitUUID,
			"reservation_id", created.ID,
			"queue_position", created.QueuePosition,
		)
		s.publishChange(ctx, link.UnitUUID, &created, models.ChangeAdded)
	}

	return nil
}

// RemoveFromQueue removes the link's reservation from its unit's queue.
// The reservation is canceled, never deleted; remaining positions close
// the gap in the same transaction.
func (s *QueueService) RemoveFromQueue(ctx context.Context, link *models.ApplicationUnitLink, actor, comment string, reason models.CancellationReason) (*models.StateChangeEvent, error) {
	res, err := s.store.ReservationByLink(ctx, link.LinkUUID)
	if err != nil {
		return nil, err
	}

	var event *models.StateChangeEvent
	err = s.store.WithUnit(ctx, link.UnitUUID, func(q repository.UnitQueue) error {
		event, err = s.RemoveLocked(ctx, q, res.ID, actor, comment, reason)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("remove link %s from unit %s queue: %w", link.LinkUUID, link.UnitUUID, err)
	}

	s.publishChange(ctx, link.UnitUUID, res, models.ChangeRemoved)
	return event, nil
}

// RemoveLocked performs the removal sequence inside a unit transaction
// already opened by the caller. The state service goes through here for
// every transition into CANCELED, so the queue bookkeeping lives in
// exactly one place.
func (s *QueueService) RemoveLocked(ctx context.Context, q repository.UnitQueue, reservationID int64, actor, comment string, reason models.CancellationReason) (*models.StateChangeEvent, error) {
	if !reason.Valid() {
		return nil, apperr.Validationf("unknown cancellation reason %q", reason)
	}

	entries, err := q.ActiveEntries(ctx)
	if err != nil {
		return nil, err
	}

	var target *models.QueueEntry
	for i := range entries {
		if entries[i].ReservationID == reservationID {
			target = &entries[i]
			break
		}
	}
	if target == nil {
		return nil, apperr.NotFoundf("reservation %d is not in the active queue", reservationID)
	}

	if !target.State.CanTransitionTo(models.StateCanceled) {
		return nil, fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidStateTransition, target.State, models.StateCanceled)
	}

	if err := q.UpdateState(ctx, reservationID, models.StateCanceled, &reason); err != nil {
		return nil, err
	}

	// The canceled row no longer matches the active filter, so the bulk
	// shift closes the gap it left behind.
	if err := q.Shift(ctx, target.Position, -1); err != nil {
		return nil, err
	}

	if err := q.RecordChange(ctx, &models.ChangeEvent{
		ReservationID: reservationID,
		Type:          models.ChangeRemoved,
		Comment:       comment,
	}); err != nil {
		return nil, err
	}

	event := &models.StateChangeEvent{
		ReservationID: reservationID,
		FromState:     target.State,
		ToState:       models.StateCanceled,
		Actor:         actor,
		Comment:       comment,
		Reason:        &reason,
	}
	if err := q.RecordStateChange(ctx, event); err != nil {
		return nil, err
	}

	if err := q.RecordAudit(ctx, &models.AuditEntry{
		Actor:     actor,
		Operation: models.AuditUpdate,
		Target:    fmt.Sprintf("reservation:%d", reservationID),
		Status:    models.AuditSuccess,
	}); err != nil {
		return nil, err
	}

	return event, nil
}

// ActiveQueue returns the unit's active reservations in queue order
func (s *QueueService) ActiveQueue(ctx context.Context, unitID uuid.UUID) ([]models.QueueEntry, error) {
	entries, err := s.store.ActiveQueue(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("get active queue for unit %s: %w", unitID, err)
	}
	return entries, nil
}

// insertionPosition computes where a new reservation lands in the unit's
// queue.
//
// Priority-ordered applications slot into their own lateness pool, before
// the first pool member with a strictly greater priority key. When no such
// member exists the application appends after everything, late pool
// included; that fallback is only correct while on-time entries precede
// all late entries, so the layout is checked rather than assumed.
//
// Lottery applications always append; their order is decided later by the
// lottery draw.
func insertionPosition(entries []models.QueueEntry, app *models.Application) (int, error) {
	if !app.Regime.Known() {
		return 0, fmt.Errorf("%w: %q", apperr.ErrUnsupportedApplicationType, app.Regime)
	}

	if app.Regime.Lottery() {
		return len(entries), nil
	}

	seenLate := false
	for _, entry := range entries {
		if entry.SubmittedLate {
			seenLate = true
		} else if seenLate {
			return 0, fmt.Errorf("queue for unit is out of order: on-time entry at position %d follows a late entry", entry.Position)
		}
	}

	for _, entry := range entries {
		if entry.SubmittedLate != app.SubmittedLate {
			continue
		}
		if entry.PriorityKey > app.PriorityKey {
			return entry.Position, nil
		}
	}

	return len(entries), nil
}

// changeMessage is the event bus payload for a committed queue change
type changeMessage struct {
	UnitUUID      uuid.UUID              `json:"unit_uuid"`
	ReservationID int64                  `json:"reservation_id"`
	Type          models.ChangeEventType `json:"type"`
}

// publishChange fans the committed mutation out to bus subscribers.
// Best-effort: the durable record is the change event row.
func (s *QueueService) publishChange(ctx context.Context, unitID uuid.UUID, res *models.Reservation, typ models.ChangeEventType) {
	if s.bus == nil {
		return
	}

	payload, err := json.Marshal(changeMessage{
		UnitUUID:      unitID,
		ReservationID: res.ID,
		Type:          typ,
	})
	if err != nil {
		return
	}

	if err := s.bus.Publish(ctx, queue.TopicQueueChanges, unitID.String(), payload); err != nil {
		s.log.Warn("failed to publish queue change", "unit_uuid", unitID, "error", err)
	}
}
