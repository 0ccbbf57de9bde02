package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/helcity/homesales/cmd/salesapi/models"
	"github.com/helcity/homesales/cmd/salesapi/repository"
	"github.com/helcity/homesales/common/apperr"
	"github.com/helcity/homesales/common/logger"
	"github.com/helcity/homesales/common/queue"
)

// StateService drives the reservation state machine. Transitions into
// CANCELED are delegated to the queue service's removal sequence so the
// position bookkeeping is never duplicated.
type StateService struct {
	store    repository.Store
	queueSvc *QueueService
	bus      queue.Queue
	log      *logger.Logger
}

// NewStateService creates a new state service
func NewStateService(store repository.Store, queueSvc *QueueService, bus queue.Queue, log *logger.Logger) *StateService {
	return &StateService{
		store:    store,
		queueSvc: queueSvc,
		bus:      bus,
		log:      log,
	}
}

// SetReservationState transitions a reservation to newState after checking
// the allow-list, and returns the recorded state change event. A reason is
// only meaningful (and then required) when newState is CANCELED.
func (s *StateService) SetReservationState(ctx context.Context, reservationID int64, newState models.ReservationState, actor, comment string, reason *models.CancellationReason) (*models.StateChangeEvent, error) {
	if !newState.Valid() {
		return nil, apperr.Validationf("unknown reservation state %q", newState)
	}

	// The pool-level read only locates the owning unit. The allow-list
	// runs against a re-read under the unit lock, where no competing
	// transition can slip in between check and write.
	res, err := s.store.Reservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	if newState == models.StateCanceled {
		return s.cancel(ctx, res, actor, comment, reason)
	}

	var event *models.StateChangeEvent
	err = s.store.WithUnit(ctx, res.UnitUUID, func(q repository.UnitQueue) error {
		current, err := q.Reservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if !current.State.CanTransitionTo(newState) {
			return fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidStateTransition, current.State, newState)
		}

		if err := q.UpdateState(ctx, reservationID, newState, nil); err != nil {
			return err
		}

		event = &models.StateChangeEvent{
			ReservationID: reservationID,
			FromState:     current.State,
			ToState:       newState,
			Actor:         actor,
			Comment:       comment,
		}
		if err := q.RecordStateChange(ctx, event); err != nil {
			return err
		}

		return q.RecordAudit(ctx, &models.AuditEntry{
			Actor:     actor,
			Operation: models.AuditUpdate,
			Target:    fmt.Sprintf("reservation:%d", reservationID),
			Status:    models.AuditSuccess,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("set reservation %d state: %w", reservationID, err)
	}

	s.log.Info("reservation state changed",
		"reservation_id", reservationID,
		"from", event.FromState,
		"to", newState,
		"actor", actor,
	)
	s.publishStateChange(ctx, event)

	return event, nil
}

// CancelReservation cancels a reservation with the given reason. It is the
// explicit cancellation entry point; SetReservationState with CANCELED
// lands in the same removal sequence.
func (s *StateService) CancelReservation(ctx context.Context, reservationID int64, actor, comment string, reason models.CancellationReason) (*models.StateChangeEvent, error) {
	res, err := s.store.Reservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	return s.cancel(ctx, res, actor, comment, &reason)
}

// ReservationWithHistory returns a reservation together with its
// transition log, oldest first
func (s *StateService) ReservationWithHistory(ctx context.Context, reservationID int64) (*models.Reservation, []*models.StateChangeEvent, error) {
	res, err := s.store.Reservation(ctx, reservationID)
	if err != nil {
		return nil, nil, err
	}

	history, err := s.store.StateHistory(ctx, reservationID)
	if err != nil {
		return nil, nil, err
	}

	return res, history, nil
}

func (s *StateService) cancel(ctx context.Context, res *models.Reservation, actor, comment string, reason *models.CancellationReason) (*models.StateChangeEvent, error) {
	cancellationReason := models.ReasonCanceled
	if reason != nil {
		cancellationReason = *reason
	}

	var event *models.StateChangeEvent
	err := s.store.WithUnit(ctx, res.UnitUUID, func(q repository.UnitQueue) error {
		current, err := q.Reservation(ctx, res.ID)
		if err != nil {
			return err
		}
		if !current.State.CanTransitionTo(models.StateCanceled) {
			return fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidStateTransition, current.State, models.StateCanceled)
		}

		event, err = s.queueSvc.RemoveLocked(ctx, q, res.ID, actor, comment, cancellationReason)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("cancel reservation %d: %w", res.ID, err)
	}

	s.log.Info("reservation canceled",
		"reservation_id", res.ID,
		"unit_uuid", res.UnitUUID,
		"reason", cancellationReason,
		"actor", actor,
	)
	s.publishStateChange(ctx, event)

	return event, nil
}

func (s *StateService) publishStateChange(ctx context.Context, event *models.StateChangeEvent) {
	if s.bus == nil || event == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	key := fmt.Sprintf("%d", event.ReservationID)
	if err := s.bus.Publish(ctx, queue.TopicStateChanges, key, payload); err != nil {
		s.log.Warn("failed to publish state change", "reservation_id", event.ReservationID, "error", err)
	}
}
