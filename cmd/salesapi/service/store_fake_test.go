package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/helcity/homesales/cmd/salesapi/models"
	"github.com/helcity/homesales/cmd/salesapi/repository"
	"github.com/helcity/homesales/common/apperr"
	"github.com/helcity/homesales/common/logger"
)

// memStore is an in-memory Store used by the service tests. WithUnit
// snapshots the state before running fn and restores it when fn fails,
// mirroring the rollback semantics of the real transactional store.
type memStore struct {
	mu sync.Mutex

	seq      int64
	eventSeq int64

	apps  map[uuid.UUID]*models.Application
	links map[uuid.UUID]*models.ApplicationUnitLink

	reservations   map[int64]*models.Reservation
	changes        []models.ChangeEvent
	stateChanges   []models.StateChangeEvent
	lotteryEvents  []models.LotteryEvent
	lotteryResults []models.LotteryResult
	audits         []models.AuditEntry
}

func newMemStore() *memStore {
	return &memStore{
		apps:         make(map[uuid.UUID]*models.Application),
		links:        make(map[uuid.UUID]*models.ApplicationUnitLink),
		reservations: make(map[int64]*models.Reservation),
	}
}

// register records an application and returns one new link per unit
func (s *memStore) register(app *models.Application, unitIDs ...uuid.UUID) []*models.ApplicationUnitLink {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apps[app.ApplicationUUID] = app

	links := make([]*models.ApplicationUnitLink, 0, len(unitIDs))
	for _, unitID := range unitIDs {
		link := &models.ApplicationUnitLink{
			LinkUUID:        uuid.New(),
			ApplicationUUID: app.ApplicationUUID,
			UnitUUID:        unitID,
		}
		s.links[link.LinkUUID] = link
		links = append(links, link)
	}

	return links
}

func (s *memStore) Reservation(ctx context.Context, id int64) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.reservations[id]
	if !ok {
		return nil, apperr.NotFoundf("reservation %d", id)
	}

	cp := *res
	return &cp, nil
}

func (s *memStore) ReservationByLink(ctx context.Context, linkID uuid.UUID) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, res := range s.reservations {
		if res.LinkUUID == linkID {
			cp := *res
			return &cp, nil
		}
	}

	return nil, apperr.NotFoundf("reservation for link %s", linkID)
}

func (s *memStore) ActiveQueue(ctx context.Context, unitID uuid.UUID) ([]models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.activeEntries(unitID), nil
}

func (s *memStore) StateHistory(ctx context.Context, reservationID int64) ([]*models.StateChangeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []*models.StateChangeEvent
	for i := range s.stateChanges {
		if s.stateChanges[i].ReservationID == reservationID {
			cp := s.stateChanges[i]
			events = append(events, &cp)
		}
	}

	return events, nil
}

func (s *memStore) WithUnit(ctx context.Context, unitID uuid.UUID, fn func(q repository.UnitQueue) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.clone()
	if err := fn(&memUnitQueue{store: s, unitID: unitID}); err != nil {
		s.restore(snapshot)
		return err
	}

	return nil
}

func (s *memStore) activeEntries(unitID uuid.UUID) []models.QueueEntry {
	var entries []models.QueueEntry
	for _, res := range s.reservations {
		if res.UnitUUID != unitID || res.State == models.StateCanceled {
			continue
		}

		link := s.links[res.LinkUUID]
		app := s.apps[link.ApplicationUUID]
		entries = append(entries, models.QueueEntry{
			ReservationID:   res.ID,
			LinkUUID:        res.LinkUUID,
			ApplicationUUID: app.ApplicationUUID,
			Position:        res.QueuePosition,
			State:           res.State,
			Regime:          app.Regime,
			PriorityKey:     app.PriorityKey,
			SubmittedLate:   app.SubmittedLate,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Position < entries[j].Position
	})

	return entries
}

func (s *memStore) clone() *memStore {
	cp := &memStore{
		seq:          s.seq,
		eventSeq:     s.eventSeq,
		apps:         s.apps,
		links:        s.links,
		reservations: make(map[int64]*models.Reservation, len(s.reservations)),
	}
	for id, res := range s.reservations {
		r := *res
		cp.reservations[id] = &r
	}
	cp.changes = append([]models.ChangeEvent(nil), s.changes...)
	cp.stateChanges = append([]models.StateChangeEvent(nil), s.stateChanges...)
	cp.lotteryEvents = append([]models.LotteryEvent(nil), s.lotteryEvents...)
	cp.lotteryResults = append([]models.LotteryResult(nil), s.lotteryResults...)
	cp.audits = append([]models.AuditEntry(nil), s.audits...)

	return cp
}

func (s *memStore) restore(snapshot *memStore) {
	s.seq = snapshot.seq
	s.eventSeq = snapshot.eventSeq
	s.reservations = snapshot.reservations
	s.changes = snapshot.changes
	s.stateChanges = snapshot.stateChanges
	s.lotteryEvents = snapshot.lotteryEvents
	s.lotteryResults = snapshot.lotteryResults
	s.audits = snapshot.audits
}

// memUnitQueue implements repository.UnitQueue over a locked memStore
type memUnitQueue struct {
	store  *memStore
	unitID uuid.UUID
}

func (q *memUnitQueue) Reservation(ctx context.Context, id int64) (*models.Reservation, error) {
	res, ok := q.store.reservations[id]
	if !ok {
		return nil, apperr.NotFoundf("reservation %d", id)
	}

	cp := *res
	return &cp, nil
}

func (q *memUnitQueue) ActiveEntries(ctx context.Context) ([]models.QueueEntry, error) {
	return q.store.activeEntries(q.unitID), nil
}

func (q *memUnitQueue) Shift(ctx context.Context, fromPosition, delta int) error {
	for _, res := range q.store.reservations {
		if res.UnitUUID != q.unitID || res.State == models.StateCanceled {
			continue
		}
		if res.QueuePosition >= fromPosition {
			res.QueuePosition += delta
		}
	}

	return nil
}

func (q *memUnitQueue) Insert(ctx context.Context, res *models.Reservation) error {
	q.store.seq++
	res.ID = q.store.seq
	res.CreatedAt = time.Now()

	cp := *res
	q.store.reservations[res.ID] = &cp

	return nil
}

func (q *memUnitQueue) UpdatePosition(ctx context.Context, reservationID int64, position int) error {
	res, ok := q.store.reservations[reservationID]
	if !ok {
		return fmt.Errorf("reservation %d not found", reservationID)
	}
	res.QueuePosition = position

	return nil
}

func (q *memUnitQueue) UpdateState(ctx context.Context, reservationID int64, state models.ReservationState, reason *models.CancellationReason) error {
	res, ok := q.store.reservations[reservationID]
	if !ok {
		return fmt.Errorf("reservation %d not found", reservationID)
	}
	res.State = state
	res.CancellationReason = reason

	return nil
}

func (q *memUnitQueue) RecordChange(ctx context.Context, ev *models.ChangeEvent) error {
	q.store.eventSeq++
	ev.ID = q.store.eventSeq
	ev.Timestamp = time.Now()
	q.store.changes = append(q.store.changes, *ev)

	return nil
}

func (q *memUnitQueue) RecordStateChange(ctx context.Context, ev *models.StateChangeEvent) error {
	q.store.eventSeq++
	ev.ID = q.store.eventSeq
	ev.Timestamp = time.Now()
	q.store.stateChanges = append(q.store.stateChanges, *ev)

	return nil
}

func (q *memUnitQueue) HasLotteryRun(ctx context.Context) (bool, error) {
	for i := range q.store.lotteryEvents {
		if q.store.lotteryEvents[i].UnitUUID == q.unitID {
			return true, nil
		}
	}

	return false, nil
}

func (q *memUnitQueue) RecordLotteryEvent(ctx context.Context, ev *models.LotteryEvent) error {
	q.store.eventSeq++
	ev.ID = q.store.eventSeq
	ev.Timestamp = time.Now()
	q.store.lotteryEvents = append(q.store.lotteryEvents, *ev)

	return nil
}

func (q *memUnitQueue) RecordLotteryResult(ctx context.Context, res *models.LotteryResult) error {
	for i := range q.store.lotteryResults {
		existing := &q.store.lotteryResults[i]
		if existing.EventID == res.EventID && existing.LinkUUID == res.LinkUUID {
			return fmt.Errorf("duplicate lottery result for event %d link %s", res.EventID, res.LinkUUID)
		}
	}
	q.store.lotteryResults = append(q.store.lotteryResults, *res)

	return nil
}

func (q *memUnitQueue) RecordAudit(ctx context.Context, entry *models.AuditEntry) error {
	q.store.eventSeq++
	entry.ID = q.store.eventSeq
	entry.Timestamp = time.Now()
	q.store.audits = append(q.store.audits, *entry)

	return nil
}

// positions returns the active queue positions for a unit in queue order
func (s *memStore) positions(unitID uuid.UUID) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.activeEntries(unitID)
	out := make([]int, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.Position)
	}

	return out
}

func testLogger() *logger.Logger {
	return logger.New("error", "text")
}
