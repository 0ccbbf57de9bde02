package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helcity/homesales/cmd/salesapi/models"
	"github.com/helcity/homesales/common/apperr"
	"github.com/helcity/homesales/common/queue"
)

func newQueueService(store *memStore) *QueueService {
	return NewQueueService(store, queue.NewMemoryQueue(testLogger()), testLogger())
}

func priorityApp(key int, late bool) *models.Application {
	return &models.Application{
		ApplicationUUID: uuid.New(),
		Regime:          models.RegimePriorityOrdered,
		PriorityKey:     key,
		SubmittedLate:   late,
	}
}

func lotteryApp() *models.Application {
	return &models.Application{
		ApplicationUUID: uuid.New(),
		Regime:          models.RegimeLotteryPoolA,
	}
}

// add registers the application for the unit and pushes it through the
// queue service, returning its link
func add(t *testing.T, svc *QueueService, store *memStore, app *models.Application, unitID uuid.UUID) *models.ApplicationUnitLink {
	t.Helper()

	links := store.register(app, unitID)
	require.NoError(t, svc.AddApplicationToQueue(context.Background(), app, links, "tester", ""))

	return links[0]
}

func TestAddApplicationToQueue_FirstEntryTakesPositionZero(t *testing.T) {
	store := newMemStore()
	svc := newQueueService(store)
	unitID := uuid.New()

	link := add(t, svc, store, priorityApp(42, false), unitID)

	res, err := store.ReservationByLink(context.Background(), link.LinkUUID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.QueuePosition)
	assert.Equal(t, models.StateSubmitted, res.State)
}

func TestAddApplicationToQueue_PriorityOrdersByKey(t *testing.T) {
	store := newMemStore()
	svc := newQueueService(store)
	unitID := uuid.New()

	add(t, svc, store, priorityApp(10, false), unitID)
	add(t, svc, store, priorityApp(30, false), unitID)
	add(t, svc, store, priorityApp(50, false), unitID)

	// 20 slots in between 10 and 30
	link := add(t, svc, store, priorityApp(20, false), unitID)

	res, err := store.ReservationByLink(context.Background(), link.LinkUUID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.QueuePosition)

	entries, err := svc.ActiveQueue(context.Background(), unitID)
	require.NoError(t, err)
	keys := make([]int, 0, len(entries))
	for _, entry := range entries {
		keys = append(keys, entry.PriorityKey)
	}
	assert.Equal(t, []int{10, 20, 30, 50}, keys)
	assert.Equal(t, []int{0, 1, 2, 3}, store.positions(unitID))
}

func TestAddApplicationToQueue_LargestKeyAppends(t *testing.T) {
	store := newMemStore()
	svc := newQueueService(store)
	unitID := uuid.New()

	add(t, svc, store, priorityApp(10, false), unitID)
	add(t, svc, store, priorityApp(30, false), unitID)

	link := add(t, svc, store, priorityApp(60, false), unitID)

	res, err := store.ReservationByLink(context.Background(), link.LinkUUID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.QueuePosition)
}

func TestAddApplicationToQueue_LateOrdersWithinLatePool(t *testing.T) {
	store := newMemStore()
	svc := newQueueService(store)
	unitID := uuid.New()

	add(t, svc, store, priorityApp(10, false), unitID)
	add(t, svc, store, priorityApp(30, false), unitID)

	// Late with the smallest key still lands after every on-time entry
	lateLink := add(t, svc, store, priorityApp(5, true), unitID)
	res, err := store.ReservationByLink(context.Background(), lateLink.LinkUUID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.QueuePosition)

	// A second late entry orders by key within the late pool
	earlierLate := add(t, svc, store, priorityApp(1, true), unitID)
	res, err = store.ReservationByLink(context.Background(), earlierLate.LinkUUID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.QueuePosition)

	res, err = store.ReservationByLink(context.Background(), lateLink.LinkUUID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.QueuePosition)

	// An on-time entry still slots into the on-time pool
	onTime := add(t, svc, store, priorityApp(20, false), unitID)
	res, err = store.ReservationByLink(context.Background(), onTime.LinkUUID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.QueuePosition)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, store.positions(unitID))
}

func TestAddApplicationToQueue_LotteryAppendsInArrivalOrder(t *testing.T) {
	store := newMemStore()
	svc := newQueueService(store)
	unitID := uuid.New()

	first := add(t, svc, store, lotteryApp(), unitID)
	second := add(t, svc, store, lotteryApp(), unitID)

	res, err := store.ReservationByLink(context.Background(), first.LinkUUID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.QueuePosition)

	res, err = store.ReservationByLink(context.Background(), second.LinkUUID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.QueuePosition)
}

func TestAddApplicationToQueue_MultipleUnits(t *testing.T) {
	store := newMemStore()
	svc := newQueueService(store)
	unitA := uuid.New()
	unitB := uuid.New()

	app := priorityApp(10, false)
	links := store.register(app, unitA, unitB)
	require.NoError(t, svc.AddApplicationToQueue(context.Background(), app, links, "tester", ""))

	assert.Equal(t, []int{0}, store.positions(unitA))
	assert.Equal(t, []int{0}, store.positions(unitB))
}

func TestAddApplicationToQueue_RejectsUnknownRegime(t *testing.T) {
	store := newMemStore()
	svc := newQueueService(store)

	app := &models.Application{
		ApplicationUUID: uuid.New(),
		Regime:          models.ApplicationRegime("COOPERATIVE"),
	}
	links := store.register(app, uuid.New())

	err := svc.AddApplicationToQueue(context.Background(), app, links, "tester", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAddApplicationToQueue_RecordsChangeAndAudit(t *testing.T) {
	store := newMemStore()
	svc := newQueueService(store)
	unitID := uuid.New()

	add(t, svc, store, priorityApp(10, false), unitID)

	require.Len(t, store.changes, 1)
	assert.Equal(t, models.ChangeAdded, store.changes[0].Type)

	require.Len(t, store.audits, 1)
	assert.Equal(t, models.AuditCreate, store.audits[0].Operation)
	assert.Equal(t, models.AuditSuccess, store.audits[0].Status)
	assert.Equal(t, "tester", store.audits[0].Actor)
}

func TestRemoveFromQueue_ClosesTheGap(t *testing.T) {
	store := newMemStore()
	svc := newQueueService(store)
	unitID := uuid.New()

	add(t, svc, store, priorityApp(10, false), unitID)
	middle := add(t, svc, store, priorityApp(20, false), unitID)
	add(t, svc, store, priorityApp(30, false), unitID)

	event, err := svc.RemoveFromQueue(context.Background(), middle, "tester", "withdrawn", models.ReasonCanceled)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, models.StateCanceled, event.ToState)

	assert.Equal(t, []int{0, 1}, store.positions(unitID))

	// Canceled reservations are retained, with the reason stamped on
	res, err := store.ReservationByLink(context.Background(), middle.LinkUUID)
	require.NoError(t, err)
	assert.Equal(t, models.StateCanceled, res.State)
	require.NotNil(t, res.CancellationReason)
	assert.Equal(t, models.ReasonCanceled, *res.CancellationReason)
}

func TestRemoveFromQueue_AddThenRemoveLeavesEmptyQueue(t *testing.T) {
	store := newMemStore()
	svc := newQueueService(store)
	unitID := uuid.New()

	link := add(t, svc, store, lotteryApp(), unitID)

	_, err := svc.RemoveFromQueue(context.Background(), link, "tester", "", models.ReasonCanceled)
	require.NoError(t, err)

	entries, err := svc.ActiveQueue(context.Background(), unitID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemoveFromQueue_AlreadyCanceled(t *testing.T) {
	store := newMemStore()
	svc := newQueueService(store)
	unitID := uuid.New()

	link := add(t, svc, store, priorityApp(10, false), unitID)

	_, err := svc.RemoveFromQueue(context.Background(), link, "tester", "", models.ReasonCanceled)
	require.NoError(t, err)

	_, err = svc.RemoveFromQueue(context.Background(), link, "tester", "", models.ReasonCanceled)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRemoveFromQueue_RejectsUnknownReason(t *testing.T) {
	store := newMemStore()
	svc := newQueueService(store)
	unitID := uuid.New()

	link := add(t, svc, store, priorityApp(10, false), unitID)

	_, err := svc.RemoveFromQueue(context.Background(), link, "tester", "", models.CancellationReason("EVICTED"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestInsertionPosition_UnsupportedRegime(t *testing.T) {
	app := &models.Application{Regime: models.ApplicationRegime("COOPERATIVE")}

	_, err := insertionPosition(nil, app)
	assert.ErrorIs(t, err, apperr.ErrUnsupportedApplicationType)
}

func TestInsertionPosition_RejectsCorruptLayout(t *testing.T) {
	entries := []models.QueueEntry{
		{Position: 0, SubmittedLate: true, Regime: models.RegimePriorityOrdered, PriorityKey: 1},
		{Position: 1, SubmittedLate: false, Regime: models.RegimePriorityOrdered, PriorityKey: 2},
	}

	_, err := insertionPosition(entries, priorityApp(3, false))
	assert.Error(t, err)
}

func TestAddApplicationToQueue_InterleavedAddsAndRemovalsStayContiguous(t *testing.T) {
	store := newMemStore()
	svc := newQueueService(store)
	unitID := uuid.New()

	var links []*models.ApplicationUnitLink
	for _, key := range []int{40, 10, 30, 20, 50} {
		links = append(links, add(t, svc, store, priorityApp(key, false), unitID))
	}

	_, err := svc.RemoveFromQueue(context.Background(), links[0], "tester", "", models.ReasonCanceled)
	require.NoError(t, err)
	_, err = svc.RemoveFromQueue(context.Background(), links[2], "tester", "", models.ReasonTerminated)
	require.NoError(t, err)

	add(t, svc, store, priorityApp(25, false), unitID)

	entries, err := svc.ActiveQueue(context.Background(), unitID)
	require.NoError(t, err)

	keys := make([]int, 0, len(entries))
	for i, entry := range entries {
		assert.Equal(t, i, entry.Position)
		keys = append(keys, entry.PriorityKey)
	}
	assert.Equal(t, []int{10, 20, 25, 50}, keys)
}
