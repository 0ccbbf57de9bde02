package service

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helcity/homesales/cmd/salesapi/models"
	"github.com/helcity/homesales/common/apperr"
	"github.com/helcity/homesales/common/config"
	"github.com/helcity/homesales/common/queue"
)

// fakeListing serves canned unit and project lookups
type fakeListing struct {
	units    map[uuid.UUID]*UnitInfo
	projects map[uuid.UUID]*ProjectInfo
}

func newFakeListing() *fakeListing {
	return &fakeListing{
		units:    make(map[uuid.UUID]*UnitInfo),
		projects: make(map[uuid.UUID]*ProjectInfo),
	}
}

func (f *fakeListing) GetUnit(ctx context.Context, unitID uuid.UUID) (*UnitInfo, error) {
	unit, ok := f.units[unitID]
	if !ok {
		return nil, apperr.NotFoundf("unit %s", unitID)
	}
	return unit, nil
}

func (f *fakeListing) GetProject(ctx context.Context, projectID uuid.UUID) (*ProjectInfo, error) {
	project, ok := f.projects[projectID]
	if !ok {
		return nil, apperr.NotFoundf("project %s", projectID)
	}
	return project, nil
}

// addProject registers a closed-application project with the given units
func (f *fakeListing) addProject(unitIDs ...uuid.UUID) uuid.UUID {
	projectID := uuid.New()
	f.projects[projectID] = &ProjectInfo{
		ProjectUUID:        projectID,
		ApplicationEndTime: time.Now().Add(-time.Hour),
		UnitUUIDs:          unitIDs,
	}
	for _, unitID := range unitIDs {
		f.units[unitID] = &UnitInfo{UnitUUID: unitID, ProjectUUID: projectID, IsAvailable: true}
	}

	return projectID
}

func newLotteryService(store *memStore, listing ListingLookup, seed int64) *LotteryService {
	bus := queue.NewMemoryQueue(testLogger())
	return NewLotteryService(store, listing, bus, config.LotteryConfig{Seed: seed}, testLogger())
}

func TestRunLottery_PermutesPoolDeterministically(t *testing.T) {
	const seed = 12345

	store := newMemStore()
	queueSvc := newQueueService(store)
	listing := newFakeListing()

	unitID := uuid.New()
	projectID := listing.addProject(unitID)

	links := make([]*models.ApplicationUnitLink, 0, 4)
	for i := 0; i < 4; i++ {
		links = append(links, add(t, queueSvc, store, lotteryApp(), unitID))
	}

	svc := newLotteryService(store, listing, seed)
	events, err := svc.RunLottery(context.Background(), projectID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(seed), events[0].Seed)

	// The draw replays from the persisted seed
	perm := rand.New(rand.NewSource(seed)).Perm(len(links))
	for slot, src := range perm {
		res, err := store.ReservationByLink(context.Background(), links[src].LinkUUID)
		require.NoError(t, err)
		assert.Equal(t, slot, res.QueuePosition, "link drawn into slot %d", slot)
	}

	assert.Equal(t, []int{0, 1, 2, 3}, store.positions(unitID))
}

func TestRunLottery_RecordsOneResultPerLink(t *testing.T) {
	store := newMemStore()
	queueSvc := newQueueService(store)
	listing := newFakeListing()

	unitID := uuid.New()
	projectID := listing.addProject(unitID)

	for i := 0; i < 3; i++ {
		add(t, queueSvc, store, lotteryApp(), unitID)
	}

	svc := newLotteryService(store, listing, 7)
	_, err := svc.RunLottery(context.Background(), projectID)
	require.NoError(t, err)

	require.Len(t, store.lotteryResults, 3)
	seen := make(map[uuid.UUID]bool)
	for _, result := range store.lotteryResults {
		assert.False(t, seen[result.LinkUUID], "link %s drawn twice", result.LinkUUID)
		seen[result.LinkUUID] = true
	}
}

func TestRunLottery_RerunIsANoOp(t *testing.T) {
	store := newMemStore()
	queueSvc := newQueueService(store)
	listing := newFakeListing()

	unitID := uuid.New()
	projectID := listing.addProject(unitID)

	for i := 0; i < 3; i++ {
		add(t, queueSvc, store, lotteryApp(), unitID)
	}

	svc := newLotteryService(store, listing, 7)
	_, err := svc.RunLottery(context.Background(), projectID)
	require.NoError(t, err)

	before := store.positions(unitID)
	resultsBefore := len(store.lotteryResults)

	// Second run skips the already-drawn unit without erroring
	events, err := svc.RunLottery(context.Background(), projectID)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, before, store.positions(unitID))
	assert.Len(t, store.lotteryResults, resultsBefore)
	assert.Len(t, store.lotteryEvents, 1)
}

func TestRunLottery_LeavesPriorityEntriesInPlace(t *testing.T) {
	store := newMemStore()
	queueSvc := newQueueService(store)
	listing := newFakeListing()

	unitID := uuid.New()
	projectID := listing.addProject(unitID)

	first := add(t, queueSvc, store, priorityApp(10, false), unitID)
	second := add(t, queueSvc, store, priorityApp(20, false), unitID)
	for i := 0; i < 3; i++ {
		add(t, queueSvc, store, lotteryApp(), unitID)
	}

	svc := newLotteryService(store, listing, 99)
	_, err := svc.RunLottery(context.Background(), projectID)
	require.NoError(t, err)

	res, err := store.ReservationByLink(context.Background(), first.LinkUUID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.QueuePosition)

	res, err = store.ReservationByLink(context.Background(), second.LinkUUID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.QueuePosition)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, store.positions(unitID))
}

func TestRunLottery_ApplicationPeriodStillOpen(t *testing.T) {
	store := newMemStore()
	queueSvc := newQueueService(store)
	listing := newFakeListing()

	unitID := uuid.New()
	projectID := listing.addProject(unitID)
	listing.projects[projectID].ApplicationEndTime = time.Now().Add(time.Hour)

	add(t, queueSvc, store, lotteryApp(), unitID)

	svc := newLotteryService(store, listing, 1)
	_, err := svc.RunLottery(context.Background(), projectID)
	assert.ErrorIs(t, err, apperr.ErrApplicationPeriodNotClosed)
}

func TestRunLottery_ProjectWithoutApplications(t *testing.T) {
	store := newMemStore()
	listing := newFakeListing()
	projectID := listing.addProject(uuid.New())

	svc := newLotteryService(store, listing, 1)
	_, err := svc.RunLottery(context.Background(), projectID)
	assert.ErrorIs(t, err, apperr.ErrProjectHasNoApplications)
}

func TestRunLottery_UnknownProject(t *testing.T) {
	store := newMemStore()
	listing := newFakeListing()

	svc := newLotteryService(store, listing, 1)
	_, err := svc.RunLottery(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRunLottery_MultipleUnitsDrawnIndependently(t *testing.T) {
	store := newMemStore()
	queueSvc := newQueueService(store)
	listing := newFakeListing()

	unitA := uuid.New()
	unitB := uuid.New()
	projectID := listing.addProject(unitA, unitB)

	for i := 0; i < 2; i++ {
		add(t, queueSvc, store, lotteryApp(), unitA)
	}
	for i := 0; i < 3; i++ {
		add(t, queueSvc, store, lotteryApp(), unitB)
	}

	svc := newLotteryService(store, listing, 4242)
	events, err := svc.RunLottery(context.Background(), projectID)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	assert.Equal(t, []int{0, 1}, store.positions(unitA))
	assert.Equal(t, []int{0, 1, 2}, store.positions(unitB))
}
