package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/helcity/homesales/cmd/salesapi/models"
	"github.com/helcity/homesales/cmd/salesapi/repository"
	"github.com/helcity/homesales/common/apperr"
	"github.com/helcity/homesales/common/config"
	"github.com/helcity/homesales/common/logger"
	"github.com/helcity/homesales/common/queue"
)

// LotteryService converts the unordered pool of lottery-regime
// applications for a project into a final, auditable ordering. Each unit
// is drawn in its own transaction; a unit that already has a lottery event
// is skipped, so a partially completed project run can be retried without
// double-assigning positions.
type LotteryService struct {
	store   repository.Store
	listing ListingLookup
	bus     queue.Queue
	cfg     config.LotteryConfig
	log     *logger.Logger

	// seedFn is swapped in tests for a fixed sequence
	seedFn func() int64
}

// NewLotteryService creates a new lottery service
func NewLotteryService(store repository.Store, listing ListingLookup, bus queue.Queue, cfg config.LotteryConfig, log *logger.Logger) *LotteryService {
	s := &LotteryService{
		store:   store,
		listing: listing,
		bus:     bus,
		cfg:     cfg,
		log:     log,
	}
	s.seedFn = s.defaultSeed

	return s
}

// RunLottery draws the lottery for every unit of the project and returns
// the recorded lottery events. Priority-ordered reservations keep their
// positions; lottery-pool reservations are permuted over the position
// slots they already occupy, so each unit's contiguity invariant is
// untouched.
func (s *LotteryService) RunLottery(ctx context.Context, projectID uuid.UUID) ([]*models.LotteryEvent, error) {
	project, err := s.listing.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if time.Now().Before(project.ApplicationEndTime) {
		return nil, fmt.Errorf("%w: project %s accepts applications until %s",
			apperr.ErrApplicationPeriodNotClosed, projectID, project.ApplicationEndTime.Format(time.RFC3339))
	}

	var (
		events  []*models.LotteryEvent
		drawn   int
		skipped int
	)

	for _, unitID := range project.UnitUUIDs {
		event, poolSize, err := s.drawUnit(ctx, unitID)
		if err != nil {
			// Units already committed stay committed; the caller retries
			// and already-drawn units are skipped.
			return events, fmt.Errorf("lottery draw for unit %s: %w", unitID, err)
		}

		switch {
		case event != nil:
			events = append(events, event)
			drawn += poolSize
			s.publishLottery(ctx, event)
		case poolSize < 0:
			skipped++
		}
	}

	if drawn == 0 && skipped == 0 {
		return nil, fmt.Errorf("%w: project %s", apperr.ErrProjectHasNoApplications, projectID)
	}

	s.log.Info("lottery executed",
		"project_uuid", projectID,
		"units_drawn", len(events),
		"units_skipped", skipped,
		"applications", drawn,
	)

	return events, nil
}

// drawUnit runs one unit's draw in one transaction. Returns (nil, -1, nil)
// when the unit was already drawn and (nil, 0, nil) when it has no lottery
// applications.
func (s *LotteryService) drawUnit(ctx context.Context, unitID uuid.UUID) (*models.LotteryEvent, int, error) {
	var (
		event    *models.LotteryEvent
		poolSize int
		already  bool
	)

	err := s.store.WithUnit(ctx, unitID, func(q repository.UnitQueue) error {
		drawnBefore, err := q.HasLotteryRun(ctx)
		if err != nil {
			return err
		}
		if drawnBefore {
			already = true
			return nil
		}

		entries, err := q.ActiveEntries(ctx)
		if err != nil {
			return err
		}

		var pool []models.QueueEntry
		for _, entry := range entries {
			if entry.Regime.Lottery() {
				pool = append(pool, entry)
			}
		}
		poolSize = len(pool)
		if poolSize == 0 {
			return nil
		}

		seed := s.seedFn()
		event = &models.LotteryEvent{
			UnitUUID: unitID,
			Seed:     seed,
		}
		if err := q.RecordLotteryEvent(ctx, event); err != nil {
			return err
		}

		// Permute the pool over the position slots it already occupies;
		// entries arrive position-ordered, so the slots are ascending.
		slots := make([]int, poolSize)
		for i, entry := range pool {
			slots[i] = entry.Position
		}

		rng := rand.New(rand.NewSource(seed))
		for i, src := range rng.Perm(poolSize) {
			entry := pool[src]

			if err := q.RecordLotteryResult(ctx, &models.LotteryResult{
				EventID:        event.ID,
				LinkUUID:       entry.LinkUUID,
				ResultPosition: i,
			}); err != nil {
				return err
			}

			if err := q.UpdatePosition(ctx, entry.ReservationID, slots[i]); err != nil {
				return err
			}
		}

		if err := verifyContiguous(ctx, q); err != nil {
			return err
		}

		return q.RecordAudit(ctx, &models.AuditEntry{
			Actor:     "lottery",
			Operation: models.AuditUpdate,
			Target:    fmt.Sprintf("unit:%s", unitID),
			Status:    models.AuditSuccess,
		})
	})
	if err != nil {
		return nil, 0, err
	}
	if already {
		return nil, -1, nil
	}
	if event == nil {
		return nil, 0, nil
	}

	return event, poolSize, nil
}

// verifyContiguous re-reads the queue and checks the active positions form
// {0..count-1}. A violation rolls the unit's draw back.
func verifyContiguous(ctx context.Context, q repository.UnitQueue) error {
	entries, err := q.ActiveEntries(ctx)
	if err != nil {
		return err
	}

	for i, entry := range entries {
		if entry.Position != i {
			return fmt.Errorf("queue positions not contiguous after draw: position %d at index %d", entry.Position, i)
		}
	}

	return nil
}

func (s *LotteryService) defaultSeed() int64 {
	if s.cfg.Seed != 0 {
		return s.cfg.Seed
	}
	return time.Now().UnixNano()
}

func (s *LotteryService) publishLottery(ctx context.Context, event *models.LotteryEvent) {
	if s.bus == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	if err := s.bus.Publish(ctx, queue.TopicLottery, event.UnitUUID.String(), payload); err != nil {
		s.log.Warn("failed to publish lottery event", "unit_uuid", event.UnitUUID, "error", err)
	}
}
