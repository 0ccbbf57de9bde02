package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/helcity/homesales/cmd/salesapi/models"
	"github.com/helcity/homesales/cmd/salesapi/repository"
	"github.com/helcity/homesales/common/apperr"
	"github.com/helcity/homesales/common/logger"
)

// ApplicationService registers incoming applications: it validates them,
// resolves each desired unit against the listing service, persists the
// application with its unit links and hands the links to the queue engine.
type ApplicationService struct {
	apps     *repository.ApplicationRepository
	units    *repository.UnitRepository
	listing  ListingLookup
	queueSvc *QueueService
	log      *logger.Logger
}

// NewApplicationService creates a new application service
func NewApplicationService(
	apps *repository.ApplicationRepository,
	units *repository.UnitRepository,
	listing ListingLookup,
	queueSvc *QueueService,
	log *logger.Logger,
) *ApplicationService {
	return &ApplicationService{
		apps:     apps,
		units:    units,
		listing:  listing,
		queueSvc: queueSvc,
		log:      log,
	}
}

// Register validates and persists an application for the given units, then
// adds it to every unit's queue.
func (s *ApplicationService) Register(ctx context.Context, app *models.Application, unitIDs []uuid.UUID, actor, comment string) error {
	if err := app.Validate(); err != nil {
		return err
	}
	if len(unitIDs) == 0 {
		return apperr.Validationf("application must target at least one unit")
	}

	links := make([]*models.ApplicationUnitLink, 0, len(unitIDs))
	for _, unitID := range unitIDs {
		info, err := s.listing.GetUnit(ctx, unitID)
		if err != nil {
			return err
		}
		if !info.IsAvailable {
			return apperr.Validationf("unit %s is not available", unitID)
		}

		if err := s.units.Upsert(ctx, &models.Unit{
			UnitUUID:    info.UnitUUID,
			ProjectUUID: info.ProjectUUID,
			IsAvailable: info.IsAvailable,
		}); err != nil {
			return err
		}

		links = append(links, &models.ApplicationUnitLink{
			LinkUUID:        uuid.New(),
			ApplicationUUID: app.ApplicationUUID,
			UnitUUID:        unitID,
		})
	}

	if err := s.apps.Create(ctx, app, links); err != nil {
		return fmt.Errorf("register application %s: %w", app.ApplicationUUID, err)
	}

	if err := s.queueSvc.AddApplicationToQueue(ctx, app, links, actor, comment); err != nil {
		return err
	}

	s.log.Info("application registered",
		"application_uuid", app.ApplicationUUID,
		"regime", app.Regime,
		"units", len(links),
	)

	return nil
}

// Link resolves an application-unit link by id
func (s *ApplicationService) Link(ctx context.Context, linkID uuid.UUID) (*models.ApplicationUnitLink, error) {
	return s.apps.GetLink(ctx, linkID)
}

// Application returns an application together with its unit links
func (s *ApplicationService) Application(ctx context.Context, appID uuid.UUID) (*models.Application, []*models.ApplicationUnitLink, error) {
	app, err := s.apps.GetByID(ctx, appID)
	if err != nil {
		return nil, nil, err
	}

	links, err := s.apps.Links(ctx, appID)
	if err != nil {
		return nil, nil, err
	}

	return app, links, nil
}
