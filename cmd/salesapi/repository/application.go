package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helcity/homesales/cmd/salesapi/models"
	"github.com/helcity/homesales/common/db"
)

// ApplicationRepository handles database operations for applications and
// their unit links
type ApplicationRepository struct {
	db *db.DB
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(database *db.DB) *ApplicationRepository {
	return &ApplicationRepository{db: database}
}

// Create inserts an application together with its unit links in one
// transaction
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application, links []*models.ApplicationUnitLink) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO application (application_uuid, regime, priority_key, submitted_late,
			                         is_approved, is_rejected, rejection_description, has_accepted_offer)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING submitted_at
		`

		err := tx.QueryRow(ctx, query,
			app.ApplicationUUID,
			app.Regime,
			app.PriorityKey,
			app.SubmittedLate,
			app.IsApproved,
			app.IsRejected,
			app.RejectionDescription,
			app.HasAcceptedOffer,
		).Scan(&app.SubmittedAt)
		if err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}

		for _, link := range links {
			query := `
				INSERT INTO application_unit_link (link_uuid, application_uuid, unit_uuid)
				VALUES ($1, $2, $3)
			`

			if _, err := tx.Exec(ctx, query, link.LinkUUID, link.ApplicationUUID, link.UnitUUID); err != nil {
				return fmt.Errorf("failed to create application unit link: %w", err)
			}
		}

		return nil
	})
}

// GetByID retrieves an application by its UUID
func (r *ApplicationRepository) GetByID(ctx context.Context, appID uuid.UUID) (*models.Application, error) {
	query := `
		SELECT application_uuid, regime, priority_key, submitted_late,
		       is_approved, is_rejected, rejection_description, has_accepted_offer, submitted_at
		FROM application
		WHERE application_uuid = $1
	`

	app := &models.Application{}
	err := r.db.QueryRow(ctx, query, appID).Scan(
		&app.ApplicationUUID,
		&app.Regime,
		&app.PriorityKey,
		&app.SubmittedLate,
		&app.IsApproved,
		&app.IsRejected,
		&app.RejectionDescription,
		&app.HasAcceptedOffer,
		&app.SubmittedAt,
	)
	if err != nil {
		return nil, db.TranslateError(fmt.Errorf("get application: %w", err))
	}

	return app, nil
}

// GetLink retrieves one application-unit link
func (r *ApplicationRepository) GetLink(ctx context.Context, linkID uuid.UUID) (*models.ApplicationUnitLink, error) {
	query := `
		SELECT link_uuid, application_uuid, unit_uuid
		FROM application_unit_link
		WHERE link_uuid = $1
	`

	link := &models.ApplicationUnitLink{}
	err := r.db.QueryRow(ctx, query, linkID).Scan(
		&link.LinkUUID,
		&link.ApplicationUUID,
		&link.UnitUUID,
	)
	if err != nil {
		return nil, db.TranslateError(fmt.Errorf("get application unit link: %w", err))
	}

	return link, nil
}

// Links retrieves all unit links of an application
func (r *ApplicationRepository) Links(ctx context.Context, appID uuid.UUID) ([]*models.ApplicationUnitLink, error) {
	query := `
		SELECT link_uuid, application_uuid, unit_uuid
		FROM application_unit_link
		WHERE application_uuid = $1
	`

	rows, err := r.db.Query(ctx, query, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to list application unit links: %w", err)
	}
	defer rows.Close()

	var links []*models.ApplicationUnitLink
	for rows.Next() {
		link := &models.ApplicationUnitLink{}
		if err := rows.Scan(&link.LinkUUID, &link.ApplicationUUID, &link.UnitUUID); err != nil {
			return nil, fmt.Errorf("failed to scan application unit link: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating application unit links: %w", err)
	}

	return links, nil
}
