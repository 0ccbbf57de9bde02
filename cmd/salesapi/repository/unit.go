package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/helcity/homesales/cmd/salesapi/models"
	"github.com/helcity/homesales/common/db"
)

// UnitRepository handles database operations for housing units
type UnitRepository struct {
	db *db.DB
}

// NewUnitRepository creates a new unit repository
func NewUnitRepository(database *db.DB) *UnitRepository {
	return &UnitRepository{db: database}
}

// Upsert inserts a unit or refreshes its project and availability. Units
// originate in the listing service; this keeps the local copy that
// reservations reference current.
func (r *UnitRepository) Upsert(ctx context.Context, unit *models.Unit) error {
	query := `
		INSERT INTO unit (unit_uuid, project_uuid, is_available)
		VALUES ($1, $2, $3)
		ON CONFLICT (unit_uuid)
		DO UPDATE SET project_uuid = EXCLUDED.project_uuid, is_available = EXCLUDED.is_available
	`

	_, err := r.db.Exec(ctx, query, unit.UnitUUID, unit.ProjectUUID, unit.IsAvailable)
	if err != nil {
		return fmt.Errorf("failed to upsert unit: %w", err)
	}

	return nil
}

// GetByID retrieves a unit by its UUID
func (r *UnitRepository) GetByID(ctx context.Context, unitID uuid.UUID) (*models.Unit, error) {
	query := `
		SELECT unit_uuid, project_uuid, is_available
		FROM unit
		WHERE unit_uuid = $1
	`

	unit := &models.Unit{}
	err := r.db.QueryRow(ctx, query, unitID).Scan(
		&unit.UnitUUID,
		&unit.ProjectUUID,
		&unit.IsAvailable,
	)
	if err != nil {
		return nil, db.TranslateError(fmt.Errorf("get unit: %w", err))
	}

	return unit, nil
}

// ListByProject retrieves all units of a project
func (r *UnitRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Unit, error) {
	query := `
		SELECT unit_uuid, project_uuid, is_available
		FROM unit
		WHERE project_uuid = $1
		ORDER BY unit_uuid ASC
	`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list units by project: %w", err)
	}
	defer rows.Close()

	var units []*models.Unit
	for rows.Next() {
		unit := &models.Unit{}
		if err := rows.Scan(&unit.UnitUUID, &unit.ProjectUUID, &unit.IsAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units = append(units, unit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating units: %w", err)
	}

	return units, nil
}
