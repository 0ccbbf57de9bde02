package repository

import (
	"context"
	"fmt"

	"github.com/helcity/homesales/cmd/salesapi/models"
	"github.com/helcity/homesales/common/db"
)

// AuditRepository writes audit log entries outside queue transactions:
// read operations and FORBIDDEN attempts that never reach a mutation.
// Mutations audit through UnitQueue.RecordAudit instead, so the entry
// commits or rolls back with the mutation itself.
type AuditRepository struct {
	db *db.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(database *db.DB) *AuditRepository {
	return &AuditRepository{db: database}
}

// Record appends one audit entry
func (r *AuditRepository) Record(ctx context.Context, entry *models.AuditEntry) error {
	return insertAuditEntry(ctx, r.db, entry)
}

// List returns recent audit entries, newest first
func (r *AuditRepository) List(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	query := `
		SELECT id, actor, operation, target, status, timestamp
		FROM audit_log
		ORDER BY id DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		entry := &models.AuditEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.Actor,
			&entry.Operation,
			&entry.Target,
			&entry.Status,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

// insertAuditEntry is shared by the pool-level repository and the
// transactional unit queue
func insertAuditEntry(ctx context.Context, querier db.Querier, entry *models.AuditEntry) error {
	query := `
		INSERT INTO audit_log (actor, operation, target, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, timestamp
	`

	err := querier.QueryRow(ctx, query,
		entry.Actor,
		entry.Operation,
		entry.Target,
		entry.Status,
	).Scan(&entry.ID, &entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	return nil
}
