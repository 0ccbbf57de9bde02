package service

import (
	"context"

	"github.com/helcity/homesales/cmd/salesapi/models"
	"github.com/helcity/homesales/cmd/salesapi/repository"
	"github.com/helcity/homesales/common/logger"
)

// AuditService records audit events that happen outside a queue
// transaction: reads, and attempts that were rejected before any mutation
// started. Mutations write their own SUCCESS entries inside their
// transactions via UnitQueue.RecordAudit.
type AuditService struct {
	repo *repository.AuditRepository
	log  *logger.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(repo *repository.AuditRepository, log *logger.Logger) *AuditService {
	return &AuditService{
		repo: repo,
		log:  log,
	}
}

// Forbidden records a rejected access attempt. Called before the access
// error propagates to the client.
func (s *AuditService) Forbidden(ctx context.Context, actor string, operation models.AuditOperation, target string) {
	entry := &models.AuditEntry{
		Actor:     actor,
		Operation: operation,
		Target:    target,
		Status:    models.AuditForbidden,
	}

	if err := s.repo.Record(ctx, entry); err != nil {
		s.log.Error("failed to record forbidden audit entry", "actor", actor, "target", target, "error", err)
		return
	}

	s.log.Warn("forbidden access attempt", "actor", actor, "operation", operation, "target", target)
}

// Read records a successful read operation
func (s *AuditService) Read(ctx context.Context, actor, target string) {
	entry := &models.AuditEntry{
		Actor:     actor,
		Operation: models.AuditRead,
		Target:    target,
		Status:    models.AuditSuccess,
	}

	if err := s.repo.Record(ctx, entry); err != nil {
		s.log.Error("failed to record read audit entry", "actor", actor, "target", target, "error", err)
	}
}
