package models

import "time"

// AuditOperation classifies what the actor attempted
type AuditOperation string

const (
	AuditCreate AuditOperation = "CREATE"
	AuditRead   AuditOperation = "READ"
	AuditUpdate AuditOperation = "UPDATE"
	AuditDelete AuditOperation = "DELETE"
)

// AuditStatus records the outcome of the attempt
type AuditStatus string

const (
	AuditSuccess   AuditStatus = "SUCCESS"
	AuditForbidden AuditStatus = "FORBIDDEN"
)

// AuditEntry is an append-only audit log row. SUCCESS entries are written
// in the same transaction as the mutation they document; FORBIDDEN entries
// are written before the access error propagates.
// Maps to: audit_log table
type AuditEntry struct {
	ID        int64          `db:"id" json:"id"`
	Actor     string         `db:"actor" json:"actor"`
	Operation AuditOperation `db:"operation" json:"operation"`
	Target    string         `db:"target" json:"target"`
	Status    AuditStatus    `db:"status" json:"status"`
	Timestamp time.Time      `db:"timestamp" json:"timestamp"`
}
