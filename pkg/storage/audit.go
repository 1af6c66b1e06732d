package storage

import (
	"context"
	"time"

	"github.com/renovalink/escrow-ledger/pkg/models"
)

// AuditReader defines the compliance query surface over the audit log.
// All queries are time-descending; pass a zero `before` for the newest page,
// or the oldest timestamp of the previous page to continue.
type AuditReader interface {
	// ListAuditByTarget retrieves entries for a target (e.g. a wallet).
	ListAuditByTarget(ctx context.Context, targetID string, limit int32, before time.Time) ([]models.AuditEntry, error)

	// ListAuditByActor retrieves entries recorded against an actor.
	ListAuditByActor(ctx context.Context, actorID string, limit int32, before time.Time) ([]models.AuditEntry, error)

	// ListAuditByEventType retrieves entries of a single event type.
	ListAuditByEventType(ctx context.Context, eventType string, limit int32, before time.Time) ([]models.AuditEntry, error)
}

// AuditWriter is the privileged append-only write side of the audit log.
// Only the audit outbox consumer should hold this interface; entries are
// never updated or deleted once written.
type AuditWriter interface {
	PutAuditEntry(ctx context.Context, entry *models.AuditEntry) error
}
