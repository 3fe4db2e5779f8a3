package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog is one row in audit_logs: who did what to which ledger
// entity. Posting, reversal, party and adjustment services all record
// through this shape.
type AuditLog struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger appends to the audit_logs table. Callers treat it as
// best-effort: a failed audit write never rolls back the posting it
// describes.
type AuditLogger struct {
	pool *pgxpool.Pool
}

func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists one audit row. Action, entity, and entity id are
// mandatory so the trail stays queryable; a zero At defers to the
// database clock.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit: action, entity, and entity_id are required")
	}
	if l == nil || l.pool == nil {
		return errors.New("audit: logger not configured")
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, auditInsertQuery,
		log.ActorID, log.Action, log.Entity, log.EntityID, metaJSON, occurredAt(log.At))
	return err
}

const auditInsertQuery = `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at)
VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`

// occurredAt maps a zero time to NULL so COALESCE falls through to the
// database clock instead of storing the Go zero value.
func occurredAt(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
