package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// AuditLog is one row of the ledger audit trail. Every row belongs to a
// tenant; ActorID is Nil for automatic postings.
type AuditLog struct {
	TenantID uuid.UUID
	ActorID  uuid.UUID
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// ErrInvalidAuditLog flags rows missing their tenant or subject.
var ErrInvalidAuditLog = errors.New("audit log requires tenant, action, entity and entity id")

// Validate reports whether the row can be stored.
func (l AuditLog) Validate() error {
	if l.TenantID == uuid.Nil || l.Action == "" || l.Entity == "" || l.EntityID == "" {
		return ErrInvalidAuditLog
	}
	return nil
}

// Execer is the slice of pgxpool.Pool and pgx.Tx the audit writer needs.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	db  Execer
	now func() time.Time
}

// NewAuditLogger returns a logger writing through db.
func NewAuditLogger(db Execer) *AuditLogger {
	return &AuditLogger{db: db, now: time.Now}
}

const insertAuditLog = `INSERT INTO audit_logs (tenant_id, actor_id, action, entity, entity_id, meta, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.db == nil {
		return errors.New("audit logger not initialised")
	}
	if err := log.Validate(); err != nil {
		return err
	}
	meta := log.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("audit meta: %w", err)
	}
	at := log.At
	if at.IsZero() {
		at = l.now()
	}
	var actor any
	if log.ActorID != uuid.Nil {
		actor = log.ActorID
	}
	_, err = l.db.Exec(ctx, insertAuditLog, log.TenantID, actor, log.Action, log.Entity, log.EntityID, metaJSON, at.UTC())
	return err
}
