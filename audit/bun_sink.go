package audit

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-membership"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuditLog is the bun model for audit entries
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID        uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Category  string     `bun:"category,notnull" json:"category"`
	Action    string     `bun:"action,notnull" json:"action"`
	Success   bool       `bun:"success,notnull" json:"success"`
	Message   string     `bun:"message" json:"message,omitempty"`
	ActorID   string     `bun:"actor_id" json:"actor_id,omitempty"`
	ActorName string     `bun:"actor_name" json:"actor_name,omitempty"`
	Origin    string     `bun:"origin" json:"origin,omitempty"`
	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Entry converts the row back into an audit entry
func (l *AuditLog) Entry() membership.AuditEntry {
	entry := membership.AuditEntry{
		Category:  l.Category,
		Action:    l.Action,
		Success:   l.Success,
		Message:   l.Message,
		ActorID:   l.ActorID,
		ActorName: l.ActorName,
		Origin:    l.Origin,
	}
	if l.CreatedAt != nil {
		entry.CreatedAt = *l.CreatedAt
	}
	return entry
}

func newAuditLog(entry membership.AuditEntry) *AuditLog {
	row := &AuditLog{
		ID:        uuid.New(),
		Category:  entry.Category,
		Action:    entry.Action,
		Success:   entry.Success,
		Message:   entry.Message,
		ActorID:   entry.ActorID,
		ActorName: entry.ActorName,
		Origin:    entry.Origin,
	}
	if !entry.CreatedAt.IsZero() {
		at := entry.CreatedAt
		row.CreatedAt = &at
	}
	return row
}

// BunSink writes audit entries to the audit_logs table
type BunSink struct {
	db bun.IDB
}

var _ membership.AuditSink = (*BunSink)(nil)

// NewBunSink creates a sink over db
func NewBunSink(db bun.IDB) *BunSink {
	return &BunSink{db: db}
}

func (s *BunSink) WriteLog(ctx context.Context, entry membership.AuditEntry) error {
	row := newAuditLog(entry)
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to write audit log").
			WithMetadata(map[string]any{
				"action": entry.Action,
			})
	}
	return nil
}

// Recent returns the latest entries for actorID, newest first. An
// empty actorID returns entries of every actor.
func (s *BunSink) Recent(ctx context.Context, actorID string, limit int) ([]membership.AuditEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []AuditLog
	q := s.db.NewSelect().
		Model(&rows).
		OrderExpr("?TableAlias.created_at DESC").
		Limit(limit)

	if actorID != "" {
		q = q.Where("?TableAlias.actor_id = ?", actorID)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to read audit logs")
	}

	out := make([]membership.AuditEntry, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].Entry())
	}
	return out, nil
}
