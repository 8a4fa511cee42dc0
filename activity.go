package membership

import (
	"context"
	"time"
)

const (
	// AuditCategoryUser is the category of all membership audit entries
	AuditCategoryUser = "User"

	AuditActionLogin     = "Login"
	AuditActionAutoLogin = "AutoLogin"
	AuditActionLogout    = "Logout"
)

// AuditEntry captures one login related event
type AuditEntry struct {
	Category  string    `json:"category"`
	Action    string    `json:"action"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	ActorID   string    `json:"actor_id,omitempty"`
	ActorName string    `json:"actor_name,omitempty"`
	Origin    string    `json:"origin,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditSink persists audit entries. Sinks run best effort, errors are
// logged and never fail the operation being audited.
type AuditSink interface {
	WriteLog(ctx context.Context, entry AuditEntry) error
}

// AuditSinkFunc adapts a function to the AuditSink interface.
type AuditSinkFunc func(ctx context.Context, entry AuditEntry) error

// WriteLog implements AuditSink.
func (f AuditSinkFunc) WriteLog(ctx context.Context, entry AuditEntry) error {
	if f == nil {
		return nil
	}
	return f(ctx, entry)
}

type noopAuditSink struct{}

func (noopAuditSink) WriteLog(context.Context, AuditEntry) error {
	return nil
}

func normalizeAuditSink(s AuditSink) AuditSink {
	if s == nil {
		return noopAuditSink{}
	}
	return s
}

// LoggerAuditSink writes audit entries to a Logger
type LoggerAuditSink struct {
	Logger Logger
}

// WriteLog implements AuditSink.
func (s LoggerAuditSink) WriteLog(_ context.Context, entry AuditEntry) error {
	logger := s.Logger
	if logger == nil {
		logger = defLogger{}
	}

	logger.Info("audit",
		"category", entry.Category,
		"action", entry.Action,
		"success", entry.Success,
		"message", entry.Message,
		"actor_id", entry.ActorID,
		"actor_name", entry.ActorName,
		"origin", entry.Origin,
	)
	return nil
}

type auditor struct {
	sink   AuditSink
	logger Logger
	now    func() time.Time
}

func (a auditor) write(ctx context.Context, entry AuditEntry) {
	if entry.Category == "" {
		entry.Category = AuditCategoryUser
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = a.now()
	}

	if err := normalizeAuditSink(a.sink).WriteLog(ctx, entry); err != nil {
		a.logger.Warn("audit sink write error", "error", err, "action", entry.Action)
	}
}
