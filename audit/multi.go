package audit

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-membership"
)

// Tee fans an entry out to every sink. All sinks are called; the
// errors are joined.
func Tee(sinks ...membership.AuditSink) membership.AuditSink {
	filtered := make([]membership.AuditSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}

	return membership.AuditSinkFunc(func(ctx context.Context, entry membership.AuditEntry) error {
		var errs []error
		for _, s := range filtered {
			if err := s.WriteLog(ctx, entry); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
