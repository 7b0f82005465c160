// internal/app/commands/recorder.go
package commands

import (
	"context"
	"log/slog"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/audit"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/events"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/ports/repository"
)

// Recorder appends an audit event and publishes it on the domain-event topic.
// Both are best-effort: the state change they describe has already happened,
// so a failure here is logged and swallowed.
type Recorder struct {
	auditRepo repository.AuditStore
	publisher events.Publisher
}

func NewRecorder(a repository.AuditStore, p events.Publisher) *Recorder {
	return &Recorder{auditRepo: a, publisher: p}
}

func (r *Recorder) Record(ctx context.Context, ev *audit.AuditEvent) {
	if r == nil || ev == nil {
		return
	}
	if r.auditRepo != nil {
		if err := r.auditRepo.Append(ctx, ev); err != nil {
			slog.WarnContext(ctx, "audit append failed", "action", ev.Action, "error", err)
		}
	}
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, ev.Key(), ev); err != nil {
			slog.WarnContext(ctx, "event publish failed", "action", ev.Action, "error", err)
		}
	}
}
