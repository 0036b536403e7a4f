// Package auditlog implements the audit sink port on the structured logger.
// It is the default sink when no NATS URL is configured: events land in the
// service log stream instead of a durable queue.
package auditlog

import (
	"context"
	"log/slog"

	"github.com/openshelf/openshelf/internal/port/audit"
)

// Sink writes audit events as structured log records.
type Sink struct {
	log *slog.Logger
}

// New creates a log-backed audit sink.
func New(log *slog.Logger) *Sink {
	return &Sink{log: log.With("component", "audit")}
}

// Record logs the event at warn level.
func (s *Sink) Record(ctx context.Context, ev audit.Event) {
	s.log.WarnContext(ctx, "audit event",
		"action", ev.Action,
		"actor_kind", ev.Actor.Kind,
		"user_id", ev.Actor.UserID,
		"tenant_id", ev.TenantID,
		"path", ev.Path,
		"outcome", ev.Outcome,
		"reason", ev.Reason,
	)
}
