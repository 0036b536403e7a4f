// Package audit defines the audit sink port. Every access-policy denial and
// every license validation failure is recorded for later inspection; sink
// failures must never break the request that produced the event.
package audit

import (
	"context"
	"time"

	"github.com/openshelf/openshelf/internal/domain/actor"
)

// Event is one recorded security-relevant outcome.
type Event struct {
	ID       string      `json:"id"`
	Action   string      `json:"action"` // e.g. "access.forbidden", "license.rejected"
	Actor    actor.Actor `json:"actor"`
	TenantID string      `json:"tenant_id,omitempty"`
	Path     string      `json:"path,omitempty"`
	Outcome  string      `json:"outcome"`
	Reason   string      `json:"reason,omitempty"`
	At       time.Time   `json:"at"`
}

// Sink is the port interface for recording audit events.
type Sink interface {
	Record(ctx context.Context, ev Event)
}
