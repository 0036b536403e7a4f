// Package nats implements the audit sink port using NATS JetStream. Events
// are published to durable subjects so operators can attach consumers for
// alerting or archival without touching the application.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/openshelf/openshelf/internal/port/audit"
)

const streamName = "OPENSHELF"

// Sink publishes audit events to a JetStream stream.
type Sink struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and ensures the JetStream stream exists.
func Connect(ctx context.Context, url string) (*Sink, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"audit.>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Sink{nc: nc, js: js}, nil
}

// Record publishes the event to audit.<action>. Publish failures are logged
// and swallowed; auditing must never fail the request that produced the event.
func (s *Sink) Record(ctx context.Context, ev audit.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("audit event marshal failed", "action", ev.Action, "error", err)
		return
	}
	subject := "audit." + ev.Action
	if _, err := s.js.Publish(ctx, subject, data); err != nil {
		slog.Error("audit publish failed", "subject", subject, "error", err)
	}
}

// Close shuts down the NATS connection.
func (s *Sink) Close() error {
	s.nc.Close()
	return nil
}
