package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/cheapstop/gateway/internal/core/domain"
)

// Subject layout. Session subjects use core NATS (latest state only,
// no replay value); analytics events go through JetStream.
const (
	searchEventsStream  = "SEARCH_EVENTS"
	searchEventsSubject = "cheapstop.search.completed"
	sessionStateSubject = "cheapstop.session.%s.state"
	sessionNavSubject   = "cheapstop.session.%s.nav"
)

// SessionStateSubject returns the push subject for a session's state
// snapshots; the WebSocket relay subscribes here.
func SessionStateSubject(sessionID string) string {
	return fmt.Sprintf(sessionStateSubject, sessionID)
}

// SessionNavSubject returns the subject navigation hand-offs are
// delivered on.
func SessionNavSubject(sessionID string) string {
	return fmt.Sprintf(sessionNavSubject, sessionID)
}

// Publisher implements ports.EventPublisher and ports.NavigationLauncher
// over a single NATS connection with JetStream for the analytics stream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the analytics stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      searchEventsStream,
		Subjects:  []string{"cheapstop.search.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist — try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishSearchEvent records a completed search on the analytics stream.
func (p *Publisher) PublishSearchEvent(ctx context.Context, ev *domain.SearchEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(searchEventsSubject, data)
	return err
}

// PublishSessionState pushes a session snapshot to its state subject.
// Core NATS only: subscribers want the freshest snapshot, not history.
func (p *Publisher) PublishSessionState(ctx context.Context, sessionID string, snapshot []byte) error {
	return p.conn.Publish(SessionStateSubject(sessionID), snapshot)
}

// OpenRoute delivers a navigation hand-off to whatever client surface
// is attached to the session. Fire and forget by contract.
func (p *Publisher) OpenRoute(ctx context.Context, sessionID string, req domain.NavigationRequest) error {
	data, err := json.Marshal(map[string]string{
		"url":        req.URL(),
		"travelMode": req.TravelMode,
	})
	if err != nil {
		return err
	}
	return p.conn.Publish(SessionNavSubject(sessionID), data)
}

// Ping verifies the connection for readiness checks.
func (p *Publisher) Ping() error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("nats not connected (status %v)", p.conn.Status())
	}
	return nil
}

// Conn exposes the underlying connection for subscribers (WebSocket relay).
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
