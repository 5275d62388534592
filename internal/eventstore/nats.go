package eventstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// Publisher fans events out to an external system.
type Publisher interface {
	Publish(ctx context.Context, e *Event) error
	Close() error
}

// NATSConfig locates the server, subject prefix and stream.
type NATSConfig struct {
	URL     string
	Subject string
	Stream  string
	Timeout time.Duration
}

// NATSPublisher publishes events to a JetStream stream. Each event goes to
// "<subject>.<event type>".
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
	timeout time.Duration
}

// NewNATSPublisher connects and ensures the stream exists.
func NewNATSPublisher(ctx context.Context, cfg NATSConfig) (*NATSPublisher, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("docsite"),
		nats.Timeout(cfg.Timeout),
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", cfg.URL).
			Build()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to create JetStream context").Build()
	}

	sctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	_, err = js.CreateOrUpdateStream(sctx, jetstream.StreamConfig{
		Name:        cfg.Stream,
		Description: "docsite run and task events",
		Subjects:    []string{cfg.Subject + ".>"},
		MaxAge:      30 * 24 * time.Hour,
	})
	if err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to create event stream").
			WithContext("stream", cfg.Stream).
			Build()
	}

	slog.Info("NATS event publisher initialized",
		logfields.URL(cfg.URL),
		slog.String("subject", cfg.Subject),
		slog.String("stream", cfg.Stream))

	return &NATSPublisher{conn: conn, js: js, subject: cfg.Subject, timeout: cfg.Timeout}, nil
}

// Publish sends e and waits for the stream acknowledgement.
func (p *NATSPublisher) Publish(ctx context.Context, e *Event) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	data, err := json.Marshal(e)
	if err != nil {
		return errors.WrapError(err, errors.CategoryHistory, "failed to marshal event").Build()
	}
	if _, err := p.js.Publish(ctx, p.subject+"."+e.Type, data); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to publish event").
			WithContext("type", e.Type).
			Build()
	}
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
