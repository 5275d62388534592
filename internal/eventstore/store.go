// Package eventstore records run and task lifecycle events in SQLite and
// optionally fans them out to NATS JetStream.
package eventstore

import (
	"context"
	"time"
)

// Store persists and retrieves events.
type Store interface {
	// Append stores e and returns its sequence number.
	Append(ctx context.Context, e *Event) (int64, error)

	// GetByRunID returns the events of one run in insertion order.
	GetByRunID(ctx context.Context, runID string) ([]*Event, error)

	// GetRange returns events with start <= timestamp <= end in insertion order.
	GetRange(ctx context.Context, start, end time.Time) ([]*Event, error)

	// RecentRunIDs returns up to limit run ids, most recently started first.
	RecentRunIDs(ctx context.Context, limit int) ([]string, error)

	Close() error
}
