package store

import (
	"context"

	"github.com/KirGorbunov/weather-test-task/internal/weather"
)

// Store is the contract the Postgres store (and any test double) must satisfy.
// Readings are append-only: no updates, no deletes, no deduplication.
type Store interface {
	// InsertRecord appends one normalized record and returns its surrogate id.
	InsertRecord(ctx context.Context, rec weather.Record) (int64, error)

	// RecentRecords returns at most limit records ordered by timestamp
	// descending. An empty store yields an empty slice, not an error.
	RecentRecords(ctx context.Context, limit int) ([]weather.Record, error)
}
