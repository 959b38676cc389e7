package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	_ "github.com/lib/pq"

	"github.com/KirGorbunov/weather-test-task/internal/common"
	"github.com/KirGorbunov/weather-test-task/internal/weather"
)

// connectRetryDelay is the fixed pause between connection attempts during
// startup. Connectivity failures are retried until the context is cancelled;
// any other store error aborts startup.
const connectRetryDelay = 5 * time.Second

const insertRecordSQL = `
INSERT INTO weather
  (timestamp, latitude, longitude, temperature, wind_speed, wind_direction,
   pressure, precipitation, rain, showers, snowfall)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id`

const recentRecordsSQL = `
SELECT id, timestamp, latitude, longitude, temperature, wind_speed,
       wind_direction, pressure, precipitation, rain, showers, snowfall
FROM weather
ORDER BY timestamp DESC
LIMIT $1`

// Open connects to the database, retrying connectivity failures with a fixed
// delay. It returns only once a ping succeeds, a non-connectivity error is
// seen, or ctx is cancelled.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for {
		err := db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		if !isConnectivityError(err) {
			_ = db.Close()
			return nil, fmt.Errorf("database ping: %w", err)
		}

		logger.Warn("database unreachable, retrying", "error", err, "delay", connectRetryDelay)
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(connectRetryDelay):
		}
	}
}

// isConnectivityError reports whether err looks like a transient transport
// failure rather than a server-side rejection (bad credentials, missing
// database and the like).
func isConnectivityError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return common.HasAny(err.Error(),
		"connection refused",
		"connection reset",
		"no such host",
		"i/o timeout",
		"EOF",
	)
}

// PostgresStore persists weather records in a relational table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// InsertRecord appends one record. Nil optional fields are stored as NULL.
func (s *PostgresStore) InsertRecord(ctx context.Context, rec weather.Record) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, insertRecordSQL,
		rec.Timestamp.UTC(),
		rec.Latitude,
		rec.Longitude,
		rec.Temperature,
		rec.WindSpeed,
		rec.WindDirection,
		rec.Pressure,
		rec.Precipitation,
		rec.Rain,
		rec.Showers,
		rec.Snowfall,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert weather record: %w", err)
	}
	return id, nil
}

// RecentRecords returns at most limit records, newest first.
func (s *PostgresStore) RecentRecords(ctx context.Context, limit int) ([]weather.Record, error) {
	rows, err := s.db.QueryContext(ctx, recentRecordsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent records: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close recent records rows", "error", err)
		}
	}()

	var out []weather.Record
	for rows.Next() {
		var (
			rec           weather.Record
			temperature   sql.NullFloat64
			windSpeed     sql.NullFloat64
			windDirection sql.NullString
			pressure      sql.NullFloat64
			precipitation sql.NullFloat64
			rain          sql.NullFloat64
			showers       sql.NullFloat64
			snowfall      sql.NullFloat64
		)
		if err := rows.Scan(
			&rec.ID, &rec.Timestamp, &rec.Latitude, &rec.Longitude,
			&temperature, &windSpeed, &windDirection, &pressure,
			&precipitation, &rain, &showers, &snowfall,
		); err != nil {
			return nil, fmt.Errorf("scan weather record: %w", err)
		}

		rec.Timestamp = rec.Timestamp.UTC()
		rec.Temperature = nullFloat(temperature)
		rec.WindSpeed = nullFloat(windSpeed)
		rec.WindDirection = nullString(windDirection)
		rec.Pressure = nullFloat(pressure)
		rec.Precipitation = nullFloat(precipitation)
		rec.Rain = nullFloat(rain)
		rec.Showers = nullFloat(showers)
		rec.Snowfall = nullFloat(snowfall)

		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
