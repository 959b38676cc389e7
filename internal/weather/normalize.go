package weather

import (
	"log/slog"
	"sync"
	"time"
)

// Normalization constants.
const (
	hPaToMmHg  = 0.75006 // surface pressure: hectopascals -> millimetres of mercury
	cmToMm     = 10.0    // snowfall: centimetres -> millimetres
	northLimit = 337.5   // degrees at or above this wrap around to "N"
)

// octants are the eight compass sector labels, 45 degrees each.
var octants = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// WindDirectionLabel maps wind direction degrees to a compass octant label.
// Sectors are centred on their direction, so the sector boundaries sit at
// 22.5, 67.5, ... degrees. Inputs outside [0, 360] are rejected.
func WindDirectionLabel(degrees float64) (string, bool) {
	if degrees < 0 || degrees > 360 {
		return "", false
	}
	if degrees >= northLimit {
		return octants[0], true
	}
	return octants[int((degrees+22.5)/45)], true
}

// Normalizer maps raw current-conditions payloads into typed, unit-converted
// records. Missing upstream fields propagate as nulls; each distinct missing
// field is reported once per process.
type Normalizer struct {
	logger *slog.Logger

	mu     sync.Mutex
	warned map[string]bool
}

// NewNormalizer creates a Normalizer that reports missing fields on logger.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{
		logger: logger,
		warned: make(map[string]bool),
	}
}

// Normalize builds a Record candidate from the payload's current-conditions
// section. A nil current section yields nil: nothing to persist, not an error.
// fetchedAt is used as the observation time when the payload carries none.
func (n *Normalizer) Normalize(fetchedAt time.Time, lat, lon float64, cur *CurrentConditions) *Record {
	if cur == nil {
		return nil
	}

	rec := &Record{
		Timestamp:     n.observationTime(fetchedAt, cur.Time),
		Latitude:      lat,
		Longitude:     lon,
		Temperature:   n.optional("temperature_2m", cur.Temperature),
		WindSpeed:     n.optional("wind_speed_10m", cur.WindSpeed),
		Precipitation: n.optional("precipitation", cur.Precipitation),
		Rain:          n.optional("rain", cur.Rain),
		Showers:       n.optional("showers", cur.Showers),
	}

	if p := n.optional("surface_pressure", cur.SurfacePressure); p != nil {
		if *p < 0 {
			n.logger.Warn("rejecting negative surface pressure", "hpa", *p)
		} else {
			mmHg := *p * hPaToMmHg
			rec.Pressure = &mmHg
		}
	}

	if s := n.optional("snowfall", cur.Snowfall); s != nil {
		mm := *s * cmToMm
		rec.Snowfall = &mm
	}

	if d := n.optional("wind_direction_10m", cur.WindDirection); d != nil {
		if label, ok := WindDirectionLabel(*d); ok {
			rec.WindDirection = &label
		} else {
			n.logger.Warn("rejecting out-of-range wind direction", "degrees", *d)
		}
	}

	return rec
}

// observationTime parses the payload's ISO-8601 time. An offset encoded in the
// string is respected; offsetless strings are taken as UTC (the upstream
// default). The stored instant is always expressed in UTC.
func (n *Normalizer) observationTime(fetchedAt time.Time, s *string) time.Time {
	if s == nil {
		n.warnMissing("time")
		return fetchedAt.UTC()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if ts, err := time.Parse(layout, *s); err == nil {
			return ts.UTC()
		}
	}
	n.logger.Warn("unparseable observation time, using fetch time", "time", *s)
	return fetchedAt.UTC()
}

func (n *Normalizer) optional(field string, v *float64) *float64 {
	if v == nil {
		n.warnMissing(field)
		return nil
	}
	return v
}

func (n *Normalizer) warnMissing(field string) {
	n.mu.Lock()
	seen := n.warned[field]
	n.warned[field] = true
	n.mu.Unlock()

	if !seen {
		n.logger.Warn("upstream payload is missing a field", "field", field)
	}
}
