package weather

import (
	"context"
)

// Provider abstracts the upstream source of current conditions.
type Provider interface {
	Name() string
	Current(ctx context.Context, lat, lon float64) (*CurrentConditions, error)
}
