package weather

import (
	"time"
)

// Record is one persisted weather reading. All weather fields are independently
// nullable because the upstream API may omit any current-conditions field;
// missing values stay missing instead of turning into zeroes.
type Record struct {
	ID            int64     `json:"id"`
	Timestamp     time.Time `json:"timestamp"` // always UTC
	Latitude      float64   `json:"latitude"`  // query coordinate, not sensor location
	Longitude     float64   `json:"longitude"`
	Temperature   *float64  `json:"temperature"`   // °C
	WindSpeed     *float64  `json:"windSpeed"`     // m/s
	WindDirection *string   `json:"windDirection"` // compass octant label
	Pressure      *float64  `json:"pressure"`      // mmHg
	Precipitation *float64  `json:"precipitation"` // mm
	Rain          *float64  `json:"rain"`          // mm
	Showers       *float64  `json:"showers"`       // mm
	Snowfall      *float64  `json:"snowfall"`      // mm
}

// CurrentConditions is the `current` object of the upstream payload.
// Pointer fields distinguish "absent" from zero values.
type CurrentConditions struct {
	Time            *string  `json:"time"`
	Temperature     *float64 `json:"temperature_2m"`
	Precipitation   *float64 `json:"precipitation"`
	Rain            *float64 `json:"rain"`
	Showers         *float64 `json:"showers"`
	Snowfall        *float64 `json:"snowfall"`
	SurfacePressure *float64 `json:"surface_pressure"`
	WindSpeed       *float64 `json:"wind_speed_10m"`
	WindDirection   *float64 `json:"wind_direction_10m"`
}
