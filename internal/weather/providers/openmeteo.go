package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/KirGorbunov/weather-test-task/internal/weather"
)

// currentFields is the comma-joined list of current-conditions fields requested
// from the API. Wind speed is requested in metres per second.
const currentFields = "temperature_2m,precipitation,rain,showers,snowfall,surface_pressure,wind_speed_10m,wind_direction_10m"

// ErrNoData signals that the upstream answered with a non-200 status. The
// caller logs it and waits for the next scheduled tick; there is no retry.
var ErrNoData = errors.New("weather API returned no data")

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoProvider creates a provider hitting baseURL with the given
// client. The circuit breaker fails fast when the upstream keeps flapping; it
// never retries a request.
func NewOpenMeteoProvider(client *http.Client, baseURL string) *OpenMeteoProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		client:  client,
		circuit: cb,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// Current issues one GET for the current conditions at the given coordinates.
// It returns the payload's `current` object, which may be nil when the
// upstream omits it.
func (p *OpenMeteoProvider) Current(ctx context.Context, lat, lon float64) (*weather.CurrentConditions, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("current", currentFields)
	values.Set("wind_speed_unit", "ms")

	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	result, err := p.circuit.Execute(func() (interface{}, error) {
		resp, err := p.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: status %d", ErrNoData, resp.StatusCode)
		}

		var payload struct {
			Current *weather.CurrentConditions `json:"current"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode weather payload: %w", err)
		}
		return payload.Current, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrNoData)
		}
		return nil, err
	}

	cur, _ := result.(*weather.CurrentConditions)
	return cur, nil
}
