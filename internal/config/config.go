package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Settings is the process-wide configuration. It is loaded once at startup and
// never mutated afterwards.
type Settings struct {
	// Database connection.
	PostgresHost     string `validate:"required"`
	PostgresPort     int    `validate:"min=1,max=65535"`
	PostgresUser     string `validate:"required"`
	PostgresPassword string `validate:"required"`
	PostgresDB       string `validate:"required"`
	PostgresSSLMode  string

	// Weather polling.
	WeatherURL string  `validate:"required,url"`
	Latitude   float64 `validate:"min=-90,max=90"`
	Longitude  float64 `validate:"min=-180,max=180"`
	Period     time.Duration

	// Export.
	FileName  string `validate:"required"`
	RowNumber int    `validate:"min=1"`

	// Status API. Empty HTTPAddr disables the server.
	HTTPAddr    string
	HTTPTimeout time.Duration

	LogLevel string
}

// Load reads configuration from environment with sensible defaults.
// Required variables without a value make Load fail.
func Load() (*Settings, error) {
	cfg := &Settings{
		PostgresHost:     getenvDefault("POSTGRES_HOST", "localhost"),
		PostgresPort:     getenvInt("POSTGRES_PORT", 5432),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresSSLMode:  getenvDefault("POSTGRES_SSLMODE", "disable"),

		WeatherURL: getenvDefault("WEATHER_URL", "https://api.open-meteo.com/v1/forecast"),

		FileName:  getenvDefault("FILE_NAME", "weather_data"),
		RowNumber: getenvInt("ROW_NUMBER", 10),

		HTTPAddr: getenvDefault("HTTP_ADDR", ":8080"),
		LogLevel: getenvDefault("LOG_LEVEL", "info"),
	}

	lat, err := getenvFloat("LATITUDE", 55.69853856903821)
	if err != nil {
		return nil, fmt.Errorf("invalid LATITUDE: %w", err)
	}
	cfg.Latitude = lat

	lon, err := getenvFloat("LONGITUDE", 37.35957649999993)
	if err != nil {
		return nil, fmt.Errorf("invalid LONGITUDE: %w", err)
	}
	cfg.Longitude = lon

	// Polling period: plain seconds, default 180.
	periodSec := getenvInt("PERIOD", 180)
	if periodSec <= 0 {
		return nil, fmt.Errorf("invalid PERIOD: must be a positive number of seconds, got %d", periodSec)
	}
	cfg.Period = time.Duration(periodSec) * time.Second

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DSN builds the lib/pq connection string for the configured database.
func (s *Settings) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(s.PostgresUser, s.PostgresPassword),
		Host:     fmt.Sprintf("%s:%d", s.PostgresHost, s.PostgresPort),
		Path:     s.PostgresDB,
		RawQuery: "sslmode=" + url.QueryEscape(s.PostgresSSLMode),
	}
	return u.String()
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}
