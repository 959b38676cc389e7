package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/KirGorbunov/weather-test-task/internal/store"
	"github.com/KirGorbunov/weather-test-task/internal/weather"
)

// cycleTimeout bounds one fetch-and-persist cycle. A cycle that cannot finish
// within this window is abandoned; the next tick starts fresh.
const cycleTimeout = 30 * time.Second

// Scheduler runs the ingestion loop: fetch, normalize, persist, on a fixed
// interval. Fetch failures only cost the current tick; persistence failures
// are fatal and surface on Fatal().
type Scheduler struct {
	scheduler  *gocron.Scheduler
	provider   weather.Provider
	normalizer *weather.Normalizer
	store      store.Store
	latitude   float64
	longitude  float64
	interval   time.Duration
	logger     *slog.Logger
	fatal      chan error
}

// New creates a Scheduler polling the given coordinates every interval.
func New(provider weather.Provider, normalizer *weather.Normalizer, st store.Store,
	latitude, longitude float64, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		provider:   provider,
		normalizer: normalizer,
		store:      st,
		latitude:   latitude,
		longitude:  longitude,
		interval:   interval,
		logger:     logger,
		fatal:      make(chan error, 1),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first cycle runs immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	seconds := int(s.interval.Seconds())
	if seconds <= 0 {
		seconds = 180
	}

	_, err := s.scheduler.Every(seconds).Seconds().Do(func() {
		if err := s.cycle(ctx); err != nil {
			// Keep only the first fatal error; the supervisor stops us anyway.
			select {
			case s.fatal <- err:
			default:
			}
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future ticks.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// Fatal delivers the first non-recoverable ingestion error.
func (s *Scheduler) Fatal() <-chan error {
	return s.fatal
}

// cycle performs one fetch -> normalize -> persist pass. A fetch failure or a
// payload without current conditions yields no record and a nil error.
func (s *Scheduler) cycle(ctx context.Context) error {
	log := s.logger.With("cycle", uuid.NewString())

	cctx, cancel := context.WithTimeout(ctx, cycleTimeout)
	defer cancel()

	cur, err := s.provider.Current(cctx, s.latitude, s.longitude)
	if err != nil {
		log.Error("weather fetch failed", "provider", s.provider.Name(), "error", err)
		return nil
	}

	rec := s.normalizer.Normalize(time.Now(), s.latitude, s.longitude, cur)
	if rec == nil {
		log.Debug("payload has no current conditions, skipping")
		return nil
	}

	id, err := s.store.InsertRecord(cctx, *rec)
	if err != nil {
		log.Error("persisting weather record failed", "error", err)
		return err
	}

	log.Info("persisted weather record", "id", id, "timestamp", rec.Timestamp)
	return nil
}
