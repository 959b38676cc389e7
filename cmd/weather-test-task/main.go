package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	httpapi "github.com/KirGorbunov/weather-test-task/internal/api/http"
	"github.com/KirGorbunov/weather-test-task/internal/command"
	"github.com/KirGorbunov/weather-test-task/internal/config"
	"github.com/KirGorbunov/weather-test-task/internal/export"
	"github.com/KirGorbunov/weather-test-task/internal/logging"
	"github.com/KirGorbunov/weather-test-task/internal/scheduler"
	"github.com/KirGorbunov/weather-test-task/internal/store"
	"github.com/KirGorbunov/weather-test-task/internal/weather"
	"github.com/KirGorbunov/weather-test-task/internal/weather/providers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}
	slog.SetDefault(logger)

	if err := run(context.Background(), cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Settings, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Info("starting",
		"weatherURL", cfg.WeatherURL,
		"latitude", cfg.Latitude,
		"longitude", cfg.Longitude,
		"period", cfg.Period,
		"httpAddr", cfg.HTTPAddr,
	)

	// Connectivity failures are retried inside Open; anything else aborts startup.
	db, err := store.Open(ctx, cfg.DSN(), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("db close", "error", err)
		}
	}()

	if err := store.Migrate(db); err != nil {
		return err
	}

	st := store.NewPostgresStore(db)

	// Shared HTTP client for outbound weather calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	provider := providers.NewOpenMeteoProvider(httpClient, cfg.WeatherURL)
	normalizer := weather.NewNormalizer(logger)

	ingest := scheduler.New(provider, normalizer, st,
		cfg.Latitude, cfg.Longitude, cfg.Period, logger)
	if err := ingest.Start(ctx); err != nil {
		return err
	}
	defer ingest.Stop()

	exporter := export.NewService(st, ".", cfg.FileName, cfg.RowNumber, logger)

	cmdErr := make(chan error, 1)
	go func() {
		cmdErr <- command.New(os.Stdin, os.Stdout, exporter, logger).Run(ctx)
	}()

	var app *fiber.App
	httpErr := make(chan error, 1)
	if cfg.HTTPAddr != "" {
		app = newApp(st, cfg.RowNumber)
		go func() {
			if err := app.Listen(cfg.HTTPAddr); err != nil {
				httpErr <- err
			}
		}()
		logger.Info("status API listening", "addr", cfg.HTTPAddr)
	}

	// Supervisor: the first task to finish takes the process down. The
	// siblings are cancelled and awaited before returning so no connection
	// is left dangling.
	var runErr error
	cmdDone := false
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case err := <-cmdErr:
		cmdDone = true
		runErr = err
	case err := <-ingest.Fatal():
		runErr = err
	case err := <-httpErr:
		runErr = err
	}

	cancel()
	ingest.Stop()

	if app != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("http shutdown", "error", err)
		}
	}

	if !cmdDone {
		if err := <-cmdErr; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("command loop", "error", err)
		}
	}

	return runErr
}

func newApp(st store.Store, defaultLimit int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "weather-test-task",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-test-task",
		})
	})

	httpapi.RegisterRoutes(app, st, defaultLimit)
	return app
}
