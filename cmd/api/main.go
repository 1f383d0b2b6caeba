package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nicuwatch/nicudash/internal/api/handlers"
	"github.com/nicuwatch/nicudash/internal/api/router"
	"github.com/nicuwatch/nicudash/internal/auth"
	"github.com/nicuwatch/nicudash/internal/config"
	"github.com/nicuwatch/nicudash/internal/domain/alarm"
	"github.com/nicuwatch/nicudash/internal/events"
	"github.com/nicuwatch/nicudash/internal/pkg/logger"
	"github.com/nicuwatch/nicudash/internal/pkg/validator"
	"github.com/nicuwatch/nicudash/internal/repository/postgres"
	"github.com/nicuwatch/nicudash/internal/services"
	"github.com/nicuwatch/nicudash/internal/worker"
	"github.com/nicuwatch/nicudash/migrations"
)

// @title NICU Alarm Dashboard API
// @version 1.0
// @description Alarm feed and alarm lifecycle actions for the NICU monitoring dashboard
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.ErrorWithErr(err, "Server exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	migrationsFS, err := migrations.ForDriver(cfg.Database.Driver)
	if err != nil {
		return err
	}
	applied, err := postgres.RunMigrations(ctx, db, cfg.Database.Driver, migrationsFS)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.With("applied", applied).Info("Database migrations complete")

	// Event stream
	var (
		publisher   alarm.EventPublisher = events.NopPublisher{}
		eventPinger handlers.EventPinger
	)
	if cfg.Redis.Enabled {
		client := events.NewRedisClient(cfg.Redis)
		defer client.Close()
		redisPublisher := events.NewRedisPublisher(client, cfg.Redis.Stream, cfg.Redis.MaxLen)
		if err := redisPublisher.Ping(ctx); err != nil {
			log.WithError(err).Warn("Redis unavailable at startup, alarm events will be retried per publish")
		}
		publisher = redisPublisher
		eventPinger = redisPublisher
	}

	alarmRepo := postgres.NewAlarmRepository(db, cfg.Database.Driver)
	patientRepo := postgres.NewPatientRepository(db, cfg.Database.Driver)

	silence := alarm.SilencePolicy{
		Default: int(cfg.Alarm.DefaultSilence / time.Second),
		Min:     int(cfg.Alarm.MinSilence / time.Second),
		Max:     int(cfg.Alarm.MaxSilence / time.Second),
	}
	queryService := services.NewAlarmQueryService(alarmRepo, log)
	processor := services.NewAlarmActionProcessor(alarmRepo, publisher, validator.New(), log, silence)
	patientService := services.NewPatientService(patientRepo, log)

	if cfg.Alarm.SweepEnabled {
		sweeper := worker.NewSilenceSweeper(processor, cfg.Alarm.SweepSchedule, cfg.Alarm.RequestTimeout, log)
		if err := sweeper.Start(ctx); err != nil {
			return err
		}
		defer sweeper.Stop()
	}

	h := &router.Handlers{
		Health:  handlers.NewHealthHandler(db, eventPinger, log),
		Alarm:   handlers.NewAlarmHandler(queryService, processor, log),
		Patient: handlers.NewPatientHandler(patientService, log),
	}
	gate := auth.NewJWTGate(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, gate, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"addr":        srv.Addr,
			"environment": cfg.Server.Environment,
			"driver":      cfg.Database.Driver,
		}).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
