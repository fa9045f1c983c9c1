package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"congregate/config"
	_ "congregate/docs"
	"congregate/internal/adapters/auth"
	"congregate/internal/adapters/notify"
	delivery "congregate/internal/delivery/http"
	"congregate/internal/delivery/http/controllers"
	"congregate/internal/domain"
	"congregate/internal/repository/postgres"
	"congregate/internal/services"
)

// @title Congregate Registration API
// @version 1.0
// @description Multi-tenant church event registration and offline sync service.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancelPing()
		logger.Error("failed to reach database", "error", err)
		os.Exit(1)
	}
	cancelPing()

	eventRepo := postgres.NewEventRepository(db)
	registrationRepo := postgres.NewRegistrationRepository(db)
	membershipRepo := postgres.NewMembershipRepository(db)
	idempotencyRepo := postgres.NewIdempotencyRepository(db)
	auditSink := postgres.NewAuditSink(db)

	notifier, err := notify.NewDispatcher(notify.Config{
		Provider: cfg.NotifierProvider,
		AMQP:     notify.AMQPConfig{URL: cfg.AMQPUrl},
		SES: notify.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretAccessKey,
			FromAddress:     cfg.MailFromAddress,
			FromName:        cfg.MailFromName,
		},
	}, logger, membershipRepo)
	if err != nil {
		logger.Error("failed to create notifier", "error", err)
		os.Exit(1)
	}

	accessResolver := services.NewAccessResolver(membershipRepo)
	visibility := services.NewVisibilityFilter()
	rsvpService := services.NewRSVPService(
		logger, eventRepo, registrationRepo, accessResolver, visibility,
		notifier, auditSink, cfg.EnrollMaxRetries, 50*time.Millisecond,
	)

	retention := time.Duration(cfg.IdempotencyTTLHours) * time.Hour
	syncService := services.NewSyncService(
		logger, rsvpService, registrationRepo, idempotencyRepo,
		cfg.SyncMaxBatch, retention,
	)

	_, verifier := auth.NewJWTTokens(cfg.JWTSecret)

	router := delivery.NewRouter(
		logger,
		verifier,
		cfg.CORSAllowedOrigins,
		controllers.NewRSVPController(logger, rsvpService),
		controllers.NewSyncController(logger, syncService),
		controllers.NewHealthController(logger, db),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go purgeExpiredIdempotencyRecords(rootCtx, logger, idempotencyRepo)

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// purgeExpiredIdempotencyRecords periodically deletes sync results whose
// replay window has passed. Runs until ctx is cancelled.
func purgeExpiredIdempotencyRecords(ctx context.Context, logger *slog.Logger, repo domain.IdempotencyRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purgeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			n, err := repo.PurgeExpired(purgeCtx, time.Now())
			cancel()
			if err != nil {
				logger.Warn("idempotency purge failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged expired idempotency records", "count", n)
			}
		}
	}
}
