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

	"cashdesk/internal/config"
	"cashdesk/internal/infra"
	"cashdesk/internal/router"
	"cashdesk/internal/service"
	"cashdesk/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Close reports: the ledger publishes, the pool emails them.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var publisher service.SessionReportPublisher
	var pool *worker.Pool
	if cfg.MailEnabled() {
		mailer := infra.NewMailer(cfg, infra.NewCircuitBreaker(infra.DefaultBreakerConfig()))
		pool = worker.NewPool(rdb, map[string]worker.Handler{
			worker.JobSessionReport: worker.NewReportWorker(mailer, cfg.ReportRecipients, cfg.CurrencyDecimals),
		})
		pool.Start(ctx, cfg.WorkerPoolSize)
		publisher = worker.NewDispatcher(rdb)
	} else {
		log.Warn().Msg("SMTP_HOST or REPORT_RECIPIENTS not set: close reports disabled")
	}

	r, stopRouter := router.New(cfg, db, rdb, publisher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("cashdesk listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	stopRouter()
	cancel()
	if pool != nil {
		pool.Wait()
	}
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}
