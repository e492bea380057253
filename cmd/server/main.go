package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pharmacyos/internal/config"
	"pharmacyos/internal/infra"
	"pharmacyos/internal/middleware"
	"pharmacyos/internal/repository"
	"pharmacyos/internal/router"
	"pharmacyos/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Console output in development, JSON lines in production
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL, cfg.MigrateOnBoot)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background jobs: receipt PDF rendering, receipt email, batch expiry.
	// Handlers are wired here so the pool shares the API's infrastructure.
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)
	saleRepo := repository.NewSaleRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	batchRepo := repository.NewBatchRepository(db)

	pool := worker.NewPool(rdb, map[string]worker.JobHandler{
		worker.JobReceipt: worker.NewReceiptWorker(saleRepo, orgRepo, dispatcher, cfg.ReceiptStoragePath),
		worker.JobEmail:   worker.NewEmailWorker(mailer, nil),
	})
	pool.Start(ctx, cfg.WorkerPoolSize)

	worker.NewExpirySweeper(batchRepo, time.Duration(cfg.ExpirySweepMinutes)*time.Minute).Start(ctx)
	middleware.StartRateLimitPurge(ctx)

	llmCB := infra.NewCircuitBreaker(infra.BreakerConfig{Name: "llm"})
	r := router.New(cfg, db, rdb, llmCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second, // assistant completions can take a while
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("env", cfg.Env).Msgf("pharmacyos backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
