package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/config"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/infra"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/metrics"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/middleware"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/router"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/service"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// dev: pretty, prod: JSON
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Collaborators ────────────────────────────────────────────────────────
	var (
		feed    service.SalesFeed
		breaker *infra.CircuitBreaker
	)
	if cfg.SalesFeedURL != "" {
		cbCfg := infra.DefaultCBConfig("sales_feed")
		if cfg.CBFailureThreshold > 0 {
			cbCfg.FailureThreshold = cfg.CBFailureThreshold
		}
		if cfg.CBOpenTimeout > 0 {
			cbCfg.OpenTimeout = cfg.CBOpenTimeout
		}
		breaker = infra.NewCircuitBreaker(cbCfg)
		feed = infra.NewSalesFeedClient(cfg.SalesFeedURL, cfg.SalesFeedTimeout, breaker)
	} else {
		log.Info().Msg("SALES_FEED_URL not set, expected totals come from the movement ledger")
	}

	directory := infra.NewDirectoryClient(cfg.DirectoryURL, rdb, cfg.DirectoryCacheTTL)

	// ── Workers ──────────────────────────────────────────────────────────────
	dispatcher := worker.NewDispatcher(rdb)
	events := worker.NewSessionEvents(dispatcher, splitList(cfg.VarianceAlertTo), cfg.AlertThreshold())

	pool := worker.NewPool(rdb)
	pool.Register(worker.QueueSessionReport, worker.NewReportWorker(infra.NewReportHookClient(cfg.ReportHookURL)))
	pool.Register(worker.QueueVarianceAlert, worker.NewAlertWorker(infra.NewMailer(cfg)))
	pool.Start(ctx, cfg.WorkerPoolSize)

	// ── HTTP ─────────────────────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	lim, err := middleware.NewLimiter(cfg.RateLimit, rdb)
	if err != nil {
		log.Fatal().Err(err).Str("rate", cfg.RateLimit).Msg("invalid RATE_LIMIT")
	}

	r := router.New(cfg, router.Deps{
		DB:          db,
		Redis:       rdb,
		Feed:        feed,
		FeedBreaker: breaker,
		Directory:   directory,
		Notifier:    events,
		Metrics:     metrics.New(reg),
		Gatherer:    reg,
		Limiter:     lim,
		Origins:     router.ParseOrigins(cfg.CORSOrigins),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("cash desk service listening on :%d", cfg.Port)
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

	// Stop polling; jobs already taken run to completion.
	cancel()
	pool.Wait()
	_ = rdb.Close()
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
