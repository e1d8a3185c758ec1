package main

import (
	"context"
	"errors"
	"eventFinder/internal/clients/currency"
	"eventFinder/internal/clients/listings"
	"eventFinder/internal/config"
	"eventFinder/internal/daterange"
	"eventFinder/internal/http-server/handlers/event/findEvents"
	"eventFinder/internal/http-server/handlers/health"
	"eventFinder/internal/http-server/middleware/mwlogger"
	"eventFinder/internal/lib/future"
	"eventFinder/internal/lib/logger/handlers/slogpretty"
	"eventFinder/internal/lib/logger/sl"
	"eventFinder/internal/metrics"
	"eventFinder/internal/pipeline"
	"eventFinder/internal/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting event finder", slog.String("env", cfg.Env), slog.String("pipeline", cfg.Pipeline.Style))
	log.Debug("Debug messages are enabled")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	mem := ratelimit.NewMemoryStatsStore()
	limiterOpts := []ratelimit.Option{ratelimit.WithStats(m), ratelimit.WithStats(mem)}

	var rdb *redis.Client
	if cfg.RateStats.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RateStats.RedisAddr,
			Password: cfg.RateStats.RedisPassword,
			DB:       cfg.RateStats.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Error("failed to connect to redis, limiter stats stay in process", sl.Err(err))
			_ = rdb.Close()
			rdb = nil
		}
	}
	if rdb != nil {
		limiterOpts = append(limiterOpts, ratelimit.WithStats(ratelimit.NewRedisStatsStore(rdb,
			ratelimit.WithStatsPrefix(cfg.RateStats.Prefix),
			ratelimit.WithStatsTTL(cfg.RateStats.TTL),
		)))
	}

	limiter := ratelimit.New(cfg.Listings.RateLimit, limiterOpts...)
	m.TrackPermits(limiter.Capacity, limiter.InUse)

	pool := future.NewPool(cfg.Pipeline.Workers, cfg.Pipeline.Queue)

	events := listings.New(cfg.Listings, limiter, pool, m, log)
	rates := currency.New(cfg.Currency, m, log)
	dates := daterange.New()

	var aggregator pipeline.Aggregator
	switch cfg.Pipeline.Style {
	case "future":
		aggregator = pipeline.NewFuture(dates, events, rates, log, m)
	default:
		aggregator = pipeline.NewStream(dates, events, rates, log, m)
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwlogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Get("/health", health.New(log, limiter, mem))
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	router.Get("/events", findEvents.New(log, aggregator))

	log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT, os.Interrupt)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", sl.Err(err))
			stop <- syscall.SIGTERM
		}
	}()

	sign := <-stop

	log.Info("application stopping", slog.String("signal", sign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.Timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server", sl.Err(err))
	}

	log.Info("application stopped")

	pool.Close()

	log.Info("worker pool drained")

	limiter.Close()

	log.Info("limiter stats flushed")

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error("failed to close redis connection", sl.Err(err))
		}

		log.Info("redis connection closed")
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	h := opts.NewPrettyHandler(os.Stdout)

	return slog.New(h)
}
