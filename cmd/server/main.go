package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"givetrack/internal/donation/candidacy"
	"givetrack/internal/donation/handler"
	"givetrack/internal/donation/history"
	donationmetrics "givetrack/internal/donation/metrics"
	"givetrack/internal/donation/progress"
	"givetrack/internal/donation/service"
	candidacystore "givetrack/internal/donation/store/candidacy"
	donationstore "givetrack/internal/donation/store/donation"
	historystore "givetrack/internal/donation/store/history"
	progressstore "givetrack/internal/donation/store/progress"
	sequencestore "givetrack/internal/donation/store/sequence"
	"givetrack/internal/jwtauth"
	"givetrack/internal/platform/config"
	"givetrack/internal/platform/httpserver"
	"givetrack/internal/platform/logger"
	"givetrack/internal/platform/metrics"
	"givetrack/internal/platform/middleware"
	"givetrack/internal/platform/postgres"
	"givetrack/internal/platform/redis"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// main wires dependencies and owns the server lifecycle. Business logic
// lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Error("schema setup failed", "error", err)
			os.Exit(1)
		}
	}

	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var (
		donations      service.DonationStore
		candidacies    candidacy.Store
		progressStore  progress.Store
		historyStore   history.Store
		serviceOptions []service.Option
	)
	if pool != nil {
		donations = donationstore.NewPostgres(pool)
		candidacies = candidacystore.NewPostgres(pool)
		progressStore = progressstore.NewPostgres(pool)
		historyStore = historystore.NewPostgres(pool)
		serviceOptions = append(serviceOptions, service.WithTx(newDonationPostgresTx(pool)))
	} else {
		log.Warn("no DATABASE_URL configured, using in-memory stores")
		donations = donationstore.NewInMemory()
		candidacies = candidacystore.NewInMemory()
		progressStore = progressstore.NewInMemory()
		historyStore = historystore.NewInMemory()
	}

	var seq service.SequenceAllocator
	switch {
	case rdb != nil:
		seq = sequencestore.NewRedis(rdb.Client)
	case pool != nil:
		pgSeq := sequencestore.NewPostgres(pool)
		if err := pgSeq.EnsureCounter(ctx); err != nil {
			log.Error("counter setup failed", "error", err)
			os.Exit(1)
		}
		seq = pgSeq
	default:
		seq = sequencestore.NewInMemory()
	}

	platformMetrics := metrics.New()
	svc := service.New(donations, candidacies, progressStore, historyStore, seq,
		append(serviceOptions,
			service.WithLogger(log),
			service.WithMetrics(donationmetrics.New()),
		)...)

	jwtService := jwtauth.New(cfg.JWTSigningKey, "givetrack")

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Latency(platformMetrics))

	r.Get("/healthz", healthHandler(pool, rdb))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtService, log))
		handler.New(svc, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, r)

	go func() {
		log.Info("starting givetrack", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func healthHandler(pool *pgxpool.Pool, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := `{"status":"ok"}`
		if pool != nil {
			if err := pool.Ping(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body = `{"status":"degraded","postgres":"unreachable"}`
			}
		}
		if rdb != nil && status == http.StatusOK {
			if err := rdb.Health(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body = `{"status":"degraded","redis":"unreachable"}`
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}
