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

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	enrollstore "enrollcheck/internal/enrollment/store"
	"enrollcheck/internal/platform/config"
	"enrollcheck/internal/platform/httpserver"
	"enrollcheck/internal/platform/logger"
	platformpg "enrollcheck/internal/platform/postgres"
	platformredis "enrollcheck/internal/platform/redis"
	"enrollcheck/internal/validation/engine"
	"enrollcheck/internal/validation/events"
	"enrollcheck/internal/validation/handler"
	valmetrics "enrollcheck/internal/validation/metrics"
	"enrollcheck/internal/validation/service"
	"enrollcheck/internal/validation/store/process"
	"enrollcheck/internal/validation/validator"
)

// main wires configuration, stores, the execution engine, and the HTTP
// surface together. Business logic lives under internal/validation.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "enrollcheck: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	closers := make([]func() error, 0, 2)
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Error("close resource", "error", err)
			}
		}
	}()

	ctx := context.Background()

	var processes process.Store
	var records enrollstore.Store

	switch cfg.ProcessBackend {
	case config.BackendPostgres:
		db, err := platformpg.Open(cfg.PostgresDSN)
		if err != nil {
			return err
		}
		closers = append(closers, db.Close)
		if err := process.EnsureSchema(ctx, db); err != nil {
			return err
		}
		if err := enrollstore.EnsureSchema(ctx, db); err != nil {
			return err
		}
		processes = process.NewPostgres(db)
		records = enrollstore.NewPostgres(db)
	case config.BackendRedis:
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return err
		}
		if client == nil {
			return errors.New("redis backend selected but ENROLLCHECK_REDIS_URL is empty")
		}
		closers = append(closers, client.Close)
		processes = process.NewRedis(client.Client)
		records = enrollstore.NewInMemory()
	case config.BackendMemory:
		processes = process.NewInMemory()
		records = enrollstore.NewInMemory()
	default:
		return fmt.Errorf("unknown process backend %q", cfg.ProcessBackend)
	}

	if cfg.SeedDemoData {
		if mem, ok := records.(*enrollstore.InMemory); ok {
			seeded := enrollstore.SeedDemoEnrollments(mem)
			log.Info("seeded demo enrollments", "count", len(seeded))
		} else {
			log.Warn("demo seeding requested but record store is not in-memory")
		}
	}

	v, err := validator.ForMode(validator.Mode(cfg.ValidatorMode), records)
	if err != nil {
		return err
	}

	m := valmetrics.New()

	eventStore := events.NewInMemoryStore()
	publisher := events.NewPublisher(eventStore,
		events.WithAsyncBuffer(cfg.EventBuffer),
		events.WithLogger(log),
	)

	eng := engine.New(processes, v,
		engine.WithLogger(log),
		engine.WithMetrics(m),
		engine.WithPublisher(publisher),
		engine.WithWorkers(cfg.Workers),
		engine.WithQueueSize(cfg.QueueSize),
		engine.WithExecutionTimeout(cfg.ExecTimeout),
		engine.WithRetry(cfg.RetryAttempts, cfg.RetryBase),
	)

	svc, err := service.New(processes, eng,
		service.WithLogger(log),
		service.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	router := chi.NewRouter()
	handler.New(svc, log).Register(router)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	engineCtx, stopEngine := context.WithCancel(ctx)
	defer stopEngine()
	eng.Start(engineCtx)

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info("enrollcheck listening",
		"addr", cfg.Addr,
		"backend", string(cfg.ProcessBackend),
		"validator_mode", cfg.ValidatorMode,
		"workers", cfg.Workers,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	if err := eng.Stop(shutdownCtx); err != nil {
		log.Error("engine shutdown", "error", err)
	}
	publisher.Close()

	log.Info("shutdown complete")
	return nil
}
