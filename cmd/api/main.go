package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/songqueue-backend/api/routes"
	"github.com/angelmondragon/songqueue-backend/internal/auth"
	"github.com/angelmondragon/songqueue-backend/internal/events"
	"github.com/angelmondragon/songqueue-backend/internal/queue"
	"github.com/angelmondragon/songqueue-backend/internal/store"
	"github.com/angelmondragon/songqueue-backend/pkg/auth/session"
	"github.com/angelmondragon/songqueue-backend/pkg/config"
	"github.com/angelmondragon/songqueue-backend/pkg/db"
	"github.com/angelmondragon/songqueue-backend/pkg/instance"
	"github.com/angelmondragon/songqueue-backend/pkg/logger"
	"github.com/angelmondragon/songqueue-backend/pkg/metrics"
	"github.com/angelmondragon/songqueue-backend/pkg/migrate"
	"github.com/angelmondragon/songqueue-backend/pkg/pubsub"
	"github.com/angelmondragon/songqueue-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// closers run in reverse order on shutdown
	var closers []io.Closer
	exit := func(msg string, err error) {
		logg.Error(context.Background(), msg, err)
		_ = closeAll(closers)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		exit("failed to bootstrap redis", err)
	}
	closers = append(closers, redisClient)

	var dbClient *db.Client
	if cfg.Store.Driver == config.StoreDriverSQL {
		dbClient, err = db.New(ctx, cfg.DB, logg)
		if err != nil {
			exit("failed to bootstrap database", err)
		}
		closers = append(closers, dbClient)

		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			exit("failed to run dev migrations", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	queueMetrics := metrics.NewQueueMetrics(registry)

	baseStore, err := store.Open(cfg.Store, store.Deps{DB: dbClient, Redis: redisClient})
	if err != nil {
		exit("failed to open queue store", err)
	}
	queueStore := store.WithMetrics(baseStore, queueMetrics)

	observers := queue.Observers{queue.NewMetricsObserver(queueMetrics)}
	var eventPublisher *events.Publisher
	if cfg.PubSub.Enabled {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			exit("failed to bootstrap pubsub", err)
		}
		closers = append(closers, psClient)

		eventPublisher, err = events.NewPublisher(events.PublisherParams{
			Logger:    logg,
			Publisher: psClient.EventsPublisher(),
			Timeout:   cfg.PubSub.PublishTimeout,
		})
		if err != nil {
			exit("failed to create event publisher", err)
		}
		observers = append(observers, eventPublisher)
	}

	queueService, err := queue.NewService(queue.ServiceParams{
		Store:    queueStore,
		Observer: observers,
		Logger:   logg,
	})
	if err != nil {
		exit("failed to create queue service", err)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		exit("failed to create session manager", err)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Operator:       cfg.Operator,
		Password:       cfg.Password,
		JWTConfig:      cfg.JWT,
		SessionManager: sessionManager,
	})
	if err != nil {
		exit("failed to create auth service", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"instance":     instance.GetID(),
		"store_driver": cfg.Store.Driver,
		"pubsub":       cfg.PubSub.Enabled,
	})
	logg.Info(runCtx, "starting api server")
	logg.Info(logg.WithField(runCtx, "endpoints", []string{"POST /api/v1/requests", "GET /api/v1/queue"}), "public endpoints ready")
	logg.Info(logg.WithField(runCtx, "endpoints", []string{"/api/admin/v1/auth", "/api/admin/v1/requests"}), "operator endpoints ready")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, store.Pinger{Store: baseStore}, redisClient, sessionManager, authService, queueService, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			exit("api server stopped unexpectedly", err)
		}
	case <-ctx.Done():
	}

	logg.Info(runCtx, "api server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := server.Shutdown(shutdownCtx)
	if eventPublisher != nil {
		errs = multierr.Append(errs, eventPublisher.Wait(shutdownCtx))
	}
	errs = multierr.Append(errs, closeAll(closers))
	if errs != nil {
		logg.Error(runCtx, "api server shutdown incomplete", errs)
		os.Exit(1)
	}
	logg.Info(runCtx, "api server stopped gracefully")
}

func closeAll(closers []io.Closer) error {
	var errs error
	for i := len(closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, closers[i].Close())
	}
	return errs
}
