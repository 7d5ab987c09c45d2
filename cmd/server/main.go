package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"revalid/internal/admintoken"
	"revalid/internal/doctorsync"
	"revalid/internal/events/roster"
	"revalid/internal/gmc"
	"revalid/internal/platform/config"
	"revalid/internal/platform/httpserver"
	"revalid/internal/platform/kafka"
	"revalid/internal/platform/logger"
	"revalid/internal/platform/middleware"
	"revalid/internal/platform/postgres"
	"revalid/internal/platform/redis"
	"revalid/internal/reference"
	"revalid/internal/revalidation/handler"
	"revalid/internal/revalidation/metrics"
	"revalid/internal/revalidation/ports"
	"revalid/internal/revalidation/service/connection"
	"revalid/internal/revalidation/service/recommendation"
	doctorstore "revalid/internal/revalidation/store/doctor"
	recstore "revalid/internal/revalidation/store/recommendation"
	snapstore "revalid/internal/revalidation/store/snapshot"
)

const runLockTTL = 5 * time.Minute

// main wires dependencies and runs the HTTP server, roster consumer, and
// outcome poller under one lifecycle. Business logic lives in the internal
// service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage: postgres when configured, in-memory otherwise.
	var (
		doctors ports.DoctorStore
		recs    ports.RecommendationStore
		archive ports.SnapshotArchive
	)
	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		doctors = doctorstore.NewPostgres(db)
		recs = recstore.NewPostgres(db)
		archive = snapstore.NewPostgres(db)
		log.Info("using postgres storage")
	} else {
		doctors = doctorstore.New()
		recs = recstore.New()
		archive = snapstore.New()
		log.Warn("postgres not configured, using in-memory storage")
	}

	// Redis backs the cluster-wide per-body run lock; without it the lock
	// degrades to process-local, which is only safe for single replicas.
	var locker redis.RunLocker = redis.NewLocalRunLocker()
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		locker = redis.NewRunLocker(redisClient, runLockTTL)
		log.Info("using redis run locks")
	} else {
		log.Warn("redis not configured, run locks are process-local")
	}

	m := metrics.New()
	authority := gmc.New(gmc.Config{BaseURL: cfg.Gmc.BaseURL, Timeout: cfg.Gmc.Timeout}, gmc.WithLogger(log))
	reasons := reference.NewDeferralReasons()

	// Kafka: sync fan-out and roster ingestion, both optional.
	var notifier ports.SyncNotifier
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			log.Error("failed to build kafka producer", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		if err := kafka.EnsureTopics(ctx, producer, cfg.Kafka.RosterTopic, cfg.Kafka.SyncTopic); err != nil {
			log.Error("failed to ensure kafka topics", "error", err)
			os.Exit(1)
		}
		notifier = doctorsync.NewNotifier(producer, cfg.Kafka.SyncTopic, log)
	} else {
		log.Warn("kafka not configured, roster consumer and sync fan-out disabled")
	}

	recOpts := []recommendation.Option{
		recommendation.WithLogger(log),
		recommendation.WithMetrics(m),
	}
	connOpts := []connection.Option{
		connection.WithLogger(log),
		connection.WithMetrics(m),
	}
	if notifier != nil {
		recOpts = append(recOpts, recommendation.WithSyncNotifier(notifier))
		connOpts = append(connOpts, connection.WithSyncNotifier(notifier))
	}

	recService, err := recommendation.New(doctors, recs, archive, authority, reasons, recOpts...)
	if err != nil {
		log.Error("failed to build recommendation service", "error", err)
		os.Exit(1)
	}
	connService, err := connection.New(doctors, recs, archive, connOpts...)
	if err != nil {
		log.Error("failed to build connection service", "error", err)
		os.Exit(1)
	}

	tokens := admintoken.NewService(cfg.Server.AdminJWTKey, "revalid")
	api := handler.New(recService, connService, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(tokens, log))
		api.Register(r)
	})

	srv := httpserver.New(cfg.Server, router)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting revalidation service", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if len(cfg.Kafka.Brokers) > 0 {
		consumerClient, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, cfg.Kafka.RosterTopic)
		if err != nil {
			log.Error("failed to build kafka consumer", "error", err)
			os.Exit(1)
		}
		consumer := roster.New(consumerClient, connService, locker, log)
		group.Go(func() error {
			defer consumerClient.Close()
			log.Info("starting roster consumer", "topic", cfg.Kafka.RosterTopic, "group", cfg.Kafka.ConsumerGroup)
			err := consumer.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	group.Go(func() error {
		return runOutcomePoller(ctx, recService, cfg.Poller.Interval, log)
	})

	if err := group.Wait(); err != nil {
		log.Error("service exited", "error", err)
		os.Exit(1)
	}
	log.Info("service stopped")
}

// runOutcomePoller periodically reconciles outcomes of recommendations still
// pending with the regulator. Poll failures are logged and retried on the
// next tick; they never bring the service down.
func runOutcomePoller(ctx context.Context, svc *recommendation.Service, interval time.Duration, log *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := svc.CheckAllOutcomes(ctx); err != nil {
				log.ErrorContext(ctx, "outcome poll failed", "error", err)
			}
		}
	}
}
