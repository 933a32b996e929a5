// Command server runs the petition moderation API. Postgres, Redis and
// Kafka are all optional: without them the server falls back to
// in-memory stores and logging-only notifications, which is how demo
// mode and local development run.
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

	"golang.org/x/sync/errgroup"

	appealhandler "arida/internal/appeal/handler"
	appealservice "arida/internal/appeal/service"
	appealstore "arida/internal/appeal/store"
	"arida/internal/audit"
	"arida/internal/notify"
	petitionhandler "arida/internal/petition/handler"
	petitionservice "arida/internal/petition/service"
	petitionstore "arida/internal/petition/store"
	"arida/internal/platform/config"
	"arida/internal/platform/database"
	"arida/internal/platform/httpserver"
	"arida/internal/platform/kafka/producer"
	"arida/internal/platform/logger"
	"arida/internal/platform/metrics"
	platformredis "arida/internal/platform/redis"
	"arida/internal/ratelimit"
	httptransport "arida/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	if err := run(cfg, log, m); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger, m *metrics.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage. A nil pool means Postgres is not configured and the
	// in-memory stores back everything.
	pool, err := database.New(cfg.Database)
	if err != nil {
		return err
	}
	var (
		petitions petitionservice.Store
		appeals   appealservice.Store
		auditLog  audit.Store
	)
	if pool != nil {
		defer pool.Close()
		petitions = petitionstore.NewPostgres(pool.DB())
		appeals = appealstore.NewPostgres(pool.DB())
		auditLog = audit.NewPostgres(pool.DB())
		log.Info("using postgres storage")
	} else {
		petitions = petitionstore.NewMemoryStore()
		appeals = appealstore.NewMemoryStore()
		auditLog = audit.NewMemoryStore()
		log.Warn("postgres not configured, using in-memory storage")
	}

	// Rate limiting. Redis gives a shared window across replicas; the
	// in-memory store is fine for a single process.
	var limiterStore ratelimit.Store
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		limiterStore = ratelimit.NewRedisStore(redisClient.Client)
		log.Info("using redis rate limiting")
	} else {
		limiterStore = ratelimit.NewMemoryStore()
		log.Warn("redis not configured, using in-memory rate limiting")
	}
	limiter := ratelimit.NewLimiter(limiterStore, cfg.RateLimit, log, m)

	// Kafka feeds notifications and the audit forwarder. Without it,
	// notifications are logged and audit entries stay local.
	var (
		notifier      notify.Dispatcher
		publisherOpts []audit.PublisherOption
	)
	if cfg.Kafka.Brokers != "" {
		kafkaProducer, err := producer.New(producer.Config{Brokers: cfg.Kafka.Brokers}, log)
		if err != nil {
			return err
		}
		defer kafkaProducer.Close()

		topicCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = kafkaProducer.EnsureTopics(topicCtx, cfg.Kafka.NotificationTopic, cfg.Kafka.AuditTopic)
		cancel()
		if err != nil {
			return err
		}

		notifier = notify.NewKafkaDispatcher(kafkaProducer, cfg.Kafka.NotificationTopic, log)
		publisherOpts = append(publisherOpts,
			audit.WithForwarder(audit.NewKafkaForwarder(kafkaProducer, cfg.Kafka.AuditTopic, log)))
		log.Info("kafka configured", "brokers", cfg.Kafka.Brokers)
	} else {
		notifier = notify.NewNoopDispatcher(log)
		log.Warn("kafka not configured, notifications will only be logged")
	}

	auditPublisher := audit.NewPublisher(auditLog, log, m, publisherOpts...)
	defer auditPublisher.Close()

	petitionSvc := petitionservice.New(petitions, limiter, auditPublisher, notifier, m, log)
	appealSvc := appealservice.New(appeals, petitions, limiter, auditPublisher, notifier, m, log)

	router := httptransport.NewRouter(httptransport.Deps{
		Config:    cfg,
		Logger:    log,
		Metrics:   m,
		Petitions: petitionhandler.New(petitionSvc, log),
		Appeals:   appealhandler.New(appealSvc, log),
		Audit:     auditPublisher,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting arida server", "addr", cfg.Addr, "demo_mode", cfg.DemoMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
