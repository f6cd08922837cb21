package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	httpapi "bloodbank/internal/http"
	"bloodbank/internal/inventory/handler"
	inventorymetrics "bloodbank/internal/inventory/metrics"
	"bloodbank/internal/inventory/service"
	"bloodbank/internal/inventory/store/summary"
	"bloodbank/internal/inventory/worker"
	"bloodbank/internal/platform/config"
	"bloodbank/internal/platform/httpserver"
	"bloodbank/internal/platform/kafka"
	"bloodbank/internal/platform/logger"
	"bloodbank/internal/platform/metrics"
	"bloodbank/internal/platform/redis"
	"bloodbank/pkg/platform/audit/publisher"
	auditworker "bloodbank/pkg/platform/audit/worker"
	"bloodbank/pkg/platform/circuit"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("bloodbank exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("bloodbank stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := prometheus.DefaultRegisterer

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	var cache service.SummaryCache = summary.NewInMemory(summary.WithTTL(cfg.SummaryCacheTTL))
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		cache = summary.NewGuarded(
			summary.NewRedis(redisClient.Client, summary.WithRedisTTL(cfg.SummaryCacheTTL)),
			circuit.New("summary-cache", circuit.WithFailureThreshold(5), circuit.WithCooldown(10*time.Second)),
			log,
		)
		st.checks["redis"] = redisClient.Health
		log.InfoContext(ctx, "summary cache backed by redis")
	}

	auditPublisher := publisher.NewPublisher(st.audit,
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics(reg)),
	)

	svc := service.NewInventoryService(st.units,
		service.WithLogger(log),
		service.WithAuditPublisher(auditPublisher),
		service.WithMetrics(inventorymetrics.NewWithRegisterer(reg)),
		service.WithSummaryCache(cache),
		service.WithTxRunner(st.txRunner),
		service.WithTracerProvider(otel.GetTracerProvider()),
	)

	var relay *auditworker.Worker
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(kafka.Config{
			Brokers:  cfg.Kafka.Brokers,
			ClientID: cfg.Kafka.ClientID,
		})
		if err != nil {
			return err
		}
		defer producer.Close()
		if err := kafka.EnsureTopics(ctx, producer.Client(), kafka.TopicSpec{
			Name:       cfg.Kafka.AuditTopic,
			Partitions: cfg.Kafka.Partitions,
		}); err != nil {
			return err
		}
		st.checks["kafka"] = producer.Health
		relay = auditworker.NewWorker(st.audit, producer, cfg.Kafka.AuditTopic,
			auditworker.WithBatchSize(cfg.Kafka.BatchSize),
			auditworker.WithPollInterval(cfg.Kafka.PollInterval),
			auditworker.WithLogger(log),
		)
	} else {
		log.WarnContext(ctx, "KAFKA_BROKERS not set; audit events stay in the outbox")
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Inventory:     handler.New(svc, log),
		Logger:        log,
		Metrics:       metrics.NewWithRegisterer(reg),
		AdminAPIToken: cfg.AdminAPIToken,
		Checks:        st.checks,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.InfoContext(ctx, "starting bloodbank", "addr", cfg.Addr, "store", string(cfg.StoreDriver))
		return httpserver.Run(ctx, srv, cfg.ShutdownTimeout)
	})

	sweeper := worker.NewSweeper(svc, cfg.SweepInterval, worker.WithLogger(log))
	g.Go(func() error {
		return ignoreCanceled(sweeper.Run(ctx))
	})

	if relay != nil {
		g.Go(func() error {
			return ignoreCanceled(relay.Run(ctx))
		})
	}

	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
