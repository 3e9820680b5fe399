package main

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/storefront/internal/notification/application"
	notifygrpc "github.com/dmehra2102/storefront/internal/notification/infrastructure/grpc"
	notifykafka "github.com/dmehra2102/storefront/internal/notification/infrastructure/kafka"
	notifypg "github.com/dmehra2102/storefront/internal/notification/infrastructure/postgres"
	"github.com/dmehra2102/storefront/internal/notification/infrastructure/schedule"
	"github.com/dmehra2102/storefront/migrations"
	"github.com/dmehra2102/storefront/pkg/config"
	"github.com/dmehra2102/storefront/pkg/idempotency"
	"github.com/dmehra2102/storefront/pkg/logging"
	"github.com/dmehra2102/storefront/pkg/migrate"
	"github.com/dmehra2102/storefront/pkg/shutdown"
	"github.com/dmehra2102/storefront/pkg/tracing"
)

func main() {
	log := logging.New()
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	var cfg config.Notifier
	if err := config.Parse(&cfg); err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}

	tp, err := tracing.Init(ctx, "notifier", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := migrate.Apply(ctx, log, pool, migrations.FS); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	idem := idempotency.NewStore(rdb, cfg.IdempotencyTTL)

	svc := application.NewService(log, notifypg.NewRepository(pool))

	health, err := notifygrpc.Run(log, cfg.GRPCAddr)
	if err != nil {
		log.Error("grpc server failed", "err", err)
		os.Exit(1)
	}
	defer health.Stop()

	reminders, err := schedule.StartReminder(ctx, log, svc, cfg.ReminderSchedule, cfg.ReminderAge)
	if err != nil {
		log.Error("reminder schedule", "err", err)
		os.Exit(1)
	}
	defer reminders.Stop()

	consumer := notifykafka.NewConsumer(log, cfg.KafkaAddr, cfg.OrderEventsTopic, cfg.ConsumerGroup, svc, idem)
	go func() {
		health.SetServing(true)
		defer health.SetServing(false)
		if err := consumer.Run(ctx); err != nil {
			log.Error("consumer stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("notifier shutdown")
}
