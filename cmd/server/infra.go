package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"gymdesk/internal/attendance/admission"
	"gymdesk/internal/attendance/events"
	"gymdesk/internal/attendance/service"
	attendanceStore "gymdesk/internal/attendance/store"
	"gymdesk/internal/attendance/sweeper"
	daypassService "gymdesk/internal/daypass/service"
	daypassStore "gymdesk/internal/daypass/store"
	memberStore "gymdesk/internal/member/store"
	"gymdesk/internal/platform/config"
	"gymdesk/internal/platform/kafka"
	"gymdesk/internal/platform/postgres"
	"gymdesk/internal/platform/redis"
	"gymdesk/internal/ratelimit"
	"gymdesk/pkg/platform/circuit"
	"gymdesk/pkg/platform/tx"
)

// attendanceRepository is satisfied by both attendance store implementations.
type attendanceRepository interface {
	service.Store
	sweeper.Store
	admission.RecordReader
}

// infrastructure holds the stores and backend clients selected by configuration.
type infrastructure struct {
	db     *sql.DB
	redis  *redis.Client
	kafka  *kgo.Client
	events events.Publisher

	records attendanceRepository
	members service.MemberDirectory
	passes  daypassService.Store
	locker  service.Locker
	tx      service.TxRunner
	limiter ratelimit.Limiter
}

// openInfra connects to Postgres, Redis and Kafka when configured. Without a
// Postgres URL every store is in memory.
func openInfra(ctx context.Context, cfg *config.Config, log *slog.Logger) (*infrastructure, error) {
	infra := &infrastructure{}

	if cfg.InMemory() {
		log.Warn("no postgres configured, using in-memory stores")
		infra.records = attendanceStore.NewInMemory()
		infra.members = memberStore.NewInMemory()
		infra.passes = daypassStore.NewInMemory()
		infra.tx = tx.NoopRunner{}
		infra.locker = attendanceStore.NewInMemoryLocker()
	} else {
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		infra.db = db
		if cfg.Postgres.Migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				infra.Close()
				return nil, err
			}
		}
		infra.records = attendanceStore.NewPostgres(db)
		infra.members = memberStore.NewPostgres(db)
		infra.passes = daypassStore.NewPostgres(db)
		infra.tx = tx.NewRunner(db)
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		infra.Close()
		return nil, err
	}
	infra.limiter = ratelimit.NewInMemory()
	if client != nil {
		infra.redis = client
		infra.locker = attendanceStore.NewRedisLocker(client.Client, cfg.Redis.LockTTL)
		infra.limiter = ratelimit.NewFailover(
			ratelimit.NewRedis(client.Client),
			ratelimit.NewInMemory(),
			circuit.New("redis-ratelimit"),
			log,
		)
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		infra.Close()
		return nil, err
	}
	if producer != nil {
		infra.kafka = producer
		if err := kafka.EnsureTopic(ctx, producer, cfg.Kafka); err != nil {
			log.Warn("failed to ensure kafka topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		publisher, err := events.NewKafkaPublisher(producer, cfg.Kafka.Topic)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.events = publisher
	}

	return infra, nil
}

// Health pings every configured backend.
func (i *infrastructure) Health(ctx context.Context) map[string]error {
	checks := make(map[string]error)
	if i.db != nil {
		checks["postgres"] = i.db.PingContext(ctx)
	}
	if i.redis != nil {
		checks["redis"] = i.redis.Health(ctx)
	}
	if i.kafka != nil {
		checks["kafka"] = kafka.Health(ctx, i.kafka)
	}
	return checks
}

func (i *infrastructure) Close() {
	if i.kafka != nil {
		i.kafka.Close()
	}
	var errs []error
	if i.redis != nil {
		errs = append(errs, i.redis.Close())
	}
	if i.db != nil {
		errs = append(errs, i.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		slog.Warn("failed to close backends", "error", err)
	}
}
