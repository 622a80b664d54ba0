// Package bootstrap assembles the tracker's infrastructure and application
// services from a loaded Config.  The apiserver, the worker and foiactl all
// build their object graph through it, so every binary sees the same store,
// cache, lock, document store and publisher for a given configuration.
package bootstrap

import (
	"context"

	"github.com/turtacn/foia-tracker/internal/application/ports"
	"github.com/turtacn/foia-tracker/internal/config"
	"github.com/turtacn/foia-tracker/internal/domain/alert"
	"github.com/turtacn/foia-tracker/internal/domain/appeal"
	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/internal/domain/request"
	"github.com/turtacn/foia-tracker/internal/infrastructure/database/memory"
	"github.com/turtacn/foia-tracker/internal/infrastructure/database/postgres"
	"github.com/turtacn/foia-tracker/internal/infrastructure/database/postgres/repositories"
	redisclient "github.com/turtacn/foia-tracker/internal/infrastructure/database/redis"
	"github.com/turtacn/foia-tracker/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/prometheus"
	minioclient "github.com/turtacn/foia-tracker/internal/infrastructure/storage/minio"
	"github.com/turtacn/foia-tracker/pkg/errors"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

// EventSource is stamped on every envelope this process publishes.
const EventSource = "foia-tracker"

// Infrastructure holds the connections and adapters built from a Config.
// Optional backends are nil when their section is not configured.
type Infrastructure struct {
	Config     *config.Config
	Logger     logging.Logger
	Clock      common.Clock
	Calculator *jurisdiction.Calculator

	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics

	Postgres *postgres.Connection
	Redis    *redisclient.Client
	MinIO    *minioclient.MinIOClient
	Producer *kafka.Producer

	Requests request.Repository
	Alerts   alert.Repository
	Appeals  appeal.Repository

	Cache     *redisclient.RecordCache
	ScanLock  *redisclient.Mutex
	Documents ports.DocumentStore
	Publisher ports.EventPublisher
}

// Option adjusts the Infrastructure before any backend is dialed.
type Option func(*Infrastructure)

// WithClock replaces the configured zone clock.
func WithClock(c common.Clock) Option {
	return func(i *Infrastructure) { i.Clock = c }
}

// WithCollector registers metrics on an existing collector instead of a
// fresh one.  Metrics are enabled regardless of cfg.Metrics.Enabled.
func WithCollector(c prometheus.MetricsCollector) Option {
	return func(i *Infrastructure) { i.Collector = c }
}

// New dials every configured backend.  On failure everything opened so far
// is closed before the error is returned.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger, opts ...Option) (*Infrastructure, error) {
	if cfg == nil {
		return nil, errors.InvalidParam("config must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	infra := &Infrastructure{
		Config:     cfg,
		Logger:     logger,
		Calculator: jurisdiction.DefaultCalculator(),
		Publisher:  ports.NopPublisher{},
	}
	for _, opt := range opts {
		opt(infra)
	}

	if infra.Clock == nil {
		loc, err := cfg.Tracker.Location()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid tracker timezone").
				WithDetail(cfg.Tracker.Timezone)
		}
		infra.Clock = common.ZoneClock{Location: loc}
	}

	if err := infra.initMetrics(); err != nil {
		return nil, err
	}
	if err := infra.initStores(); err != nil {
		infra.Close()
		return nil, err
	}
	if err := infra.initRedis(); err != nil {
		infra.Close()
		return nil, err
	}
	if err := infra.initStorage(); err != nil {
		infra.Close()
		return nil, err
	}
	if err := infra.initMessaging(ctx); err != nil {
		infra.Close()
		return nil, err
	}

	logger.Info("infrastructure ready",
		logging.String("store", cfg.Tracker.Store),
		logging.Bool("redis", infra.Redis != nil),
		logging.Bool("minio", infra.MinIO != nil),
		logging.Bool("kafka", infra.Producer != nil),
		logging.Bool("metrics", infra.Metrics != nil),
	)
	return infra, nil
}

func (i *Infrastructure) initMetrics() error {
	if i.Collector == nil {
		if !i.Config.Metrics.Enabled {
			return nil
		}
		collector, err := prometheus.NewMetricsCollector(i.Config.Metrics.CollectorConfig(), i.Logger)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to create metrics collector")
		}
		i.Collector = collector
	}
	i.Metrics = prometheus.NewAppMetrics(i.Collector)
	return nil
}

func (i *Infrastructure) initStores() error {
	switch i.Config.Tracker.Store {
	case config.StorePostgres:
		pgCfg := i.Config.Database.Postgres
		conn, err := postgres.NewConnection(pgCfg, i.Logger)
		if err != nil {
			return err
		}
		i.Postgres = conn
		if pgCfg.AutoMigrate {
			if err := conn.RunMigrations(pgCfg.MigrationsPath); err != nil {
				return err
			}
		}
		i.Requests = repositories.NewPostgresRequestRepo(conn, i.Logger)
		i.Alerts = repositories.NewPostgresAlertRepo(conn, i.Logger)
		i.Appeals = repositories.NewPostgresAppealRepo(conn, i.Logger)
	default:
		i.Requests = memory.NewRequestStore()
		i.Alerts = memory.NewAlertStore()
		i.Appeals = memory.NewAppealStore()
	}
	return nil
}

func (i *Infrastructure) initRedis() error {
	if !i.Config.Redis.Enabled() {
		return nil
	}
	client, err := redisclient.NewClient(&i.Config.Redis, i.Logger)
	if err != nil {
		return err
	}
	i.Redis = client

	var cacheOpts []redisclient.CacheOption
	if m := i.Metrics; m != nil {
		cacheOpts = append(cacheOpts, redisclient.WithAccessObserver(func(hit bool) {
			prometheus.RecordCacheAccess(m, hit)
		}))
	}
	i.Cache = redisclient.NewRecordCache(client, i.Logger, cacheOpts...)

	if i.Config.Tracker.LockEnabled {
		i.ScanLock = redisclient.NewScanLock(client, i.Logger)
	}
	return nil
}

func (i *Infrastructure) initStorage() error {
	if !i.Config.Storage.MinIO.Enabled() {
		i.Documents = memory.NewDocumentStore()
		return nil
	}
	client, err := minioclient.NewMinIOClient(&i.Config.Storage.MinIO, i.Logger)
	if err != nil {
		return err
	}
	i.MinIO = client
	i.Documents = minioclient.NewDocumentStore(client, i.Logger)
	return nil
}

func (i *Infrastructure) initMessaging(ctx context.Context) error {
	kcfg := i.Config.Kafka
	if !kcfg.Enabled() {
		return nil
	}

	if kcfg.AutoCreateTopics {
		tm, err := kafka.NewTopicManager(kcfg.Brokers, i.Logger)
		if err != nil {
			return err
		}
		err = tm.EnsureTopics(ctx, kafka.DefaultTopics(kcfg.ReplicationFactor))
		_ = tm.Close()
		if err != nil {
			return err
		}
	}

	producer, err := kafka.NewProducer(kcfg.ProducerConfig(), i.Logger)
	if err != nil {
		return err
	}
	i.Producer = producer
	i.Publisher = kafka.NewEventPublisher(producer, EventSource)
	return nil
}

// Check is one named dependency probe.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// Checks lists a probe for every dialed backend.  The memory store has none.
func (i *Infrastructure) Checks() []Check {
	var checks []Check
	if i.Postgres != nil {
		checks = append(checks, Check{Name: "postgres", Fn: i.Postgres.HealthCheck})
	}
	if i.Redis != nil {
		checks = append(checks, Check{Name: "redis", Fn: i.Redis.Ping})
	}
	if i.MinIO != nil {
		mc := i.MinIO
		checks = append(checks, Check{Name: "minio", Fn: func(ctx context.Context) error {
			_, err := mc.HealthCheck(ctx)
			return err
		}})
	}
	return checks
}

// Ping runs every check and returns the first failure.
func (i *Infrastructure) Ping(ctx context.Context) error {
	for _, c := range i.Checks() {
		if err := c.Fn(ctx); err != nil {
			return errors.Wrap(err, errors.ErrCodeServiceUnavailable, c.Name+" unavailable")
		}
	}
	return nil
}

// Close releases every backend in reverse order of opening.  It is safe to
// call on a partially built Infrastructure.
func (i *Infrastructure) Close() {
	if i.Producer != nil {
		if err := i.Producer.Close(); err != nil {
			i.Logger.Warn("kafka producer close failed", logging.Err(err))
		}
	}
	if i.MinIO != nil {
		_ = i.MinIO.Close()
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			i.Logger.Warn("redis close failed", logging.Err(err))
		}
	}
	if i.Postgres != nil {
		_ = i.Postgres.Close()
	}
}

//Personal.AI order the ending
