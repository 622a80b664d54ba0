// Package config defines the configuration structures for the FOIA tracker.
// Infrastructure sections reuse the config types of the packages they feed.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/foia-tracker/internal/domain/alert"
	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/internal/infrastructure/database/postgres"
	"github.com/turtacn/foia-tracker/internal/infrastructure/database/redis"
	"github.com/turtacn/foia-tracker/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/foia-tracker/internal/infrastructure/storage/minio"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

type HTTPConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
}

func (c HTTPConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

type GRPCConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Host    string `mapstructure:"host" yaml:"host"`
	Port    int    `mapstructure:"port" yaml:"port"`
}

func (c GRPCConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http" yaml:"http"`
	GRPC GRPCConfig `mapstructure:"grpc" yaml:"grpc"`
}

type DatabaseConfig struct {
	Postgres postgres.PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

// KafkaConfig carries the broker settings shared by the producer and the
// consumer.  An empty broker list disables messaging.
type KafkaConfig struct {
	Brokers           []string      `mapstructure:"brokers" yaml:"brokers"`
	GroupID           string        `mapstructure:"group_id" yaml:"group_id"`
	AutoOffsetReset   string        `mapstructure:"auto_offset_reset" yaml:"auto_offset_reset"`
	Acks              string        `mapstructure:"acks" yaml:"acks"`
	Compression       string        `mapstructure:"compression" yaml:"compression"`
	MaxRetries        int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff" yaml:"retry_backoff"`
	MaxRetryBackoff   time.Duration `mapstructure:"max_retry_backoff" yaml:"max_retry_backoff"`
	DeadLetterTopic   string        `mapstructure:"dead_letter_topic" yaml:"dead_letter_topic"`
	AutoCreateTopics  bool          `mapstructure:"auto_create_topics" yaml:"auto_create_topics"`
	ReplicationFactor int           `mapstructure:"replication_factor" yaml:"replication_factor"`
	SASLEnabled       bool          `mapstructure:"sasl_enabled" yaml:"sasl_enabled"`
	SASLMechanism     string        `mapstructure:"sasl_mechanism" yaml:"sasl_mechanism"`
	SASLUsername      string        `mapstructure:"sasl_username" yaml:"sasl_username"`
	SASLPassword      string        `mapstructure:"sasl_password" yaml:"sasl_password"`
	TLSEnabled        bool          `mapstructure:"tls_enabled" yaml:"tls_enabled"`
	TLSCertPath       string        `mapstructure:"tls_cert_path" yaml:"tls_cert_path"`
}

func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

func (c KafkaConfig) ProducerConfig() kafka.ProducerConfig {
	return kafka.ProducerConfig{
		Brokers:          c.Brokers,
		Acks:             c.Acks,
		MaxRetries:       c.MaxRetries,
		CompressionCodec: c.Compression,
		SASLEnabled:      c.SASLEnabled,
		SASLMechanism:    c.SASLMechanism,
		SASLUsername:     c.SASLUsername,
		SASLPassword:     c.SASLPassword,
		TLSEnabled:       c.TLSEnabled,
		TLSCertPath:      c.TLSCertPath,
	}
}

func (c KafkaConfig) ConsumerConfig(topics ...string) kafka.ConsumerConfig {
	return kafka.ConsumerConfig{
		Brokers:         c.Brokers,
		GroupID:         c.GroupID,
		Topics:          topics,
		AutoOffsetReset: c.AutoOffsetReset,
		SASLEnabled:     c.SASLEnabled,
		SASLMechanism:   c.SASLMechanism,
		SASLUsername:    c.SASLUsername,
		SASLPassword:    c.SASLPassword,
		TLSEnabled:      c.TLSEnabled,
		TLSCertPath:     c.TLSCertPath,
		RetryConfig: kafka.RetryConfig{
			MaxRetries:      c.MaxRetries,
			RetryBackoff:    c.RetryBackoff,
			MaxRetryBackoff: c.MaxRetryBackoff,
			DeadLetterTopic: c.DeadLetterTopic,
		},
	}
}

type StorageConfig struct {
	MinIO minio.MinIOConfig `mapstructure:"minio" yaml:"minio"`
}

// MetricsConfig controls the prometheus registry and its scrape endpoint.
type MetricsConfig struct {
	Enabled              bool   `mapstructure:"enabled" yaml:"enabled"`
	Path                 string `mapstructure:"path" yaml:"path"`
	Listen               string `mapstructure:"listen" yaml:"listen"`
	Namespace            string `mapstructure:"namespace" yaml:"namespace"`
	EnableGoMetrics      bool   `mapstructure:"enable_go_metrics" yaml:"enable_go_metrics"`
	EnableProcessMetrics bool   `mapstructure:"enable_process_metrics" yaml:"enable_process_metrics"`
}

func (c MetricsConfig) CollectorConfig() prometheus.CollectorConfig {
	return prometheus.CollectorConfig{
		Namespace:            c.Namespace,
		EnableGoMetrics:      c.EnableGoMetrics,
		EnableProcessMetrics: c.EnableProcessMetrics,
	}
}

// ThresholdConfig replaces the built-in alert thresholds.  Overrides are
// keyed by jurisdiction code or alias; a family code applies to its members.
type ThresholdConfig struct {
	Defaults  []alert.Threshold            `mapstructure:"defaults" yaml:"defaults"`
	Overrides map[string][]alert.Threshold `mapstructure:"overrides" yaml:"overrides"`
}

// TrackerConfig holds the engine settings.
type TrackerConfig struct {
	Store        string          `mapstructure:"store" yaml:"store"`
	ScanInterval time.Duration   `mapstructure:"scan_interval" yaml:"scan_interval"`
	LockEnabled  bool            `mapstructure:"lock_enabled" yaml:"lock_enabled"`
	Timezone     string          `mapstructure:"timezone" yaml:"timezone"`
	Thresholds   ThresholdConfig `mapstructure:"thresholds" yaml:"thresholds"`
}

// Location resolves Timezone; an empty value is UTC.
func (c TrackerConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// ThresholdSet builds the alert thresholds, normalizing override codes
// through registry.
func (c TrackerConfig) ThresholdSet(registry jurisdiction.Registry) (*alert.ThresholdSet, error) {
	overrides := make(map[jurisdiction.Code][]alert.Threshold, len(c.Thresholds.Overrides))
	for raw, list := range c.Thresholds.Overrides {
		code, err := registry.Normalize(raw)
		if err != nil {
			return nil, err
		}
		overrides[code] = list
	}
	return alert.NewThresholdSet(c.Thresholds.Defaults, overrides)
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

type Config struct {
	Server   ServerConfig      `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig    `mapstructure:"database" yaml:"database"`
	Redis    redis.RedisConfig `mapstructure:"redis" yaml:"redis"`
	Kafka    KafkaConfig       `mapstructure:"kafka" yaml:"kafka"`
	Storage  StorageConfig     `mapstructure:"storage" yaml:"storage"`
	Log      logging.LogConfig `mapstructure:"log" yaml:"log"`
	Metrics  MetricsConfig     `mapstructure:"metrics" yaml:"metrics"`
	Tracker  TrackerConfig     `mapstructure:"tracker" yaml:"tracker"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of a defaulted Config and returns the
// first problem found.
func (c *Config) Validate() error {
	if c.Server.HTTP.Port < 1 || c.Server.HTTP.Port > 65535 {
		return fmt.Errorf("server.http.port %d is out of range [1, 65535]", c.Server.HTTP.Port)
	}
	if c.Server.GRPC.Enabled && (c.Server.GRPC.Port < 1 || c.Server.GRPC.Port > 65535) {
		return fmt.Errorf("server.grpc.port %d is out of range [1, 65535]", c.Server.GRPC.Port)
	}

	switch c.Tracker.Store {
	case StoreMemory:
	case StorePostgres:
		if c.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required for the postgres store")
		}
		if c.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required for the postgres store")
		}
		if c.Database.Postgres.Username == "" {
			return fmt.Errorf("database.postgres.username is required for the postgres store")
		}
	default:
		return fmt.Errorf("tracker.store %q is invalid; expected memory|postgres", c.Tracker.Store)
	}
	if c.Tracker.ScanInterval <= 0 {
		return fmt.Errorf("tracker.scan_interval must be positive, got %s", c.Tracker.ScanInterval)
	}
	if _, err := c.Tracker.Location(); err != nil {
		return fmt.Errorf("tracker.timezone %q: %v", c.Tracker.Timezone, err)
	}
	if _, err := c.Tracker.ThresholdSet(jurisdiction.NewRegistry()); err != nil {
		return fmt.Errorf("tracker.thresholds: %v", err)
	}

	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must be >= 0, got %d", c.Redis.DB)
	}
	if c.Tracker.LockEnabled && !c.Redis.Enabled() {
		return fmt.Errorf("tracker.lock_enabled requires redis.addr")
	}
	if c.Kafka.Enabled() && c.Kafka.GroupID == "" {
		return fmt.Errorf("kafka.group_id is required when brokers are set")
	}
	if c.Storage.MinIO.Enabled() && (c.Storage.MinIO.AccessKeyID == "" || c.Storage.MinIO.SecretAccessKey == "") {
		return fmt.Errorf("storage.minio credentials are required when an endpoint is set")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format %q is invalid; expected json|console", c.Log.Format)
	}
	return nil
}

//Personal.AI order the ending
