//go:build integration

// Package integration runs the tracker against real backing services.
// PostgreSQL comes from testcontainers and Redis from miniredis, so the only
// requirement is a Docker daemon.
package integration

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/foia-tracker/internal/bootstrap"
	"github.com/turtacn/foia-tracker/internal/config"
	"github.com/turtacn/foia-tracker/internal/infrastructure/database/postgres"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/internal/testutil"
)

const (
	migrationsDir = "../../migrations"
	setupTimeout  = 90 * time.Second
)

// monday is 2025-03-03 09:00 UTC.
var monday = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

// Environment is one fully wired tracker over a fresh database.
type Environment struct {
	Cfg      *config.Config
	Clock    *testutil.ManualClock
	Redis    *miniredis.Miniredis
	Infra    *bootstrap.Infrastructure
	Services *bootstrap.Services
}

func startPostgres(t *testing.T) postgres.PostgresConfig {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "foia",
				"POSTGRES_PASSWORD": "foia",
				"POSTGRES_DB":       "foia_it",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(setupTimeout),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	return postgres.PostgresConfig{
		Driver:         postgres.DriverPgx,
		Host:           host,
		Port:           portNum,
		Database:       "foia_it",
		Username:       "foia",
		Password:       "foia",
		SSLMode:        "disable",
		MigrationsPath: migrationsDir,
		AutoMigrate:    true,
	}
}

// NewEnvironment starts PostgreSQL and Redis and wires a tracker with the
// scan lock enabled.
func NewEnvironment(t *testing.T) *Environment {
	t.Helper()

	cfg := &config.Config{}
	cfg.Tracker.Store = config.StorePostgres
	cfg.Tracker.LockEnabled = true
	cfg.Database.Postgres = startPostgres(t)

	mr := miniredis.RunT(t)
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.KeyPrefix = "foia-it:"
	config.ApplyDefaults(cfg)

	return wire(t, cfg, mr, testutil.NewManualClock(monday))
}

// Peer builds a second tracker process over the same database, Redis and
// clock.
func (e *Environment) Peer(t *testing.T) *Environment {
	t.Helper()
	cfg := *e.Cfg
	cfg.Database.Postgres.AutoMigrate = false
	return wire(t, &cfg, e.Redis, e.Clock)
}

func wire(t *testing.T, cfg *config.Config, mr *miniredis.Miniredis, clock *testutil.ManualClock) *Environment {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()
	infra, err := bootstrap.New(ctx, cfg, logging.NewNopLogger(), bootstrap.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(infra.Close)

	svcs, err := infra.Services()
	require.NoError(t, err)

	return &Environment{Cfg: cfg, Clock: clock, Redis: mr, Infra: infra, Services: svcs}
}

//Personal.AI order the ending
