// End-to-end tests drive the public SDK against the full HTTP stack: chi
// router, middleware, handlers, application services and the memory store.
package e2e_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/foia-tracker/internal/bootstrap"
	"github.com/turtacn/foia-tracker/internal/config"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/foia-tracker/internal/interfaces/http"
	"github.com/turtacn/foia-tracker/internal/interfaces/http/handlers"
	"github.com/turtacn/foia-tracker/internal/interfaces/http/middleware"
	"github.com/turtacn/foia-tracker/internal/testutil"
	"github.com/turtacn/foia-tracker/pkg/client"
)

// monday is 2025-03-03 09:00 UTC.
var monday = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

type stack struct {
	server *httptest.Server
	clock  *testutil.ManualClock
	sdk    *client.Client
}

func newStack(t *testing.T) *stack {
	t.Helper()

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Tracker.Store = config.StoreMemory

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "foia_e2e"}, logging.NewNopLogger())
	require.NoError(t, err)

	clock := testutil.NewManualClock(monday)
	logger := logging.NewNopLogger()
	infra, err := bootstrap.New(context.Background(), cfg, logger,
		bootstrap.WithClock(clock), bootstrap.WithCollector(collector))
	require.NoError(t, err)
	t.Cleanup(infra.Close)

	svcs, err := infra.Services()
	require.NoError(t, err)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		RequestHandler:   handlers.NewRequestHandler(svcs.Tracking, clock, logger),
		AlertHandler:     handlers.NewAlertHandler(svcs.Alerting, infra.Calculator.Registry(), logger),
		AppealHandler:    handlers.NewAppealHandler(svcs.Appeals, logger),
		CalendarHandler:  handlers.NewCalendarHandler(infra.Calculator, clock, logger),
		HealthHandler:    handlers.NewHealthHandler("e2e"),
		Logger:           logger,
		Logging:          middleware.DefaultLoggingConfig(),
		Metrics:          infra.Metrics,
		MetricsCollector: collector,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	sdk, err := client.NewClient(srv.URL,
		client.WithActor("e2e-suite"),
		client.WithTimeout(5*time.Second),
		client.WithRetryMax(0),
	)
	require.NoError(t, err)

	return &stack{server: srv, clock: clock, sdk: sdk}
}

func (s *stack) file(t *testing.T, jurisdiction, filed string) *client.RequestView {
	t.Helper()
	v, err := s.sdk.Requests().Create(context.Background(), &client.CreateRequest{
		Agency:       "Ministry of Home Affairs",
		Jurisdiction: jurisdiction,
		Topic:        "detention statistics",
		RenderedText: "I request copies of ...",
		DateFiled:    filed,
	})
	require.NoError(t, err)
	return v
}

//Personal.AI order the ending
