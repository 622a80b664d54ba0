// Background worker for the FOIA tracker.  It runs the periodic deadline
// scan, consumes analyzer and filing-transport events from Kafka, and serves
// probes and metrics on the metrics listener.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/foia-tracker/internal/application/tracking"
	"github.com/turtacn/foia-tracker/internal/bootstrap"
	"github.com/turtacn/foia-tracker/internal/config"
	"github.com/turtacn/foia-tracker/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/foia-tracker/internal/interfaces/events"
	"github.com/turtacn/foia-tracker/internal/interfaces/http/handlers"
)

var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: FOIA_* environment only)")
	scanOnce := flag.Bool("scan-once", false, "run a single deadline scan and exit")
	noConsumer := flag.Bool("no-consumer", false, "do not consume Kafka events")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := &worker{cfg: cfg, configPath: *configPath, logger: logger}
	if err := w.run(ctx, *scanOnce, !*noConsumer); err != nil {
		logger.Error("worker exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	return config.LoadFromFile(path)
}

type worker struct {
	cfg        *config.Config
	configPath string
	logger     logging.Logger

	infra *bootstrap.Infrastructure
	svcs  *bootstrap.Services
}

func (w *worker) run(ctx context.Context, scanOnce, consume bool) error {
	w.logger.Info("starting FOIA tracker worker",
		logging.String("version", version),
		logging.Duration("scan_interval", w.cfg.Tracker.ScanInterval),
		logging.Bool("kafka", w.cfg.Kafka.Enabled() && consume),
	)

	infra, err := bootstrap.New(ctx, w.cfg, w.logger)
	if err != nil {
		return err
	}
	defer infra.Close()
	w.infra = infra

	if w.svcs, err = infra.Services(); err != nil {
		return err
	}

	if scanOnce {
		return w.scan(ctx)
	}

	if w.configPath != "" {
		if err := config.Watch(w.configPath, w.reload, func(err error) {
			w.logger.Warn("config reload rejected", logging.Err(err))
		}); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.scanLoop(gctx) })

	if consume && w.cfg.Kafka.Enabled() {
		consumer, err := w.newConsumer()
		if err != nil {
			return err
		}
		defer consumer.Close()
		g.Go(func() error { return consumer.Run(gctx) })
	}

	srv := w.probeServer()
	g.Go(func() error {
		w.logger.Info("probe server listening", logging.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(stopCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	w.logger.Info("worker stopped")
	return nil
}

// reload applies the settings that may change without a restart: the alert
// thresholds and the log level.
func (w *worker) reload(cfg *config.Config) {
	set, err := cfg.Tracker.ThresholdSet(w.infra.Calculator.Registry())
	if err != nil {
		w.logger.Warn("threshold reload rejected", logging.Err(err))
		return
	}
	w.svcs.Alerting.SetThresholds(set)
	if ls, ok := w.logger.(logging.LevelSetter); ok {
		ls.SetLevel(cfg.Log.Level)
	}
	w.logger.Info("configuration reloaded", logging.String("log_level", cfg.Log.Level))
}

func (w *worker) scanLoop(ctx context.Context) error {
	interval := w.cfg.Tracker.ScanInterval
	if interval <= 0 {
		interval = config.DefaultScanInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := w.scan(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("deadline scan failed", logging.Err(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// scan runs one deadline scan at the clock's now and refreshes the gauges.
func (w *worker) scan(ctx context.Context) error {
	res, err := w.svcs.Alerting.Scan(ctx, time.Time{})
	if err != nil {
		return err
	}
	for _, warn := range res.Warnings {
		w.logger.Warn("scan warning",
			logging.RequestID(warn.RequestID),
			logging.String("code", warn.Code),
			logging.String("message", warn.Message),
		)
	}

	if m := w.infra.Metrics; m != nil {
		return observeStats(ctx, w.svcs.Tracking, m)
	}
	return nil
}

func observeStats(ctx context.Context, svc tracking.Service, m *prometheus.AppMetrics) error {
	st, err := svc.Stats(ctx)
	if err != nil {
		return err
	}
	m.ObserveStats(*st)
	return nil
}

func (w *worker) newConsumer() (*kafka.Consumer, error) {
	kcfg := w.cfg.Kafka.ConsumerConfig(kafka.TopicResponseAnalyzed, kafka.TopicFilingConfirmed)
	consumer, err := kafka.NewConsumer(kcfg, w.infra.Producer, w.logger.Named("consumer"))
	if err != nil {
		return nil, err
	}

	var opts []events.Option
	if m := w.infra.Metrics; m != nil {
		opts = append(opts, events.WithObserver(func(topic string, err error, d time.Duration) {
			prometheus.RecordMessage(m, topic, err, d)
		}))
	}
	events.NewHandlers(w.svcs.Tracking, w.logger.Named("events"), opts...).Register(consumer)
	return consumer, nil
}

func (w *worker) probeServer() *http.Server {
	checks := w.infra.Checks()
	checkers := make([]handlers.HealthChecker, 0, len(checks))
	for _, c := range checks {
		checkers = append(checkers, handlers.CheckFunc(c.Name, c.Fn))
	}
	health := handlers.NewHealthHandler(version, checkers...)

	r := chi.NewRouter()
	r.Get("/healthz", health.Liveness)
	r.Get("/readyz", health.Readiness)
	if w.infra.Collector != nil {
		r.Handle(w.cfg.Metrics.Path, w.infra.Collector.Handler())
	}

	return &http.Server{
		Addr:              w.cfg.Metrics.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

//Personal.AI order the ending
