// API server entry point for the FOIA tracker.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/foia-tracker/internal/bootstrap"
	"github.com/turtacn/foia-tracker/internal/config"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	grpcserver "github.com/turtacn/foia-tracker/internal/interfaces/grpc"
	httpserver "github.com/turtacn/foia-tracker/internal/interfaces/http"
	"github.com/turtacn/foia-tracker/internal/interfaces/http/handlers"
	"github.com/turtacn/foia-tracker/internal/interfaces/http/middleware"
)

var version = "dev"

const (
	shutdownTimeout   = 30 * time.Second
	readinessInterval = 15 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: FOIA_* environment only)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", 0, "gRPC server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.HTTP.Port = *httpPort
	}
	if *grpcPort > 0 {
		cfg.Server.GRPC.Port = *grpcPort
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("apiserver exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	return config.LoadFromFile(path)
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	logger.Info("starting FOIA tracker API server",
		logging.String("version", version),
		logging.String("http_addr", cfg.Server.HTTP.Addr()),
		logging.Bool("grpc", cfg.Server.GRPC.Enabled),
	)

	infra, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	svcs, err := infra.Services()
	if err != nil {
		return err
	}

	checkers := make([]handlers.HealthChecker, 0, len(infra.Checks()))
	for _, c := range infra.Checks() {
		checkers = append(checkers, handlers.CheckFunc(c.Name, c.Fn))
	}

	logCfg := middleware.DefaultLoggingConfig()
	var corsCfg *middleware.CORSConfig
	if len(cfg.Server.HTTP.CORSOrigins) > 0 {
		c := middleware.DefaultCORSConfig(cfg.Server.HTTP.CORSOrigins...)
		corsCfg = &c
	}
	router := httpserver.NewRouter(httpserver.RouterConfig{
		RequestHandler:   handlers.NewRequestHandler(svcs.Tracking, infra.Clock, logger),
		AlertHandler:     handlers.NewAlertHandler(svcs.Alerting, infra.Calculator.Registry(), logger),
		AppealHandler:    handlers.NewAppealHandler(svcs.Appeals, logger),
		CalendarHandler:  handlers.NewCalendarHandler(infra.Calculator, infra.Clock, logger),
		HealthHandler:    handlers.NewHealthHandler(version, checkers...),
		Logger:           logger,
		Logging:          logCfg,
		CORS:             corsCfg,
		Metrics:          infra.Metrics,
		MetricsCollector: infra.Collector,
	})
	httpSrv := httpserver.NewServer(cfg.Server.HTTP, router, logger)

	var grpcSrv *grpcserver.Server
	if cfg.Server.GRPC.Enabled {
		grpcSrv, err = grpcserver.NewServer(cfg.Server.GRPC,
			grpcserver.WithLogger(logger.Named("grpc")),
			grpcserver.WithGracefulTimeout(shutdownTimeout),
		)
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpSrv.Start)
	if grpcSrv != nil {
		g.Go(grpcSrv.Start)
		g.Go(func() error {
			grpcSrv.WatchReadiness(gctx, readinessInterval, infra.Ping)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down servers")

		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if grpcSrv != nil {
			if err := grpcSrv.Stop(stopCtx); err != nil {
				logger.Error("grpc server shutdown error", logging.Err(err))
			}
		}
		return httpSrv.Stop(stopCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("servers stopped")
	return nil
}

//Personal.AI order the ending
