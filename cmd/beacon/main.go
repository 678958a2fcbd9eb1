package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/beacon/pkg/config"
	"github.com/platinummonkey/beacon/pkg/datastore"
	"github.com/platinummonkey/beacon/pkg/httputil"
	"github.com/platinummonkey/beacon/pkg/monitor"
	"github.com/platinummonkey/beacon/pkg/observability"
)

const serviceName = "beacon"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout).WithField("service", serviceName)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Beacon exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetry, err := observability.InitTelemetry(ctx, observability.TelemetryConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
		ExportInterval: cfg.Observability.OTelExportInterval,
	}, logger)
	if err != nil {
		return err
	}

	opts := monitor.Options{
		Logger: logger,
		Tracer: telemetry.Tracer(serviceName),
	}
	if telemetry.Enabled() {
		otelMetrics, err := observability.NewOTelMetricsWithMeter(telemetry.Meter(serviceName))
		if err != nil {
			return err
		}
		opts.OTelMetrics = otelMetrics
	}

	var db *sql.DB
	if cfg.Health.DatabaseDriver != "" {
		db, err = datastore.OpenSQL(ctx, datastore.SQLConfigFrom(cfg.Health))
		if err != nil {
			return err
		}
		defer db.Close()
		opts.DB = db
		logger.WithField("driver", cfg.Health.DatabaseDriver).Info("Database connected")
	}

	var rdb *redis.Client
	if cfg.Health.RedisURL != "" {
		rdb, err = datastore.OpenRedis(ctx, cfg.Health.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts.Redis = rdb
		logger.Info("Redis connected")
	}

	mon, err := monitor.New(ctx, cfg, opts)
	if err != nil {
		return err
	}

	router := mux.NewRouter()
	router.Use(httputil.RequestIDMiddleware, httputil.RecoveryMiddleware(logger), mon.Middleware)
	mon.RegisterRoutes(router)
	mon.Checker().RegisterRoutes(router)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(router, mon.Registry())
	}

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      otelhttp.NewHandler(router, serviceName),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if err := mon.Start(ctx); err != nil {
		return err
	}

	if path := os.Getenv("BEACON_CONFIG_FILE"); path != "" {
		go func() {
			err := config.Watch(ctx, path, mon.ThresholdStore(), logger, func(th config.Thresholds) {
				if err := mon.UpdateThresholds(th); err != nil {
					logger.WithError(err).Warn("Rejected reloaded thresholds")
				}
			})
			if err != nil {
				logger.WithError(err).Warn("Config watcher stopped")
			}
		}()
	}

	shutdown := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc("monitor", mon.Stop)
	if telemetry.Enabled() {
		shutdown.RegisterShutdownFunc("otel", telemetry.Shutdown)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", server.Addr).Info("Beacon listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	waitCtx, stopWaiting := context.WithCancel(ctx)
	defer stopWaiting()
	go func() {
		if err := <-serverErr; err != nil {
			logger.WithError(err).Error("HTTP server failed")
			stopWaiting()
		}
	}()

	return shutdown.WaitForShutdown(waitCtx)
}
