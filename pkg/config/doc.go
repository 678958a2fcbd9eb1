// Package config provides monitoring configuration from defaults, an optional
// YAML file and environment variables.
//
// # Overview
//
// Configuration is layered: built-in defaults, then the YAML file named by
// BEACON_CONFIG_FILE, then BEACON_* environment variables. The result is
// validated before use.
//
// # Configuration Structure
//
// Server settings:
//
//	BEACON_HOST="0.0.0.0"
//	BEACON_PORT="8080"
//	BEACON_SHUTDOWN_TIMEOUT="30s"
//
// Thresholds (durations in milliseconds):
//
//	BEACON_RESPONSE_TIME_WARNING_MS="1000"
//	BEACON_RESPONSE_TIME_CRITICAL_MS="5000"
//	BEACON_ERROR_RATE_CRITICAL="0.05"
//	BEACON_DATA_ACCESS_WARNING_MS="100"
//	BEACON_CPU_HIGH="80"
//
// Retention and timers:
//
//	BEACON_METRIC_RETENTION="10000"
//	BEACON_METRIC_TRIM_TO="5000"
//	BEACON_SNAPSHOT_HISTORY="1000"
//	BEACON_SNAPSHOT_INTERVAL="10s"
//	BEACON_EXPORT_INTERVAL="15m"
//	BEACON_EXPORT_PROBABILITY="0.1"
//
// Probes:
//
//	BEACON_DATABASE_DRIVER="postgres"  # postgres, sqlite3
//	BEACON_DATABASE_URL="postgres://localhost/app?sslmode=disable"
//	BEACON_REDIS_URL="redis://localhost:6379/0"
//	BEACON_DEPENDENCIES="billing=http://billing/healthz!,search=http://search/healthz"
//
// # Hot Reload
//
// Thresholds are published through a ThresholdStore. Watch re-reads the YAML
// file on change and stores the new thresholds; readers pick them up on their
// next Load:
//
//	store := config.NewThresholdStore(cfg.Monitoring.Thresholds)
//	go config.Watch(ctx, path, store, logger, nil)
//
// # Related Packages
//
//   - pkg/monitor: Consumes the whole configuration
//   - pkg/observability: Uses observability configuration
package config
