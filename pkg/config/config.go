package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/beacon/pkg/observability"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Monitoring thresholds, retention and timers
	Monitoring MonitoringConfig `yaml:"monitoring"`

	// Health probe configuration
	Health HealthConfig `yaml:"health"`

	// Report export configuration
	Export ExportConfig `yaml:"export"`

	// Alert notification configuration
	Notify NotifyConfig `yaml:"notify"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Range is a warning/critical threshold pair
type Range struct {
	Warning  float64 `yaml:"warning" json:"warning"`
	Critical float64 `yaml:"critical" json:"critical"`
}

// Bounds is a min/max pair
type Bounds struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Thresholds are the values alerting, logging and insights are measured against.
// Durations are expressed in milliseconds, usage values in percent.
type Thresholds struct {
	ResponseTime       Range   `yaml:"response_time" json:"responseTime"`
	ErrorRate          Range   `yaml:"error_rate" json:"errorRate"`
	Throughput         Bounds  `yaml:"throughput" json:"throughput"`
	DataAccessDuration Range   `yaml:"data_access_duration" json:"dataAccessDuration"`
	MemoryUsage        Range   `yaml:"memory_usage" json:"memoryUsage"`
	CPUUsageHigh       float64 `yaml:"cpu_usage_high" json:"cpuUsageHigh"`
}

// DefaultThresholds returns the stock threshold set
func DefaultThresholds() Thresholds {
	return Thresholds{
		ResponseTime:       Range{Warning: 1000, Critical: 5000},
		ErrorRate:          Range{Warning: 0.01, Critical: 0.05},
		Throughput:         Bounds{Min: 10, Max: 10000},
		DataAccessDuration: Range{Warning: 100, Critical: 1000},
		MemoryUsage:        Range{Warning: 80, Critical: 90},
		CPUUsageHigh:       80,
	}
}

// ResponseWarning returns the response time warning threshold as a duration
func (t Thresholds) ResponseWarning() time.Duration { return millis(t.ResponseTime.Warning) }

// ResponseCritical returns the response time critical threshold as a duration
func (t Thresholds) ResponseCritical() time.Duration { return millis(t.ResponseTime.Critical) }

// DataAccessWarning returns the data access warning threshold as a duration
func (t Thresholds) DataAccessWarning() time.Duration { return millis(t.DataAccessDuration.Warning) }

// DataAccessCritical returns the data access critical threshold as a duration
func (t Thresholds) DataAccessCritical() time.Duration {
	return millis(t.DataAccessDuration.Critical)
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// MonitoringConfig holds retention caps and timer intervals
type MonitoringConfig struct {
	Thresholds Thresholds `yaml:"thresholds"`

	// Metric lists are trimmed to MetricTrimTo once they exceed MetricRetention
	MetricRetention int `yaml:"metric_retention"`
	MetricTrimTo    int `yaml:"metric_trim_to"`

	SnapshotHistory int           `yaml:"snapshot_history"`
	SnapshotWindow  int           `yaml:"snapshot_window_minutes"`
	TraceRetention  time.Duration `yaml:"trace_retention"`
	MaxEndedTraces  int           `yaml:"max_ended_traces"`

	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	SnapshotInterval  time.Duration `yaml:"snapshot_interval"`
	InsightInterval   time.Duration `yaml:"insight_interval"`
	ExportInterval    time.Duration `yaml:"export_interval"`
	ExportProbability float64       `yaml:"export_probability"`
}

// DefaultMonitoringConfig returns the stock retention and timer settings
func DefaultMonitoringConfig() MonitoringConfig {
	return MonitoringConfig{
		Thresholds:        DefaultThresholds(),
		MetricRetention:   10000,
		MetricTrimTo:      5000,
		SnapshotHistory:   1000,
		SnapshotWindow:    5,
		TraceRetention:    60 * time.Second,
		MaxEndedTraces:    10000,
		CleanupInterval:   5 * time.Minute,
		SnapshotInterval:  10 * time.Second,
		InsightInterval:   5 * time.Minute,
		ExportInterval:    15 * time.Minute,
		ExportProbability: 0.1,
	}
}

// Dependency is an external service reachable over HTTP
type Dependency struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Critical bool   `yaml:"critical"`
}

// HealthConfig holds probe settings
type HealthConfig struct {
	ProbeTimeout     time.Duration `yaml:"probe_timeout"`
	DegradedLatency  time.Duration `yaml:"degraded_latency"`
	DatabaseDriver   string        `yaml:"database_driver"`
	DatabaseURL      string        `yaml:"database_url"`
	RedisURL         string        `yaml:"redis_url"`
	WritableDir      string        `yaml:"writable_dir"`
	Dependencies     []Dependency  `yaml:"dependencies"`
	RedisCacheTTL    time.Duration `yaml:"redis_cache_ttl"`
	DatabaseMaxConns int           `yaml:"database_max_conns"`
}

// ExportConfig holds report sink settings
type ExportConfig struct {
	Sink        string `yaml:"sink"` // "file" or "s3"
	Directory   string `yaml:"directory"`
	S3Bucket    string `yaml:"s3_bucket"`
	S3Prefix    string `yaml:"s3_prefix"`
	S3Region    string `yaml:"s3_region"`
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3AccessKey string `yaml:"s3_access_key"`
	S3SecretKey string `yaml:"s3_secret_key"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// NotifyConfig holds alert notification settings
type NotifyConfig struct {
	WebhookURL    string `yaml:"webhook_url"`
	WebhookSecret string `yaml:"webhook_secret"`
	RedisChannel  string `yaml:"redis_channel"`
	Workers       int    `yaml:"workers"`

	// Alerts raised from measurements are limited to RaiseBurst per type and
	// severity, refilling one every RaiseRefill. Zero burst disables the limit.
	RaiseBurst  int           `yaml:"raise_burst"`
	RaiseRefill time.Duration `yaml:"raise_refill"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel     observability.LogLevel `yaml:"-"`
	LogLevelName string                 `yaml:"log_level"`

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// OpenTelemetry
	OTelEnabled        bool          `yaml:"otel_enabled"`
	OTelEndpoint       string        `yaml:"otel_endpoint"`
	OTelServiceName    string        `yaml:"otel_service_name"`
	OTelServiceVersion string        `yaml:"otel_service_version"`
	OTelInsecure       bool          `yaml:"otel_insecure"` // Use insecure gRPC connection
	OTelSampleRatio    float64       `yaml:"otel_sample_ratio"`
	OTelExportInterval time.Duration `yaml:"otel_export_interval"`
}

// Default returns a configuration populated with defaults only
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Monitoring: DefaultMonitoringConfig(),
		Health: HealthConfig{
			ProbeTimeout:    5 * time.Second,
			DegradedLatency: time.Second,
			WritableDir:     os.TempDir(),
			RedisCacheTTL:   10 * time.Second,
		},
		Export: ExportConfig{
			Sink:      "file",
			Directory: "reports",
			S3Prefix:  "reports/",
		},
		Notify: NotifyConfig{
			Workers:     2,
			RaiseBurst:  10,
			RaiseRefill: 30 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:           observability.InfoLevel,
			LogLevelName:       "info",
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "beacon",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
			OTelSampleRatio:    1,
			OTelExportInterval: 10 * time.Second,
		},
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file named by
// BEACON_CONFIG_FILE, and environment variables, in that order of precedence.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := getEnv("BEACON_CONFIG_FILE", ""); path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Server = loadServerConfig(cfg.Server)
	cfg.Monitoring = loadMonitoringConfig(cfg.Monitoring)
	cfg.Health = loadHealthConfig(cfg.Health)
	cfg.Export = loadExportConfig(cfg.Export)
	cfg.Notify = loadNotifyConfig(cfg.Notify)
	cfg.Observability = loadObservabilityConfig(cfg.Observability)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig(base ServerConfig) ServerConfig {
	return ServerConfig{
		Host:            getEnv("BEACON_HOST", base.Host),
		Port:            getEnv("BEACON_PORT", base.Port),
		ReadTimeout:     getEnvDuration("BEACON_READ_TIMEOUT", base.ReadTimeout),
		WriteTimeout:    getEnvDuration("BEACON_WRITE_TIMEOUT", base.WriteTimeout),
		IdleTimeout:     getEnvDuration("BEACON_IDLE_TIMEOUT", base.IdleTimeout),
		ShutdownTimeout: getEnvDuration("BEACON_SHUTDOWN_TIMEOUT", base.ShutdownTimeout),
	}
}

// loadMonitoringConfig loads thresholds, caps and intervals from environment
func loadMonitoringConfig(cfg MonitoringConfig) MonitoringConfig {
	t := &cfg.Thresholds
	t.ResponseTime.Warning = getEnvFloat("BEACON_RESPONSE_TIME_WARNING_MS", t.ResponseTime.Warning)
	t.ResponseTime.Critical = getEnvFloat("BEACON_RESPONSE_TIME_CRITICAL_MS", t.ResponseTime.Critical)
	t.ErrorRate.Warning = getEnvFloat("BEACON_ERROR_RATE_WARNING", t.ErrorRate.Warning)
	t.ErrorRate.Critical = getEnvFloat("BEACON_ERROR_RATE_CRITICAL", t.ErrorRate.Critical)
	t.Throughput.Min = getEnvFloat("BEACON_THROUGHPUT_MIN", t.Throughput.Min)
	t.Throughput.Max = getEnvFloat("BEACON_THROUGHPUT_MAX", t.Throughput.Max)
	t.DataAccessDuration.Warning = getEnvFloat("BEACON_DATA_ACCESS_WARNING_MS", t.DataAccessDuration.Warning)
	t.DataAccessDuration.Critical = getEnvFloat("BEACON_DATA_ACCESS_CRITICAL_MS", t.DataAccessDuration.Critical)
	t.MemoryUsage.Warning = getEnvFloat("BEACON_MEMORY_WARNING", t.MemoryUsage.Warning)
	t.MemoryUsage.Critical = getEnvFloat("BEACON_MEMORY_CRITICAL", t.MemoryUsage.Critical)
	t.CPUUsageHigh = getEnvFloat("BEACON_CPU_HIGH", t.CPUUsageHigh)

	cfg.MetricRetention = getEnvInt("BEACON_METRIC_RETENTION", cfg.MetricRetention)
	cfg.MetricTrimTo = getEnvInt("BEACON_METRIC_TRIM_TO", cfg.MetricTrimTo)
	cfg.SnapshotHistory = getEnvInt("BEACON_SNAPSHOT_HISTORY", cfg.SnapshotHistory)
	cfg.SnapshotWindow = getEnvInt("BEACON_SNAPSHOT_WINDOW_MINUTES", cfg.SnapshotWindow)
	cfg.TraceRetention = getEnvDuration("BEACON_TRACE_RETENTION", cfg.TraceRetention)
	cfg.MaxEndedTraces = getEnvInt("BEACON_MAX_ENDED_TRACES", cfg.MaxEndedTraces)
	cfg.CleanupInterval = getEnvDuration("BEACON_CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.SnapshotInterval = getEnvDuration("BEACON_SNAPSHOT_INTERVAL", cfg.SnapshotInterval)
	cfg.InsightInterval = getEnvDuration("BEACON_INSIGHT_INTERVAL", cfg.InsightInterval)
	cfg.ExportInterval = getEnvDuration("BEACON_EXPORT_INTERVAL", cfg.ExportInterval)
	cfg.ExportProbability = getEnvFloat("BEACON_EXPORT_PROBABILITY", cfg.ExportProbability)
	return cfg
}

// loadHealthConfig loads probe configuration from environment
func loadHealthConfig(cfg HealthConfig) HealthConfig {
	cfg.ProbeTimeout = getEnvDuration("BEACON_PROBE_TIMEOUT", cfg.ProbeTimeout)
	cfg.DegradedLatency = getEnvDuration("BEACON_DEGRADED_LATENCY", cfg.DegradedLatency)
	cfg.DatabaseDriver = getEnv("BEACON_DATABASE_DRIVER", cfg.DatabaseDriver)
	cfg.DatabaseURL = getEnv("BEACON_DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = getEnv("BEACON_REDIS_URL", cfg.RedisURL)
	cfg.WritableDir = getEnv("BEACON_WRITABLE_DIR", cfg.WritableDir)
	cfg.DatabaseMaxConns = getEnvInt("BEACON_DATABASE_MAX_CONNS", cfg.DatabaseMaxConns)

	// BEACON_DEPENDENCIES=name=url[!],name=url ; a trailing ! marks a critical dependency
	if deps := getEnv("BEACON_DEPENDENCIES", ""); deps != "" {
		cfg.Dependencies = parseDependencies(deps)
	}
	return cfg
}

// loadExportConfig loads report sink configuration from environment
func loadExportConfig(cfg ExportConfig) ExportConfig {
	cfg.Sink = getEnv("BEACON_EXPORT_SINK", cfg.Sink)
	cfg.Directory = getEnv("BEACON_EXPORT_DIR", cfg.Directory)
	cfg.S3Bucket = getEnv("BEACON_S3_BUCKET", cfg.S3Bucket)
	cfg.S3Prefix = getEnv("BEACON_S3_PREFIX", cfg.S3Prefix)
	cfg.S3Region = getEnv("BEACON_S3_REGION", cfg.S3Region)
	cfg.S3Endpoint = getEnv("BEACON_S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3AccessKey = getEnv("BEACON_S3_ACCESS_KEY", cfg.S3AccessKey)
	cfg.S3SecretKey = getEnv("BEACON_S3_SECRET_KEY", cfg.S3SecretKey)
	cfg.S3PathStyle = getEnvBool("BEACON_S3_PATH_STYLE", cfg.S3PathStyle)
	return cfg
}

// loadNotifyConfig loads notification configuration from environment
func loadNotifyConfig(cfg NotifyConfig) NotifyConfig {
	cfg.WebhookURL = getEnv("BEACON_ALERT_WEBHOOK_URL", cfg.WebhookURL)
	cfg.WebhookSecret = getEnv("BEACON_ALERT_WEBHOOK_SECRET", cfg.WebhookSecret)
	cfg.RedisChannel = getEnv("BEACON_ALERT_REDIS_CHANNEL", cfg.RedisChannel)
	cfg.Workers = getEnvInt("BEACON_ALERT_WORKERS", cfg.Workers)
	cfg.RaiseBurst = getEnvInt("BEACON_ALERT_RAISE_BURST", cfg.RaiseBurst)
	cfg.RaiseRefill = getEnvDuration("BEACON_ALERT_RAISE_REFILL", cfg.RaiseRefill)
	return cfg
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig(cfg ObservabilityConfig) ObservabilityConfig {
	cfg.LogLevelName = getEnv("BEACON_LOG_LEVEL", cfg.LogLevelName)
	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	cfg.MetricsEnabled = getEnvBool("BEACON_METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.OTelEnabled = getEnvBool("BEACON_OTEL_ENABLED", cfg.OTelEnabled)
	cfg.OTelEndpoint = getEnv("BEACON_OTEL_ENDPOINT", cfg.OTelEndpoint)
	cfg.OTelServiceName = getEnv("BEACON_OTEL_SERVICE_NAME", cfg.OTelServiceName)
	cfg.OTelServiceVersion = getEnv("BEACON_OTEL_SERVICE_VERSION", cfg.OTelServiceVersion)
	cfg.OTelInsecure = getEnvBool("BEACON_OTEL_INSECURE", cfg.OTelInsecure)
	cfg.OTelSampleRatio = getEnvFloat("BEACON_OTEL_SAMPLE_RATIO", cfg.OTelSampleRatio)
	cfg.OTelExportInterval = getEnvDuration("BEACON_OTEL_EXPORT_INTERVAL", cfg.OTelExportInterval)
	return cfg
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("%w: server port is required", ErrInvalidConfig)
	}

	if err := c.Monitoring.Thresholds.Validate(); err != nil {
		return err
	}

	m := c.Monitoring
	if m.MetricRetention <= 0 || m.MetricTrimTo <= 0 {
		return fmt.Errorf("%w: metric retention caps must be positive", ErrInvalidConfig)
	}
	if m.MetricTrimTo > m.MetricRetention {
		return fmt.Errorf("%w: metric trim target %d exceeds retention cap %d", ErrInvalidConfig, m.MetricTrimTo, m.MetricRetention)
	}
	if m.SnapshotHistory <= 0 {
		return fmt.Errorf("%w: snapshot history must be positive", ErrInvalidConfig)
	}
	if m.SnapshotWindow <= 0 {
		return fmt.Errorf("%w: snapshot window must be positive", ErrInvalidConfig)
	}
	if m.TraceRetention <= 0 || m.MaxEndedTraces <= 0 {
		return fmt.Errorf("%w: trace retention must be positive", ErrInvalidConfig)
	}
	for name, d := range map[string]time.Duration{
		"cleanup":  m.CleanupInterval,
		"snapshot": m.SnapshotInterval,
		"insight":  m.InsightInterval,
		"export":   m.ExportInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s interval must be positive", ErrInvalidConfig, name)
		}
	}
	if m.ExportProbability < 0 || m.ExportProbability > 1 {
		return fmt.Errorf("%w: export probability must be within [0,1]", ErrInvalidConfig)
	}

	switch c.Export.Sink {
	case "file":
		if c.Export.Directory == "" {
			return fmt.Errorf("%w: export directory is required for file sink", ErrInvalidConfig)
		}
	case "s3":
		if c.Export.S3Bucket == "" {
			return fmt.Errorf("%w: S3 bucket is required for s3 sink", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: invalid export sink: %s (must be file or s3)", ErrInvalidConfig, c.Export.Sink)
	}

	switch c.Health.DatabaseDriver {
	case "", "postgres", "sqlite3":
	default:
		return fmt.Errorf("%w: unsupported database driver: %s", ErrInvalidConfig, c.Health.DatabaseDriver)
	}
	if c.Health.DatabaseDriver != "" && c.Health.DatabaseURL == "" {
		return fmt.Errorf("%w: database URL is required when a driver is set", ErrInvalidConfig)
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("%w: OpenTelemetry endpoint is required when OTel is enabled", ErrInvalidConfig)
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("%w: OpenTelemetry service name is required when OTel is enabled", ErrInvalidConfig)
		}
		if c.Observability.OTelSampleRatio < 0 || c.Observability.OTelSampleRatio > 1 {
			return fmt.Errorf("%w: OpenTelemetry sample ratio must be between 0 and 1", ErrInvalidConfig)
		}
		if c.Observability.OTelExportInterval <= 0 {
			return fmt.Errorf("%w: OpenTelemetry export interval must be positive", ErrInvalidConfig)
		}
	}

	return nil
}

// Validate checks that every warning level sits at or below its critical level
func (t Thresholds) Validate() error {
	ranges := []struct {
		name string
		r    Range
	}{
		{"response time", t.ResponseTime},
		{"error rate", t.ErrorRate},
		{"data access duration", t.DataAccessDuration},
		{"memory usage", t.MemoryUsage},
	}
	for _, rr := range ranges {
		if rr.r.Warning < 0 || rr.r.Critical < 0 {
			return fmt.Errorf("%w: %s thresholds must not be negative", ErrInvalidConfig, rr.name)
		}
		if rr.r.Warning > rr.r.Critical {
			return fmt.Errorf("%w: %s warning %.2f exceeds critical %.2f", ErrInvalidConfig, rr.name, rr.r.Warning, rr.r.Critical)
		}
	}
	if t.Throughput.Min > t.Throughput.Max {
		return fmt.Errorf("%w: throughput min exceeds max", ErrInvalidConfig)
	}
	return nil
}

func parseDependencies(raw string) []Dependency {
	var deps []Dependency
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		name, url, ok := strings.Cut(part, "=")
		if !ok || name == "" || url == "" {
			continue
		}
		dep := Dependency{Name: name, URL: url}
		if strings.HasSuffix(url, "!") {
			dep.URL = strings.TrimSuffix(url, "!")
			dep.Critical = true
		}
		deps = append(deps, dep)
	}
	return deps
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
