package monitor

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/beacon/pkg/alerts"
	"github.com/platinummonkey/beacon/pkg/analytics"
	"github.com/platinummonkey/beacon/pkg/config"
	"github.com/platinummonkey/beacon/pkg/dashboard"
	"github.com/platinummonkey/beacon/pkg/health"
	"github.com/platinummonkey/beacon/pkg/insights"
	"github.com/platinummonkey/beacon/pkg/metrics"
	"github.com/platinummonkey/beacon/pkg/observability"
	"github.com/platinummonkey/beacon/pkg/report"
	"github.com/platinummonkey/beacon/pkg/scheduler"
	"github.com/platinummonkey/beacon/pkg/tracing"
)

// Options supplies the collaborators a Monitor cannot build from config alone.
// Every field is optional.
type Options struct {
	Logger *observability.Logger

	// Registry receives the Prometheus collectors. A private registry is
	// created when nil.
	Registry *prometheus.Registry
	// OTelMetrics mirrors measurements to OpenTelemetry when set
	OTelMetrics *observability.OTelMetrics
	Tracer      trace.Tracer

	DB         *sql.DB
	Redis      redis.Cmdable
	HTTPClient *http.Client

	// Probes are registered after the ones derived from config
	Probes []health.Probe
	// Notifiers are subscribed after the ones derived from config
	Notifiers []alerts.Notifier
	// ReportSinks replaces the sink derived from config
	ReportSinks []report.Sink

	System dashboard.SystemProvider

	Now  func() time.Time
	Rand func() float64
}

// Monitor owns every monitoring component of one process
type Monitor struct {
	cfg        *config.Config
	logger     *observability.Logger
	thresholds *config.ThresholdStore
	registry   *prometheus.Registry
	prom       *observability.Metrics

	recorder   *metrics.Recorder
	tracker    *tracing.Tracker
	aggregator *analytics.Aggregator
	checker    *health.Checker
	engine     *alerts.Engine
	store      *dashboard.Store
	collector  *dashboard.Collector
	generator  *insights.Generator
	exporter   *report.Exporter
	business   *dashboard.BusinessCounters
	security   *dashboard.SecurityCounters

	scheduler *scheduler.Scheduler
	now       func() time.Time
	rand      func() float64
}

// New builds a monitor from cfg. Nothing runs in the background until Start.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Monitor, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Logger == nil {
		opts.Logger = observability.Discard()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.Float64
	}

	m := &Monitor{
		cfg:        cfg,
		logger:     opts.Logger,
		thresholds: config.NewThresholdStore(cfg.Monitoring.Thresholds),
		registry:   opts.Registry,
		prom:       observability.NewMetrics(opts.Registry),
		business:   &dashboard.BusinessCounters{},
		security:   &dashboard.SecurityCounters{},
		now:        opts.Now,
		rand:       opts.Rand,
	}
	obs := observers{prom: m.prom, otel: opts.OTelMetrics}

	sinks := []metrics.Sink{m.prom}
	if opts.OTelMetrics != nil {
		sinks = append(sinks, opts.OTelMetrics)
	}

	m.engine = alerts.NewEngine(alerts.Options{
		Rules:       alerts.DefaultRules(m.thresholds.Load()),
		Logger:      m.logger.WithField("component", "alerts"),
		Observer:    obs,
		Workers:     cfg.Notify.Workers,
		RaiseBurst:  cfg.Notify.RaiseBurst,
		RaiseRefill: cfg.Notify.RaiseRefill,
		Now:         m.now,
	})
	for _, n := range notifiers(cfg.Notify, opts, m.logger) {
		m.engine.Subscribe(n)
	}

	m.recorder = metrics.NewRecorder(metrics.Options{
		Thresholds: m.thresholds,
		Logger:     m.logger.WithField("component", "metrics"),
		Sinks:      sinks,
		Alerts:     m.engine,
		Retention:  cfg.Monitoring.MetricRetention,
		TrimTo:     cfg.Monitoring.MetricTrimTo,
		Now:        m.now,
	})

	m.tracker = tracing.NewTracker(tracing.Options{
		Retention: cfg.Monitoring.TraceRetention,
		MaxEnded:  cfg.Monitoring.MaxEndedTraces,
		Tracer:    opts.Tracer,
		Logger:    m.logger.WithField("component", "tracing"),
		Now:       m.now,
	})

	m.aggregator = analytics.NewAggregator(m.recorder, m.thresholds)

	m.checker = health.NewChecker(health.Options{
		Timeout:  cfg.Health.ProbeTimeout,
		Logger:   m.logger.WithField("component", "health"),
		Observer: obs,
	}, probes(cfg.Health, opts)...)

	system := opts.System
	if system == nil {
		rt, err := dashboard.NewRuntimeSystemProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create system provider: %w", err)
		}
		system = rt
	}

	m.store = dashboard.NewStore(cfg.Monitoring.SnapshotHistory, m.prom)
	m.collector = dashboard.NewCollector(dashboard.CollectorOptions{
		Health:        m.checker,
		Analyzer:      m.aggregator,
		Alerts:        m.engine,
		System:        system,
		Business:      m.business,
		Security:      m.security,
		WindowMinutes: cfg.Monitoring.SnapshotWindow,
		Logger:        m.logger.WithField("component", "dashboard"),
		Now:           m.now,
	})

	m.generator = insights.NewGenerator(m.store, m.thresholds, m.logger.WithField("component", "insights"), m.prom)

	reportSinks := opts.ReportSinks
	if reportSinks == nil {
		s, err := reportSink(ctx, cfg.Export)
		if err != nil {
			return nil, err
		}
		reportSinks = []report.Sink{s}
	}
	m.exporter = report.NewExporter(report.Options{
		Analyzer: m.aggregator,
		Raw:      m.recorder,
		Sinks:    reportSinks,
		Logger:   m.logger.WithField("component", "report"),
		Observer: m.prom,
		Now:      m.now,
	})

	return m, nil
}

func probes(cfg config.HealthConfig, opts Options) []health.Probe {
	var out []health.Probe
	if opts.DB != nil {
		out = append(out, &health.SQLProbe{DB: opts.DB, DegradedLatency: cfg.DegradedLatency})
	}
	if opts.Redis != nil {
		out = append(out, &health.RedisProbe{Client: opts.Redis, TTL: cfg.RedisCacheTTL})
	}
	if cfg.WritableDir != "" {
		out = append(out, &health.FilesystemProbe{Dir: cfg.WritableDir})
	}
	for _, dep := range cfg.Dependencies {
		out = append(out, &health.HTTPProbe{Dependency: dep, Client: opts.HTTPClient})
	}
	return append(out, opts.Probes...)
}

func notifiers(cfg config.NotifyConfig, opts Options, logger *observability.Logger) []alerts.Notifier {
	out := []alerts.Notifier{&alerts.LogNotifier{Logger: logger.WithField("component", "alerts")}}
	if cfg.WebhookURL != "" {
		out = append(out, alerts.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookSecret))
	}
	if cfg.RedisChannel != "" && opts.Redis != nil {
		out = append(out, &alerts.RedisNotifier{Client: opts.Redis, Channel: cfg.RedisChannel})
	}
	return append(out, opts.Notifiers...)
}

func reportSink(ctx context.Context, cfg config.ExportConfig) (report.Sink, error) {
	if cfg.Sink == "s3" {
		s, err := report.NewS3Sink(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 report sink: %w", err)
		}
		return s, nil
	}
	return &report.FileSink{Dir: cfg.Directory}, nil
}

// GetSnapshot returns the newest stored snapshot
func (m *Monitor) GetSnapshot() (dashboard.Snapshot, bool) {
	return m.store.Latest()
}

// SnapshotHistory returns up to count of the newest snapshots, oldest first
func (m *Monitor) SnapshotHistory(count int) []dashboard.Snapshot {
	return m.store.Recent(count)
}

// CollectSnapshot builds a snapshot, evaluates the alert rules against it and
// stores it. Alerts fired by this evaluation are included in the result.
func (m *Monitor) CollectSnapshot(ctx context.Context) dashboard.Snapshot {
	snap := m.collector.Collect(ctx)
	if fired := m.engine.Evaluate(ctx, snap); len(fired) > 0 {
		snap.Alerts = m.engine.Active()
	}
	m.store.Append(snap)
	return snap
}

// Analyze aggregates the last windowMinutes of metrics
func (m *Monitor) Analyze(windowMinutes int) analytics.Snapshot {
	return m.aggregator.Analyze(windowMinutes)
}

// RunHealthCheck runs every probe now
func (m *Monitor) RunHealthCheck(ctx context.Context) health.Report {
	return m.checker.Run(ctx)
}

// GetRawMetrics returns the newest limit entries of each metric collection
func (m *Monitor) GetRawMetrics(limit int) metrics.RawMetrics {
	return m.recorder.Raw(limit)
}

// Alerts returns unresolved alerts, or every alert when all is set
func (m *Monitor) Alerts(all bool) []alerts.Alert {
	if all {
		return m.engine.All()
	}
	return m.engine.Active()
}

// AcknowledgeAlert marks an alert acknowledged by actor
func (m *Monitor) AcknowledgeAlert(ctx context.Context, id, actor string) (alerts.Alert, error) {
	return m.engine.Acknowledge(ctx, id, actor)
}

// ResolveAlert marks an alert resolved by actor
func (m *Monitor) ResolveAlert(ctx context.Context, id, actor string) (alerts.Alert, error) {
	return m.engine.Resolve(ctx, id, actor)
}

// GenerateInsights derives predictions from the snapshot history
func (m *Monitor) GenerateInsights() []insights.Insight {
	return m.generator.Generate()
}

// ExportReport writes a report to every configured sink and returns where
// the first one landed
func (m *Monitor) ExportReport(ctx context.Context) (string, error) {
	return m.exporter.Export(ctx)
}

// Trace returns an active or recently ended trace
func (m *Monitor) Trace(id string) (tracing.Trace, bool) {
	return m.tracker.Trace(id)
}

// ActiveTraces returns every trace still held by the tracker
func (m *Monitor) ActiveTraces() []tracing.Trace {
	return m.tracker.ActiveTraces()
}

// Thresholds returns the thresholds in effect
func (m *Monitor) Thresholds() config.Thresholds {
	return m.thresholds.Load()
}

// UpdateThresholds validates and installs new thresholds. The default alert
// rules are rebuilt against them; rule cooldowns carry over.
func (m *Monitor) UpdateThresholds(th config.Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}
	m.thresholds.Store(th)
	m.engine.SetRules(alerts.DefaultRules(th))
	m.logger.Info("Thresholds updated")
	return nil
}

// ThresholdStore exposes the live thresholds for config.Watch
func (m *Monitor) ThresholdStore() *config.ThresholdStore {
	return m.thresholds
}

// Recorder is the metric recorder used by Measure and the middleware
func (m *Monitor) Recorder() *metrics.Recorder { return m.recorder }

// Tracker is the trace tracker
func (m *Monitor) Tracker() *tracing.Tracker { return m.tracker }

// Checker is the health checker, for mounting the probe endpoints
func (m *Monitor) Checker() *health.Checker { return m.checker }

// Business returns the counters feeding the business block of snapshots
func (m *Monitor) Business() *dashboard.BusinessCounters { return m.business }

// Security returns the counters feeding the security block of snapshots
func (m *Monitor) Security() *dashboard.SecurityCounters { return m.security }

// Registry is the Prometheus registry backing /metrics
func (m *Monitor) Registry() *prometheus.Registry { return m.registry }
