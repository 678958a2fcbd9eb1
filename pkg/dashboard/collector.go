package dashboard

import (
	"context"
	"time"

	"github.com/platinummonkey/beacon/pkg/alerts"
	"github.com/platinummonkey/beacon/pkg/analytics"
	"github.com/platinummonkey/beacon/pkg/health"
	"github.com/platinummonkey/beacon/pkg/observability"
)

// HealthRunner runs a health sweep. *health.Checker implements it.
type HealthRunner interface {
	Run(ctx context.Context) health.Report
}

// Analyzer aggregates windowed metrics. *analytics.Aggregator implements it.
type Analyzer interface {
	Analyze(windowMinutes int) analytics.Snapshot
}

// AlertSource lists unresolved alerts. *alerts.Engine implements it.
type AlertSource interface {
	Active() []alerts.Alert
}

// CollectorOptions wires a Collector. Any provider may be nil.
type CollectorOptions struct {
	Health   HealthRunner
	Analyzer Analyzer
	Alerts   AlertSource
	System   SystemProvider
	Business BusinessProvider
	Security SecurityProvider
	// WindowMinutes is the analytics window. Defaults to 5.
	WindowMinutes int
	Logger        *observability.Logger
	Now           func() time.Time
}

// Collector composes snapshots from the monitoring components
type Collector struct {
	opts CollectorOptions
}

// NewCollector creates a collector
func NewCollector(opts CollectorOptions) *Collector {
	if opts.WindowMinutes <= 0 {
		opts.WindowMinutes = 5
	}
	if opts.Logger == nil {
		opts.Logger = observability.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Collector{opts: opts}
}

// Collect builds a snapshot. A provider error is logged and leaves its
// block zeroed, so a snapshot is always produced.
func (c *Collector) Collect(ctx context.Context) Snapshot {
	snap := Snapshot{
		Timestamp: c.opts.Now(),
		Health:    HealthBlock{Status: health.StatusHealthy, Results: []health.Result{}},
		Alerts:    []alerts.Alert{},
	}

	if c.opts.Health != nil {
		report := c.opts.Health.Run(ctx)
		snap.Health = HealthBlock{Status: report.Status, Results: report.Results, Summary: report.Summary}
	}

	if c.opts.Analyzer != nil {
		a := c.opts.Analyzer.Analyze(c.opts.WindowMinutes)
		snap.Performance.API = a.API
		snap.Performance.Database = a.Database
	}

	if c.opts.System != nil {
		if sys, err := c.opts.System.System(ctx); err != nil {
			c.opts.Logger.WithError(err).Warn("Failed to read system metrics")
		} else {
			snap.Performance.System = sys
		}
	}
	if c.opts.Business != nil {
		if b, err := c.opts.Business.Business(ctx); err != nil {
			c.opts.Logger.WithError(err).Warn("Failed to read business metrics")
		} else {
			snap.Business = b
		}
	}
	if c.opts.Security != nil {
		if s, err := c.opts.Security.Security(ctx); err != nil {
			c.opts.Logger.WithError(err).Warn("Failed to read security metrics")
		} else {
			snap.Security = s
		}
	}

	if c.opts.Alerts != nil {
		snap.Alerts = c.opts.Alerts.Active()
	}
	return snap
}
