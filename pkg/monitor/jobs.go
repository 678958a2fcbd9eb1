package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/beacon/pkg/async"
	"github.com/platinummonkey/beacon/pkg/scheduler"
)

const exportTimeout = 2 * time.Minute

// ErrAlreadyStarted is returned by Start on a running monitor
var ErrAlreadyStarted = errors.New("monitor already started")

// Start registers and starts the background tasks: metric cleanup, snapshot
// collection, insight generation and sampled report export.
func (m *Monitor) Start(ctx context.Context) error {
	if m.scheduler != nil {
		return ErrAlreadyStarted
	}
	mc := m.cfg.Monitoring
	s := scheduler.New(m.logger)

	jobs := []struct {
		name     string
		interval time.Duration
		job      scheduler.Job
	}{
		{"metric-cleanup", mc.CleanupInterval, m.cleanupJob},
		{"snapshot", mc.SnapshotInterval, m.snapshotJob},
		{"insights", mc.InsightInterval, m.insightJob},
		{"report-export", mc.ExportInterval, m.exportJob},
	}
	for _, j := range jobs {
		if err := s.Add(j.name, scheduler.Every(j.interval), j.job); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", j.name, err)
		}
	}

	s.Start()
	m.scheduler = s
	m.logger.WithFields(map[string]interface{}{
		"cleanup_interval":  mc.CleanupInterval.String(),
		"snapshot_interval": mc.SnapshotInterval.String(),
		"insight_interval":  mc.InsightInterval.String(),
		"export_interval":   mc.ExportInterval.String(),
	}).Info("Monitor started")
	return nil
}

// Stop halts the background tasks and drains pending alert notifications
func (m *Monitor) Stop(ctx context.Context) error {
	var errs []error
	if m.scheduler != nil {
		if err := m.scheduler.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	timeout := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := m.engine.Close(timeout); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (m *Monitor) cleanupJob(ctx context.Context) error {
	m.recorder.Cleanup()
	m.prom.SetActiveTraces(m.tracker.Len())
	return nil
}

func (m *Monitor) snapshotJob(ctx context.Context) error {
	m.CollectSnapshot(ctx)
	return nil
}

func (m *Monitor) insightJob(ctx context.Context) error {
	m.GenerateInsights()
	return nil
}

// exportJob exports on a sampled fraction of ticks so many replicas do not
// all write a report every interval
func (m *Monitor) exportJob(ctx context.Context) error {
	if m.rand() >= m.cfg.Monitoring.ExportProbability {
		return nil
	}
	async.SafeGo(ctx, m.logger, exportTimeout, "report export", func(ctx context.Context) error {
		_, err := m.ExportReport(ctx)
		return err
	})
	return nil
}
