package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/platinummonkey/beacon/pkg/analytics"
	"github.com/platinummonkey/beacon/pkg/async"
	"github.com/platinummonkey/beacon/pkg/metrics"
	"github.com/platinummonkey/beacon/pkg/observability"
)

// RawLimit caps each raw metric array in a report
const RawLimit = 1000

// ErrNoSink is returned by Export when no sink is configured
var ErrNoSink = errors.New("no report sink configured")

// Report is the persisted export document
type Report struct {
	Timestamp  time.Time          `json:"timestamp"`
	Analytics  analytics.Snapshot `json:"analytics"`
	RawMetrics metrics.RawMetrics `json:"rawMetrics"`
}

// Analyzer produces the analytics block. *analytics.Aggregator implements it.
type Analyzer interface {
	Analyze(windowMinutes int) analytics.Snapshot
}

// RawSource produces the newest raw metrics. *metrics.Recorder implements it.
type RawSource interface {
	Raw(limit int) metrics.RawMetrics
}

// Sink persists an encoded report under name and returns where it landed
type Sink interface {
	Write(ctx context.Context, name string, body []byte) (string, error)
}

// Observer counts export outcomes. observability.Metrics implements it.
type Observer interface {
	ObserveExport(err error)
}

// Options configures an Exporter
type Options struct {
	Analyzer Analyzer
	Raw      RawSource
	Sinks    []Sink
	// WindowMinutes is the analytics window in the report. Defaults to 60.
	WindowMinutes int
	Logger        *observability.Logger
	Observer      Observer
	Now           func() time.Time
}

// Exporter builds reports and writes them to every sink
type Exporter struct {
	opts Options
}

// NewExporter creates an exporter
func NewExporter(opts Options) *Exporter {
	if opts.WindowMinutes <= 0 {
		opts.WindowMinutes = 60
	}
	if opts.Logger == nil {
		opts.Logger = observability.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Exporter{opts: opts}
}

// Build assembles a report without writing it
func (e *Exporter) Build() Report {
	return Report{
		Timestamp:  e.opts.Now(),
		Analytics:  e.opts.Analyzer.Analyze(e.opts.WindowMinutes),
		RawMetrics: e.opts.Raw.Raw(RawLimit),
	}
}

// FileName returns the object name used for a report taken at ts
func FileName(ts time.Time) string {
	return fmt.Sprintf("beacon-report-%s.json", ts.UTC().Format("20060102T150405.000Z"))
}

// Export writes a fresh report to every sink concurrently. It returns the
// location reported by the first sink, and the joined sink errors if any
// write failed.
func (e *Exporter) Export(ctx context.Context) (string, error) {
	if len(e.opts.Sinks) == 0 {
		e.observe(ErrNoSink)
		return "", ErrNoSink
	}

	rep := e.Build()
	body, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		err = fmt.Errorf("failed to encode report: %w", err)
		e.observe(err)
		return "", err
	}
	name := FileName(rep.Timestamp)

	type indexed struct {
		i    int
		sink Sink
	}
	items := make([]indexed, len(e.opts.Sinks))
	for i, s := range e.opts.Sinks {
		items[i] = indexed{i, s}
	}

	var (
		mu        sync.Mutex
		locations = make([]string, len(items))
	)
	errs := async.Batch(ctx, e.opts.Logger, items, len(items), "report export", time.Minute,
		func(ctx context.Context, it indexed) error {
			loc, err := it.sink.Write(ctx, name, body)
			if err != nil {
				return err
			}
			mu.Lock()
			locations[it.i] = loc
			mu.Unlock()
			return nil
		})

	err = errors.Join(errs...)
	e.observe(err)

	location := ""
	for _, loc := range locations {
		if loc != "" {
			location = loc
			break
		}
	}
	log := e.opts.Logger.WithField("report", name).WithField("bytes", len(body))
	if err != nil {
		log.WithError(err).Error("Report export failed")
		return location, fmt.Errorf("failed to export report: %w", err)
	}
	log.WithField("location", location).Info("Report exported")
	return location, nil
}

func (e *Exporter) observe(err error) {
	if e.opts.Observer != nil {
		e.opts.Observer.ObserveExport(err)
	}
}
