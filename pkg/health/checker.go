package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/beacon/pkg/httputil"
	"github.com/platinummonkey/beacon/pkg/observability"
)

// Observer receives the outcome of every probe. observability.Metrics and
// observability.OTelMetrics implement it.
type Observer interface {
	ObserveProbe(name, status string, duration time.Duration)
}

// Options configures a Checker
type Options struct {
	// Timeout bounds each probe. Defaults to 5s.
	Timeout  time.Duration
	Logger   *observability.Logger
	Observer Observer
}

// Checker runs registered probes concurrently and aggregates their results
type Checker struct {
	mu       sync.RWMutex
	probes   []Probe
	timeout  time.Duration
	logger   *observability.Logger
	observer Observer
	now      func() time.Time
}

// NewChecker creates a checker with the given probes
func NewChecker(opts Options, probes ...Probe) *Checker {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = observability.Discard()
	}
	return &Checker{
		probes:   append([]Probe(nil), probes...),
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		observer: opts.Observer,
		now:      time.Now,
	}
}

// Register adds probes to the sweep
func (c *Checker) Register(probes ...Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes = append(c.probes, probes...)
}

// Run executes every probe concurrently. Each probe is bounded by the
// checker timeout, and a probe that fails, panics or overruns yields an
// unhealthy result without affecting the others. Results keep registration
// order.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	probes := append([]Probe(nil), c.probes...)
	c.mu.RUnlock()

	results := make([]Result, len(probes))
	var g errgroup.Group
	for i, p := range probes {
		g.Go(func() error {
			results[i] = c.runProbe(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Status:    Aggregate(results),
		Timestamp: c.now(),
		Results:   results,
		Summary:   Summarize(results),
	}

	log := c.logger.WithFields(map[string]interface{}{
		"status":    string(report.Status),
		"healthy":   report.Summary.Healthy,
		"degraded":  report.Summary.Degraded,
		"unhealthy": report.Summary.Unhealthy,
	})
	if report.Status == StatusHealthy {
		log.Debug("Health check completed")
	} else {
		log.Warn("Health check completed")
	}
	return report
}

func (c *Checker) runProbe(ctx context.Context, p Probe) Result {
	name := p.Name()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan Result, 1)
	go func() {
		defer func() {
			if err := observability.MustRecover(recover()); err != nil {
				done <- Result{Name: name, Status: StatusUnhealthy, Message: err.Error(), Timestamp: start, ResponseTime: time.Since(start)}
			}
		}()
		done <- p.Check(ctx)
	}()

	var res Result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = Result{
			Name:         name,
			Status:       StatusUnhealthy,
			Message:      fmt.Sprintf("probe timed out: %v", ctx.Err()),
			Timestamp:    start,
			ResponseTime: time.Since(start),
		}
	}
	if res.Name == "" {
		res.Name = name
	}
	if res.Status == "" {
		res.Status = StatusUnhealthy
	}

	if res.Status != StatusHealthy {
		c.logger.WithField("probe", name).WithField("status", string(res.Status)).
			WithField("message", res.Message).Warn("Health probe not healthy")
	}
	if c.observer != nil {
		c.observer.ObserveProbe(name, string(res.Status), res.ResponseTime)
	}
	return res
}

// Liveness reports that the process is serving. It never runs probes.
func (c *Checker) Liveness(w http.ResponseWriter, r *http.Request) {
	_ = httputil.WriteSuccess(w, map[string]interface{}{
		"status":    StatusHealthy,
		"timestamp": c.now(),
	})
}

// Readiness runs the sweep and answers 503 when the system is unhealthy
func (c *Checker) Readiness(w http.ResponseWriter, r *http.Request) {
	report := c.Run(r.Context())
	if report.Status == StatusUnhealthy {
		_ = httputil.WriteServiceUnavailable(w, report)
		return
	}
	_ = httputil.WriteSuccess(w, report)
}

// RegisterRoutes registers the health endpoints
func (c *Checker) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", c.Readiness).Methods(http.MethodGet)
	router.HandleFunc("/health/live", c.Liveness).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", c.Readiness).Methods(http.MethodGet)
}
