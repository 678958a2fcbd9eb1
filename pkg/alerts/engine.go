package alerts

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/beacon/pkg/async"
	"github.com/platinummonkey/beacon/pkg/observability"
)

// Observer receives alert counts. observability.Metrics implements it.
type Observer interface {
	ObserveAlert(alertType, severity string)
	SetActiveAlerts(n int)
}

// Options configures an Engine
type Options struct {
	Rules    []Rule
	Logger   *observability.Logger
	Observer Observer
	// Workers delivering notifications. Defaults to 2.
	Workers int
	// NotifyTimeout bounds a single notifier call. Defaults to 10s.
	NotifyTimeout time.Duration
	// RaiseBurst and RaiseRefill throttle Raise per alert type and severity.
	// A zero burst disables throttling.
	RaiseBurst  int
	RaiseRefill time.Duration
	Now         func() time.Time
}

type ruleState struct {
	rule          Rule
	lastTriggered time.Time
	fired         bool
}

// Engine evaluates rules against snapshots and keeps raised alerts
type Engine struct {
	logger   *observability.Logger
	observer Observer
	now      func() time.Time
	throttle *throttle
	pool     *async.WorkerPool

	mu     sync.RWMutex
	rules  []*ruleState
	alerts map[string]*Alert
	order  []string

	subMu       sync.RWMutex
	subscribers []Notifier
}

// NewEngine creates an engine and starts its notification workers
func NewEngine(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = observability.Discard()
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	e := &Engine{
		logger:   opts.Logger,
		observer: opts.Observer,
		now:      opts.Now,
		throttle: newThrottle(opts.RaiseBurst, opts.RaiseRefill),
		pool:     async.NewWorkerPool(context.Background(), opts.Logger, opts.Workers, "alert notification", opts.NotifyTimeout),
		alerts:   make(map[string]*Alert),
	}
	e.SetRules(opts.Rules)
	return e
}

// SetRules replaces the rule list. Cooldown state carries over for rules
// whose id is unchanged.
func (e *Engine) SetRules(rules []Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()

	previous := make(map[string]*ruleState, len(e.rules))
	for _, st := range e.rules {
		previous[st.rule.ID] = st
	}
	next := make([]*ruleState, 0, len(rules))
	for _, r := range rules {
		st := &ruleState{rule: r}
		if old, ok := previous[r.ID]; ok {
			st.lastTriggered = old.lastTriggered
			st.fired = old.fired
		}
		next = append(next, st)
	}
	e.rules = next
}

// Subscribe registers a notifier for alert events
func (e *Engine) Subscribe(n Notifier) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	e.subscribers = append(e.subscribers, n)
}

// Evaluate runs every rule in order against snap. A rule inside its
// cooldown is skipped, and a rule whose predicate panics is logged and
// skipped. It returns the alerts created by this pass.
func (e *Engine) Evaluate(ctx context.Context, snap Snapshot) []Alert {
	now := e.now()
	var created []Alert

	e.mu.Lock()
	for _, st := range e.rules {
		if st.fired && now.Sub(st.lastTriggered) < st.rule.Cooldown {
			continue
		}

		fired, message, err := evaluateRule(st.rule, snap)
		if err != nil {
			e.logger.WithField("rule", st.rule.ID).WithError(err).Error("Alert rule evaluation failed")
			continue
		}
		if !fired {
			continue
		}

		alert := &Alert{
			ID:        e.uniqueID(fmt.Sprintf("%s-%d", st.rule.ID, now.UnixMilli())),
			RuleID:    st.rule.ID,
			Type:      st.rule.Type,
			Severity:  st.rule.Severity,
			Message:   message,
			CreatedAt: now,
		}
		e.store(alert)
		st.lastTriggered = now
		st.fired = true
		created = append(created, *alert)
	}
	active := e.activeCountLocked()
	e.mu.Unlock()

	for _, a := range created {
		e.triggered(ctx, a, active)
	}
	return created
}

func evaluateRule(rule Rule, snap Snapshot) (fired bool, message string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = observability.MustRecover(r)
		}
	}()
	if rule.Condition == nil || !rule.Condition(snap) {
		return false, "", nil
	}
	message = rule.Name
	if rule.Message != nil {
		message = rule.Message(snap)
	}
	return true, message, nil
}

// Raise stores an alert that did not come from a rule, such as a single
// request crossing a critical threshold. It returns false when the alert
// was throttled.
func (e *Engine) Raise(ctx context.Context, alertType string, severity Severity, message string) (Alert, bool) {
	now := e.now()
	if !e.throttle.allow(alertType+"/"+string(severity), now) {
		e.logger.WithField("type", alertType).Debug("Alert throttled")
		return Alert{}, false
	}

	alert := &Alert{
		ID:        alertType + "-" + uuid.NewString(),
		Type:      alertType,
		Severity:  severity,
		Message:   message,
		CreatedAt: now,
	}
	e.mu.Lock()
	e.store(alert)
	active := e.activeCountLocked()
	e.mu.Unlock()

	e.triggered(ctx, *alert, active)
	return *alert, true
}

// RaiseAlert is Raise for callers that only know string severities
func (e *Engine) RaiseAlert(ctx context.Context, alertType, severity, message string) {
	e.Raise(ctx, alertType, Severity(severity), message)
}

// Acknowledge marks an alert as seen by actor
func (e *Engine) Acknowledge(ctx context.Context, id, actor string) (Alert, error) {
	return e.update(ctx, id, EventAcknowledged, func(a *Alert, now time.Time) {
		a.Acknowledged = true
		a.AcknowledgedBy = actor
		a.AcknowledgedAt = &now
	})
}

// Resolve marks an alert as resolved by actor
func (e *Engine) Resolve(ctx context.Context, id, actor string) (Alert, error) {
	return e.update(ctx, id, EventResolved, func(a *Alert, now time.Time) {
		a.Resolved = true
		a.ResolvedBy = actor
		a.ResolvedAt = &now
	})
}

func (e *Engine) update(ctx context.Context, id string, kind EventKind, apply func(*Alert, time.Time)) (Alert, error) {
	now := e.now()

	e.mu.Lock()
	a, ok := e.alerts[id]
	if !ok {
		e.mu.Unlock()
		return Alert{}, fmt.Errorf("%w: %s", ErrAlertNotFound, id)
	}
	apply(a, now)
	updated := *a
	active := e.activeCountLocked()
	e.mu.Unlock()

	if e.observer != nil {
		e.observer.SetActiveAlerts(active)
	}
	e.logger.WithField("alert_id", id).WithField("event", string(kind)).Info("Alert updated")
	e.notify(ctx, Event{Kind: kind, Alert: updated, Timestamp: now})
	return updated, nil
}

// Alert returns one alert by id
func (e *Engine) Alert(id string) (Alert, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.alerts[id]
	if !ok {
		return Alert{}, false
	}
	return *a, true
}

// Active returns unresolved alerts, oldest first
func (e *Engine) Active() []Alert {
	return e.list(func(a *Alert) bool { return !a.Resolved })
}

// All returns every alert, oldest first
func (e *Engine) All() []Alert {
	return e.list(func(*Alert) bool { return true })
}

func (e *Engine) list(keep func(*Alert) bool) []Alert {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Alert, 0, len(e.order))
	for _, id := range e.order {
		if a := e.alerts[id]; keep(a) {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Close stops notification delivery, waiting up to timeout for queued events
func (e *Engine) Close(timeout time.Duration) error {
	return e.pool.Shutdown(timeout)
}

func (e *Engine) store(a *Alert) {
	e.alerts[a.ID] = a
	e.order = append(e.order, a.ID)
}

func (e *Engine) uniqueID(base string) string {
	id := base
	for n := 1; ; n++ {
		if _, taken := e.alerts[id]; !taken {
			return id
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}

func (e *Engine) activeCountLocked() int {
	n := 0
	for _, a := range e.alerts {
		if !a.Resolved {
			n++
		}
	}
	return n
}

func (e *Engine) triggered(ctx context.Context, a Alert, active int) {
	e.logger.WithFields(map[string]interface{}{
		"alert_id": a.ID,
		"type":     a.Type,
		"severity": string(a.Severity),
	}).Warn(a.Message)

	if e.observer != nil {
		e.observer.ObserveAlert(a.Type, string(a.Severity))
		e.observer.SetActiveAlerts(active)
	}
	e.notify(ctx, Event{Kind: EventTriggered, Alert: a, Timestamp: a.CreatedAt})
}

func (e *Engine) notify(ctx context.Context, ev Event) {
	e.subMu.RLock()
	subs := append([]Notifier(nil), e.subscribers...)
	e.subMu.RUnlock()

	for _, n := range subs {
		if err := e.pool.Submit(func(ctx context.Context) error {
			return n.Notify(ctx, ev)
		}); err != nil {
			e.logger.WithField("alert_id", ev.Alert.ID).WithError(err).Warn("Dropped alert notification")
		}
	}
}
