// Package alerts evaluates alert rules against dashboard snapshots and
// tracks the resulting alerts.
//
// # Rules
//
// A Rule pairs a pure predicate with a severity and a cooldown. Evaluate
// walks the rules in order; a rule that fired less than its cooldown ago is
// skipped, and a rule whose predicate panics is logged and skipped without
// affecting the others. Each alert created by a rule has the id
// "<rule id>-<unix millis>".
//
// DefaultRules covers error rate, average response time, CPU usage and
// overall health.
//
// # Raised alerts
//
// Raise records alerts coming from individual measurements, for example a
// single request slower than the critical response time. These bypass the
// rule list and may be throttled per type and severity.
//
// # Notifications
//
// Subscribers receive an Event for every trigger, acknowledgement and
// resolution. Delivery runs on a worker pool so a slow webhook never blocks
// evaluation.
//
//	engine := alerts.NewEngine(alerts.Options{Rules: alerts.DefaultRules(th)})
//	engine.Subscribe(alerts.NewWebhookNotifier(url, secret))
//	engine.Subscribe(&alerts.RedisNotifier{Client: rdb, Channel: "beacon:alerts"})
//	defer engine.Close(5 * time.Second)
//
// Alerts are kept until the process exits; there is no expiry.
package alerts
