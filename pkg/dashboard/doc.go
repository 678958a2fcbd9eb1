// Package dashboard composes point-in-time monitoring snapshots and keeps a
// bounded history of them.
//
// A Collector pulls the current health report, the windowed analytics, the
// system, business and security figures and the active alerts into one
// Snapshot. A Store retains the newest snapshots (1000 by default), dropping
// the oldest first.
//
// Snapshot implements alerts.Snapshot so rules evaluate it directly.
//
//	collector := dashboard.NewCollector(dashboard.CollectorOptions{
//	    Health:   checker,
//	    Analyzer: aggregator,
//	    Alerts:   engine,
//	    System:   sysProvider,
//	})
//	store := dashboard.NewStore(1000, nil)
//	store.Append(collector.Collect(ctx))
package dashboard
