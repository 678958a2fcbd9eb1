// Package monitor composes the beacon components into one process-wide
// monitor: metric recorder, trace tracker, analytics, health checks, alert
// engine, snapshot store, insights and report export.
//
// A Monitor is built explicitly and passed to whoever needs it. There is no
// package-level instance.
//
//	mon, err := monitor.New(ctx, cfg, monitor.Options{Logger: logger, DB: db})
//	if err != nil {
//	    return err
//	}
//	router.Use(mon.Middleware)
//	mon.RegisterRoutes(router)
//	if err := mon.Start(ctx); err != nil {
//	    return err
//	}
//	defer mon.Stop(context.Background())
package monitor
