// Package scheduler runs the periodic background tasks of the monitor on
// top of robfig/cron.
//
//	s := scheduler.New(logger)
//	_ = s.Add("snapshot", scheduler.Every(10*time.Second), func(ctx context.Context) error {
//	    monitor.CollectSnapshot(ctx)
//	    return nil
//	})
//	s.Start()
//	defer s.Stop(context.Background())
//
// Every job receives a context that Stop cancels, so shutdown is
// deterministic.
package scheduler
