package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"text/tabwriter"

	"github.com/platinummonkey/beacon/pkg/alerts"
	"github.com/platinummonkey/beacon/pkg/config"
	"github.com/platinummonkey/beacon/pkg/dashboard"
	"github.com/platinummonkey/beacon/pkg/health"
	"github.com/platinummonkey/beacon/pkg/insights"
)

func (a *App) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.Out, 0, 0, 3, ' ', 0)
}

func (a *App) newStatusCommand() *Command {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	server, asJSON := commonFlags(fs)
	collect := fs.Bool("collect", false, "Collect a fresh snapshot instead of reading the latest")

	return &Command{
		Name:        "status",
		Description: "Show the latest dashboard snapshot",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			var snap dashboard.Snapshot
			client := NewClient(*server)
			var err error
			if *collect {
				err = client.Post(context.Background(), "/api/monitoring/dashboard/collect", nil, &snap)
			} else {
				err = client.Get(context.Background(), "/api/monitoring/dashboard", &snap)
			}
			if err != nil {
				return err
			}
			if *asJSON {
				return a.printJSON(snap)
			}

			w := a.table()
			api := snap.Performance.API
			sys := snap.Performance.System
			fmt.Fprintf(w, "Timestamp:\t%s\n", snap.Timestamp.Format("2006-01-02 15:04:05Z07:00"))
			fmt.Fprintf(w, "Health:\t%s\n", snap.Health.Status)
			fmt.Fprintf(w, "Requests:\t%d\n", api.TotalRequests)
			fmt.Fprintf(w, "Avg response:\t%.1fms\n", api.AverageResponseTime)
			fmt.Fprintf(w, "Error rate:\t%.2f%%\n", api.ErrorRate*100)
			fmt.Fprintf(w, "Data access:\t%d (%d slow)\n", snap.Performance.Database.TotalQueries, snap.Performance.Database.SlowQueries)
			fmt.Fprintf(w, "CPU:\t%.1f%%\n", sys.CPUUsage)
			fmt.Fprintf(w, "Memory:\t%.1f%%\n", sys.MemoryUsage)
			fmt.Fprintf(w, "Active alerts:\t%d\n", len(snap.Alerts))
			return w.Flush()
		},
	}
}

func (a *App) newHealthCommand() *Command {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	server, asJSON := commonFlags(fs)

	return &Command{
		Name:        "health",
		Description: "Run every health probe",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			var rep health.Report
			if err := NewClient(*server).Get(context.Background(), "/api/monitoring/health", &rep); err != nil {
				return err
			}
			if *asJSON {
				return a.printJSON(rep)
			}

			w := a.table()
			fmt.Fprintln(w, "PROBE\tSTATUS\tTIME\tMESSAGE")
			for _, r := range rep.Results {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.Status, r.ResponseTime, r.Message)
			}
			fmt.Fprintf(w, "\nOverall:\t%s\t(%d healthy, %d degraded, %d unhealthy)\n",
				rep.Status, rep.Summary.Healthy, rep.Summary.Degraded, rep.Summary.Unhealthy)
			if err := w.Flush(); err != nil {
				return err
			}
			if rep.Status == health.StatusUnhealthy {
				return fmt.Errorf("system is unhealthy")
			}
			return nil
		},
	}
}

func (a *App) newAlertsCommand() *Command {
	cmd := &Command{
		Name:        "alerts",
		Description: "List, acknowledge and resolve alerts",
		Subcommands: make(map[string]*Command),
	}
	cmd.Subcommands["list"] = a.newAlertsListCommand()
	cmd.Subcommands["ack"] = a.newAlertUpdateCommand("ack", "acknowledge", "Acknowledge an alert")
	cmd.Subcommands["resolve"] = a.newAlertUpdateCommand("resolve", "resolve", "Resolve an alert")
	cmd.Run = func(args []string) error {
		if len(args) == 0 {
			return cmd.usage(a.Out)
		}
		if sub, ok := cmd.Subcommands[args[0]]; ok {
			return sub.Run(args[1:])
		}
		return fmt.Errorf("unknown alerts subcommand: %s", args[0])
	}
	return cmd
}

func (a *App) newAlertsListCommand() *Command {
	fs := flag.NewFlagSet("alerts list", flag.ContinueOnError)
	server, asJSON := commonFlags(fs)
	all := fs.Bool("all", false, "Include resolved alerts")

	return &Command{
		Name:        "list",
		Description: "List alerts",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			path := "/api/monitoring/alerts"
			if *all {
				path += "?all=true"
			}
			var list []alerts.Alert
			if err := NewClient(*server).Get(context.Background(), path, &list); err != nil {
				return err
			}
			if *asJSON {
				return a.printJSON(list)
			}
			return a.printAlerts(list)
		},
	}
}

func (a *App) printAlerts(list []alerts.Alert) error {
	if len(list) == 0 {
		fmt.Fprintln(a.Out, "No alerts")
		return nil
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tSEVERITY\tTYPE\tSTATE\tCREATED\tMESSAGE")
	for _, al := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			al.ID, al.Severity, al.Type, alertState(al), al.CreatedAt.Format("15:04:05"), al.Message)
	}
	return w.Flush()
}

func alertState(a alerts.Alert) string {
	switch {
	case a.Resolved:
		return "resolved"
	case a.Acknowledged:
		return "acknowledged"
	default:
		return "open"
	}
}

func (a *App) newAlertUpdateCommand(name, action, description string) *Command {
	fs := flag.NewFlagSet("alerts "+name, flag.ContinueOnError)
	server, asJSON := commonFlags(fs)
	actor := fs.String("actor", "beaconctl", "Who is performing the action")

	return &Command{
		Name:        name,
		Description: description,
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			if fs.NArg() != 1 {
				return fmt.Errorf("usage: beaconctl alerts %s [-actor name] <alert-id>", name)
			}
			var updated alerts.Alert
			path := "/api/monitoring/alerts/" + url.PathEscape(fs.Arg(0)) + "/" + action
			if err := NewClient(*server).Post(context.Background(), path, map[string]string{"actor": *actor}, &updated); err != nil {
				return err
			}
			if *asJSON {
				return a.printJSON(updated)
			}
			return a.printAlerts([]alerts.Alert{updated})
		},
	}
}

func (a *App) newInsightsCommand() *Command {
	fs := flag.NewFlagSet("insights", flag.ContinueOnError)
	server, asJSON := commonFlags(fs)

	return &Command{
		Name:        "insights",
		Description: "Show predictive insights",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			var list []insights.Insight
			if err := NewClient(*server).Get(context.Background(), "/api/monitoring/insights", &list); err != nil {
				return err
			}
			if *asJSON {
				return a.printJSON(list)
			}
			if len(list) == 0 {
				fmt.Fprintln(a.Out, "No insights")
				return nil
			}
			w := a.table()
			fmt.Fprintln(w, "CATEGORY\tIMPACT\tCONFIDENCE\tTIMEFRAME\tPREDICTION")
			for _, in := range list {
				fmt.Fprintf(w, "%s\t%s\t%.0f%%\t%s\t%s\n", in.Category, in.Impact, in.Confidence*100, in.Timeframe, in.Prediction)
			}
			return w.Flush()
		},
	}
}

func (a *App) newExportCommand() *Command {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	server, asJSON := commonFlags(fs)

	return &Command{
		Name:        "export",
		Description: "Export a metrics report",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			var resp map[string]string
			if err := NewClient(*server).Post(context.Background(), "/api/monitoring/reports", nil, &resp); err != nil {
				return err
			}
			if *asJSON {
				return a.printJSON(resp)
			}
			fmt.Fprintf(a.Out, "Report written to %s\n", resp["location"])
			return nil
		},
	}
}

func (a *App) newThresholdsCommand() *Command {
	fs := flag.NewFlagSet("thresholds", flag.ContinueOnError)
	server, _ := commonFlags(fs)

	return &Command{
		Name:        "thresholds",
		Description: "Show the thresholds in effect",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			var th config.Thresholds
			if err := NewClient(*server).Get(context.Background(), "/api/monitoring/thresholds", &th); err != nil {
				return err
			}
			return a.printJSON(th)
		},
	}
}
