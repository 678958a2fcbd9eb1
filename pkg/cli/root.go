package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
)

const defaultServer = "http://localhost:8080"

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// App holds the output stream shared by every command
type App struct {
	Out io.Writer
}

// NewRootCommand creates the root command writing to out
func NewRootCommand(out io.Writer) *Command {
	app := &App{Out: out}
	root := &Command{
		Name:        "beaconctl",
		Description: "beaconctl - Beacon monitoring admin client",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("beaconctl", flag.ContinueOnError),
	}

	root.Subcommands["status"] = app.newStatusCommand()
	root.Subcommands["health"] = app.newHealthCommand()
	root.Subcommands["alerts"] = app.newAlertsCommand()
	root.Subcommands["insights"] = app.newInsightsCommand()
	root.Subcommands["export"] = app.newExportCommand()
	root.Subcommands["thresholds"] = app.newThresholdsCommand()

	return root
}

// Execute runs the subcommand named by args[0]
func (c *Command) Execute(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		return c.usage(os.Stdout)
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage(w io.Writer) error {
	fmt.Fprintf(w, "Usage: %s <command> [args]\n\n", c.Name)
	fmt.Fprintf(w, "Commands:\n")
	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}

// commonFlags registers -server and -json on fs
func commonFlags(fs *flag.FlagSet) (server *string, asJSON *bool) {
	def := os.Getenv("BEACON_SERVER")
	if def == "" {
		def = defaultServer
	}
	server = fs.String("server", def, "Beacon server URL")
	asJSON = fs.Bool("json", false, "Output in JSON format")
	return server, asJSON
}
