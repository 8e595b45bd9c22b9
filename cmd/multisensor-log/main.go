// Command multisensor-log views and analyzes multisensor event captures and
// runs a receiver for the bridge's remote log requests.
//
// Event captures are written by multisensor when started with -events.
//
// Usage:
//
//	multisensor-log <command> [flags] <file.evlog>
//
// Commands:
//
//	view     View events in human-readable format
//	export   Export events to JSON or CSV format
//	filter   Filter events and write to new file
//	stats    Show statistics about the capture
//	serve    Receive log requests over HTTP and store them in SQLite
//	rows     Print rows stored by serve
//
// Examples:
//
//	# View only climate readings
//	multisensor-log view --source climate --category reading bridge.evlog
//
//	# Export to CSV
//	multisensor-log export --format csv -o bridge.csv bridge.evlog
//
//	# Keep one accessory's events
//	multisensor-log filter --accessory Multi-Sensor-1A2B3C -o one.evlog bridge.evlog
//
//	# Receive and advertise on port 8080
//	multisensor-log serve --addr :8080 --db rows.db --advertise logger
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/multisensor/multisensor-go/cmd/multisensor-log/commands"
	"github.com/multisensor/multisensor-go/pkg/log"
)

const usage = `multisensor-log - Multi-Sensor Event Analyzer

Usage:
  multisensor-log <command> [flags] <file.evlog>

Commands:
  view     View events in human-readable format
  export   Export events to JSON or CSV format
  filter   Filter events and write to new file
  stats    Show statistics about the capture
  serve    Receive log requests over HTTP and store them in SQLite
  rows     Print rows stored by serve

Use "multisensor-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "serve":
		runServe(args)
	case "rows":
		runRows(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: event file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `multisensor-log view - View events in human-readable format

Usage:
  multisensor-log view [flags] <file.evlog>

Flags:
`)
		fs.PrintDefaults()
	}

	source := fs.String("source", "", "Filter by source (bridge, climate, light, motion, dispatcher, indicator, accessory)")
	category := fs.String("category", "", "Filter by category (reading, dispatch, fault, state, error)")
	path := fs.String("path", "", "Filter readings by characteristic path")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	file := requirePath(fs)

	filter := commands.ViewFilter{Path: *path}
	if *source != "" {
		s, err := commands.ParseSourceFlag(*source)
		if err != nil {
			fail(err)
		}
		filter.Source = &s
	}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fail(err)
		}
		filter.Category = &c
	}

	if err := commands.RunView(file, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `multisensor-log export - Export events to JSON or CSV format

Usage:
  multisensor-log export [flags] <file.evlog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	file := requirePath(fs)

	if err := commands.RunExport(file, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `multisensor-log filter - Filter events and write to new file

Usage:
  multisensor-log filter [flags] <file.evlog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	accessory := fs.String("accessory", "", "Filter by accessory name")
	path := fs.String("path", "", "Filter readings by characteristic path")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	source := fs.String("source", "", "Filter by source")
	category := fs.String("category", "", "Filter by category")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	file := requirePath(fs)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	n, err := commands.RunFilter(file, commands.FilterOptions{
		Output:    *output,
		Accessory: *accessory,
		Path:      *path,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
		Source:    *source,
		Category:  *category,
	})
	if err != nil {
		fail(err)
	}
	fmt.Printf("Filtered %d events to %s\n", n, *output)
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `multisensor-log stats - Show statistics about the capture

Usage:
  multisensor-log stats <file.evlog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	file := requirePath(fs)

	if err := commands.RunStats(file, os.Stdout); err != nil {
		fail(err)
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `multisensor-log serve - Receive log requests over HTTP

Usage:
  multisensor-log serve [flags]

Flags:
`)
		fs.PrintDefaults()
	}

	addr := fs.String("addr", ":8080", "Listen address")
	path := fs.String("path", "/log", "HTTP path to accept posts on")
	db := fs.String("db", "multisensor-log.db", "SQLite database (\":memory:\" for none)")
	advertise := fs.String("advertise", "", "Advertise via mDNS under this instance name")
	events := fs.String("events", "", "Also capture received requests to this event file")
	verbose := fs.Bool("v", false, "Debug logging")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := commands.ServeOptions{
		Addr:     *addr,
		Path:     *path,
		DBPath:   *db,
		Instance: *advertise,
		Logger:   logger,
	}
	if *events != "" {
		fl, err := log.NewFileLogger(*events)
		if err != nil {
			fail(err)
		}
		defer fl.Close()
		opts.Events = fl
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.RunServe(ctx, opts); err != nil {
		fail(err)
	}
}

func runRows(args []string) {
	fs := flag.NewFlagSet("rows", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `multisensor-log rows - Print rows stored by serve

Usage:
  multisensor-log rows [flags]

Flags:
`)
		fs.PrintDefaults()
	}

	db := fs.String("db", "multisensor-log.db", "SQLite database")
	table := fs.String("table", "", "Only rows for this table (e.g. temperaturesensorlog)")
	limit := fs.Int("n", 20, "Maximum rows (0 for all)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if err := commands.RunRows(*db, *table, *limit, os.Stdout); err != nil {
		fail(err)
	}
}
