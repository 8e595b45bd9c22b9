// Package commands implements the multisensor-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/multisensor/multisensor-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Source   *log.Source
	Category *log.Category
	Path     string
}

func (f ViewFilter) filter() log.Filter {
	return log.Filter{Source: f.Source, Category: f.Category, Path: f.Path}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [accessory] SOURCE CATEGORY
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	acc := event.Accessory
	if acc == "" {
		acc = "-"
	}
	fmt.Fprintf(w, "%s [%s] %-10s %s\n", ts, acc, event.Source.String(), event.Category.String())

	switch {
	case event.Reading != nil:
		formatReadingDetails(w, event.Reading)
	case event.Dispatch != nil:
		formatDispatchDetails(w, event.Dispatch)
	case event.Fault != nil:
		formatFaultDetails(w, event.Fault)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

func formatReadingDetails(w io.Writer, r *log.ReadingEvent) {
	fmt.Fprintf(w, "  %s = %v\n", r.Path, r.Value)
	if r.Raw != nil {
		fmt.Fprintf(w, "  Raw: %d\n", *r.Raw)
	}
}

func formatDispatchDetails(w io.Writer, d *log.DispatchEvent) {
	fmt.Fprintf(w, "  Stage: %s", d.Stage.String())
	if d.Table != "" {
		fmt.Fprintf(w, "  Table: %s", d.Table)
	}
	if d.Sink != "" {
		fmt.Fprintf(w, "  Sink: %s", d.Sink)
	}
	fmt.Fprintln(w)
	if d.Command != "" {
		fmt.Fprintf(w, "  Command: %s\n", d.Command)
	}
	if d.Duration != nil {
		fmt.Fprintf(w, "  Duration: %s\n", formatDuration(*d.Duration))
	}
}

func formatFaultDetails(w io.Writer, f *log.FaultEvent) {
	fmt.Fprintf(w, "  Code: %s (%d)", f.Name, f.Code)
	if f.Dropped {
		fmt.Fprint(w, " dropped")
	}
	fmt.Fprintln(w)
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseSourceFlag parses a source string from command-line flag (case-insensitive).
func ParseSourceFlag(s string) (log.Source, error) {
	return parseSource(s)
}

func parseSource(s string) (log.Source, error) {
	switch strings.ToLower(s) {
	case "bridge":
		return log.SourceBridge, nil
	case "climate":
		return log.SourceClimate, nil
	case "light":
		return log.SourceLight, nil
	case "motion":
		return log.SourceMotion, nil
	case "dispatcher", "dispatch":
		return log.SourceDispatcher, nil
	case "indicator":
		return log.SourceIndicator, nil
	case "accessory":
		return log.SourceAccessory, nil
	default:
		return 0, fmt.Errorf("invalid source: %s (must be bridge, climate, light, motion, dispatcher, indicator, or accessory)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	return parseCategory(s)
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "reading":
		return log.CategoryReading, nil
	case "dispatch":
		return log.CategoryDispatch, nil
	case "fault":
		return log.CategoryFault, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be reading, dispatch, fault, state, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.filter())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
