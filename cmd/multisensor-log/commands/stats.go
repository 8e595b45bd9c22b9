package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/multisensor/multisensor-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsBySource   map[log.Source]int
	EventsByCategory map[log.Category]int
	Readings         map[string]*ReadingStats
	DispatchByStage  map[log.DispatchStage]int
	FaultsByName     map[string]int
	DroppedFaults    int
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// ReadingStats holds statistics for one characteristic path.
type ReadingStats struct {
	Count int
	Last  any
	Min   *float64
	Max   *float64
}

func newStats() *Stats {
	return &Stats{
		EventsBySource:   make(map[log.Source]int),
		EventsByCategory: make(map[log.Category]int),
		Readings:         make(map[string]*ReadingStats),
		DispatchByStage:  make(map[log.DispatchStage]int),
		FaultsByName:     make(map[string]int),
	}
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsBySource[event.Source]++
	s.EventsByCategory[event.Category]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	switch {
	case event.Reading != nil:
		rs, ok := s.Readings[event.Reading.Path]
		if !ok {
			rs = &ReadingStats{}
			s.Readings[event.Reading.Path] = rs
		}
		rs.Count++
		rs.Last = event.Reading.Value
		if f, ok := event.Reading.Value.(float64); ok {
			if rs.Min == nil || f < *rs.Min {
				rs.Min = &f
			}
			if rs.Max == nil || f > *rs.Max {
				v := f
				rs.Max = &v
			}
		}
	case event.Dispatch != nil:
		s.DispatchByStage[event.Dispatch.Stage]++
	case event.Fault != nil:
		s.FaultsByName[event.Fault.Name]++
		if event.Fault.Dropped {
			s.DroppedFaults++
		}
	case event.Error != nil:
		s.Errors++
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := newStats()
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Multi-Sensor Event Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Source:")
	for _, src := range []log.Source{
		log.SourceBridge, log.SourceClimate, log.SourceLight, log.SourceMotion,
		log.SourceDispatcher, log.SourceIndicator, log.SourceAccessory,
	} {
		if count := stats.EventsBySource[src]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", src.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryReading, log.CategoryDispatch, log.CategoryFault, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.Readings) > 0 {
		paths := make([]string, 0, len(stats.Readings))
		for p := range stats.Readings {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		fmt.Fprintln(w, "Readings:")
		for _, p := range paths {
			rs := stats.Readings[p]
			fmt.Fprintf(w, "  %s: %d, last %v", p, rs.Count, rs.Last)
			if rs.Min != nil {
				fmt.Fprintf(w, ", range %g..%g", *rs.Min, *rs.Max)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	if len(stats.DispatchByStage) > 0 {
		fmt.Fprintln(w, "Dispatch:")
		for _, st := range []log.DispatchStage{log.DispatchRequested, log.DispatchOverwritten, log.DispatchSent, log.DispatchFailed} {
			if count := stats.DispatchByStage[st]; count > 0 {
				fmt.Fprintf(w, "  %-12s %d\n", st.String()+":", count)
			}
		}
		fmt.Fprintln(w)
	}

	if len(stats.FaultsByName) > 0 {
		names := make([]string, 0, len(stats.FaultsByName))
		for n := range stats.FaultsByName {
			names = append(names, n)
		}
		sort.Strings(names)

		fmt.Fprintln(w, "Faults:")
		for _, n := range names {
			fmt.Fprintf(w, "  %-16s %d\n", n+":", stats.FaultsByName[n])
		}
		if stats.DroppedFaults > 0 {
			fmt.Fprintf(w, "  (%d dropped)\n", stats.DroppedFaults)
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
