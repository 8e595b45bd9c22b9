package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/multisensor/multisensor-go/pkg/log"
)

func TestStatsCounts(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, []log.Event{
		{Timestamp: ts, Source: log.SourceClimate, Category: log.CategoryReading,
			Reading: &log.ReadingEvent{Path: "temperatureSensor/currentTemperature", Value: 21.5}},
		{Timestamp: ts.Add(10 * time.Second), Source: log.SourceClimate, Category: log.CategoryReading,
			Reading: &log.ReadingEvent{Path: "temperatureSensor/currentTemperature", Value: 23.0}},
		{Timestamp: ts.Add(20 * time.Second), Source: log.SourceMotion, Category: log.CategoryReading,
			Reading: &log.ReadingEvent{Path: "motionSensor/motionDetected", Value: true}},
		{Timestamp: ts.Add(30 * time.Second), Source: log.SourceDispatcher, Category: log.CategoryDispatch,
			Dispatch: &log.DispatchEvent{Stage: log.DispatchSent}},
		{Timestamp: ts.Add(40 * time.Second), Source: log.SourceDispatcher, Category: log.CategoryDispatch,
			Dispatch: &log.DispatchEvent{Stage: log.DispatchOverwritten}},
		{Timestamp: ts.Add(50 * time.Second), Source: log.SourceIndicator, Category: log.CategoryFault,
			Fault: &log.FaultEvent{Code: 3, Name: "SENSOR_ERROR", Dropped: true}},
		{Timestamp: ts.Add(time.Minute), Source: log.SourceBridge, Category: log.CategoryError,
			Error: &log.ErrorEventData{Message: "boom"}},
	})

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Total Events: 7",
		"Duration:   1m0s",
		"CLIMATE:",
		"DISPATCHER:",
		"READING:",
		"temperatureSensor/currentTemperature: 2, last 23, range 21.5..23",
		"motionSensor/motionDetected: 1, last true",
		"SENT:",
		"OVERWRITTEN:",
		"SENSOR_ERROR:",
		"(1 dropped)",
		"Errors: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got:\n%s", want, output)
		}
	}
}

func TestStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "Total Events: 0") {
		t.Errorf("expected zero total, got: %s", output)
	}
	if strings.Contains(output, "Time Range") {
		t.Errorf("empty file should have no time range: %s", output)
	}
}
