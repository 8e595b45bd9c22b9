package commands

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/multisensor/multisensor-go/pkg/log"
)

func exportEvents() []log.Event {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	return []log.Event{
		{
			Timestamp: ts,
			Source:    log.SourceClimate,
			Category:  log.CategoryReading,
			Accessory: "Multi-Sensor-1A2B3C",
			Reading:   &log.ReadingEvent{Path: "temperatureSensor/currentTemperature", Value: 21.5},
		},
		{
			Timestamp: ts.Add(time.Second),
			Source:    log.SourceDispatcher,
			Category:  log.CategoryDispatch,
			Accessory: "Multi-Sensor-1A2B3C",
			Dispatch:  &log.DispatchEvent{Stage: log.DispatchFailed, Table: "temperaturesensorlog"},
		},
	}
}

func TestExportToJSONL(t *testing.T) {
	path := createTestLogFile(t, exportEvents())
	outPath := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if first["Accessory"] != "Multi-Sensor-1A2B3C" {
		t.Errorf("expected accessory in JSON, got %v", first["Accessory"])
	}
	reading, ok := first["Reading"].(map[string]any)
	if !ok {
		t.Fatalf("expected Reading object, got %T", first["Reading"])
	}
	if reading["Value"] != 21.5 {
		t.Errorf("expected value 21.5, got %v", reading["Value"])
	}
}

func TestExportToCSV(t *testing.T) {
	path := createTestLogFile(t, exportEvents())
	outPath := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[0][0] != "timestamp" {
		t.Errorf("unexpected header: %v", records[0])
	}

	want := []string{"2026-01-28T10:15:32.123456Z", "Multi-Sensor-1A2B3C", "CLIMATE", "READING", "reading", "temperatureSensor/currentTemperature", "21.5"}
	for i, w := range want {
		if records[1][i] != w {
			t.Errorf("row 1 column %d = %q, want %q", i, records[1][i], w)
		}
	}
	if records[2][4] != "dispatch" || records[2][6] != "FAILED" {
		t.Errorf("unexpected dispatch row: %v", records[2])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, exportEvents())
	outPath := filepath.Join(t.TempDir(), "out.xml")

	err := RunExport(path, "xml", outPath)
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("unexpected error: %v", err)
	}
}
