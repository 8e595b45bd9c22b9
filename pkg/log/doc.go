// Package log provides structured event capture for the sensor bridge.
//
// This package defines the Logger interface and Event types for recording
// what the bridge did: readings written to the accessory store, log requests
// queued and dispatched, fault codes shown on the indicator, and component
// state changes. It is separate from operational logging (slog); event
// capture provides a machine-readable trace for later analysis.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.Events = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.Events, _ = log.NewFileLogger("/var/log/multisensor/bridge.mlog")
//
//	// Bounded file, mirrored to slog
//	file, _ := log.OpenFileLogger(path, log.FileOptions{MaxSize: 4 << 20, Backups: 2})
//	cfg.Events = log.Tee(file, log.NewSlogAdapter(slog.Default()))
//
// # File Format
//
// Log files use CBOR encoding with integer map keys and the .mlog extension.
// The multisensor-log command views and summarizes them.
package log
