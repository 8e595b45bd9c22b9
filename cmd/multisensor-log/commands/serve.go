package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/multisensor/multisensor-go/pkg/discovery"
	"github.com/multisensor/multisensor-go/pkg/log"
)

// ServeOptions configures the serve command.
type ServeOptions struct {
	// Addr is the listen address (default ":8080").
	Addr string

	// Path is the HTTP path commands are posted to (default "/log").
	Path string

	// DBPath is the SQLite database (default ":memory:").
	DBPath string

	// Instance is the advertised instance name. Empty disables advertising.
	Instance string

	// Events receives a dispatch event per accepted command. Optional.
	Events log.Logger

	// Logger is used for request logging. If nil, logging is disabled.
	Logger *slog.Logger
}

// Receiver accepts form posts from the bridge HTTP sink and stores them.
type Receiver struct {
	store  *Store
	events log.Logger
	logger *slog.Logger
	now    func() time.Time
}

// NewReceiver creates a receiver storing into store.
func NewReceiver(store *Store, events log.Logger, logger *slog.Logger) *Receiver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Receiver{store: store, events: events, logger: logger, now: time.Now}
}

// ServeHTTP handles one posted command.
func (rc *Receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad form", http.StatusBadRequest)
		return
	}

	command := r.PostForm.Get("sql")
	if command == "" {
		http.Error(w, "Missing sql field", http.StatusBadRequest)
		return
	}
	command = "sql=" + command

	row, err := ParseCommand(command)
	if err != nil {
		rc.logger.Warn("unparsed command stored raw", "command", command)
	}
	row.ReceivedAt = rc.now()

	id, err := rc.store.Insert(row)
	if err != nil {
		rc.logger.Error("store failed", "error", err)
		http.Error(w, "Store failed", http.StatusInternalServerError)
		return
	}

	rc.logger.Info("received", "id", id, "table", row.Table, "accessory", row.Accessory, "value", row.Value)
	log.Emit(rc.events, log.Event{
		Timestamp: row.ReceivedAt,
		Source:    log.SourceDispatcher,
		Category:  log.CategoryDispatch,
		Accessory: row.Accessory,
		Dispatch: &log.DispatchEvent{
			Stage:   log.DispatchSent,
			Table:   row.Table,
			Command: command,
			Sink:    "serve",
		},
	})
	w.WriteHeader(http.StatusNoContent)
}

// RunServe listens for log posts until ctx is done.
func RunServe(ctx context.Context, opts ServeOptions) error {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.Path == "" {
		opts.Path = "/log"
	}
	if opts.DBPath == "" {
		opts.DBPath = ":memory:"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store, err := NewStore(opts.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(opts.Path, NewReceiver(store, opts.Events, logger))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	if opts.Instance != "" {
		port := ln.Addr().(*net.TCPAddr).Port
		var adv discovery.Advertiser
		info := &discovery.EndpointInfo{Protocol: discovery.ProtocolHTTP, Path: opts.Path}
		if err := adv.Advertise(opts.Instance, port, info, nil); err != nil {
			ln.Close()
			return err
		}
		defer adv.Stop()
		logger.Info("advertising", "instance", opts.Instance, "service", discovery.ServiceTypeLog, "port", port)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	logger.Info("listening", "addr", ln.Addr().String(), "path", opts.Path, "db", opts.DBPath)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// RunRows prints stored rows, newest first.
func RunRows(dbPath, table string, limit int, w io.Writer) error {
	store, err := NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := store.Rows(table, limit)
	if err != nil {
		return err
	}
	for _, r := range rows {
		ts := r.ReceivedAt.UTC().Format(time.RFC3339)
		if r.Table == "" {
			fmt.Fprintf(w, "%d %s raw %s\n", r.ID, ts, r.Command)
			continue
		}
		fmt.Fprintf(w, "%d %s %s %q %g\n", r.ID, ts, r.Table, r.Accessory, r.Value)
	}
	return nil
}
