// Package dispatch forwards sensor readings to a remote log endpoint.
//
// Producers call Request, which never blocks. A single Dispatcher goroutine
// takes the pending request from a one-slot Mailbox and hands the rendered
// command to a Sink. Delivery is best effort: a request replaced before the
// dispatcher takes it is lost, and a failed send is logged and dropped.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/multisensor/multisensor-go/pkg/log"
)

// DefaultSendTimeout bounds a single sink call.
const DefaultSendTimeout = 10 * time.Second

// ErrEmptyCommand is returned for a request that renders to nothing.
var ErrEmptyCommand = errors.New("request renders to empty command")

// Sink delivers a rendered command to the remote endpoint.
type Sink interface {
	// Send delivers command. It must honour ctx cancellation.
	Send(ctx context.Context, command string) error

	// Name identifies the transport in logs.
	Name() string
}

// Requester accepts log requests. Request must not block.
type Requester interface {
	Request(req Request)
}

// Config configures a Dispatcher.
type Config struct {
	// SendTimeout bounds each Sink.Send call (default: DefaultSendTimeout).
	SendTimeout time.Duration

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Events receives dispatch events. May be nil.
	Events log.Logger

	// Accessory is the accessory name attached to events.
	Accessory string
}

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	Requested   uint64
	Overwritten uint64
	Sent        uint64
	Failed      uint64
}

// Dispatcher is the single deferred worker that writes log requests.
type Dispatcher struct {
	mailbox *Mailbox
	sink    Sink
	timeout time.Duration
	logger  *slog.Logger
	events  log.Logger
	acc     string

	requested   atomic.Uint64
	overwritten atomic.Uint64
	sent        atomic.Uint64
	failed      atomic.Uint64
}

var _ Requester = (*Dispatcher)(nil)

// New creates a dispatcher writing to sink.
func New(sink Sink, cfg Config) *Dispatcher {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		mailbox: NewMailbox(),
		sink:    sink,
		timeout: cfg.SendTimeout,
		logger:  logger,
		events:  cfg.Events,
		acc:     cfg.Accessory,
	}
}

// Request places req in the mailbox, replacing any pending request, and
// wakes the worker. It never blocks.
func (d *Dispatcher) Request(req Request) {
	d.requested.Add(1)
	cmd := req.Command()
	d.logger.Debug("post string", "table", req.Table.String(), "command", cmd)

	if d.mailbox.Put(req) {
		d.overwritten.Add(1)
		d.logger.Debug("pending log request overwritten", "table", req.Table.String())
		d.emit(log.DispatchOverwritten, req.Table, "", nil)
	}
	d.emit(log.DispatchRequested, req.Table, cmd, nil)
}

// Pending reports whether a request is waiting for the worker.
func (d *Dispatcher) Pending() bool {
	return d.mailbox.Pending()
}

// Run processes requests until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Debug("dispatcher started", "sink", d.sink.Name())
	defer d.logger.Debug("dispatcher stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.mailbox.Wake():
		}

		req, ok := d.mailbox.Take()
		if !ok {
			continue
		}
		d.dispatch(ctx, req)
	}
}

// dispatch sends one request. Failures are counted and dropped.
func (d *Dispatcher) dispatch(ctx context.Context, req Request) {
	cmd := req.Command()
	if cmd == "" {
		d.failed.Add(1)
		d.logger.Warn("dropping log request", "table", req.Table.String(), "error", ErrEmptyCommand)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	start := time.Now()
	err := d.sink.Send(sendCtx, cmd)
	elapsed := time.Since(start)
	cancel()

	if err != nil {
		d.failed.Add(1)
		d.logger.Warn("log request failed",
			"sink", d.sink.Name(),
			"table", req.Table.String(),
			"error", err)
		d.emit(log.DispatchFailed, req.Table, cmd, &elapsed)
		return
	}

	d.sent.Add(1)
	d.logger.Debug("log request sent", "sink", d.sink.Name(), "table", req.Table.String(), "duration", elapsed)
	d.emit(log.DispatchSent, req.Table, cmd, &elapsed)
}

func (d *Dispatcher) emit(stage log.DispatchStage, table Table, cmd string, elapsed *time.Duration) {
	ev := &log.DispatchEvent{
		Stage:    stage,
		Table:    table.String(),
		Command:  cmd,
		Duration: elapsed,
	}
	if stage == log.DispatchSent || stage == log.DispatchFailed {
		ev.Sink = d.sink.Name()
	}
	log.Emit(d.events, log.Event{
		Source:    log.SourceDispatcher,
		Category:  log.CategoryDispatch,
		Accessory: d.acc,
		Dispatch:  ev,
	})
}

// Stats returns the current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Requested:   d.requested.Load(),
		Overwritten: d.overwritten.Load(),
		Sent:        d.sent.Load(),
		Failed:      d.failed.Load(),
	}
}
