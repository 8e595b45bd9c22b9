// Package fault drives the status indicator.
//
// Any goroutine may report a fault code. Codes are queued without blocking
// and a single goroutine plays their patterns on the indicator in order, so
// a slow pattern never delays a sensor producer.
package fault

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/multisensor/multisensor-go/pkg/hal"
	"github.com/multisensor/multisensor-go/pkg/log"
)

// DefaultQueueSize is the number of codes that can wait for playback.
const DefaultQueueSize = 4

// ErrUnknownCode is returned for a code without a pattern.
var ErrUnknownCode = errors.New("unknown fault code")

// Reporter accepts fault codes. Implementations must not block.
type Reporter interface {
	Signal(code Code)
}

// Config configures a Signaler.
type Config struct {
	// Patterns maps codes to patterns (default: DefaultPatterns()).
	Patterns Patterns

	// QueueSize bounds the pending codes (default: DefaultQueueSize).
	QueueSize int

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Events receives a fault event for every signal. May be nil.
	Events log.Logger

	// Accessory is the accessory name attached to events.
	Accessory string
}

// Signaler queues fault codes and plays them on an indicator.
type Signaler struct {
	indicator hal.Indicator
	patterns  Patterns
	queue     chan Code
	logger    *slog.Logger
	events    log.Logger
	accessory string

	signalled atomic.Uint64
	played    atomic.Uint64
	dropped   atomic.Uint64
}

var _ Reporter = (*Signaler)(nil)

// NewSignaler creates a signaler for the indicator.
func NewSignaler(indicator hal.Indicator, cfg Config) *Signaler {
	if cfg.Patterns == nil {
		cfg.Patterns = DefaultPatterns()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Signaler{
		indicator: indicator,
		patterns:  cfg.Patterns,
		queue:     make(chan Code, cfg.QueueSize),
		logger:    logger,
		events:    cfg.Events,
		accessory: cfg.Accessory,
	}
}

// Signal queues code for playback. If the queue is full the code is
// dropped and counted. Safe for concurrent use.
func (s *Signaler) Signal(code Code) {
	s.signalled.Add(1)

	select {
	case s.queue <- code:
		s.emit(code, false)
	default:
		s.dropped.Add(1)
		s.logger.Warn("fault dropped", "code", code.String())
		s.emit(code, true)
	}
}

// Run plays queued patterns until ctx is cancelled. The indicator is left
// off on return.
func (s *Signaler) Run(ctx context.Context) error {
	defer s.indicator.Set(false)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case code := <-s.queue:
			if err := s.play(ctx, code); err != nil {
				if errors.Is(err, ErrUnknownCode) {
					s.logger.Warn("no pattern for fault", "code", code.String())
					continue
				}
				return err
			}
		}
	}
}

func (s *Signaler) play(ctx context.Context, code Code) error {
	pattern, ok := s.patterns[code]
	if !ok {
		return ErrUnknownCode
	}

	s.logger.Debug("playing fault pattern", "code", code.String(), "duration", pattern.Duration())

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for _, step := range pattern {
		s.indicator.Set(step.Level)
		timer.Reset(step.Duration)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	s.indicator.Set(false)
	s.played.Add(1)
	return nil
}

func (s *Signaler) emit(code Code, dropped bool) {
	log.Emit(s.events, log.Event{
		Source:    log.SourceIndicator,
		Category:  log.CategoryFault,
		Accessory: s.accessory,
		Fault:     &log.FaultEvent{Code: uint8(code), Name: code.String(), Dropped: dropped},
	})
}

// Stats is a snapshot of signaler counters.
type Stats struct {
	Signalled uint64
	Played    uint64
	Dropped   uint64
}

// Stats returns the current counters.
func (s *Signaler) Stats() Stats {
	return Stats{
		Signalled: s.signalled.Load(),
		Played:    s.played.Load(),
		Dropped:   s.dropped.Load(),
	}
}
