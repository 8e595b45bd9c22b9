// Package retry provides exponential backoff for operations that talk to
// the network: endpoint discovery and the accessory server.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// Defaults.
const (
	DefaultInitial    = 1 * time.Second
	DefaultMax        = 60 * time.Second
	DefaultMultiplier = 2.0
	DefaultJitter     = 0.25
)

// ErrAttemptsExhausted wraps the last error once Do gives up.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// Config customizes a Backoff. Zero fields take the defaults.
type Config struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64

	// Jitter is the maximum extra delay as a fraction of the base delay.
	// Negative disables jitter.
	Jitter float64
}

// Backoff calculates exponential delays with jitter.
type Backoff struct {
	mu sync.Mutex

	current  time.Duration
	attempts int
	cfg      Config
}

// New creates a backoff with cfg.
func New(cfg Config) *Backoff {
	if cfg.Initial <= 0 {
		cfg.Initial = DefaultInitial
	}
	if cfg.Max <= 0 {
		cfg.Max = DefaultMax
	}
	if cfg.Max < cfg.Initial {
		cfg.Max = cfg.Initial
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = DefaultMultiplier
	}
	if cfg.Jitter == 0 {
		cfg.Jitter = DefaultJitter
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}
	return &Backoff{current: cfg.Initial, cfg: cfg}
}

// Next returns the next delay (with jitter) and advances the backoff.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	delay := b.jittered(b.current)

	b.attempts++
	b.current = min(time.Duration(float64(b.current)*b.cfg.Multiplier), b.cfg.Max)
	return delay
}

// Reset returns to the initial delay. Call it after a success.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.cfg.Initial
	b.attempts = 0
}

// Attempts returns how many delays were handed out since the last Reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// Current returns the next base delay without jitter.
func (b *Backoff) Current() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *Backoff) jittered(d time.Duration) time.Duration {
	if b.cfg.Jitter <= 0 {
		return d
	}
	return d + time.Duration(float64(d)*b.cfg.Jitter*rand.Float64())
}

// Do calls fn until it succeeds, ctx is done or attempts calls have failed.
// attempts <= 0 retries until ctx is done.
func Do(ctx context.Context, b *Backoff, attempts int, fn func(ctx context.Context) error) error {
	for i := 1; ; i++ {
		err := fn(ctx)
		if err == nil {
			b.Reset()
			return nil
		}
		if attempts > 0 && i >= attempts {
			return errors.Join(ErrAttemptsExhausted, err)
		}
		if err := sleep(ctx, b.Next()); err != nil {
			return err
		}
	}
}

// Supervise runs fn until ctx is done, restarting it after the backoff
// delay whenever it returns. A run that lasts longer than the maximum
// delay resets the backoff.
func Supervise(ctx context.Context, name string, b *Backoff, logger *slog.Logger, fn func(ctx context.Context) error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for {
		started := time.Now()
		err := fn(ctx)
		if ctx.Err() != nil {
			return
		}
		if time.Since(started) > b.cfg.Max {
			b.Reset()
		}
		delay := b.Next()
		logger.Warn("restarting", "component", name, "error", err, "delay", delay, "attempt", b.Attempts())
		if sleep(ctx, delay) != nil {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
