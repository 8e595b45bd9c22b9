package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffSequence(t *testing.T) {
	b := New(Config{})

	expected := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
		60 * time.Second,
		60 * time.Second,
	}
	for i, exp := range expected {
		assert.Equal(t, exp, b.Current(), "attempt %d", i)
		_ = b.Next()
	}
	assert.Equal(t, len(expected), b.Attempts())

	b.Reset()
	assert.Equal(t, time.Second, b.Current())
	assert.Zero(t, b.Attempts())
}

func TestBackoffJitter(t *testing.T) {
	b := New(Config{Initial: 100 * time.Millisecond})
	for range 20 {
		b.Reset()
		d := b.Next()
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 125*time.Millisecond)
	}

	noJitter := New(Config{Initial: 100 * time.Millisecond, Jitter: -1})
	assert.Equal(t, 100*time.Millisecond, noJitter.Next())
}

func TestBackoffConfigClamps(t *testing.T) {
	b := New(Config{Initial: 5 * time.Second, Max: time.Second, Multiplier: 0.5, Jitter: -1})
	assert.Equal(t, 5*time.Second, b.Next())
	assert.Equal(t, 5*time.Second, b.Next())
}

func fastBackoff() *Backoff {
	return New(Config{Initial: time.Millisecond, Max: 2 * time.Millisecond, Jitter: -1})
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastBackoff(), 5, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhausts(t *testing.T) {
	boom := errors.New("boom")
	var calls int
	err := Do(context.Background(), fastBackoff(), 3, func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := New(Config{Initial: time.Hour, Jitter: -1})

	err := Do(ctx, b, 0, func(context.Context) error {
		cancel()
		return errors.New("fail")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSuperviseRestarts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan struct{})
	go func() {
		Supervise(ctx, "test", fastBackoff(), nil, func(context.Context) error {
			if runs.Add(1) == 3 {
				cancel()
			}
			return errors.New("crashed")
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Supervise did not return after cancel")
	}
	assert.Equal(t, int32(3), runs.Load())
}
