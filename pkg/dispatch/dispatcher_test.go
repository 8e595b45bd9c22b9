package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/multisensor/multisensor-go/pkg/log"
)

// ---------------------------------------------------------------------------
// stubSink
// ---------------------------------------------------------------------------

type stubSink struct{ mock.Mock }

func (s *stubSink) Name() string { return "stub" }
func (s *stubSink) Send(ctx context.Context, command string) error {
	return s.Called(ctx, command).Error(0)
}

// ---------------------------------------------------------------------------
// chanSink
// ---------------------------------------------------------------------------

type chanSink struct {
	sent  chan string
	block chan struct{}
}

func newChanSink() *chanSink {
	return &chanSink{sent: make(chan string, 16)}
}

func (s *chanSink) Name() string { return "chan" }
func (s *chanSink) Send(ctx context.Context, command string) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.sent <- command
	return nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *eventRecorder) Log(e log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) stages() []log.DispatchStage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []log.DispatchStage
	for _, e := range r.events {
		if e.Dispatch != nil {
			out = append(out, e.Dispatch.Stage)
		}
	}
	return out
}

func runDispatcher(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestDispatcherSendsRequest(t *testing.T) {
	sink := newChanSink()
	d := New(sink, Config{})
	runDispatcher(t, d)

	req := Request{Table: TableTemperature, Accessory: "acc", Value: 21.5}
	d.Request(req)

	select {
	case cmd := <-sink.sent:
		assert.Equal(t, req.Command(), cmd)
	case <-time.After(time.Second):
		t.Fatal("command not sent")
	}

	require.Eventually(t, func() bool { return d.Stats().Sent == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, Stats{Requested: 1, Sent: 1}, d.Stats())
}

func TestDispatcherLastWriteWins(t *testing.T) {
	sink := &stubSink{}
	second := Request{Table: TableHumidity, Accessory: "acc", Value: 40}
	sink.On("Send", mock.Anything, second.Command()).Return(nil).Once()

	events := &eventRecorder{}
	d := New(sink, Config{Events: events})

	// Both requests land before the worker runs.
	d.Request(Request{Table: TableTemperature, Accessory: "acc", Value: 21.5})
	d.Request(second)
	assert.True(t, d.Pending())

	runDispatcher(t, d)

	require.Eventually(t, func() bool { return d.Stats().Sent == 1 }, time.Second, time.Millisecond)
	assert.False(t, d.Pending())
	assert.Equal(t, uint64(1), d.Stats().Overwritten)
	sink.AssertExpectations(t)
	sink.AssertNumberOfCalls(t, "Send", 1)

	assert.Equal(t, []log.DispatchStage{
		log.DispatchRequested,
		log.DispatchOverwritten,
		log.DispatchRequested,
		log.DispatchSent,
	}, events.stages())
}

func TestDispatcherFailureIsDropped(t *testing.T) {
	sink := &stubSink{}
	first := Request{Table: TableLight, Accessory: "acc", Value: 724}
	second := MotionRequest("acc", true)
	sink.On("Send", mock.Anything, first.Command()).Return(errors.New("connection refused")).Once()
	sink.On("Send", mock.Anything, second.Command()).Return(nil).Once()

	d := New(sink, Config{})
	runDispatcher(t, d)

	d.Request(first)
	require.Eventually(t, func() bool { return d.Stats().Failed == 1 }, time.Second, time.Millisecond)

	// No retry: the next send is the next request.
	d.Request(second)
	require.Eventually(t, func() bool { return d.Stats().Sent == 1 }, time.Second, time.Millisecond)

	sink.AssertExpectations(t)
	sink.AssertNumberOfCalls(t, "Send", 2)
}

func TestDispatcherSendTimeout(t *testing.T) {
	sink := newChanSink()
	sink.block = make(chan struct{})
	d := New(sink, Config{SendTimeout: 20 * time.Millisecond})
	runDispatcher(t, d)

	d.Request(MotionRequest("acc", false))
	require.Eventually(t, func() bool { return d.Stats().Failed == 1 }, time.Second, time.Millisecond)
}

func TestDispatcherRequestNeverBlocks(t *testing.T) {
	sink := newChanSink()
	sink.block = make(chan struct{})
	defer close(sink.block)

	d := New(sink, Config{SendTimeout: time.Minute})
	runDispatcher(t, d)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			d.Request(Request{Table: TableLight, Accessory: "acc", Value: float64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Request blocked while the sink was busy")
	}
	assert.Equal(t, uint64(100), d.Stats().Requested)
}

func TestDispatcherEmptyCommand(t *testing.T) {
	sink := &stubSink{}
	d := New(sink, Config{})
	runDispatcher(t, d)

	d.Request(Request{Table: Table(99)})
	require.Eventually(t, func() bool { return d.Stats().Failed == 1 }, time.Second, time.Millisecond)
	sink.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatcherRunStopsOnCancel(t *testing.T) {
	d := New(newChanSink(), Config{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}
