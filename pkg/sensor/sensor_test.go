package sensor

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/multisensor/multisensor-go/pkg/dispatch"
	"github.com/multisensor/multisensor-go/pkg/fault"
	"github.com/multisensor/multisensor-go/pkg/model"
)

const testAccessory = "Multi-Sensor-1A2B3C"

// ---------------------------------------------------------------------------
// stubRequester
// ---------------------------------------------------------------------------

type stubRequester struct {
	mu   sync.Mutex
	reqs []dispatch.Request
}

func (r *stubRequester) Request(req dispatch.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
}

func (r *stubRequester) take() []dispatch.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.reqs
	r.reqs = nil
	return out
}

// ---------------------------------------------------------------------------
// stubReporter
// ---------------------------------------------------------------------------

type stubReporter struct{ mock.Mock }

func (r *stubReporter) Signal(code fault.Code) { r.Called(code) }

// ---------------------------------------------------------------------------
// notifyCounter
// ---------------------------------------------------------------------------

type notifyCounter struct {
	mu sync.Mutex
	n  map[string]int
}

func (c *notifyCounter) OnValue(ch *model.Characteristic, _ any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == nil {
		c.n = map[string]int{}
	}
	c.n[ch.Path()]++
}

func (c *notifyCounter) count(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[path]
}

type fixture struct {
	acc      *model.Accessory
	set      *model.SensorSet
	reqs     *stubRequester
	faults   *stubReporter
	notified *notifyCounter
	out      Outputs
}

func newFixture() *fixture {
	acc, set := model.NewMultiSensorAccessory(model.Info{Name: testAccessory})
	f := &fixture{
		acc:      acc,
		set:      set,
		reqs:     &stubRequester{},
		faults:   &stubReporter{},
		notified: &notifyCounter{},
	}
	acc.Subscribe(f.notified)
	f.out = Outputs{Accessory: testAccessory, Requests: f.reqs, Faults: f.faults}
	return f
}
