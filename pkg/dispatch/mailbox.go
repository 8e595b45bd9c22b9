package dispatch

import "sync"

// Mailbox is a single-slot handoff between producers and the dispatcher.
//
// Put never blocks. If a request is already pending it is replaced: the
// mailbox keeps only the most recent request (last write wins) and at most
// one request is ever pending. Take empties the slot.
type Mailbox struct {
	mu      sync.Mutex
	slot    Request
	pending bool
	wake    chan struct{}
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{wake: make(chan struct{}, 1)}
}

// Put stores req and signals the wake channel. It reports whether a pending
// request was overwritten.
func (m *Mailbox) Put(req Request) (overwrote bool) {
	m.mu.Lock()
	overwrote = m.pending
	m.slot = req
	m.pending = true
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return overwrote
}

// Take removes and returns the pending request.
func (m *Mailbox) Take() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.pending {
		return Request{}, false
	}
	req := m.slot
	m.slot = Request{}
	m.pending = false
	return req, true
}

// Pending reports whether a request is waiting.
func (m *Mailbox) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Wake returns a channel that receives after every Put. Several Puts may
// collapse into one wake-up.
func (m *Mailbox) Wake() <-chan struct{} {
	return m.wake
}
