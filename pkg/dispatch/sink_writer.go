package dispatch

import (
	"context"
	"io"
	"sync"
)

// WriterSink writes each command as a line. It serves serial consoles and
// hosts without a log endpoint.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Name returns "writer".
func (s *WriterSink) Name() string { return "writer" }

// Send writes command followed by a newline.
func (s *WriterSink) Send(ctx context.Context, command string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, command+"\n")
	return err
}
