package log

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// DefaultBackups is the number of rotated capture files kept when a size
// cap is set without an explicit backup count.
const DefaultBackups = 1

// FileOptions bounds the disk use of a capture file.
type FileOptions struct {
	// MaxSize rotates the file once a write would take it past this many
	// bytes. Zero leaves the file unbounded.
	MaxSize int64

	// Backups is the number of rotated files kept as path.1 ... path.N
	// (default: DefaultBackups when MaxSize is set).
	Backups int
}

// FileLogger appends CBOR capture records to a file. With a size cap the
// file is rotated so a long-running bridge keeps a bounded history.
// It is safe for concurrent use.
type FileLogger struct {
	path string
	opts FileOptions

	mu     sync.Mutex
	file   *os.File
	size   int64
	closed bool

	dropped atomic.Uint64
}

// NewFileLogger opens an unbounded capture file, appending to it if it
// exists.
func NewFileLogger(path string) (*FileLogger, error) {
	return OpenFileLogger(path, FileOptions{})
}

// OpenFileLogger opens a capture file with the given size cap.
func OpenFileLogger(path string, opts FileOptions) (*FileLogger, error) {
	if opts.MaxSize < 0 {
		return nil, fmt.Errorf("log: negative max size %d", opts.MaxSize)
	}
	if opts.MaxSize > 0 && opts.Backups <= 0 {
		opts.Backups = DefaultBackups
	}

	l := &FileLogger{path: path, opts: opts}
	if err := l.open(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FileLogger) open() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	l.file = f
	l.size = info.Size()
	return nil
}

// Log appends event. Records that cannot be encoded or written are
// counted in Dropped; capture never blocks the bridge on an error.
func (l *FileLogger) Log(event Event) {
	data, err := EncodeEvent(event)
	if err != nil {
		l.dropped.Add(1)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if l.opts.MaxSize > 0 && l.size > 0 && l.size+int64(len(data)) > l.opts.MaxSize {
		if err := l.rotate(); err != nil {
			l.dropped.Add(1)
			return
		}
	}

	n, err := l.file.Write(data)
	l.size += int64(n)
	if err != nil {
		l.dropped.Add(1)
	}
}

// rotate shifts path.i to path.i+1, moves the live file to path.1 and
// starts a new one. Called with mu held.
func (l *FileLogger) rotate() error {
	if err := l.file.Close(); err != nil {
		return err
	}
	for i := l.opts.Backups - 1; i >= 1; i-- {
		err := os.Rename(backupPath(l.path, i), backupPath(l.path, i+1))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if err := os.Rename(l.path, backupPath(l.path, 1)); err != nil {
		return err
	}
	return l.open()
}

// Dropped returns the number of events that were not written.
func (l *FileLogger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close closes the capture file. Later Log calls are ignored and repeated
// Close calls return nil.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}

// CapturePaths returns the live capture file and every rotated backup
// that may exist for it.
func CapturePaths(path string, opts FileOptions) []string {
	backups := opts.Backups
	if opts.MaxSize > 0 && backups <= 0 {
		backups = DefaultBackups
	}
	paths := []string{path}
	for i := 1; i <= backups; i++ {
		paths = append(paths, backupPath(path, i))
	}
	return paths
}

func backupPath(path string, n int) string {
	return fmt.Sprintf("%s.%d", path, n)
}

var _ Logger = (*FileLogger)(nil)
