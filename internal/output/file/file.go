package file

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/crimson-sun/vigil/internal/output"
)

const defaultBufSize = 64 * 1024 // 64KB

var _ output.Aborter = (*Output)(nil)

// Option configures a file Output.
type Option func(*Output)

// WithEncoder sets how documents are serialized. Default: indented JSON.
func WithEncoder(enc output.Encoder) Option {
	return func(o *Output) { o.enc = enc }
}

// WithBufSize sets the bufio.Writer buffer size. Default: 64KB.
func WithBufSize(bytes int) Option {
	return func(o *Output) { o.bufSize = bytes }
}

// Output writes documents to a file. Data goes to a temporary sibling file
// that replaces the target on Close, so a failed run never leaves a partial
// document at path and a successful one overwrites whatever was there.
type Output struct {
	w       *bufio.Writer
	f       *os.File
	mu      sync.Mutex
	path    string
	tmpPath string
	enc     output.Encoder
	bufSize int
	failed  bool
}

// New creates the parent directory if needed and opens a temporary file next to path.
func New(path string, opts ...Option) (*Output, error) {
	o := &Output{
		path:    path,
		enc:     output.JSONEncoder,
		bufSize: defaultBufSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.openFile(); err != nil {
		return nil, err
	}
	return o, nil
}

// Path returns the final destination of the output.
func (o *Output) Path() string {
	return o.path
}

// Write encodes the document into the buffered temporary file.
func (o *Output) Write(ctx context.Context, doc any) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := ctx.Err(); err != nil {
		o.failed = true
		return fmt.Errorf("file output: %w", err)
	}
	if err := o.enc(o.w, doc); err != nil {
		o.failed = true
		return fmt.Errorf("file output: encode %s: %w", o.path, err)
	}
	return nil
}

// Close flushes the buffer and moves the temporary file into place. If any
// Write failed, the temporary file is removed and path is left untouched.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.failed {
		o.f.Close()
		os.Remove(o.tmpPath)
		return fmt.Errorf("file output: %s not written after earlier failure", o.path)
	}
	if err := o.w.Flush(); err != nil {
		o.f.Close()
		os.Remove(o.tmpPath)
		return fmt.Errorf("file output: flush: %w", err)
	}
	if err := o.f.Close(); err != nil {
		os.Remove(o.tmpPath)
		return fmt.Errorf("file output: close: %w", err)
	}
	if err := os.Rename(o.tmpPath, o.path); err != nil {
		os.Remove(o.tmpPath)
		return fmt.Errorf("file output: rename: %w", err)
	}
	return nil
}

// Abort discards everything written so far. path is left untouched.
func (o *Output) Abort() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.f.Close()
	if err := os.Remove(o.tmpPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("file output: abort: %w", err)
	}
	return nil
}

// openFile creates the destination directory and the temporary file.
func (o *Output) openFile() error {
	dir := filepath.Dir(o.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("file output: mkdir %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(o.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("file output: open %s: %w", o.path, err)
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("file output: chmod %s: %w", f.Name(), err)
	}
	o.f = f
	o.tmpPath = f.Name()
	o.w = bufio.NewWriterSize(f, o.bufSize)
	return nil
}
