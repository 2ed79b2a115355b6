package stdout

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/crimson-sun/vigil/internal/output"
)

// Option configures a stdout Output.
type Option func(*Output)

// WithEncoder replaces the JSON encoder, e.g. to print the Markdown audit.
func WithEncoder(enc output.Encoder) Option {
	return func(o *Output) { o.enc = enc }
}

// Output writes JSON-encoded documents to stdout.
type Output struct {
	w   io.Writer
	enc output.Encoder
}

// New creates a stdout Output, optionally pretty-printing JSON.
func New(pretty bool, opts ...Option) *Output {
	return NewWriter(os.Stdout, pretty, opts...)
}

// NewWriter is New with an explicit destination.
func NewWriter(w io.Writer, pretty bool, opts ...Option) *Output {
	o := &Output{w: w, enc: output.CompactJSONEncoder}
	if pretty {
		o.enc = output.JSONEncoder
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Write encodes doc unless ctx is already done. Nothing is staged, so a
// document is either printed in full or not at all.
func (o *Output) Write(ctx context.Context, doc any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	if err := o.enc(o.w, doc); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
