package output

import (
	"context"
	"io"
)

// Output defines the interface for document destinations. A document is one
// complete pipeline result (an anomaly report or an action plan).
type Output interface {
	Write(ctx context.Context, doc any) error
	Close() error
}

// Encoder serializes a document onto w.
type Encoder func(w io.Writer, doc any) error

// Aborter is implemented by outputs that stage data and can discard it
// instead of publishing it on Close.
type Aborter interface {
	Abort() error
}
