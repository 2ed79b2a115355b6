// Package multi publishes one document to several outputs as a unit.
package multi

import (
	"context"
	"errors"

	"github.com/crimson-sun/vigil/internal/output"
)

// Multi fans a document out to a fixed set of outputs. Write reaches every
// output even when one fails; the caller then chooses Close to publish or
// Abort to discard.
type Multi struct {
	outputs []output.Output
}

// New creates a Multi over outputs, in order.
func New(outputs ...output.Output) *Multi {
	return &Multi{outputs: outputs}
}

// Write delivers doc to every output and joins the errors.
func (m *Multi) Write(ctx context.Context, doc any) error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Write(ctx, doc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close publishes every output and joins the errors.
func (m *Multi) Close() error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Abort discards staged data in every output implementing output.Aborter.
// Outputs that cannot abort are closed, since they have nothing staged.
func (m *Multi) Abort() error {
	var errs []error
	for _, o := range m.outputs {
		var err error
		if a, ok := o.(output.Aborter); ok {
			err = a.Abort()
		} else {
			err = o.Close()
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
