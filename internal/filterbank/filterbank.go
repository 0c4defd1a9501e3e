// Package filterbank applies one Butterworth band-pass filter per channel to a (time, channels) buffer.
package filterbank

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/farcloser/afesim/internal/filter"
)

var (
	// ErrShape is returned when the parameter vectors or the input do not match the bank size.
	ErrShape = errors.New("filterbank: shape mismatch")
	// ErrWorkers is returned for a worker count below 1.
	ErrWorkers = errors.New("filterbank: invalid worker count")
)

// Bank is a set of independent band-pass filters sharing a sampling rate.
type Bank struct {
	filters []filter.Cascade
	fs      float64
	workers int
}

// New designs one band-pass filter of the given order per channel, with band edges fc -/+ bw/2.
func New(fcs, bws []float64, fs float64, order, workers int) (*Bank, error) {
	if len(fcs) != len(bws) {
		return nil, fmt.Errorf("%w: %d centre frequencies, %d bandwidths", ErrShape, len(fcs), len(bws))
	}

	if workers < 1 {
		return nil, fmt.Errorf("%w: %d", ErrWorkers, workers)
	}

	filters := make([]filter.Cascade, len(fcs))

	for i := range fcs {
		cascade, err := filter.BandPass(order, fcs[i]-bws[i]/2, fcs[i]+bws[i]/2, fs)
		if err != nil {
			return nil, fmt.Errorf("channel %d (fc %.1f Hz, bw %.1f Hz): %w", i, fcs[i], bws[i], err)
		}

		filters[i] = cascade
	}

	return &Bank{
		filters: filters,
		fs:      fs,
		workers: workers,
	}, nil
}

// Size returns the number of channels.
func (b *Bank) Size() int {
	return len(b.filters)
}

// Filter returns the cascade of channel i.
func (b *Bank) Filter(i int) filter.Cascade {
	return b.filters[i]
}

// Apply filters every column of in with its channel filter, from rest, and returns a new (time, channels) buffer.
// Channels are spread over the configured number of workers; the result does not depend on the worker count.
func (b *Bank) Apply(ctx context.Context, in *mat.Dense) (*mat.Dense, error) {
	steps, channels := in.Dims()
	if channels != len(b.filters) {
		return nil, fmt.Errorf("%w: input has %d channels, bank has %d", ErrShape, channels, len(b.filters))
	}

	columns := make([][]float64, channels)

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(b.workers)

	for c := range channels {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			column := mat.Col(nil, c, in)
			columns[c] = b.filters[c].Filter(column, column)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // context errors are returned as is
	}

	out := mat.NewDense(steps, channels, nil)
	for c, column := range columns {
		out.SetCol(c, column)
	}

	return out, nil
}
