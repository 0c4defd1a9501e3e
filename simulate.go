package afesim

import (
	"context"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/farcloser/afesim/internal/level"
	"github.com/farcloser/afesim/internal/raster"
	"github.com/farcloser/afesim/internal/types"
)

/*
Usage:

sim, err := afesim.New(afesim.DefaultOptions())
summary, err := sim.Simulate(ctx, samples, 110000)
for c, total := range summary.Totals {
    fmt.Printf("channel %d (%.0f Hz): %d events\n", c, summary.Snapshot.Bank.Fcs[c], total)
}

// Step by step, keeping the encoder state yourself
state := types.NewEncoderState(types.NumChannels)
for _, chunk := range chunks {
    result, err := sim.Step(mat.NewVecDense(len(chunk), chunk), state, false)
    state = result.State
}

*/

// Summary is the outcome of a chunked simulation over a whole signal.
type Summary struct {
	Samples  int
	Duration float64 // seconds
	Chunks   int
	// Input level against the microphone limit, VCC/2.
	Input level.Level
	// Totals is the number of events per channel, after the digital counter.
	Totals []int
	// Counts is the saturated (period, channel) raster.
	Counts types.Raster
	// Snapshot after the last chunk.
	Snapshot types.Snapshot
}

// Simulate evolves samples (volts) in chunks of about chunkSamples, carrying the encoder state from one chunk to the
// next, and rasterizes the events. chunkSamples < 1 simulates the whole signal at once. ctx is checked between chunks.
//
// When the raster period is a whole number of steps, chunks are rounded up to whole periods and rasterized as they
// go; otherwise all events are kept and binned at the end.
func (s *Simulator) Simulate(ctx context.Context, samples []float64, chunkSamples int) (*Summary, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: empty signal", ErrInvalidInput)
	}

	if chunkSamples < 1 || chunkSamples > len(samples) {
		chunkSamples = len(samples)
	}

	clocks, aligned := raster.ClocksPerPeriod(s.opts.RasterPeriod, s.Dt())
	if aligned {
		chunkSamples = (chunkSamples + clocks - 1) / clocks * clocks
	}

	summary := &Summary{
		Samples:  len(samples),
		Duration: float64(len(samples)) * s.Dt(),
		Input:    level.Measure(samples, s.opts.InputLimit()),
		Totals:   make([]int, numChannels),
		Counts:   types.NewRaster(0, numChannels),
	}

	events := types.NewRaster(0, numChannels)

	for start := 0; start < len(samples); start += chunkSamples {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulation interrupted at sample %d: %w", start, err)
		}

		end := min(start+chunkSamples, len(samples))

		result, err := s.Evolve(mat.NewVecDense(end-start, samples[start:end]), false)
		if err != nil {
			return nil, fmt.Errorf("chunk at sample %d: %w", start, err)
		}

		for c, total := range result.Events.Totals() {
			summary.Totals[c] += total
		}

		if aligned {
			extend(&summary.Counts, s.Raster(result.Events))
		} else {
			extend(&events, result.Events)
		}

		summary.Chunks++
	}

	if !aligned {
		summary.Counts = s.Raster(events)
	}

	summary.Snapshot = s.State()

	slog.Debug("afesim.Simulate", "samples", summary.Samples, "chunks", summary.Chunks, "periods", summary.Counts.Steps)

	return summary, nil
}

// extend appends other to r in place.
func extend(r *types.Raster, other types.Raster) {
	r.Data = append(r.Data, other.Data...)
	r.Steps += other.Steps
}
