package afesim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/farcloser/afesim/internal/distortion"
	"github.com/farcloser/afesim/internal/encoder"
	"github.com/farcloser/afesim/internal/filter"
	"github.com/farcloser/afesim/internal/filterbank"
	"github.com/farcloser/afesim/internal/mismatch"
	"github.com/farcloser/afesim/internal/noise"
	"github.com/farcloser/afesim/internal/raster"
	"github.com/farcloser/afesim/internal/types"
)

const (
	numChannels = types.NumChannels

	// Second PCG word, derived from the seed so that a single integer seeds the chip.
	seedMix = 0x9e3779b97f4a7c15

	highPassOrder = 1
)

// Result is the outcome of one evolution.
type Result struct {
	// Events is the (time, 16) event raster after the digital counter.
	Events types.Raster
	// State is the encoder state after the last sample, to pass to the next Step.
	State types.EncoderState
	// Snapshot of the chip parameters, with State.
	Snapshot types.Snapshot
	// Recording holds intermediate signals, only when requested.
	Recording *types.Recording
}

// Simulator is one simulated chip: a fixed design, a mismatch draw, a random generator and the encoder state carried
// between calls. A Simulator is not safe for concurrent use; independent simulators are.
type Simulator struct {
	opts  Options
	rng   *rand.Rand
	noise *noise.Generator

	bank     types.ChannelBank
	profile  types.MismatchProfile
	filters  *filterbank.Bank
	highPass filter.Cascade
	state    types.EncoderState
}

func newSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^seedMix)) //nolint:gosec // simulation, not cryptography
}

// New validates opts, seeds the chip generator and draws the first mismatch profile.
func New(opts Options) (*Simulator, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	opts.CenterFrequencies = slices.Clone(opts.CenterFrequencies)

	sim := &Simulator{
		opts:  opts,
		rng:   newSource(opts.Seed),
		noise: noise.NewGenerator(),
		bank:  *types.NewChannelBank(opts.CenterFrequencies, opts.Q),
	}

	if err := sim.GenerateMismatch(); err != nil {
		return nil, err
	}

	return sim, nil
}

// Reseed replaces the chip generator. Call it before GenerateMismatch to reproduce a given chip.
func (s *Simulator) Reseed(seed uint64) {
	s.rng = newSource(seed)
}

// GenerateMismatch draws a new mismatch profile, rebuilds the filter bank and the AC-coupling filter, and resets the
// encoder state. Either everything is replaced or, on error, nothing is.
func (s *Simulator) GenerateMismatch() error {
	profile := mismatch.Generate(s.rng, numChannels, s.opts.Mismatch, mismatch.Flags{
		AddOffset:   s.opts.AddOffset,
		AddMismatch: s.opts.AddMismatch,
	})

	bank := s.bank.Clone()
	mismatch.Apply(&bank, profile)

	filters, err := filterbank.New(bank.Fcs, bank.Bws, s.opts.SampleRate, s.opts.FilterOrder, s.opts.Workers)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	highPass, err := filter.HighPass(highPassOrder, s.opts.HighPassCorner, s.opts.SampleRate)
	if err != nil {
		return fmt.Errorf("%w: AC coupling: %w", ErrConfiguration, err)
	}

	s.bank = bank
	s.profile = profile
	s.filters = filters
	s.highPass = highPass
	s.state = types.NewEncoderState(numChannels)

	slog.Debug("afesim.GenerateMismatch",
		"fc shift", profile.FcShift,
		"amplifier offset", profile.AmplifierOffset,
		"lowest fc", bank.Fcs[0],
		"highest fc", bank.Fcs[numChannels-1],
	)

	return nil
}

// Reset zeroes the encoder state without drawing a new mismatch.
func (s *Simulator) Reset() {
	s.state = types.NewEncoderState(numChannels)
}

// Options returns the options the simulator was built with.
func (s *Simulator) Options() Options {
	opts := s.opts
	opts.CenterFrequencies = slices.Clone(opts.CenterFrequencies)

	return opts
}

// Dt is the simulation time step in seconds.
func (s *Simulator) Dt() float64 {
	return 1 / s.opts.SampleRate
}

// State returns a snapshot with the carried encoder state.
func (s *Simulator) State() types.Snapshot {
	return s.snapshot(s.state)
}

func (s *Simulator) snapshot(state types.EncoderState) types.Snapshot {
	return types.Snapshot{
		SampleRate:  s.opts.SampleRate,
		Bank:        s.bank.Clone(),
		Mismatch:    s.profile.Clone(),
		State:       slices.Clone(state),
		AddNoise:    s.opts.AddNoise,
		AddOffset:   s.opts.AddOffset,
		AddMismatch: s.opts.AddMismatch,
	}
}

// Evolve runs Step from the carried encoder state and keeps the returned state for the next call, so that
// consecutive chunks form one continuous signal.
func (s *Simulator) Evolve(input mat.Matrix, record bool) (*Result, error) {
	result, err := s.Step(input, s.state, record)
	if err != nil {
		return nil, err
	}

	s.state = slices.Clone(result.State)

	return result, nil
}

// EvolveSamples is Evolve over a slice of samples, in volts.
func (s *Simulator) EvolveSamples(samples []float64, record bool) (*Result, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: empty signal", ErrInvalidInput)
	}

	return s.Evolve(mat.NewVecDense(len(samples), samples), record)
}

// Step simulates the signal chain over input (volts, one-dimensional: a single row or column) starting from state.
// The carried state of the simulator is not touched; the updated state is returned in the result.
func (s *Simulator) Step(input mat.Matrix, state types.EncoderState, record bool) (*Result, error) {
	signal, err := flatten(input)
	if err != nil {
		return nil, err
	}

	if len(state) != numChannels || !state.Finite() {
		return nil, fmt.Errorf("%w: expected %d finite values, got %d", ErrInvalidState, numChannels, len(state))
	}

	opts := s.opts
	steps := len(signal)
	limit := opts.InputLimit()

	// Microphone.
	amplified := distortion.Microphone(signal, signal, opts.MicCorner, opts.MicDistortion, limit)
	if opts.AddOffset {
		floats.AddConst(s.profile.InputOffset, amplified)
	}

	// Low-noise amplifier.
	distortion.Amplifier(amplified, amplified, s.profile.AmplifierOffset, float64(opts.AmplifierGain),
		opts.AmplifierCorner, opts.AmplifierDistortion, limit)

	if opts.AddOffset {
		floats.AddConst(s.profile.AmplifierOffset, amplified)
	}

	if opts.AddNoise {
		floats.Add(amplified, s.noise.Generate(s.rng, steps, opts.SampleRate, opts.AmplifierNoise))
	}

	// Filter bank.
	filterIn := mat.NewDense(steps, numChannels, nil)
	column := make([]float64, steps)

	for c := range numChannels {
		copy(column, amplified)

		if opts.AddOffset {
			floats.AddConst(s.profile.FilterOffsets[c], column)
		}

		filterIn.SetCol(c, column)
	}

	filtered, err := s.filters.Apply(context.Background(), filterIn)
	if err != nil {
		return nil, fmt.Errorf("filter bank: %w", err)
	}

	if opts.AddNoise {
		for c := range numChannels {
			mat.Col(column, c, filtered)
			floats.Add(column, s.noise.Generate(s.rng, steps, opts.SampleRate, opts.FilterNoise))
			filtered.SetCol(c, column)
		}
	}

	// AC coupling, rectifier noise and full-wave rectification.
	rectified := mat.NewDense(steps, numChannels, nil)

	for c := range numChannels {
		mat.Col(column, c, filtered)
		s.highPass.FiltFilt(column, column)

		if opts.AddNoise {
			floats.Add(column, s.noise.Generate(s.rng, steps, opts.SampleRate, opts.RectifierNoise))
		}

		for i, v := range column {
			column[i] = math.Abs(v)
		}

		rectified.SetCol(c, column)
	}

	// Spike generation.
	events, next, err := encoder.Encode(state, s.Dt(), rectified, opts.Encoder)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}

	if opts.DigitalCounter > 1 {
		events = raster.Thin(events, opts.DigitalCounter)
	}

	slog.Debug("afesim.Step", "samples", steps, "events", floats.Sum(intsToFloats(events.Totals())))

	result := &Result{
		Events:   events,
		State:    next,
		Snapshot: s.snapshot(next),
	}

	if record {
		result.Recording = &types.Recording{
			Amplifier: amplified,
			Filtered:  filtered,
			Rectified: rectified,
			Events:    events.Clone(),
		}
	}

	return result, nil
}

// Raster bins events into readout periods, saturating each count.
func (s *Simulator) Raster(events types.Raster) types.Raster {
	return raster.Rasterize(events, s.opts.RasterPeriod, s.Dt(), s.opts.MaxSpikesPerPeriod)
}

// flatten copies a single row or column matrix into a new slice.
func flatten(input mat.Matrix) ([]float64, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: nil signal", ErrInvalidInput)
	}

	rows, cols := input.Dims()

	switch {
	case rows == 0 || cols == 0:
		return nil, fmt.Errorf("%w: empty signal", ErrInvalidInput)
	case rows > 1 && cols > 1:
		return nil, fmt.Errorf("%w: signal must be one-dimensional, got %dx%d", ErrInvalidInput, rows, cols)
	case cols == 1:
		return mat.Col(nil, 0, input), nil
	default:
		return mat.Row(nil, 0, input), nil
	}
}

func intsToFloats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}

	return out
}
