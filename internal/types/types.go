package types

import (
	"math"
	"slices"
)

// NumChannels is the number of band-pass channels on the chip.
const NumChannels = 16

type BitDepth uint

const (
	Depth16 BitDepth = 16
	Depth24 BitDepth = 24
	Depth32 BitDepth = 32
)

// PCMFormat describes interleaved little-endian signed PCM fed to the simulator.
type PCMFormat struct {
	SampleRate int
	BitDepth   BitDepth
	Channels   uint
}

// ChannelBank holds the nominal design of the filter bank and the actual (mismatched) values of one chip instance.
// Design values never change after construction. Fcs, Bws and Qs are replaced together on every mismatch regeneration.
type ChannelBank struct {
	DesignFcs []float64 // nominal centre frequencies, Hz
	DesignBws []float64 // nominal bandwidths, Hz (DesignFcs / Q)
	Q         float64   // nominal quality factor shared by all channels

	Fcs []float64 // actual centre frequencies, Hz
	Bws []float64 // actual bandwidths, Hz
	Qs  []float64 // actual quality factors
}

// NewChannelBank builds a bank whose actual values equal the design values.
func NewChannelBank(designFcs []float64, q float64) *ChannelBank {
	fcs := slices.Clone(designFcs)
	bws := make([]float64, len(fcs))
	qs := make([]float64, len(fcs))

	for i, fc := range fcs {
		bws[i] = fc / q
		qs[i] = q
	}

	return &ChannelBank{
		DesignFcs: fcs,
		DesignBws: slices.Clone(bws),
		Q:         q,
		Fcs:       slices.Clone(fcs),
		Bws:       bws,
		Qs:        qs,
	}
}

// Size returns the number of channels.
func (b *ChannelBank) Size() int {
	return len(b.DesignFcs)
}

// Clone returns a deep copy.
func (b *ChannelBank) Clone() ChannelBank {
	return ChannelBank{
		DesignFcs: slices.Clone(b.DesignFcs),
		DesignBws: slices.Clone(b.DesignBws),
		Q:         b.Q,
		Fcs:       slices.Clone(b.Fcs),
		Bws:       slices.Clone(b.Bws),
		Qs:        slices.Clone(b.Qs),
	}
}

// MismatchProfile is one draw of per-instance hardware perturbations.
// Offsets are in volts, mismatches are relative (0.05 = +5%).
type MismatchProfile struct {
	InputOffset     float64   // offset from the microphone
	AmplifierOffset float64   // offset of the low-noise amplifier
	FilterOffsets   []float64 // per-channel band-pass offsets
	QMismatch       []float64 // per-channel relative Q error
	FcMismatch      []float64 // per-channel relative centre frequency error
	FcShift         float64   // common centre frequency shift, applied to every channel in the same direction
}

// NewMismatchProfile returns a neutral profile for the given number of channels.
func NewMismatchProfile(channels int) MismatchProfile {
	return MismatchProfile{
		FilterOffsets: make([]float64, channels),
		QMismatch:     make([]float64, channels),
		FcMismatch:    make([]float64, channels),
	}
}

// Clone returns a deep copy.
func (p MismatchProfile) Clone() MismatchProfile {
	p.FilterOffsets = slices.Clone(p.FilterOffsets)
	p.QMismatch = slices.Clone(p.QMismatch)
	p.FcMismatch = slices.Clone(p.FcMismatch)

	return p
}

// EncoderState is the charge level (volts) of each channel's integrate-and-fire circuit.
type EncoderState []float64

// NewEncoderState returns a zeroed state.
func NewEncoderState(channels int) EncoderState {
	return make(EncoderState, channels)
}

// Finite reports whether every entry is a finite number.
func (s EncoderState) Finite() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}

// Raster is a time-major integer array of shape (Steps, Channels).
type Raster struct {
	Steps    int
	Channels int
	Data     []int
}

// NewRaster allocates a zeroed raster.
func NewRaster(steps, channels int) Raster {
	return Raster{
		Steps:    steps,
		Channels: channels,
		Data:     make([]int, steps*channels),
	}
}

// At returns the value at step t, channel c.
func (r Raster) At(t, c int) int {
	return r.Data[t*r.Channels+c]
}

// Set stores v at step t, channel c.
func (r Raster) Set(t, c, v int) {
	r.Data[t*r.Channels+c] = v
}

// Row returns the slice backing step t.
func (r Raster) Row(t int) []int {
	return r.Data[t*r.Channels : (t+1)*r.Channels]
}

// Clone returns a deep copy.
func (r Raster) Clone() Raster {
	r.Data = slices.Clone(r.Data)

	return r
}

// Totals returns the per-channel sum over time.
func (r Raster) Totals() []int {
	totals := make([]int, r.Channels)

	for t := range r.Steps {
		for c, v := range r.Row(t) {
			totals[c] += v
		}
	}

	return totals
}

// Append concatenates other (same channel count) after r in time.
func (r Raster) Append(other Raster) Raster {
	if r.Channels == 0 {
		return other.Clone()
	}

	return Raster{
		Steps:    r.Steps + other.Steps,
		Channels: r.Channels,
		Data:     append(slices.Clone(r.Data), other.Data...),
	}
}
