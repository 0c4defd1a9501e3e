package types

import "gonum.org/v1/gonum/mat"

// Recording keeps the intermediate signals of one evolution, for diagnostics.
type Recording struct {
	Amplifier []float64  // amplifier output, including offset and noise
	Filtered  *mat.Dense // band-pass output (time, channels), including noise
	Rectified *mat.Dense // full-wave rectified signal (time, channels)
	Events    Raster     // final (down-sampled) events
}

// Snapshot is a read-only copy of the persistent parameters and state of a simulated chip.
type Snapshot struct {
	SampleRate  float64
	Bank        ChannelBank
	Mismatch    MismatchProfile
	State       EncoderState
	AddNoise    bool
	AddOffset   bool
	AddMismatch bool
}
