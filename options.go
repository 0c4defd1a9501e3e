package afesim

import (
	"fmt"
	"slices"
	"strings"

	"github.com/farcloser/afesim/internal/encoder"
	"github.com/farcloser/afesim/internal/mismatch"
	"github.com/farcloser/afesim/internal/noise"
)

// Gain is a low-noise amplifier gain setting, in dB.
type Gain float64

const (
	Gain0dB  Gain = 0
	Gain6dB  Gain = 6
	Gain12dB Gain = 12
)

func (g Gain) String() string {
	return fmt.Sprintf("%gdB", float64(g))
}

// ParseGain converts a string like "6", "6db" or "6dB" to a supported Gain.
func ParseGain(s string) (Gain, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "db") {
	case "0":
		return Gain0dB, nil
	case "6":
		return Gain6dB, nil
	case "12":
		return Gain12dB, nil
	}

	return 0, fmt.Errorf("%w: unknown amplifier gain %q (valid: 0, 6, 12)", ErrConfiguration, s)
}

// Options configures a simulated front-end. Start from DefaultOptions and override fields.
type Options struct {
	// SampleRate of the input audio in Hz. Must be at least 6 times the highest design centre frequency, since the
	// microphone and amplifier produce third harmonics.
	SampleRate float64

	// RasterPeriod is the readout period in seconds (default: 10ms).
	RasterPeriod float64
	// MaxSpikesPerPeriod saturates each rastered count (default: 15).
	MaxSpikesPerPeriod int

	// AddNoise enables the amplifier, band-pass and rectifier noise sources.
	AddNoise bool
	// AddOffset enables the input, amplifier and band-pass offsets.
	AddOffset bool
	// AddMismatch enables centre frequency and Q mismatch.
	AddMismatch bool

	// Seed of the chip's random generator. Two simulators with the same seed and options produce identical output.
	Seed uint64

	// Workers is the number of goroutines used by the filter bank (default: 1).
	Workers int

	// Supply and microphone.
	VCC                 float64 // supply voltage; signals are bipolar around VCC/2
	MicCorner           float64 // amplitude at which the microphone distortion is specified
	MicDistortion       float64
	AmplifierGain       Gain
	AmplifierCorner     float64 // linear range of the amplifier
	AmplifierDistortion float64

	// HighPassCorner is the AC-coupling corner between the band-pass filters and the rectifiers, in Hz.
	HighPassCorner float64

	// Filter bank design.
	CenterFrequencies []float64
	Q                 float64
	FilterOrder       int

	// Mismatch limits.
	Mismatch mismatch.Limits

	// Encoder circuit.
	Encoder encoder.Params
	// DigitalCounter forwards one event every DigitalCounter events (default: 4).
	DigitalCounter int

	// Noise sources.
	AmplifierNoise noise.Spec
	FilterNoise    noise.Spec
	RectifierNoise noise.Spec
}

// DesignCenterFrequencies are the nominal centre frequencies of the 16 channels, in Hz.
func DesignCenterFrequencies() []float64 {
	return []float64{40, 54, 77, 137, 203, 290, 428, 674, 1177, 1700, 2226, 3418, 5154, 7884, 11630, 16940}
}

// DefaultOptions returns the Xylo audio front-end at 110 kHz with noise, offset and mismatch enabled.
func DefaultOptions() Options {
	const vcc = 1.1

	return Options{
		SampleRate:          110e3,
		RasterPeriod:        0.01,
		MaxSpikesPerPeriod:  15,
		AddNoise:            true,
		AddOffset:           true,
		AddMismatch:         true,
		Workers:             1,
		VCC:                 vcc,
		MicCorner:           200e-3,
		MicDistortion:       0.01,
		AmplifierGain:       Gain0dB,
		AmplifierCorner:     vcc / 2 * 0.8,
		AmplifierDistortion: 0.01,
		HighPassCorner:      20,
		CenterFrequencies:   DesignCenterFrequencies(),
		Q:                   4,
		FilterOrder:         2,
		Mismatch:            mismatch.DefaultLimits(),
		Encoder:             encoder.DefaultParams(),
		DigitalCounter:      4,
		AmplifierNoise:      noise.Spec{Density: 70e-9, Knee: 70e3, Alpha: 1},
		FilterNoise:         noise.Spec{Density: 1e-9, Knee: 100e3, Alpha: 1},
		RectifierNoise:      noise.Spec{Density: 700e-9, Knee: 158, Alpha: 1},
	}
}

// OptionsForRate returns the defaults at another sampling rate.
func OptionsForRate(sampleRate float64) Options {
	opts := DefaultOptions()
	opts.SampleRate = sampleRate

	return opts
}

// Ideal disables noise, offset and mismatch.
func (o Options) Ideal() Options {
	o.AddNoise = false
	o.AddOffset = false
	o.AddMismatch = false

	return o
}

// MinSampleRate is the lowest sampling rate accepted for the configured channels.
func (o Options) MinSampleRate() float64 {
	if len(o.CenterFrequencies) == 0 {
		return 0
	}

	return 6 * slices.Max(o.CenterFrequencies)
}

// InputLimit is the largest amplitude carried by the chip, VCC/2.
func (o Options) InputLimit() float64 {
	return o.VCC / 2
}

func (o Options) validate() error {
	switch {
	case len(o.CenterFrequencies) != numChannels:
		return fmt.Errorf("%w: %d centre frequencies, the chip has %d channels",
			ErrConfiguration, len(o.CenterFrequencies), numChannels)
	case o.SampleRate < o.MinSampleRate():
		return fmt.Errorf("%w: sampling rate %g Hz must be at least 6 times the highest centre frequency (%g Hz)",
			ErrConfiguration, o.SampleRate, o.MinSampleRate())
	case o.Q <= 0:
		return fmt.Errorf("%w: Q must be positive, got %g", ErrConfiguration, o.Q)
	case o.FilterOrder < 1:
		return fmt.Errorf("%w: filter order must be at least 1, got %d", ErrConfiguration, o.FilterOrder)
	case o.RasterPeriod <= 0:
		return fmt.Errorf("%w: raster period must be positive, got %g", ErrConfiguration, o.RasterPeriod)
	case o.MaxSpikesPerPeriod < 0:
		return fmt.Errorf("%w: max spikes per period must not be negative, got %d", ErrConfiguration, o.MaxSpikesPerPeriod)
	case o.DigitalCounter < 1:
		return fmt.Errorf("%w: digital counter must be at least 1, got %d", ErrConfiguration, o.DigitalCounter)
	case o.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrConfiguration, o.Workers)
	case o.VCC <= 0 || o.MicCorner <= 0 || o.AmplifierCorner <= 0:
		return fmt.Errorf("%w: supply and corner voltages must be positive", ErrConfiguration)
	case o.Encoder.CIAF <= 0:
		return fmt.Errorf("%w: integration capacitance must be positive", ErrConfiguration)
	}

	return nil
}
