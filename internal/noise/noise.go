// Package noise synthesizes band-limited noise with a flat spectrum above a knee frequency and a 1/f^alpha spectrum
// below it, as produced by the analog stages of the front-end.
package noise

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat/distuv"
)

// Spec describes one noise source.
type Spec struct {
	Density float64 // white noise RMS spectral density, V/sqrt(Hz)
	Knee    float64 // knee frequency below which the spectrum falls as 1/f^Alpha, Hz
	Alpha   float64 // exponent of the flicker region
}

// Shape returns the amplitude scaling applied to the frequency bin at f.
// It is 1 above the knee and at DC, and (knee/f)^alpha in between.
func (s Spec) Shape(f float64) float64 {
	if f <= 0 || f >= s.Knee {
		return 1
	}

	return math.Pow(s.Knee/f, s.Alpha)
}

// Sigma is the standard deviation of the white noise covering the band 0 - fs/2.
func (s Spec) Sigma(fs float64) float64 {
	return s.Density * math.Sqrt(fs/2) //nolint:mnd // one-sided bandwidth
}

// Generator produces noise sequences. It caches one FFT plan per sequence length.
// A Generator is not safe for concurrent use.
type Generator struct {
	plans map[int]*fourier.FFT
}

// NewGenerator returns an empty generator.
func NewGenerator() *Generator {
	return &Generator{plans: make(map[int]*fourier.FFT)}
}

func (g *Generator) plan(n int) *fourier.FFT {
	fft, ok := g.plans[n]
	if !ok {
		fft = fourier.NewFFT(n)
		g.plans[n] = fft
	}

	return fft
}

// Generate returns n samples of noise drawn from src at sampling rate fs. It returns nil for n < 1.
func (g *Generator) Generate(src rand.Source, n int, fs float64, spec Spec) []float64 {
	if n < 1 {
		return nil
	}

	normal := distuv.Normal{Mu: 0, Sigma: spec.Sigma(fs), Src: src}

	white := make([]float64, n)
	for i := range white {
		white[i] = normal.Rand()
	}

	fft := g.plan(n)
	coeffs := fft.Coefficients(nil, white)

	for k := range coeffs {
		coeffs[k] *= complex(spec.Shape(fft.Freq(k)*fs), 0)
	}

	out := fft.Sequence(white, coeffs)

	scale := 1 / float64(n)
	for i := range out {
		out[i] *= scale
	}

	return out
}

// Generate is a convenience for one-off sequences.
func Generate(src rand.Source, n int, fs float64, spec Spec) []float64 {
	return NewGenerator().Generate(src, n, fs, spec)
}
