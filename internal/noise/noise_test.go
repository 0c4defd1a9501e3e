package noise_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"github.com/farcloser/afesim/internal/noise"
)

const (
	fs     = 16000.0
	length = 1024
	trials = 200
)

// averagePeriodogram returns the one-sided PSD estimate averaged over trials, in V^2/Hz, indexed by bin.
func averagePeriodogram(t *testing.T, spec noise.Spec, seed uint64) []float64 {
	t.Helper()

	src := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	gen := noise.NewGenerator()
	fft := fourier.NewFFT(length)
	psd := make([]float64, length/2+1)

	for range trials {
		seq := gen.Generate(src, length, fs, spec)
		require.Len(t, seq, length)

		for k, c := range fft.Coefficients(nil, seq) {
			psd[k] += 2 * (real(c)*real(c) + imag(c)*imag(c)) / (fs * length)
		}
	}

	for k := range psd {
		psd[k] /= trials
	}

	return psd
}

func TestShape(t *testing.T) {
	spec := noise.Spec{Knee: 100, Alpha: 2}

	assert.InDelta(t, 1.0, spec.Shape(0), 0, "DC is flat")
	assert.InDelta(t, 1.0, spec.Shape(100), 0)
	assert.InDelta(t, 1.0, spec.Shape(5000), 0)
	assert.InDelta(t, 4.0, spec.Shape(50), 1e-12)
	assert.InDelta(t, 100.0, spec.Shape(10), 1e-12)
}

func TestFlatDensityMatchesConfiguration(t *testing.T) {
	spec := noise.Spec{Density: 1e-6, Knee: 1, Alpha: 1}
	psd := averagePeriodogram(t, spec, 1)

	want := spec.Density * spec.Density
	got := stat.Mean(psd[1:length/2], nil)

	assert.InEpsilon(t, want, got, 0.05)
}

func TestFlickerRegionFollowsOneOverF(t *testing.T) {
	spec := noise.Spec{Density: 1e-6, Knee: 2000, Alpha: 1}
	psd := averagePeriodogram(t, spec, 2)

	binHz := fs / length

	var ratios []float64

	for k := 1; k < length/2; k++ {
		f := float64(k) * binHz
		if f < 200 || f > 1500 {
			continue
		}

		expected := spec.Density * spec.Density * math.Pow(spec.Knee/f, 2*spec.Alpha)
		ratios = append(ratios, psd[k]/expected)
	}

	require.NotEmpty(t, ratios)
	assert.InEpsilon(t, 1.0, stat.Mean(ratios, nil), 0.05)

	above := stat.Mean(psd[int(3000/binHz):length/2], nil)
	assert.InEpsilon(t, spec.Density*spec.Density, above, 0.05)
}

func TestZeroMean(t *testing.T) {
	spec := noise.Spec{Density: 1e-6, Knee: 1, Alpha: 1}
	src := rand.New(rand.NewPCG(3, 4))
	gen := noise.NewGenerator()

	means := make([]float64, trials)
	for i := range means {
		means[i] = stat.Mean(gen.Generate(src, length, fs, spec), nil)
	}

	sigma := spec.Sigma(fs)
	tolerance := 5 * sigma / math.Sqrt(length*trials)

	assert.InDelta(t, 0, stat.Mean(means, nil), tolerance)
}

func TestDeterministicForSeed(t *testing.T) {
	spec := noise.Spec{Density: 700e-9, Knee: 158, Alpha: 1}

	a := noise.Generate(rand.New(rand.NewPCG(42, 42)), 999, 110e3, spec)
	b := noise.Generate(rand.New(rand.NewPCG(42, 42)), 999, 110e3, spec)
	c := noise.Generate(rand.New(rand.NewPCG(43, 43)), 999, 110e3, spec)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestArbitraryLengths(t *testing.T) {
	spec := noise.Spec{Density: 1e-9, Knee: 100e3, Alpha: 1}
	src := rand.New(rand.NewPCG(5, 6))
	gen := noise.NewGenerator()

	for _, n := range []int{2, 7, 1000, 1001, 4096} {
		out := gen.Generate(src, n, 110e3, spec)
		require.Len(t, out, n)

		for _, v := range out {
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}

	assert.Nil(t, gen.Generate(src, 0, 110e3, spec))
}
