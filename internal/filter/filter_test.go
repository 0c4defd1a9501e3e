package filter_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/afesim/internal/filter"
)

const fs = 110e3

// centre returns the digital frequency that maps to the geometric centre of the pre-warped band.
func centre(low, high float64) float64 {
	wl := 2 * fs * math.Tan(math.Pi*low/fs)
	wh := 2 * fs * math.Tan(math.Pi*high/fs)

	return fs / math.Pi * math.Atan(math.Sqrt(wl*wh)/(2*fs))
}

func TestBandPassResponse(t *testing.T) {
	for _, order := range []int{1, 2, 3, 4} {
		low, high := 875.0, 1125.0

		cascade, err := filter.BandPass(order, low, high, fs)
		require.NoError(t, err)
		require.Len(t, cascade, order)

		assert.InDelta(t, 1, cascade.Magnitude(centre(low, high), fs), 1e-9, "order %d centre", order)
		assert.InDelta(t, 1/math.Sqrt2, cascade.Magnitude(low, fs), 1e-9, "order %d low edge", order)
		assert.InDelta(t, 1/math.Sqrt2, cascade.Magnitude(high, fs), 1e-9, "order %d high edge", order)
		assert.Less(t, cascade.Magnitude(100, fs), 0.05, "order %d stop band", order)
		assert.Less(t, cascade.Magnitude(10000, fs), 0.05, "order %d stop band", order)
	}
}

func TestBandPassStable(t *testing.T) {
	// Narrow band at the bottom of the chip range, where poles sit closest to the unit circle.
	cascade, err := filter.BandPass(2, 35, 45, fs)
	require.NoError(t, err)

	impulse := make([]float64, 200000)
	impulse[0] = 1

	out := cascade.Filter(nil, impulse)
	tail := out[len(out)-1000:]

	for _, v := range tail {
		assert.Less(t, math.Abs(v), 1e-6)
	}
}

func TestHighPassResponse(t *testing.T) {
	for _, order := range []int{1, 2, 3} {
		cascade, err := filter.HighPass(order, 20, fs)
		require.NoError(t, err)

		assert.InDelta(t, 1/math.Sqrt2, cascade.Magnitude(20, fs), 1e-9, "order %d cutoff", order)
		assert.InDelta(t, 1, cascade.Magnitude(fs/2, fs), 1e-9, "order %d nyquist", order)
		assert.InDelta(t, 0, cascade.Magnitude(0, fs), 1e-12, "order %d dc", order)
	}
}

func TestDesignErrors(t *testing.T) {
	_, err := filter.BandPass(0, 100, 200, fs)
	require.ErrorIs(t, err, filter.ErrInvalidOrder)

	_, err = filter.BandPass(2, 0, 200, fs)
	require.ErrorIs(t, err, filter.ErrInvalidFrequency)

	_, err = filter.BandPass(2, 100, fs/2, fs)
	require.ErrorIs(t, err, filter.ErrInvalidFrequency)

	_, err = filter.BandPass(2, 300, 200, fs)
	require.ErrorIs(t, err, filter.ErrInvalidFrequency)

	_, err = filter.HighPass(1, -1, fs)
	require.ErrorIs(t, err, filter.ErrInvalidFrequency)
}

func TestFiltFiltRemovesDC(t *testing.T) {
	cascade, err := filter.HighPass(1, 20, fs)
	require.NoError(t, err)

	in := make([]float64, 5000)
	for i := range in {
		in[i] = 0.25
	}

	out := cascade.FiltFilt(nil, in)
	for _, v := range out {
		assert.InDelta(t, 0, v, 1e-9)
	}
}

func TestFiltFiltIsZeroPhase(t *testing.T) {
	low, high := 875.0, 1125.0
	cascade, err := filter.BandPass(2, low, high, fs)
	require.NoError(t, err)

	f := centre(low, high)
	in := make([]float64, 44000)

	for i := range in {
		in[i] = math.Sin(2 * math.Pi * f * float64(i) / fs)
	}

	out := cascade.FiltFilt(nil, in)

	// Away from the edges the output overlays the input, with |H|^2 = 1 at the centre.
	for i := 20000; i < 24000; i++ {
		assert.InDelta(t, in[i], out[i], 1e-3)
	}
}

func TestFiltFiltShortInputs(t *testing.T) {
	cascade, err := filter.HighPass(1, 20, fs)
	require.NoError(t, err)

	assert.Empty(t, cascade.FiltFilt(nil, nil))
	assert.Len(t, cascade.FiltFilt(nil, []float64{1}), 1)
	assert.Len(t, cascade.FiltFilt(nil, []float64{1, 2, 3}), 3)
}

func TestFilterInPlaceMatchesCopy(t *testing.T) {
	cascade, err := filter.BandPass(2, 500, 700, fs)
	require.NoError(t, err)

	in := make([]float64, 512)
	for i := range in {
		in[i] = math.Cos(float64(i) / 7)
	}

	want := cascade.Filter(nil, in)
	got := cascade.Filter(in, in)

	assert.Equal(t, want, got)
}
