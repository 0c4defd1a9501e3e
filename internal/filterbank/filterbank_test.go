package filterbank_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/farcloser/afesim/internal/filterbank"
)

const fs = 110e3

var (
	fcs = []float64{40, 54, 77, 137, 203, 290, 428, 674, 1177, 1700, 2226, 3418, 5154, 7884, 11630, 16940}
	bws = func() []float64 {
		out := make([]float64, len(fcs))
		for i, fc := range fcs {
			out[i] = fc / 4
		}

		return out
	}()
)

func broadcast(signal []float64, channels int) *mat.Dense {
	out := mat.NewDense(len(signal), channels, nil)
	for c := range channels {
		out.SetCol(c, signal)
	}

	return out
}

func TestWorkerCountDoesNotChangeOutput(t *testing.T) {
	signal := make([]float64, 4096)
	for i := range signal {
		signal[i] = math.Sin(2*math.Pi*1000*float64(i)/fs) + 0.3*math.Sin(2*math.Pi*7000*float64(i)/fs)
	}

	in := broadcast(signal, len(fcs))

	serial, err := filterbank.New(fcs, bws, fs, 2, 1)
	require.NoError(t, err)

	parallel, err := filterbank.New(fcs, bws, fs, 2, 8)
	require.NoError(t, err)

	a, err := serial.Apply(context.Background(), in)
	require.NoError(t, err)

	b, err := parallel.Apply(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, mat.Equal(a, b))

	rows, cols := a.Dims()
	assert.Equal(t, len(signal), rows)
	assert.Equal(t, len(fcs), cols)
}

func TestChannelsSelectTheirBand(t *testing.T) {
	signal := make([]float64, 44000)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * 1177 * float64(i) / fs)
	}

	bank, err := filterbank.New(fcs, bws, fs, 2, 4)
	require.NoError(t, err)

	out, err := bank.Apply(context.Background(), broadcast(signal, len(fcs)))
	require.NoError(t, err)

	rms := func(c int) float64 {
		var sum float64
		for i := 22000; i < 44000; i++ {
			v := out.At(i, c)
			sum += v * v
		}

		return math.Sqrt(sum / 22000)
	}

	tuned := rms(8)
	assert.InDelta(t, 1/math.Sqrt2, tuned, 0.02)

	for _, c := range []int{0, 3, 13, 15} {
		assert.Less(t, rms(c), tuned/10, "channel %d", c)
	}
}

func TestInputIsNotModified(t *testing.T) {
	signal := []float64{1, 0, 0, 0, 0, 0, 0, 0}
	in := broadcast(signal, len(fcs))
	orig := mat.DenseCopyOf(in)

	bank, err := filterbank.New(fcs, bws, fs, 2, 2)
	require.NoError(t, err)

	_, err = bank.Apply(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, mat.Equal(orig, in))
}

func TestErrors(t *testing.T) {
	_, err := filterbank.New(fcs, bws[:3], fs, 2, 1)
	require.ErrorIs(t, err, filterbank.ErrShape)

	_, err = filterbank.New(fcs, bws, fs, 2, 0)
	require.ErrorIs(t, err, filterbank.ErrWorkers)

	_, err = filterbank.New(fcs, bws, 30000, 2, 1)
	require.Error(t, err, "16940 Hz is above Nyquist")

	bank, err := filterbank.New(fcs, bws, fs, 2, 1)
	require.NoError(t, err)

	_, err = bank.Apply(context.Background(), mat.NewDense(4, 3, nil))
	require.ErrorIs(t, err, filterbank.ErrShape)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = bank.Apply(ctx, broadcast([]float64{1, 2}, len(fcs)))
	require.ErrorIs(t, err, context.Canceled)
}
