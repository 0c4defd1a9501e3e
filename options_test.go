package afesim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/afesim"
)

func TestParseGain(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]afesim.Gain{
		"0":     afesim.Gain0dB,
		"6":     afesim.Gain6dB,
		"6dB":   afesim.Gain6dB,
		" 12db": afesim.Gain12dB,
	} {
		got, err := afesim.ParseGain(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := afesim.ParseGain("3")
	require.ErrorIs(t, err, afesim.ErrConfiguration)

	assert.Equal(t, "12dB", afesim.Gain12dB.String())
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := afesim.DefaultOptions()

	assert.Len(t, opts.CenterFrequencies, 16)
	assert.InDelta(t, 101640, opts.MinSampleRate(), 1e-9)
	assert.InDelta(t, 0.55, opts.InputLimit(), 1e-12)
	assert.True(t, opts.AddNoise)
	assert.True(t, opts.AddOffset)
	assert.True(t, opts.AddMismatch)

	ideal := opts.Ideal()
	assert.False(t, ideal.AddNoise)
	assert.False(t, ideal.AddOffset)
	assert.False(t, ideal.AddMismatch)
	assert.True(t, opts.AddNoise, "Ideal returns a copy")

	assert.InDelta(t, 200e3, afesim.OptionsForRate(200e3).SampleRate, 0)
}

func TestOptionsAreCopied(t *testing.T) {
	t.Parallel()

	opts := afesim.DefaultOptions()

	sim, err := afesim.New(opts)
	require.NoError(t, err)

	opts.CenterFrequencies[0] = 1
	assert.InDelta(t, 40, sim.Options().CenterFrequencies[0], 0)

	got := sim.Options()
	got.CenterFrequencies[0] = 2
	assert.InDelta(t, 40, sim.State().Bank.DesignFcs[0], 0)
}
