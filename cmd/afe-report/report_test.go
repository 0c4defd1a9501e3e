package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/afesim"
)

func TestInstanceOptions(t *testing.T) {
	t.Parallel()

	config := reportConfig{seed: 10, sampleRate: 110000, gain: afesim.Gain6dB}

	first := config.options(0)
	third := config.options(2)

	assert.Equal(t, uint64(10), first.Seed)
	assert.Equal(t, uint64(12), third.Seed)
	assert.Equal(t, afesim.Gain6dB, third.AmplifierGain)
	assert.InDelta(t, 110000, third.SampleRate, 0)

	_, err := afesim.New(third)
	require.NoError(t, err)
}

func TestRunReportRejectsMissingFolder(t *testing.T) {
	t.Parallel()

	err := runReport(t.Context(), "/nonexistent/music", reportConfig{sampleRate: 110000, instances: 1, workers: 1})
	require.ErrorIs(t, err, errNotDirectory)
}

func TestRunReportRejectsEmptyFolder(t *testing.T) {
	t.Parallel()

	err := runReport(t.Context(), t.TempDir(), reportConfig{sampleRate: 110000, instances: 1, workers: 1})
	require.ErrorIs(t, err, errNoAudioFiles)
}
