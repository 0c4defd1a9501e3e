package output_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/afesim"
	"github.com/farcloser/afesim/internal/output"
	"github.com/farcloser/afesim/internal/types"
)

func fixture() *afesim.Summary {
	counts := types.NewRaster(4, 2)
	for t, row := range [][]int{{3, 15}, {5, 15}, {3, 10}, {5, 15}} {
		copy(counts.Row(t), row)
	}

	bank := types.NewChannelBank([]float64{100, 1000}, 4)

	return &afesim.Summary{
		Samples:  440,
		Duration: 0.04,
		Chunks:   1,
		Totals:   []int{16, 80},
		Counts:   counts,
		Snapshot: types.Snapshot{
			SampleRate: 11000,
			Bank:       bank.Clone(),
			Mismatch:   types.NewMismatchProfile(2),
			State:      types.NewEncoderState(2),
		},
	}
}

func TestChannels(t *testing.T) {
	t.Parallel()

	stats := output.Channels(fixture(), 15)
	require.Len(t, stats, 2)

	assert.InDelta(t, 100, stats[0].Fc, 1e-12)
	assert.InDelta(t, 25, stats[0].Bw, 1e-12)
	assert.InDelta(t, 400, stats[0].Rate, 1e-9)
	assert.InDelta(t, 4, stats[0].MeanCount, 1e-12)
	assert.Equal(t, 5, stats[0].MaxCount)
	assert.Zero(t, stats[0].Saturated)

	assert.InDelta(t, 13.75, stats[1].MeanCount, 1e-12)
	assert.Equal(t, 15, stats[1].MaxCount)
	assert.Equal(t, 3, stats[1].Saturated)
	assert.Positive(t, stats[1].StdCount)
}

func TestSummaryToMap(t *testing.T) {
	t.Parallel()

	m := output.SummaryToMap(fixture(), 15)

	summary, ok := m["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 96, summary["total_events"])
	assert.Equal(t, 4, summary["periods"])

	channels, ok := m["channels"].([]any)
	require.True(t, ok)
	assert.Len(t, channels, 2)

	chip, ok := m["chip"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 11000, chip["sample_rate"], 0)
}
