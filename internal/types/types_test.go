package types_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/afesim/internal/types"
)

func TestChannelBank(t *testing.T) {
	t.Parallel()

	bank := types.NewChannelBank([]float64{100, 200}, 4)

	assert.Equal(t, 2, bank.Size())
	assert.Equal(t, []float64{25, 50}, bank.DesignBws)
	assert.Equal(t, bank.DesignFcs, bank.Fcs)
	assert.Equal(t, []float64{4, 4}, bank.Qs)

	clone := bank.Clone()
	clone.Fcs[0] = 101
	assert.InDelta(t, 100, bank.Fcs[0], 0)
}

func TestEncoderStateFinite(t *testing.T) {
	t.Parallel()

	state := types.NewEncoderState(3)
	assert.True(t, state.Finite())

	state[1] = math.Inf(1)
	assert.False(t, state.Finite())
}

func TestRaster(t *testing.T) {
	t.Parallel()

	first := types.NewRaster(2, 3)
	first.Set(1, 2, 4)

	assert.Equal(t, 4, first.At(1, 2))
	assert.Equal(t, []int{0, 0, 4}, first.Row(1))
	assert.Equal(t, []int{0, 0, 4}, first.Totals())

	second := types.NewRaster(1, 3)
	second.Set(0, 0, 1)

	joined := first.Append(second)
	require.Equal(t, 3, joined.Steps)
	assert.Equal(t, []int{1, 0, 4}, joined.Totals())

	joined.Set(0, 0, 9)
	assert.Zero(t, first.At(0, 0), "append does not alias")

	empty := types.Raster{}.Append(second)
	assert.Equal(t, second, empty)
}
