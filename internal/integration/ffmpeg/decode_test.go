package ffmpeg_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/farcloser/primordium/fault"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/afesim/internal/integration/ffmpeg"
	"github.com/farcloser/afesim/internal/types"
)

func TestDecodeWithoutFFmpeg(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	err := ffmpeg.Decode(t.Context(), bytes.NewReader(nil), io.Discard, 0,
		&types.PCMFormat{SampleRate: 110000, BitDepth: types.Depth32, Channels: 1})
	require.ErrorIs(t, err, fault.ErrMissingRequirements)
}
