package ffmpeg

import (
	"strconv"

	"github.com/farcloser/afesim/internal/types"
)

// sampleFormat is the raw muxer name for a bit depth: 32 = s32le, 24 = s24le, 16 = s16le.
func sampleFormat(bitDepth types.BitDepth) string {
	//nolint:gosec // bit depth is a small constant
	return "s" + strconv.Itoa(int(bitDepth)) + "le"
}

func codec(bitDepth types.BitDepth) string {
	return "pcm_" + sampleFormat(bitDepth)
}

// arguments builds the command line that decodes audio stream streamIndex from stdin to raw PCM on stdout,
// downmixed and resampled to format.
func arguments(streamIndex int, format *types.PCMFormat) []string {
	return []string{
		"-i", "-",
		"-map", "0:a:" + strconv.Itoa(streamIndex),
		"-ac", strconv.FormatUint(uint64(format.Channels), 10),
		"-ar", strconv.Itoa(format.SampleRate),
		"-f", sampleFormat(format.BitDepth),
		"-acodec", codec(format.BitDepth),
		"-v", "quiet",
		"-",
	}
}
