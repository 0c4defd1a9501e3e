// Package audio turns an audio file of any format into the mono voltage signal fed to the simulator.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/farcloser/afesim"
	"github.com/farcloser/afesim/internal/integration/ffmpeg"
	"github.com/farcloser/afesim/internal/integration/ffprobe"
	"github.com/farcloser/afesim/internal/types"
)

// Source describes the decoded stream.
type Source struct {
	Path       string
	Codec      string
	SampleRate int // rate of the file, before resampling
	Channels   int // channel count of the file
}

// Load probes path, decodes its first audio stream to mono 32-bit PCM at sampleRate and scales it so that digital
// full scale is fullScale volts.
func Load(ctx context.Context, path string, sampleRate int, fullScale float64) ([]float64, *Source, error) {
	probe, err := ffprobe.Probe(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("probing file: %w", err)
	}

	stream, err := probe.FirstAudio()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	originalRate, err := stream.SampleRateHz()
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified audio files
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	format := &types.PCMFormat{
		SampleRate: sampleRate,
		BitDepth:   types.Depth32,
		Channels:   1,
	}

	var pcm bytes.Buffer

	if err = ffmpeg.Decode(ctx, file, &pcm, 0, format); err != nil {
		return nil, nil, fmt.Errorf("decoding audio: %w", err)
	}

	signal, err := afesim.DecodePCM(&pcm, int(format.BitDepth), int(format.Channels), fullScale) //nolint:gosec // small constants
	if err != nil {
		return nil, nil, err
	}

	return mat.Col(nil, 0, signal), &Source{
		Path:       path,
		Codec:      stream.CodecName,
		SampleRate: originalRate,
		Channels:   stream.Channels,
	}, nil
}
