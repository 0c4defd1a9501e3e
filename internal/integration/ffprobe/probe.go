//nolint:tagliatelle
package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/afesim/internal/integration/binary"
)

const (
	name = "ffprobe"
	// Slow hard-drives spinning up or network retrieved resources may cause timeouts if too aggressive.
	timeout = 60 * time.Second
)

// ErrNoAudio is returned when a file has no audio stream.
var ErrNoAudio = errors.New("no audio stream")

// Result contains the marshalled output of ffprobe.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream holds the stream properties needed to feed the simulator.
type Stream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`                // flac
	CodecType     string `json:"codec_type"`                // audio
	SampleRate    string `json:"sample_rate,omitempty"`     // 44100
	Channels      int    `json:"channels,omitempty"`        // 2
	ChannelLayout string `json:"channel_layout,omitempty"`  // stereo
	Duration      string `json:"duration,omitempty"`        // 310.666667
	BitsPerSample int    `json:"bits_per_sample,omitempty"` // 0 for most compressed codecs
}

// Format holds container-level information.
type Format struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`        // e.g. "flac", "mov,mp4,m4a,3gp,3g2,mj2"
	Duration   string `json:"duration,omitempty"` // seconds as float string
}

// SampleRateHz parses the sample rate of the stream.
func (s Stream) SampleRateHz() (int, error) {
	rate, err := strconv.Atoi(s.SampleRate)
	if err != nil {
		return 0, fmt.Errorf("%w: sample rate %q: %w", fault.ErrInvalidJSON, s.SampleRate, err)
	}

	return rate, nil
}

// Seconds returns the duration of the stream, falling back to the container duration. Unknown durations are 0.
func (r *Result) Seconds(stream Stream) float64 {
	for _, candidate := range []string{stream.Duration, r.Format.Duration} {
		if value, err := strconv.ParseFloat(candidate, 64); err == nil {
			return value
		}
	}

	return 0
}

// FirstAudio returns the first audio stream. It is stream "0:a:0" for ffmpeg.
func (r *Result) FirstAudio() (Stream, error) {
	for _, stream := range r.Streams {
		if stream.CodecType == "audio" {
			return stream, nil
		}
	}

	return Stream{}, ErrNoAudio
}

// Parse decodes ffprobe JSON output.
func Parse(data []byte) (*Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrInvalidJSON, err)
	}

	return &result, nil
}

// Probe runs ffprobe on the given file path and returns parsed metadata.
// It requires ffprobe to be available in the system PATH.
func Probe(ctx context.Context, filePath string) (*Result, error) {
	slog.Debug("ffprobe.Probe", "file path", filePath)

	ffprobePath, err := binary.Require(name)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // filePath is intentionally user-provided input for probing media files
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: after %v", fault.ErrTimeout, timeout)
		}

		return nil, fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}

	return Parse(output)
}
