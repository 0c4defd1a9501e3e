package ffmpeg

import "time"

const (
	name = "ffmpeg"
	// Resampling long files to 110 kHz is slow, keep this generous.
	timeout = 10 * time.Minute
)
