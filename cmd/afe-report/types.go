//nolint:tagliatelle
package main

// Record is a single line in the JSONL report file: one file simulated on one chip instance.
type Record struct {
	File       string         `json:"file,omitempty"`
	Instance   int            `json:"instance"`
	Seed       uint64         `json:"seed"`
	Source     *RecordSource  `json:"source,omitempty"`
	Simulation map[string]any `json:"simulation,omitempty"`
	Error      string         `json:"error,omitempty"`
	Timing     *RecordTiming  `json:"timing,omitempty"`
}

// RecordSource describes the decoded audio stream.
type RecordSource struct {
	Codec      string `json:"codec"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// RecordTiming captures per-record processing durations in milliseconds.
// Decoding is shared by all instances of a file and reported on each of them.
type RecordTiming struct {
	DecodeMs   float64 `json:"decode_ms"`
	SimulateMs float64 `json:"simulate_ms"`
}

// digestRecord holds the typed fields needed by the digest command.
type digestRecord struct {
	File       string            `json:"file,omitempty"`
	Instance   int               `json:"instance"`
	Simulation *digestSimulation `json:"simulation,omitempty"`
	Error      string            `json:"error,omitempty"`
}

type digestSimulation struct {
	Summary  digestSummary   `json:"summary"`
	Channels []digestChannel `json:"channels"`
}

type digestSummary struct {
	Duration    float64 `json:"duration"`
	Periods     int     `json:"periods"`
	TotalEvents int     `json:"total_events"`
}

type digestChannel struct {
	Channel   int     `json:"channel"`
	Fc        float64 `json:"fc"`
	Rate      float64 `json:"rate"`
	MeanCount float64 `json:"mean_count"`
	Saturated int     `json:"saturated_periods"`
}

// channelBreakdown aggregates one channel across records.
type channelBreakdown struct {
	Channel        int
	MeanFc         float64
	StdFc          float64
	MeanRate       float64
	StdRate        float64
	MeanSaturation float64 // fraction of saturated periods
}
