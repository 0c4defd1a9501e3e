// Package output provides shared result serialization for afesim JSON output.
package output

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/farcloser/afesim"
	"github.com/farcloser/afesim/internal/level"
	"github.com/farcloser/afesim/internal/types"
)

// ChannelStats summarizes the activity of one channel over a simulation.
type ChannelStats struct {
	Channel   int
	Fc        float64 // actual centre frequency, Hz
	Bw        float64 // actual bandwidth, Hz
	Q         float64
	Events    int     // events after the digital counter
	Rate      float64 // events per second
	MeanCount float64 // mean rastered count per period
	StdCount  float64
	MaxCount  int
	Saturated int // periods at maxCount
}

// Channels computes per-channel statistics. maxCount is the rasterizer saturation value.
func Channels(summary *afesim.Summary, maxCount int) []ChannelStats {
	bank := summary.Snapshot.Bank
	out := make([]ChannelStats, summary.Counts.Channels)
	column := make([]float64, summary.Counts.Steps)

	for c := range out {
		stats := ChannelStats{
			Channel: c,
			Events:  summary.Totals[c],
		}

		if c < len(bank.Fcs) {
			stats.Fc = bank.Fcs[c]
			stats.Bw = bank.Bws[c]
			stats.Q = bank.Qs[c]
		}

		if summary.Duration > 0 {
			stats.Rate = float64(stats.Events) / summary.Duration
		}

		for t := range summary.Counts.Steps {
			count := summary.Counts.At(t, c)
			column[t] = float64(count)
			stats.MaxCount = max(stats.MaxCount, count)

			if count >= maxCount {
				stats.Saturated++
			}
		}

		if len(column) > 0 {
			stats.MeanCount, stats.StdCount = stat.MeanStdDev(column, nil)
			if math.IsNaN(stats.StdCount) {
				stats.StdCount = 0
			}
		}

		out[c] = stats
	}

	return out
}

// SummaryToMap converts a simulation summary into the canonical map structure
// used for JSON and JSONL serialization.
func SummaryToMap(summary *afesim.Summary, maxCount int) map[string]any {
	var total int
	for _, v := range summary.Totals {
		total += v
	}

	channels := make([]any, 0, len(summary.Totals))
	for _, ch := range Channels(summary, maxCount) {
		channels = append(channels, ChannelToMap(ch))
	}

	return map[string]any{
		"summary": map[string]any{
			"samples":      summary.Samples,
			"duration":     summary.Duration,
			"chunks":       summary.Chunks,
			"periods":      summary.Counts.Steps,
			"total_events": total,
		},
		"input":    LevelToMap(summary.Input),
		"channels": channels,
		"chip":     SnapshotToMap(summary.Snapshot),
	}
}

// ChannelToMap serializes one channel's statistics.
func ChannelToMap(ch ChannelStats) map[string]any {
	return map[string]any{
		"channel":           ch.Channel,
		"fc":                ch.Fc,
		"bw":                ch.Bw,
		"q":                 ch.Q,
		"events":            ch.Events,
		"rate":              ch.Rate,
		"mean_count":        ch.MeanCount,
		"std_count":         ch.StdCount,
		"max_count":         ch.MaxCount,
		"saturated_periods": ch.Saturated,
	}
}

// LevelToMap serializes the input level.
func LevelToMap(input level.Level) map[string]any {
	return map[string]any{
		"peak":            input.Peak,
		"rms":             input.RMS,
		"headroom_db":     input.HeadroomDB,
		"clip_events":     input.Events,
		"clipped_samples": input.ClippedSamples,
		"longest_run":     input.LongestRun,
	}
}

// SnapshotToMap serializes the chip parameters and encoder state.
func SnapshotToMap(snapshot types.Snapshot) map[string]any {
	m := snapshot.Mismatch

	return map[string]any{
		"sample_rate":  snapshot.SampleRate,
		"add_noise":    snapshot.AddNoise,
		"add_offset":   snapshot.AddOffset,
		"add_mismatch": snapshot.AddMismatch,
		"design_fcs":   snapshot.Bank.DesignFcs,
		"q":            snapshot.Bank.Q,
		"mismatch": map[string]any{
			"input_offset":     m.InputOffset,
			"amplifier_offset": m.AmplifierOffset,
			"filter_offsets":   m.FilterOffsets,
			"q_mismatch":       m.QMismatch,
			"fc_mismatch":      m.FcMismatch,
			"fc_shift":         m.FcShift,
		},
		"encoder_state": []float64(snapshot.State),
	}
}
