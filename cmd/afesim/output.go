//nolint:wrapcheck
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/farcloser/primordium/format"

	"github.com/farcloser/afesim"
	"github.com/farcloser/afesim/internal/output"
)

// Bar width for the activity column of the console output.
const barWidth = 20

func outputResult(filePath string, summary *afesim.Summary, maxCount int, formatName string, debug bool) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	var meta map[string]any
	if debug {
		meta = output.SummaryToMap(summary, maxCount)
	} else {
		meta = buildFriendlyOutput(summary, maxCount)
	}

	data := &format.Data{
		Object: filePath,
		Meta:   meta,
	}

	return formatter.PrintAll([]*format.Data{data}, os.Stdout)
}

// buildFriendlyOutput creates a readable summary of the simulation.
func buildFriendlyOutput(summary *afesim.Summary, maxCount int) map[string]any {
	var total int
	for _, v := range summary.Totals {
		total += v
	}

	meta := map[string]any{
		"summary": fmt.Sprintf("%d events over %.2f s (%d periods)", total, summary.Duration, summary.Counts.Steps),
	}

	channels := make([]any, 0, len(summary.Totals))

	for _, ch := range output.Channels(summary, maxCount) {
		saturation := 0.0
		if summary.Counts.Steps > 0 {
			saturation = float64(ch.Saturated) / float64(summary.Counts.Steps)
		}

		channels = append(channels, fmt.Sprintf("%02d %6.0f Hz %s %7.1f ev/s, %4.1f per period, %3.0f%% saturated",
			ch.Channel, ch.Fc, activityBar(ch.MeanCount, maxCount), ch.Rate, ch.MeanCount, saturation*100))
	}

	meta["channels"] = channels

	input := summary.Input
	meta["input"] = fmt.Sprintf("peak %.3f V, rms %.3f V, headroom %.1f dB, %d clipping events",
		input.Peak, input.RMS, input.HeadroomDB, input.Events)

	snapshot := summary.Snapshot
	meta["chip"] = fmt.Sprintf("noise: %t, offset: %t, mismatch: %t, fc shift: %+.1f%%",
		snapshot.AddNoise, snapshot.AddOffset, snapshot.AddMismatch, snapshot.Mismatch.FcShift*100)

	return meta
}

func activityBar(mean float64, maxCount int) string {
	filled := 0
	if maxCount > 0 {
		filled = min(int(mean/float64(maxCount)*barWidth+0.5), barWidth)
	}

	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}
