// Package raster thins event rasters with the digital counter of the chip and bins them into readout periods.
package raster

import (
	"math"

	"github.com/farcloser/afesim/internal/types"
)

// Relative tolerance used to decide whether a raster period is a whole number of simulation steps.
const alignTolerance = 1e-9

// Thin keeps one event out of every n in each channel: the event at which the running count reaches a multiple of n.
// The output has the same shape as events. n <= 1 returns a copy.
func Thin(events types.Raster, n int) types.Raster {
	if n <= 1 {
		return events.Clone()
	}

	out := types.NewRaster(events.Steps, events.Channels)
	counts := make([]int, events.Channels)

	for t := range events.Steps {
		for c, v := range events.Row(t) {
			if v == 0 {
				continue
			}

			counts[c] += v
			if counts[c]%n == 0 {
				out.Set(t, c, 1)
			}
		}
	}

	return out
}

// ClocksPerPeriod returns period/dt and whether it is a whole number.
func ClocksPerPeriod(period, dt float64) (int, bool) {
	ratio := period / dt
	rounded := math.Round(ratio)

	if rounded >= 1 && math.Abs(ratio-rounded) <= alignTolerance*ratio {
		return int(rounded), true
	}

	return 0, false
}

// Rasterize sums events into periods of the given duration and clamps every count to maxCount.
// When the period is a whole number of steps the cumulative-sum path is used, otherwise events are binned by time.
// A trailing partial period is kept in both cases.
func Rasterize(events types.Raster, period, dt float64, maxCount int) types.Raster {
	var counts types.Raster

	if clocks, ok := ClocksPerPeriod(period, dt); ok {
		counts = cumulative(events, clocks)
	} else {
		counts = Bin(events, period, dt)
	}

	for i, v := range counts.Data {
		counts.Data[i] = min(v, maxCount)
	}

	return counts
}

// cumulative samples the running sum at the end of each period and differences consecutive samples.
func cumulative(events types.Raster, clocks int) types.Raster {
	periods := (events.Steps + clocks - 1) / clocks
	counts := types.NewRaster(periods, events.Channels)
	running := make([]int, events.Channels)
	previous := make([]int, events.Channels)

	for t := range events.Steps {
		for c, v := range events.Row(t) {
			running[c] += v
		}

		if (t+1)%clocks != 0 && t != events.Steps-1 {
			continue
		}

		row := counts.Row(t / clocks)
		for c := range row {
			row[c] = running[c] - previous[c]
		}

		copy(previous, running)
	}

	return counts
}

// Bin places the event at step i (time i*dt) into period floor(i*dt/period), over ceil(steps*dt/period) periods.
// It does not clamp.
func Bin(events types.Raster, period, dt float64) types.Raster {
	if events.Steps == 0 {
		return types.NewRaster(0, events.Channels)
	}

	duration := float64(events.Steps) * dt
	periods := max(int(math.Ceil(duration/period-alignTolerance)), 1)
	counts := types.NewRaster(periods, events.Channels)

	for t := range events.Steps {
		bin := min(int(math.Floor(float64(t)*dt/period+alignTolerance)), periods-1)
		row := counts.Row(bin)

		for c, v := range events.Row(t) {
			row[c] += v
		}
	}

	return counts
}
