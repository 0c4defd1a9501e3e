// Package level measures an input signal against the voltage range of the front-end.
package level

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Floor reported for a silent signal, in dB.
const silenceDB = -120.0

// Level describes the amplitude of a signal relative to a saturation limit.
type Level struct {
	Samples    int
	Peak       float64 // volts
	RMS        float64 // volts
	HeadroomDB float64 // 20*log10(limit/peak), 120 for silence

	// Runs of at least two consecutive samples at or beyond the limit.
	Events         int
	ClippedSamples int
	LongestRun     int
}

// Measure computes the level of signal against limit (volts).
func Measure(signal []float64, limit float64) Level {
	result := Level{Samples: len(signal)}
	if len(signal) == 0 {
		result.HeadroomDB = -silenceDB

		return result
	}

	result.Peak = math.Max(floats.Max(signal), -floats.Min(signal))
	result.RMS = floats.Norm(signal, 2) / math.Sqrt(float64(len(signal)))

	result.HeadroomDB = 20 * math.Log10(limit/result.Peak)
	if math.IsInf(result.HeadroomDB, 1) {
		result.HeadroomDB = -silenceDB
	}

	var consecutive int

	flush := func() {
		if consecutive >= 2 {
			result.Events++
			result.ClippedSamples += consecutive
			result.LongestRun = max(result.LongestRun, consecutive)
		}

		consecutive = 0
	}

	for _, v := range signal {
		if math.Abs(v) >= limit {
			consecutive++

			continue
		}

		flush()
	}

	flush()

	return result
}
