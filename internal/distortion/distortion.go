// Package distortion implements the saturating third-order transfer curves of the microphone and the low-noise
// amplifier.
//
// Both stages use the identity sin(3t) = 3 sin(t) - 4 sin^3(t) to inject a third harmonic whose level is set by a
// distortion coefficient at a corner voltage. The result is hard-clamped to the supply range afterwards.
package distortion

import "math"

// GainFromDB converts an amplifier gain in dB to a linear factor. The chip gain steps are powers of two: 6 dB = x2.
func GainFromDB(db float64) float64 {
	return math.Exp2(db / 6.0) //nolint:mnd // 6 dB per doubling
}

// thirdHarmonic returns x + d*vc*(3x/vc - 4(x/vc)^3).
func thirdHarmonic(x, vCorner, distortion float64) float64 {
	r := x / vCorner

	return x + distortion*vCorner*(3*r-4*r*r*r)
}

func clamp(x, limit float64) float64 {
	if x > limit {
		return limit
	}

	if x < -limit {
		return -limit
	}

	return x
}

// Microphone applies the microphone distortion to src and writes into dst, which is allocated when nil.
// dst may alias src.
func Microphone(dst, src []float64, vCorner, distortion, limit float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(src))
	}

	for i, x := range src {
		dst[i] = clamp(thirdHarmonic(x, vCorner, distortion), limit)
	}

	return dst
}

// Amplifier applies gain and offset, then the amplifier distortion, then the clamp.
// The distortion is referenced to the gained signal, before clamping.
func Amplifier(dst, src []float64, offset, gainDB, vCorner, distortion, limit float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(src))
	}

	gain := GainFromDB(gainDB)

	for i, x := range src {
		gained := gain * (x + offset)
		dst[i] = clamp(thirdHarmonic(gained, vCorner, distortion), limit)
	}

	return dst
}
