// Package filter designs digital Butterworth filters as cascades of second-order sections and runs them causally or
// forward-backward (zero phase).
package filter

import (
	"math"
	"math/cmplx"
	"slices"
)

// Section is a second-order section with a0 normalized to 1.
type Section struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Section state for transposed direct form II.
type sectionState struct {
	z1, z2 float64
}

func (s *sectionState) process(b *Section, in float64) float64 {
	out := b.B0*in + s.z1
	s.z1 = b.B1*in - b.A1*out + s.z2
	s.z2 = b.B2*in - b.A2*out

	return out
}

// dcGain is H(z=1).
func (s Section) dcGain() float64 {
	return (s.B0 + s.B1 + s.B2) / (1 + s.A1 + s.A2)
}

// steadyState returns the state reached after an infinitely long unit step.
func (s Section) steadyState() sectionState {
	gain := s.dcGain()

	return sectionState{
		z1: gain - s.B0,
		z2: s.B2 - s.A2*gain,
	}
}

// response evaluates H(e^jw).
func (s Section) response(w float64) complex128 {
	z1 := cmplx.Exp(complex(0, -w))
	z2 := z1 * z1

	num := complex(s.B0, 0) + complex(s.B1, 0)*z1 + complex(s.B2, 0)*z2
	den := 1 + complex(s.A1, 0)*z1 + complex(s.A2, 0)*z2

	return num / den
}

// Cascade is a chain of sections applied in order.
type Cascade []Section

// Response returns the complex frequency response at f Hz for sampling rate fs.
func (c Cascade) Response(f, fs float64) complex128 {
	w := 2 * math.Pi * f / fs
	h := complex(1, 0)

	for _, s := range c {
		h *= s.response(w)
	}

	return h
}

// Magnitude returns |H| at f Hz.
func (c Cascade) Magnitude(f, fs float64) float64 {
	return cmplx.Abs(c.Response(f, fs))
}

// Filter runs the cascade causally from rest over src and writes into dst, allocated when nil.
// dst may alias src.
func (c Cascade) Filter(dst, src []float64) []float64 {
	return c.run(dst, src, make([]sectionState, len(c)))
}

func (c Cascade) run(dst, src []float64, states []sectionState) []float64 {
	if dst == nil {
		dst = make([]float64, len(src))
	}

	for i, x := range src {
		for j := range c {
			x = states[j].process(&c[j], x)
		}

		dst[i] = x
	}

	return dst
}

// initialStates returns the steady-state of every section for a step of height x0 at the cascade input.
func (c Cascade) initialStates(x0 float64) []sectionState {
	states := make([]sectionState, len(c))
	scale := x0

	for i, s := range c {
		zi := s.steadyState()
		states[i] = sectionState{z1: zi.z1 * scale, z2: zi.z2 * scale}
		scale *= s.dcGain()
	}

	return states
}

// padLength is the odd-extension length used by FiltFilt: three times the number of taps.
func (c Cascade) padLength() int {
	var zeroB2, zeroA2 int

	for _, s := range c {
		if s.B2 == 0 {
			zeroB2++
		}

		if s.A2 == 0 {
			zeroA2++
		}
	}

	return 3 * (2*len(c) + 1 - min(zeroB2, zeroA2))
}

// FiltFilt applies the cascade forward then backward, for zero phase and squared magnitude response.
// The signal is extended at both ends by odd reflection and each pass starts from steady-state conditions scaled by
// its first sample. Inputs shorter than the padding are reflected over their full length.
func (c Cascade) FiltFilt(dst, src []float64) []float64 {
	n := len(src)
	if dst == nil {
		dst = make([]float64, n)
	}

	if n == 0 {
		return dst
	}

	pad := min(c.padLength(), n-1)
	ext := make([]float64, n+2*pad)

	first, last := src[0], src[n-1]
	for i := range pad {
		ext[i] = 2*first - src[pad-i]
		ext[pad+n+i] = 2*last - src[n-2-i]
	}

	copy(ext[pad:], src)

	c.run(ext, ext, c.initialStates(ext[0]))
	slices.Reverse(ext)
	c.run(ext, ext, c.initialStates(ext[0]))
	slices.Reverse(ext)

	copy(dst, ext[pad:pad+n])

	return dst
}
