package filter

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"slices"
)

var (
	// ErrInvalidFrequency is returned when a cutoff is not strictly between 0 and the Nyquist frequency.
	ErrInvalidFrequency = errors.New("filter: frequency out of range")
	// ErrInvalidOrder is returned for an order below 1.
	ErrInvalidOrder = errors.New("filter: invalid order")
)

const imagTolerance = 1e-10

// prototype returns the poles of the analog Butterworth low-pass prototype of the given order (cutoff 1 rad/s).
func prototype(order int) []complex128 {
	poles := make([]complex128, order)

	for i := range order {
		m := float64(-order + 1 + 2*i)
		poles[i] = -cmplx.Exp(complex(0, math.Pi*m/float64(2*order)))
	}

	return poles
}

// prewarp maps a digital frequency to the analog frequency that the bilinear transform sends back onto it.
func prewarp(f, fs float64) float64 {
	return 2 * fs * math.Tan(math.Pi*f/fs)
}

// bilinear maps analog poles to the z-plane and returns them with the gain factor prod(2fs) / prod(2fs - p).
func bilinear(poles []complex128, fs float64) ([]complex128, float64) {
	fs2 := complex(2*fs, 0)
	digital := make([]complex128, len(poles))
	gain := complex(1, 0)

	for i, p := range poles {
		digital[i] = (fs2 + p) / (fs2 - p)
		gain /= fs2 - p
	}

	return digital, real(gain)
}

func checkFrequency(f, fs float64) error {
	if f <= 0 || f >= fs/2 || math.IsNaN(f) {
		return fmt.Errorf("%w: %g Hz at sampling rate %g Hz", ErrInvalidFrequency, f, fs)
	}

	return nil
}

// BandPass designs a digital Butterworth band-pass filter of the given order between low and high Hz.
// The result has 2*order poles arranged in order sections, with unity gain at the centre of the band.
func BandPass(order int, low, high, fs float64) (Cascade, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, order)
	}

	if err := checkFrequency(low, fs); err != nil {
		return nil, err
	}

	if err := checkFrequency(high, fs); err != nil {
		return nil, err
	}

	if low >= high {
		return nil, fmt.Errorf("%w: low edge %g Hz is not below high edge %g Hz", ErrInvalidFrequency, low, high)
	}

	wl, wh := prewarp(low, fs), prewarp(high, fs)
	bw := wh - wl
	w0 := complex(math.Sqrt(wl*wh), 0)

	analog := make([]complex128, 0, 2*order)

	for _, p := range prototype(order) {
		p *= complex(bw/2, 0)
		root := cmplx.Sqrt(p*p - w0*w0)
		analog = append(analog, p+root, p-root)
	}

	digital, gain := bilinear(analog, fs)
	// order zeros at s=0 and order zeros at infinity.
	gain *= math.Pow(bw*2*fs, float64(order))

	zeros := make([]float64, 0, 2*order)
	for range order {
		zeros = append(zeros, 1, -1)
	}

	return assemble(digital, zeros, gain), nil
}

// HighPass designs a digital Butterworth high-pass filter with unity gain at Nyquist.
func HighPass(order int, cutoff, fs float64) (Cascade, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, order)
	}

	if err := checkFrequency(cutoff, fs); err != nil {
		return nil, err
	}

	wc := complex(prewarp(cutoff, fs), 0)

	analog := make([]complex128, order)
	for i, p := range prototype(order) {
		analog[i] = wc / p
	}

	digital, gain := bilinear(analog, fs)
	gain *= math.Pow(2*fs, float64(order))

	zeros := make([]float64, order)
	for i := range zeros {
		zeros[i] = 1
	}

	return assemble(digital, zeros, gain), nil
}

// assemble pairs conjugate poles (and leftover real poles) into sections, hands out the zeros two at a time in the
// given order, and folds the gain into the first section.
func assemble(poles []complex128, zeros []float64, gain float64) Cascade {
	var (
		pairs [][2]complex128
		reals []float64
	)

	for _, p := range poles {
		switch {
		case math.Abs(imag(p)) <= imagTolerance:
			reals = append(reals, real(p))
		case imag(p) > 0:
			pairs = append(pairs, [2]complex128{p, cmplx.Conj(p)})
		default:
		}
	}

	// Poles closest to the unit circle last, as they have the highest gain.
	slices.SortFunc(pairs, func(a, b [2]complex128) int {
		return cmp.Compare(cmplx.Abs(a[0]), cmplx.Abs(b[0]))
	})
	slices.Sort(reals)

	for i := 0; i+1 < len(reals); i += 2 {
		pairs = append(pairs, [2]complex128{complex(reals[i], 0), complex(reals[i+1], 0)})
	}

	cascade := make(Cascade, 0, len(pairs)+1)
	next := 0

	takeZero := func() (float64, bool) {
		if next >= len(zeros) {
			return 0, false
		}

		z := zeros[next]
		next++

		return z, true
	}

	if len(reals)%2 == 1 {
		p := reals[len(reals)-1]
		section := Section{B0: 1, A1: -p}

		if z, ok := takeZero(); ok {
			section.B1 = -z
		}

		cascade = append(cascade, section)
	}

	for _, pair := range pairs {
		sum := pair[0] + pair[1]
		prod := pair[0] * pair[1]
		section := Section{B0: 1, A1: -real(sum), A2: real(prod)}

		z1, ok1 := takeZero()
		z2, ok2 := takeZero()

		switch {
		case ok1 && ok2:
			section.B1 = -(z1 + z2)
			section.B2 = z1 * z2
		case ok1:
			section.B1 = -z1
		default:
		}

		cascade = append(cascade, section)
	}

	if len(cascade) > 0 {
		cascade[0].B0 *= gain
		cascade[0].B1 *= gain
		cascade[0].B2 *= gain
	}

	return cascade
}
