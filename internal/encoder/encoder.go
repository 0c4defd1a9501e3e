// Package encoder converts rectified analog signals into spike events with the charge-integrating circuit of the
// front-end: a voltage-to-current converter charges a leaky capacitor which fires and resets by subtraction when it
// crosses the threshold.
package encoder

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/farcloser/afesim/internal/types"
)

// ErrInvalidState is returned when the state does not match the channel count or is not finite.
var ErrInvalidState = errors.New("encoder: invalid state")

// Params are the circuit constants of the integrate-and-fire encoder.
type Params struct {
	V2IGain float64 // voltage to current gain, A/V
	CIAF    float64 // integration capacitance, F
	Leakage float64 // leakage conductance, S
	ThrUp   float64 // firing threshold, V
	VCC     float64 // supply voltage bounding the capacitor, V
}

// DefaultParams returns the constants of the Xylo audio front-end.
func DefaultParams() Params {
	return Params{
		V2IGain: 0.333e-6,
		CIAF:    5e-12,
		Leakage: 1e-9,
		ThrUp:   0.5,
		VCC:     1.1,
	}
}

// Encode integrates data (time, channels) starting from state, with time step dt.
// It returns the event raster (0 or 1 per step and channel) and the state after the last step. The input state is
// not modified.
func Encode(state types.EncoderState, dt float64, data *mat.Dense, params Params) (types.Raster, types.EncoderState, error) {
	steps, channels := data.Dims()

	if len(state) != channels {
		return types.Raster{}, nil, fmt.Errorf("%w: length %d for %d channels", ErrInvalidState, len(state), channels)
	}

	if !state.Finite() {
		return types.Raster{}, nil, fmt.Errorf("%w: non-finite value", ErrInvalidState)
	}

	charge := params.V2IGain * dt / params.CIAF
	leak := params.Leakage * dt / params.CIAF

	events := types.NewRaster(steps, channels)
	voltage := make(types.EncoderState, channels)
	copy(voltage, state)

	raw := data.RawMatrix()

	for t := range steps {
		row := raw.Data[t*raw.Stride : t*raw.Stride+channels]

		for c, x := range row {
			v := voltage[c] + charge*x - leak*voltage[c]
			v = min(max(v, 0), params.VCC)

			if v >= params.ThrUp {
				events.Set(t, c, 1)
				v -= params.ThrUp
			}

			voltage[c] = v
		}
	}

	return events, voltage, nil
}
