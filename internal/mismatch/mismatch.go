// Package mismatch draws the per-instance perturbations of a simulated chip and derives the actual filter parameters
// from the nominal design.
package mismatch

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/farcloser/afesim/internal/types"
)

// Limits are the maximum absolute perturbations. Offsets are in volts, the others are relative.
type Limits struct {
	InputOffset     float64
	AmplifierOffset float64
	FilterOffset    float64
	QMismatch       float64
	FcMismatch      float64
	FcShift         float64
}

// DefaultLimits returns the limits measured on the Xylo audio front-end.
func DefaultLimits() Limits {
	return Limits{
		InputOffset:     0,
		AmplifierOffset: 5e-3,
		FilterOffset:    5e-3,
		QMismatch:       10e-2,
		FcMismatch:      5e-2,
		FcShift:         5e-2,
	}
}

// Flags select which perturbation categories are drawn. A disabled category is zero, with the same shape.
type Flags struct {
	AddOffset   bool
	AddMismatch bool
}

// Generate draws a new profile for the given number of channels.
// Every value is uniform in [-limit, limit]. Draw order is fixed, so a seeded source reproduces the profile.
func Generate(src rand.Source, channels int, limits Limits, flags Flags) types.MismatchProfile {
	profile := types.NewMismatchProfile(channels)
	unit := distuv.Uniform{Min: -1, Max: 1, Src: src}

	if flags.AddOffset {
		profile.InputOffset = limits.InputOffset * unit.Rand()
		profile.AmplifierOffset = limits.AmplifierOffset * unit.Rand()

		for i := range profile.FilterOffsets {
			profile.FilterOffsets[i] = limits.FilterOffset * unit.Rand()
		}
	}

	if flags.AddMismatch {
		for i := range profile.QMismatch {
			profile.QMismatch[i] = limits.QMismatch * unit.Rand()
		}

		for i := range profile.FcMismatch {
			profile.FcMismatch[i] = limits.FcMismatch * unit.Rand()
		}

		profile.FcShift = limits.FcShift * unit.Rand()
	}

	return profile
}

// Apply recomputes the actual centre frequencies, quality factors and bandwidths of bank from profile.
// The common shift is a distinct process-wide drift and multiplies the already mismatched frequencies.
func Apply(bank *types.ChannelBank, profile types.MismatchProfile) {
	size := bank.Size()
	fcs := make([]float64, size)
	qs := make([]float64, size)
	bws := make([]float64, size)

	for i, design := range bank.DesignFcs {
		fcs[i] = design * (1 + profile.FcMismatch[i])
	}

	for i := range fcs {
		fcs[i] *= 1 + profile.FcShift
	}

	for i := range qs {
		qs[i] = bank.Q * (1 + profile.QMismatch[i])
		bws[i] = fcs[i] / qs[i]
	}

	bank.Fcs, bank.Qs, bank.Bws = fcs, qs, bws
}
