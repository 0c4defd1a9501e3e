package afesim

import "errors"

var (
	// ErrConfiguration is returned by New when the options cannot describe a working chip, most notably when the
	// sampling rate is too low for the highest channel.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrInvalidInput is returned when the input signal is empty or not one-dimensional.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidState is returned when an encoder state does not have one finite value per channel.
	ErrInvalidState = errors.New("invalid encoder state")
)
