package main

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/afesim"
)

const defaultSampleRate = 110000

// simulationFlags are shared by process and analyze.
func simulationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Uint64Flag{
			Name:  "seed",
			Usage: "Seed of the simulated chip (mismatch and noise)",
			Value: 0,
		},
		&cli.StringFlag{
			Name:    "gain",
			Aliases: []string{"g"},
			Usage:   "Low-noise amplifier gain in dB: 0, 6, 12",
			Value:   "0",
		},
		&cli.BoolFlag{
			Name:  "no-noise",
			Usage: "Disable amplifier, band-pass and rectifier noise",
		},
		&cli.BoolFlag{
			Name:  "no-offset",
			Usage: "Disable input, amplifier and band-pass offsets",
		},
		&cli.BoolFlag{
			Name:  "no-mismatch",
			Usage: "Disable centre frequency and Q mismatch",
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "Goroutines used by the filter bank",
			Value:   1,
		},
		&cli.FloatFlag{
			Name:  "raster-period",
			Usage: "Readout period in seconds",
			Value: 0.01,
		},
		&cli.IntFlag{
			Name:  "max-spikes",
			Usage: "Saturation of each rastered count",
			Value: 15,
		},
		&cli.FloatFlag{
			Name:  "chunk",
			Usage: "Simulation chunk length in seconds (encoder state is carried between chunks)",
			Value: 1,
		},
		&cli.FloatFlag{
			Name:  "full-scale",
			Usage: "Voltage of a digital full-scale sample at the microphone output",
			Value: 0.112,
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: console, json, markdown",
			Value:   "console",
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"D"},
			Usage:   "Include chip parameters and per-channel raw data in output, and log debug messages",
		},
	}
}

// simulationOptions builds simulator options from the shared flags at the given sampling rate.
func simulationOptions(cmd *cli.Command, sampleRate int) (afesim.Options, error) {
	gain, err := afesim.ParseGain(cmd.String("gain"))
	if err != nil {
		return afesim.Options{}, fmt.Errorf("--gain: %w", err)
	}

	if cmd.Bool("debug") {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	opts := afesim.OptionsForRate(float64(sampleRate))
	opts.Seed = cmd.Uint64("seed")
	opts.AmplifierGain = gain
	opts.AddNoise = !cmd.Bool("no-noise")
	opts.AddOffset = !cmd.Bool("no-offset")
	opts.AddMismatch = !cmd.Bool("no-mismatch")
	opts.Workers = cmd.Int("workers")
	opts.RasterPeriod = cmd.Float("raster-period")
	opts.MaxSpikesPerPeriod = cmd.Int("max-spikes")

	return opts, nil
}

// chunkSamples converts the --chunk duration to samples.
func chunkSamples(cmd *cli.Command, sampleRate int) int {
	return int(math.Round(cmd.Float("chunk") * float64(sampleRate)))
}
