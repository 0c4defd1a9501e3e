//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/afesim"
	"github.com/farcloser/afesim/internal/audio"
)

var errProcessArgs = errors.New("expected exactly one argument: file path")

func processCommand() *cli.Command {
	flags := append([]cli.Flag{
		&cli.IntFlag{
			Name:    "sample-rate",
			Aliases: []string{"s"},
			Usage:   "Simulation sampling rate in Hz; the file is resampled to it",
			Value:   defaultSampleRate,
		},
	}, simulationFlags()...)

	return &cli.Command{
		Name:      "process",
		Usage:     "Decode an audio file with ffmpeg and simulate it through the front-end",
		ArgsUsage: "<file>",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errProcessArgs, cmd.NArg())
			}

			filePath := cmd.Args().First()
			sampleRate := cmd.Int("sample-rate")

			opts, err := simulationOptions(cmd, sampleRate)
			if err != nil {
				return err
			}

			// Fail on configuration before spending time decoding.
			sim, err := afesim.New(opts)
			if err != nil {
				return err
			}

			samples, _, err := audio.Load(ctx, filePath, sampleRate, cmd.Float("full-scale"))
			if err != nil {
				return err
			}

			summary, err := sim.Simulate(ctx, samples, chunkSamples(cmd, sampleRate))
			if err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}

			return outputResult(filePath, summary, opts.MaxSpikesPerPeriod, cmd.String("format"), cmd.Bool("debug"))
		},
	}
}
