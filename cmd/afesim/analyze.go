//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"gonum.org/v1/gonum/mat"

	"github.com/farcloser/afesim"
)

var (
	errInvalidArgCount = errors.New("expected exactly one argument: file path or \"-\" for stdin")
	errInvalidBitDepth = errors.New("must be 16, 24, or 32")
)

func analyzeCommand() *cli.Command {
	flags := append([]cli.Flag{
		&cli.IntFlag{
			Name:    "sample-rate",
			Aliases: []string{"s"},
			Usage:   "Sample rate of the raw PCM in Hz; it is simulated at this rate",
			Value:   defaultSampleRate,
		},
		&cli.IntFlag{
			Name:    "bit-depth",
			Aliases: []string{"b"},
			Usage:   "Bit depth (16, 24, or 32)",
			Value:   32,
		},
		&cli.IntFlag{
			Name:    "channels",
			Aliases: []string{"c"},
			Usage:   "Number of channels; the front-end has a single microphone, so only 1 is simulated",
			Value:   1,
		},
	}, simulationFlags()...)

	return &cli.Command{
		Name:      "analyze",
		Usage:     "Simulate raw little-endian PCM audio through the front-end",
		ArgsUsage: "<file | ->",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
			}

			bitDepth := cmd.Int("bit-depth")
			if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
				return fmt.Errorf("--bit-depth: %w", errInvalidBitDepth)
			}

			sampleRate := cmd.Int("sample-rate")

			opts, err := simulationOptions(cmd, sampleRate)
			if err != nil {
				return err
			}

			sim, err := afesim.New(opts)
			if err != nil {
				return err
			}

			inputPath := cmd.Args().First()

			reader, cleanup, err := openInput(inputPath)
			if err != nil {
				return err
			}
			defer cleanup()

			signal, err := afesim.DecodePCM(reader, bitDepth, cmd.Int("channels"), cmd.Float("full-scale"))
			if err != nil {
				return fmt.Errorf("reading PCM: %w", err)
			}

			if _, cols := signal.Dims(); cols > 1 {
				return fmt.Errorf("%w: %d channels, the front-end has a single microphone", afesim.ErrInvalidInput, cols)
			}

			summary, err := sim.Simulate(ctx, mat.Col(nil, 0, signal), chunkSamples(cmd, sampleRate))
			if err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}

			return outputResult(inputPath, summary, opts.MaxSpikesPerPeriod, cmd.String("format"), cmd.Bool("debug"))
		},
	}
}

// openInput returns stdin for "-", or the opened file.
func openInput(source string) (io.Reader, func(), error) {
	if source == "-" {
		return os.Stdin, func() {}, nil
	}

	file, err := os.Open(source) //nolint:gosec // CLI tool opens user-specified audio files
	if err != nil {
		return nil, func() {}, fmt.Errorf("cannot access %s: %w", source, err)
	}

	return file, func() { _ = file.Close() }, nil
}
