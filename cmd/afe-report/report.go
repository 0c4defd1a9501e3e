//nolint:wrapcheck
package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/farcloser/afesim"
	"github.com/farcloser/afesim/internal/audio"
	"github.com/farcloser/afesim/internal/output"
)

const outputFile = "afesim-report.jsonl"

var (
	errReportArgs   = errors.New("expected exactly one argument: folder path")
	errNotDirectory = errors.New("not a directory")
	errNoAudioFiles = errors.New("no .flac, .m4a, .wav or .mp3 files found")
)

//nolint:gochecknoglobals // configuration data, effectively const
var audioExtensions = []string{".flac", ".m4a", ".wav", ".mp3"}

// reportConfig holds the flags of the report command.
type reportConfig struct {
	redact     bool
	workers    int
	instances  int
	seed       uint64
	sampleRate int
	chunk      float64
	fullScale  float64
	gain       afesim.Gain
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Simulate every audio file of a folder on several chip instances and write a JSONL report",
		ArgsUsage: "<folder>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "redact-path",
				Usage: "Strip file paths from the report",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of files processed concurrently",
				Value:   runtime.NumCPU(),
			},
			&cli.IntFlag{
				Name:    "instances",
				Aliases: []string{"n"},
				Usage:   "Number of chip instances (mismatch draws) per file",
				Value:   4,
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Seed of the first instance; instance i uses seed+i",
			},
			&cli.IntFlag{
				Name:    "sample-rate",
				Aliases: []string{"s"},
				Usage:   "Simulation sampling rate in Hz",
				Value:   110000,
			},
			&cli.FloatFlag{
				Name:  "chunk",
				Usage: "Simulation chunk length in seconds",
				Value: 1,
			},
			&cli.FloatFlag{
				Name:  "full-scale",
				Usage: "Voltage of a digital full-scale sample at the microphone output",
				Value: 0.112,
			},
			&cli.StringFlag{
				Name:    "gain",
				Aliases: []string{"g"},
				Usage:   "Low-noise amplifier gain in dB: 0, 6, 12",
				Value:   "0",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errReportArgs
			}

			gain, err := afesim.ParseGain(cmd.String("gain"))
			if err != nil {
				return err
			}

			config := reportConfig{
				redact:     cmd.Bool("redact-path"),
				workers:    max(cmd.Int("workers"), 1),
				instances:  max(cmd.Int("instances"), 1),
				seed:       cmd.Uint64("seed"),
				sampleRate: cmd.Int("sample-rate"),
				chunk:      cmd.Float("chunk"),
				fullScale:  cmd.Float("full-scale"),
				gain:       gain,
			}

			return runReport(ctx, cmd.Args().First(), config)
		},
	}
}

func (c reportConfig) options(instance int) afesim.Options {
	opts := afesim.OptionsForRate(float64(c.sampleRate))
	opts.Seed = c.seed + uint64(instance) //nolint:gosec // instance is a small positive index
	opts.AmplifierGain = c.gain

	return opts
}

func runReport(ctx context.Context, folder string, config reportConfig) error {
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%q: %w", folder, errNotDirectory)
	}

	// Fail on configuration before decoding anything.
	if _, err = afesim.New(config.options(0)); err != nil {
		return err
	}

	files, err := collectAudioFiles(folder)
	if err != nil {
		return fmt.Errorf("scanning folder: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("%q: %w", folder, errNoAudioFiles)
	}

	fmt.Fprintf(os.Stderr, "Found %d files, %d instances each (%d workers)\n", len(files), config.instances, config.workers)

	startTime := time.Now()
	results := make([][]Record, len(files))
	progress := newProgress(len(files))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(config.workers)

	for idx, filePath := range files {
		group.Go(func() error {
			results[idx] = processFile(groupCtx, filePath, config)
			progress.step(filePath)

			return nil
		})
	}

	_ = group.Wait()

	progress.finish()

	// Write results in file order.
	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	failed := 0

	var totalDecode, totalSimulate time.Duration

	for idx, records := range results {
		for i := range records {
			record := &records[i]

			if record.Error != "" {
				failed++
			}

			if record.Timing != nil {
				if record.Instance == 0 {
					totalDecode += millisToDuration(record.Timing.DecodeMs)
				}

				totalSimulate += millisToDuration(record.Timing.SimulateMs)
			}

			if config.redact {
				record.File = ""
			}

			if err := enc.Encode(record); err != nil {
				slog.Error("writing record", "file", files[idx], "error", err)
			}
		}
	}

	out.Close()

	if err := compressFile(outputFile); err != nil {
		slog.Error("compressing report", "error", err)
	}

	elapsed := time.Since(startTime)
	total := len(files) * config.instances

	fmt.Fprintf(os.Stderr, "\nDone: %d records in %s (%d failed)\n", total, elapsed.Truncate(time.Second), failed)
	fmt.Fprintf(os.Stderr, "Report written to %s (and %s.gz)\n", outputFile, outputFile)

	fmt.Fprintf(os.Stderr, "\n--- Timing ---\n")
	fmt.Fprintf(os.Stderr, "  Wall clock:  %s\n", elapsed.Truncate(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  decoding:    %s (cumulative)\n", totalDecode.Truncate(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  simulation:  %s (cumulative)\n", totalSimulate.Truncate(time.Millisecond))

	if simulated := total - failed; simulated > 0 {
		fmt.Fprintf(os.Stderr, "  avg/record:  %s\n", totalSimulate/time.Duration(simulated))
	}

	fmt.Fprintln(os.Stderr)

	return runDigest(outputFile, -1)
}

// processFile decodes filePath once and simulates it on every instance.
func processFile(ctx context.Context, filePath string, config reportConfig) []Record {
	records := make([]Record, config.instances)

	decodeStart := time.Now()
	samples, source, err := audio.Load(ctx, filePath, config.sampleRate, config.fullScale)
	timing := RecordTiming{DecodeMs: durationMs(time.Since(decodeStart))}

	for instance := range records {
		opts := config.options(instance)
		record := Record{File: filePath, Instance: instance, Seed: opts.Seed}

		if err != nil {
			record.Error = fmt.Sprintf("decoding failed: %v", err)
			records[instance] = record

			continue
		}

		record.Source = &RecordSource{Codec: source.Codec, SampleRate: source.SampleRate, Channels: source.Channels}
		record.Simulation, record.Timing, record.Error = simulate(ctx, samples, opts, config, timing)
		records[instance] = record
	}

	return records
}

func simulate(
	ctx context.Context,
	samples []float64,
	opts afesim.Options,
	config reportConfig,
	timing RecordTiming,
) (map[string]any, *RecordTiming, string) {
	start := time.Now()

	sim, err := afesim.New(opts)
	if err != nil {
		return nil, nil, fmt.Sprintf("configuration: %v", err)
	}

	chunk := int(math.Round(config.chunk * float64(config.sampleRate)))

	summary, err := sim.Simulate(ctx, samples, chunk)

	timing.SimulateMs = durationMs(time.Since(start))

	if err != nil {
		return nil, &timing, fmt.Sprintf("simulation failed: %v", err)
	}

	return output.SummaryToMap(summary, opts.MaxSpikesPerPeriod), &timing, ""
}

// progress reports completed files on stderr, on a single updated line when stderr is a terminal.
type progress struct {
	total       int
	done        atomic.Int64
	interactive bool
}

func newProgress(total int) *progress {
	return &progress{
		total:       total,
		interactive: term.IsTerminal(int(os.Stderr.Fd())), //nolint:gosec // file descriptors fit in an int
	}
}

func (p *progress) step(filePath string) {
	done := p.done.Add(1)

	if p.interactive {
		fmt.Fprintf(os.Stderr, "\r\033[K[%d/%d] %s", done, p.total, filepath.Base(filePath))

		return
	}

	fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", done, p.total, filePath)
}

func (p *progress) finish() {
	if p.interactive {
		fmt.Fprintln(os.Stderr)
	}
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func millisToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func collectAudioFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if slices.Contains(audioExtensions, strings.ToLower(filepath.Ext(path))) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)

	return files, nil
}

func compressFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // reading our own output file
	if err != nil {
		return err
	}

	gzFile, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer gzFile.Close()

	gzWriter := gzip.NewWriter(gzFile)

	if _, err := gzWriter.Write(data); err != nil {
		return err
	}

	return gzWriter.Close()
}
