package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/urfave/cli/v3"
	"gonum.org/v1/gonum/stat"
)

var errDigestArgs = errors.New("expected exactly one argument: path to report.jsonl")

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Produce per-channel statistics from an afesim JSONL report",
		ArgsUsage: "<report.jsonl>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "channel",
				Usage: "List every record for one channel (0-15), busiest first",
				Value: -1,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errDigestArgs
			}

			return runDigest(cmd.Args().First(), cmd.Int("channel"))
		},
	}
}

func runDigest(reportPath string, channel int) error {
	file, err := os.Open(reportPath) //nolint:gosec // CLI tool opens user-specified report files
	if err != nil {
		return fmt.Errorf("opening report: %w", err)
	}
	defer file.Close()

	records, err := readRecords(file)
	if err != nil {
		return err
	}

	printDigest(os.Stdout, records)

	if channel >= 0 {
		printChannelDetail(os.Stdout, records, channel)
	}

	return nil
}

func readRecords(reader io.Reader) ([]digestRecord, error) {
	var records []digestRecord

	scanner := bufio.NewScanner(reader)

	const maxLineSize = 1024 * 1024 // 1MB
	scanner.Buffer(make([]byte, 0, maxLineSize), maxLineSize)

	for scanner.Scan() {
		var rec digestRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			records = append(records, digestRecord{Error: "parse error"})

			continue
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}

	return records, nil
}

// breakdown computes per-channel statistics over the successful records.
func breakdown(records []digestRecord) []channelBreakdown {
	fcs := map[int][]float64{}
	rates := map[int][]float64{}
	saturations := map[int][]float64{}

	for _, rec := range records {
		if rec.Error != "" || rec.Simulation == nil {
			continue
		}

		periods := float64(rec.Simulation.Summary.Periods)

		for _, ch := range rec.Simulation.Channels {
			fcs[ch.Channel] = append(fcs[ch.Channel], ch.Fc)
			rates[ch.Channel] = append(rates[ch.Channel], ch.Rate)

			saturation := 0.0
			if periods > 0 {
				saturation = float64(ch.Saturated) / periods
			}

			saturations[ch.Channel] = append(saturations[ch.Channel], saturation)
		}
	}

	out := make([]channelBreakdown, 0, len(rates))

	for channel, values := range rates {
		bd := channelBreakdown{Channel: channel}
		bd.MeanFc, bd.StdFc = meanStd(fcs[channel])
		bd.MeanRate, bd.StdRate = meanStd(values)
		bd.MeanSaturation = stat.Mean(saturations[channel], nil)
		out = append(out, bd)
	}

	slices.SortFunc(out, func(a, b channelBreakdown) int {
		return a.Channel - b.Channel
	})

	return out
}

// meanStd is stat.MeanStdDev with a zero deviation for a single value.
func meanStd(values []float64) (float64, float64) {
	mean, std := stat.MeanStdDev(values, nil)
	if math.IsNaN(std) {
		std = 0
	}

	return mean, std
}

func printDigest(w io.Writer, records []digestRecord) {
	total := len(records)
	failed := 0
	files := map[string]struct{}{}

	var events []float64

	for _, rec := range records {
		if rec.Error != "" || rec.Simulation == nil {
			failed++

			continue
		}

		files[rec.File] = struct{}{}

		if duration := rec.Simulation.Summary.Duration; duration > 0 {
			events = append(events, float64(rec.Simulation.Summary.TotalEvents)/duration)
		}
	}

	fmt.Fprintln(w, "=== afesim Report Digest ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Records:     %d\n", total)
	fmt.Fprintf(w, "Failed:      %d\n", failed)
	fmt.Fprintf(w, "Simulated:   %d\n", total-failed)
	fmt.Fprintf(w, "Files:       %d\n", len(files))

	if len(events) > 0 {
		mean, std := meanStd(events)
		fmt.Fprintf(w, "Chip rate:   %.1f ± %.1f events/s\n", mean, std)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "--- Channels (across records) ---")

	for _, bd := range breakdown(records) {
		fmt.Fprintf(w, "  %02d  fc %7.1f ± %5.1f Hz  rate %8.1f ± %7.1f ev/s  saturated %5.1f%%\n",
			bd.Channel, bd.MeanFc, bd.StdFc, bd.MeanRate, bd.StdRate, bd.MeanSaturation*100)
	}
}

func printChannelDetail(w io.Writer, records []digestRecord, channel int) {
	type entry struct {
		file     string
		instance int
		ch       digestChannel
	}

	var entries []entry

	for _, rec := range records {
		if rec.Error != "" || rec.Simulation == nil {
			continue
		}

		for _, ch := range rec.Simulation.Channels {
			if ch.Channel != channel {
				continue
			}

			file := rec.File
			if file == "" {
				file = "(redacted)"
			}

			entries = append(entries, entry{file: file, instance: rec.Instance, ch: ch})
		}
	}

	fmt.Fprintln(w)

	if len(entries) == 0 {
		fmt.Fprintf(w, "No record for channel %d\n", channel)

		return
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		switch {
		case a.ch.Rate > b.ch.Rate:
			return -1
		case a.ch.Rate < b.ch.Rate:
			return 1
		default:
			return 0
		}
	})

	fmt.Fprintf(w, "=== channel %d: %d records ===\n\n", channel, len(entries))

	for _, e := range entries {
		fmt.Fprintf(w, "  %s (instance %d)\n", e.file, e.instance)
		fmt.Fprintf(w, "    fc: %.1f Hz  rate: %.1f ev/s  mean count: %.2f  saturated periods: %d\n",
			e.ch.Fc, e.ch.Rate, e.ch.MeanCount, e.ch.Saturated)
	}
}
