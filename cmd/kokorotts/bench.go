package main

import (
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-kokoro-tts/internal/bench"
	"github.com/example/go-kokoro-tts/internal/tts"
)

func newBenchCmd() *cobra.Command {
	var (
		text         string
		runs         int
		warmup       int
		format       string
		rtfThreshold float64
		cpuprofile   string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark synthesis latency and realtime factor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("--text is required for bench")
			}
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if warmup < 0 {
				return fmt.Errorf("--warmup must be >= 0")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			svc, err := newSynthesizer(cfg)
			if err != nil {
				return mapSynthError(err)
			}
			defer func() { _ = svc.Close() }()

			if cpuprofile != "" {
				f, err := os.Create(cpuprofile)
				if err != nil {
					return fmt.Errorf("create cpu profile: %w", err)
				}
				defer f.Close()
				if err := pprof.StartCPUProfile(f); err != nil {
					return fmt.Errorf("start cpu profile: %w", err)
				}
				defer pprof.StopCPUProfile()
			}

			results, err := bench.Run(cmd.Context(), svc, tts.Request{
				Text:     text,
				Voice:    cfg.TTS.Voice,
				Speed:    cfg.TTS.Speed,
				Language: cfg.TTS.Language,
			}, bench.Options{Runs: runs, Warmup: warmup})
			if err != nil {
				return mapSynthError(err)
			}

			stats := bench.Summarize(results)

			switch format {
			case "json":
				bench.FormatJSON(results, stats, cmd.OutOrStdout())
			default:
				bench.FormatTable(results, stats, cmd.OutOrStdout())
			}

			return bench.CheckRTFThreshold(stats.MeanRTF, rtfThreshold)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to synthesize for each run (required)")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of measured synthesis runs")
	cmd.Flags().IntVar(&warmup, "warmup", 0, "Unmeasured warmup runs before measuring")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&rtfThreshold, "rtf-threshold", 0, "Exit non-zero if mean RTF exceeds this value (0 = disabled)")
	cmd.Flags().StringVar(&cpuprofile, "cpuprofile", "", "Write a CPU profile of the measured runs to this file")

	return cmd
}
