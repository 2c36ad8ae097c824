// Package bench provides benchmarking primitives for the kokorotts bench command.
package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/example/go-kokoro-tts/internal/audio"
	"github.com/example/go-kokoro-tts/internal/tts"
)

// Synthesizer is the subset of *tts.Service the bench loop drives.
type Synthesizer interface {
	Synthesize(ctx context.Context, req tts.Request) (*audio.Buffer, error)
}

// ---------------------------------------------------------------------------
// Run loop
// ---------------------------------------------------------------------------

// Options controls a bench session.
type Options struct {
	Runs   int
	Warmup int
	// OnRun is called after every measured run.
	OnRun func(RunResult)
}

// Run performs opts.Warmup unmeasured syntheses followed by opts.Runs
// measured ones. The first measured run is marked cold when there is no
// warmup.
func Run(ctx context.Context, synth Synthesizer, req tts.Request, opts Options) ([]RunResult, error) {
	if opts.Runs < 1 {
		return nil, fmt.Errorf("runs must be >= 1, got %d", opts.Runs)
	}

	for i := range opts.Warmup {
		if _, err := synth.Synthesize(ctx, req); err != nil {
			return nil, fmt.Errorf("warmup %d: %w", i+1, err)
		}
	}

	results := make([]RunResult, 0, opts.Runs)
	for i := range opts.Runs {
		start := time.Now()
		buf, err := synth.Synthesize(ctx, req)
		elapsed := time.Since(start)
		if err != nil {
			return results, fmt.Errorf("run %d: %w", i+1, err)
		}

		audioDur := buf.Duration()
		r := RunResult{
			Index:       i,
			Cold:        i == 0 && opts.Warmup == 0,
			Duration:    elapsed,
			WAVDuration: audioDur,
			Samples:     len(buf.Samples),
			RTF:         CalcRTF(elapsed, audioDur),
		}
		results = append(results, r)
		if opts.OnRun != nil {
			opts.OnRun(r)
		}
	}
	return results, nil
}

// ---------------------------------------------------------------------------
// Run result and stats
// ---------------------------------------------------------------------------

// RunResult holds the timing and audio metadata for a single synthesis run.
type RunResult struct {
	Index       int
	Cold        bool // true for the first run when no warmup was done
	Duration    time.Duration
	WAVDuration time.Duration
	Samples     int
	RTF         float64
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Mean    time.Duration
	P95     time.Duration
	MeanRTF float64
}

// ComputeStats calculates min, max, mean and the nearest-rank 95th
// percentile over a slice of durations.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	sorted := slices.Clone(durations)
	slices.Sort(sorted)

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}

	rank := (95*len(sorted) + 99) / 100
	return Stats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: sum / time.Duration(len(sorted)),
		P95:  sorted[rank-1],
	}
}

// Summarize computes Stats over runs, including the mean RTF.
func Summarize(runs []RunResult) Stats {
	durations := make([]time.Duration, len(runs))
	var rtf float64
	for i, r := range runs {
		durations[i] = r.Duration
		rtf += r.RTF
	}
	s := ComputeStats(durations)
	if len(runs) > 0 {
		s.MeanRTF = rtf / float64(len(runs))
	}
	return s
}

// ---------------------------------------------------------------------------
// RTF helpers
// ---------------------------------------------------------------------------

// CalcRTF returns synthesis_duration / audio_duration.
// Returns 0 if audioDur is zero to avoid division by zero.
func CalcRTF(synthDur, audioDur time.Duration) float64 {
	if audioDur <= 0 {
		return 0
	}
	return float64(synthDur) / float64(audioDur)
}

// ---------------------------------------------------------------------------
// RTF threshold gate
// ---------------------------------------------------------------------------

// CheckRTFThreshold returns an error if meanRTF > threshold.
// A threshold of 0 disables the gate.
func CheckRTFThreshold(meanRTF, threshold float64) error {
	if threshold <= 0 {
		return nil
	}
	if meanRTF > threshold {
		return fmt.Errorf("mean RTF %.3f exceeds threshold %.3f", meanRTF, threshold)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %12s  %8s\n", "Run", "Cold", "MS", "Audio(ms)", "RTF")
	fmt.Fprintln(sb, strings.Repeat("-", 48))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-5d  %-5s  %10.1f  %12.1f  %8.3f\n",
			r.Index+1,
			cold,
			float64(r.Duration.Milliseconds()),
			float64(r.WAVDuration.Milliseconds()),
			r.RTF,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 48))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  %12s  %8s  (min)\n", "", "", float64(stats.Min.Milliseconds()), "", "")
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  %12s  %8.3f  (mean)\n", "", "", float64(stats.Mean.Milliseconds()), "", stats.MeanRTF)
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  %12s  %8s  (p95)\n", "", "", float64(stats.P95.Milliseconds()), "", "")
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  %12s  %8s  (max)\n", "", "", float64(stats.Max.Milliseconds()), "", "")

	fmt.Fprint(w, sb.String())
}

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index      int     `json:"index"`
	Cold       bool    `json:"cold"`
	DurationMS float64 `json:"duration_ms"`
	AudioMS    float64 `json:"audio_ms"`
	Samples    int     `json:"samples"`
	RTF        float64 `json:"rtf"`
}

type jsonStats struct {
	MinMS   float64 `json:"min_ms"`
	MeanMS  float64 `json:"mean_ms"`
	P95MS   float64 `json:"p95_ms"`
	MaxMS   float64 `json:"max_ms"`
	MeanRTF float64 `json:"mean_rtf"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinMS:   float64(stats.Min.Milliseconds()),
			MeanMS:  float64(stats.Mean.Milliseconds()),
			P95MS:   float64(stats.P95.Milliseconds()),
			MaxMS:   float64(stats.Max.Milliseconds()),
			MeanRTF: stats.MeanRTF,
		},
	}
	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:      r.Index,
			Cold:       r.Cold,
			DurationMS: float64(r.Duration.Milliseconds()),
			AudioMS:    float64(r.WAVDuration.Milliseconds()),
			Samples:    r.Samples,
			RTF:        r.RTF,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(jr)
}
