package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/example/go-kokoro-tts/internal/audio"
	"github.com/example/go-kokoro-tts/internal/config"
	"github.com/example/go-kokoro-tts/internal/tts"
)

// fakeSynth stands in for *tts.Service in command tests.
type fakeSynth struct {
	samples []float32
	err     error
	chunks  []tts.ChunkEvent
	voices  []string
	reqs    []tts.Request
	closed  bool
}

func (f *fakeSynth) Synthesize(_ context.Context, req tts.Request) (*audio.Buffer, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	if req.OnChunk != nil {
		for _, ev := range f.chunks {
			req.OnChunk(ev)
		}
	}
	return &audio.Buffer{Samples: f.samples, SampleRate: audio.SampleRate}, nil
}

func (f *fakeSynth) Voices() []string { return f.voices }

func (f *fakeSynth) Close() error {
	f.closed = true
	return nil
}

// useFakeSynth swaps newSynthesizer for the duration of the test.
func useFakeSynth(t *testing.T, f *fakeSynth) *config.Config {
	t.Helper()

	var seen config.Config
	orig := newSynthesizer
	t.Cleanup(func() { newSynthesizer = orig })

	newSynthesizer = func(cfg config.Config) (synthesizer, error) {
		seen = cfg
		return f, nil
	}
	return &seen
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()

	// Keep the test isolated from any kokorotts.yaml in the working tree.
	t.Chdir(t.TempDir())

	origStdin := stdin
	t.Cleanup(func() { stdin = origStdin })
	stdin = strings.NewReader(input)

	origLogger := slog.Default()
	t.Cleanup(func() { slog.SetDefault(origLogger) })

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(io.NopCloser(strings.NewReader(input)))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
