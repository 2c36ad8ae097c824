package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/go-kokoro-tts/internal/audio"
	"github.com/example/go-kokoro-tts/internal/errs"
	"github.com/example/go-kokoro-tts/internal/testutil"
	"github.com/example/go-kokoro-tts/internal/tts"
)

func TestReadSynthText(t *testing.T) {
	t.Run("uses flag text", func(t *testing.T) {
		got, err := readSynthText("hello", strings.NewReader("ignored"))
		if err != nil {
			t.Fatalf("readSynthText returned error: %v", err)
		}
		if got != "hello" {
			t.Fatalf("expected hello, got %q", got)
		}
	})

	t.Run("falls back to stdin", func(t *testing.T) {
		got, err := readSynthText("", strings.NewReader(" from stdin \n"))
		if err != nil {
			t.Fatalf("readSynthText returned error: %v", err)
		}
		if got != "from stdin" {
			t.Fatalf("expected trimmed stdin text, got %q", got)
		}
	})

	t.Run("fails when both empty", func(t *testing.T) {
		_, err := readSynthText("", strings.NewReader("   \n\t"))
		if err == nil {
			t.Fatal("expected error for empty input")
		}
	})
}

func TestWriteSynthOutput(t *testing.T) {
	buf := &audio.Buffer{Samples: []float32{0, 0.25, -0.25}, SampleRate: audio.SampleRate}

	t.Run("stdout", func(t *testing.T) {
		var out bytes.Buffer
		n, err := writeSynthOutput("-", buf, &out)
		if err != nil {
			t.Fatalf("writeSynthOutput: %v", err)
		}
		if n != out.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, out.Len())
		}
		got, err := audio.DecodeWAV(out.Bytes())
		if err != nil {
			t.Fatalf("DecodeWAV: %v", err)
		}
		if len(got.Samples) != 3 {
			t.Errorf("want 3 samples, got %d", len(got.Samples))
		}
	})

	t.Run("nil stdout", func(t *testing.T) {
		if _, err := writeSynthOutput("-", buf, nil); err == nil {
			t.Fatal("expected error for nil stdout")
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.wav")
		n, err := writeSynthOutput(path, buf, nil)
		if err != nil {
			t.Fatalf("writeSynthOutput: %v", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat output: %v", err)
		}
		if info.Size() != int64(n) {
			t.Errorf("file has %d bytes, reported %d", info.Size(), n)
		}
	})

	t.Run("unwritable path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "out.wav")
		if _, err := writeSynthOutput(path, buf, nil); err == nil {
			t.Fatal("expected error for missing directory")
		}
	})
}

func TestPrintSynthSummary(t *testing.T) {
	buf := &audio.Buffer{Samples: make([]float32, audio.SampleRate), SampleRate: audio.SampleRate}

	var out bytes.Buffer
	printSynthSummary(&out, "-", buf, 96044, 250*time.Millisecond)

	for _, want := range []string{"stdout", "1s audio", "96 kB", "250ms"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary missing %q: %s", want, out.String())
		}
	}
}

func TestMapSynthError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		hint string
	}{
		{"espeak missing", errs.E(errs.KindToolNotFound, "espeak", "espeak-ng", nil), "--espeak-path"},
		{"unknown voice", errs.E(errs.KindUnknownVoice, "voice.get", "zz", nil), "kokorotts voices"},
		{"voices path", errs.E(errs.KindVoiceLoadFailed, "voice.load", "x", nil), "--voices"},
		{"model", errs.E(errs.KindModelLoadFailed, "onnx.load", "x", nil), "kokorotts doctor"},
		{"empty", errs.E(errs.KindEmptyTokenization, "tts.synthesize", "", nil), "no speakable phonemes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapSynthError(tt.err)
			if !strings.Contains(got.Error(), tt.hint) {
				t.Errorf("mapped error %q missing hint %q", got, tt.hint)
			}
			if !errors.Is(got, tt.err) {
				t.Error("mapped error should wrap the original")
			}
		})
	}

	plain := errors.New("plain")
	if got := mapSynthError(plain); got != plain {
		t.Errorf("unclassified errors pass through unchanged, got %v", got)
	}
}

func TestSynthCommand_WritesFile(t *testing.T) {
	f := &fakeSynth{samples: []float32{0.1, 0.2, 0.3, 0.4}}
	seen := useFakeSynth(t, f)

	out := filepath.Join(t.TempDir(), "hello.wav")
	_, stderr, err := runCLI(t, "", "synth", "--text", "Hello there.", "--out", out, "--voice", "am_adam", "--speed", "1.25", "--lang", "en-gb")
	if err != nil {
		t.Fatalf("synth: %v", err)
	}

	if len(f.reqs) != 1 {
		t.Fatalf("want 1 synthesis, got %d", len(f.reqs))
	}
	req := f.reqs[0]
	if req.Text != "Hello there." || req.Voice != "am_adam" || req.Speed != 1.25 || req.Language != "en-gb" {
		t.Errorf("unexpected request: %+v", req)
	}
	if req.OnChunk != nil {
		t.Error("OnChunk should be nil without --progress")
	}
	if seen.TTS.Voice != "am_adam" {
		t.Errorf("service built with voice %q", seen.TTS.Voice)
	}
	if !f.closed {
		t.Error("service should be closed")
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	testutil.AssertValidWAV(t, data)
	testutil.AssertWAVDurationApprox(t, data, 0, 0.001)

	got, err := audio.DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if len(got.Samples) != 4 {
		t.Errorf("want 4 samples, got %d", len(got.Samples))
	}

	if !strings.Contains(stderr, "wrote "+out) {
		t.Errorf("stderr should summarise the output: %q", stderr)
	}
}

func TestSynthCommand_StdinToStdout(t *testing.T) {
	f := &fakeSynth{samples: []float32{0.5}}
	useFakeSynth(t, f)

	stdout, _, err := runCLI(t, "piped text\n", "synth", "--out", "-")
	if err != nil {
		t.Fatalf("synth: %v", err)
	}

	if f.reqs[0].Text != "piped text" {
		t.Errorf("want stdin text, got %q", f.reqs[0].Text)
	}
	if !strings.HasPrefix(stdout, "RIFF") {
		t.Errorf("stdout should carry the WAV, got %q", stdout[:min(len(stdout), 8)])
	}
}

func TestSynthCommand_ProgressLogsChunks(t *testing.T) {
	f := &fakeSynth{
		samples: []float32{0},
		chunks: []tts.ChunkEvent{
			{Index: 0, Tokens: 300, Samples: 1000},
			{Index: 1, Tokens: 120, Samples: 400},
		},
	}
	useFakeSynth(t, f)

	out := filepath.Join(t.TempDir(), "p.wav")
	_, stderr, err := runCLI(t, "", "synth", "--text", "x", "--out", out, "--progress")
	if err != nil {
		t.Fatalf("synth: %v", err)
	}

	if got := strings.Count(stderr, "chunk synthesized"); got != 2 {
		t.Errorf("want 2 chunk log lines, got %d:\n%s", got, stderr)
	}
}

func TestSynthCommand_MapsErrors(t *testing.T) {
	useFakeSynth(t, &fakeSynth{err: errs.E(errs.KindUnknownVoice, "voice.get", `"zz"`, nil)})

	_, _, err := runCLI(t, "", "synth", "--text", "x", "--out", filepath.Join(t.TempDir(), "o.wav"))
	if err == nil || !strings.Contains(err.Error(), "kokorotts voices") {
		t.Fatalf("want mapped unknown-voice error, got %v", err)
	}
}

func TestSynthCommand_EmptyInput(t *testing.T) {
	useFakeSynth(t, &fakeSynth{})

	if _, _, err := runCLI(t, "  ", "synth"); err == nil {
		t.Fatal("expected error for empty input")
	}
}
