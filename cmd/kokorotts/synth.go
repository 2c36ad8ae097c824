package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/example/go-kokoro-tts/internal/audio"
	"github.com/example/go-kokoro-tts/internal/errs"
	"github.com/example/go-kokoro-tts/internal/tts"
)

func newSynthCmd() *cobra.Command {
	var (
		text     string
		out      string
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize text to a WAV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			inputText, err := readSynthText(text, stdin)
			if err != nil {
				return err
			}

			svc, err := newSynthesizer(cfg)
			if err != nil {
				return mapSynthError(err)
			}
			defer func() { _ = svc.Close() }()

			req := tts.Request{
				Text:     inputText,
				Voice:    cfg.TTS.Voice,
				Speed:    cfg.TTS.Speed,
				Language: cfg.TTS.Language,
			}
			if progress {
				req.OnChunk = func(ev tts.ChunkEvent) {
					slog.Info("chunk synthesized",
						"index", ev.Index,
						"tokens", ev.Tokens,
						"samples", ev.Samples,
					)
				}
			}

			start := time.Now()
			buf, err := svc.Synthesize(cmd.Context(), req)
			if err != nil {
				return mapSynthError(err)
			}
			elapsed := time.Since(start)

			n, err := writeSynthOutput(out, buf, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			printSynthSummary(cmd.ErrOrStderr(), out, buf, n, elapsed)
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to synthesize (if empty, read from stdin)")
	cmd.Flags().StringVarP(&out, "out", "o", "out.wav", "Output WAV path ('-' for stdout)")
	cmd.Flags().BoolVar(&progress, "progress", false, "Log each synthesized chunk")

	return cmd
}

// writeSynthOutput writes buf as WAV to outPath, or to stdout for "-", and
// returns the number of bytes written.
func writeSynthOutput(outPath string, buf *audio.Buffer, stdout io.Writer) (int, error) {
	if outPath == "-" {
		if stdout == nil {
			return 0, fmt.Errorf("stdout writer is nil")
		}
		cw := &countingWriter{w: stdout}
		if err := audio.WriteWAV(cw, buf); err != nil {
			return cw.n, err
		}
		return cw.n, nil
	}

	if err := audio.WriteWAVFile(outPath, buf); err != nil {
		return 0, err
	}
	info, err := os.Stat(outPath)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", outPath, err)
	}
	return int(info.Size()), nil
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

func printSynthSummary(w io.Writer, outPath string, buf *audio.Buffer, size int, elapsed time.Duration) {
	if outPath == "-" {
		outPath = "stdout"
	}
	_, _ = fmt.Fprintf(w, "wrote %s: %s audio, %s, synthesized in %s\n",
		outPath,
		buf.Duration().Round(time.Millisecond),
		humanize.Bytes(uint64(size)),
		elapsed.Round(time.Millisecond),
	)
}

func readSynthText(text string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	input := strings.TrimSpace(string(b))
	if input == "" {
		return "", fmt.Errorf("either provide --text or pipe text on stdin")
	}
	return input, nil
}

func mapSynthError(err error) error {
	switch {
	case errors.Is(err, errs.ErrToolNotFound):
		return fmt.Errorf("synth failed: espeak-ng not found; install it or set --espeak-path / KOKOROTTS_TTS_ESPEAK_PATH: %w", err)
	case errors.Is(err, errs.ErrUnknownVoice):
		return fmt.Errorf("synth failed: run `kokorotts voices` to list available voices: %w", err)
	case errors.Is(err, errs.ErrVoiceLoadFailed):
		return fmt.Errorf("synth failed: check --voices / KOKOROTTS_PATHS_VOICES_PATH: %w", err)
	case errors.Is(err, errs.ErrModelLoadFailed):
		return fmt.Errorf("synth failed: check --model and --ort-lib, or run `kokorotts doctor`: %w", err)
	case errors.Is(err, errs.ErrEmptyTokenization):
		return fmt.Errorf("synth failed: input produced no speakable phonemes: %w", err)
	}
	return err
}
