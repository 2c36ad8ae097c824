package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-kokoro-tts/internal/config"
	"github.com/example/go-kokoro-tts/internal/doctor"
	"github.com/example/go-kokoro-tts/internal/onnx"
	"github.com/example/go-kokoro-tts/internal/phonemize"
	"github.com/example/go-kokoro-tts/internal/voice"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local runtime, model and voice checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			result := doctor.Run(doctorConfig(cmd.Context(), cfg), cmd.OutOrStdout())

			if result.Failed() {
				for _, f := range result.Failures() {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "doctor checks passed")

			return nil
		},
	}

	return cmd
}

func doctorConfig(ctx context.Context, cfg config.Config) doctor.Config {
	return doctor.Config{
		EspeakVersion: func() (string, error) {
			return probeEspeakVersion(ctx, cfg.TTS.EspeakPath)
		},
		Runtime: func() (string, string, error) {
			info, err := onnx.DetectRuntime(cfg.Runtime)
			return info.LibraryPath, info.Version, err
		},
		ModelPath: cfg.Paths.ModelPath,
		VoiceCount: func() (int, error) {
			store, err := voice.Load(cfg.Paths.VoicesPath)
			if err != nil {
				return 0, err
			}
			return store.Len(), nil
		},
	}
}

// probeEspeakVersion runs `espeak-ng --version` with a short deadline.
func probeEspeakVersion(ctx context.Context, bin string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return phonemize.NewEspeak(bin).Version(ctx)
}
