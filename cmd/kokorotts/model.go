package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/example/go-kokoro-tts/internal/model"
	"github.com/example/go-kokoro-tts/internal/onnx"
)

func newModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Model verification commands",
	}

	cmd.AddCommand(newModelVerifyCmd())
	return cmd
}

func newModelVerifyCmd() *cobra.Command {
	var sha string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Load the model and run a smoke inference",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			info, err := onnx.DetectRuntime(cfg.Runtime)
			if err != nil {
				return fmt.Errorf("model verify failed: %w", err)
			}

			rep, err := model.Verify(cmd.Context(), model.VerifyOptions{
				ModelPath: cfg.Paths.ModelPath,
				Model:     onnx.ModelConfigFrom(cfg.Runtime, info.LibraryPath),
				SHA256:    sha,
				Stdout:    cmd.OutOrStdout(),
				Stderr:    cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("model verify failed: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "model verification passed: %s (%s, sha256 %s)\n",
				rep.Path, humanize.Bytes(uint64(rep.Size)), rep.SHA256)
			return err
		},
	}

	cmd.Flags().StringVar(&sha, "sha256", "", "Expected SHA-256 of the model file")

	return cmd
}
