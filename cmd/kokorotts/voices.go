package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/example/go-kokoro-tts/internal/voice"
)

func newVoicesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List the voices in the configured voice store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			store, err := voice.Load(cfg.Paths.VoicesPath)
			if err != nil {
				return mapSynthError(err)
			}

			return printVoices(cmd.OutOrStdout(), store.Names(), format, cfg.TTS.Voice)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")

	return cmd
}

func printVoices(w io.Writer, names []string, format, defaultVoice string) error {
	if format == "json" {
		if names == nil {
			names = []string{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(names)
	}

	for _, name := range names {
		marker := " "
		if name == defaultVoice {
			marker = "*"
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", marker, name); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s voices\n", humanize.Comma(int64(len(names))))
	return err
}
