package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-kokoro-tts/internal/phonemize"
	"github.com/example/go-kokoro-tts/internal/tokenizer"
)

func newPhonemizeCmd() *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "phonemize",
		Short: "Print the phoneme string and token count for text",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			input, err := readSynthText(text, stdin)
			if err != nil {
				return err
			}

			p := phonemize.NewDefault(cfg.TTS.EspeakPath)
			phonemes, err := p.Phonemize(cmd.Context(), input, cfg.TTS.Language)
			if err != nil {
				return mapSynthError(err)
			}

			tokens := tokenizer.NewVocabulary().Tokenize(phonemes)

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(w, phonemes)
			_, err = fmt.Fprintf(w, "tokens: %d (limit %d)\n", len(tokens), tokenizer.MaxPhonemeLen)
			return err
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to phonemize (if empty, read from stdin)")

	return cmd
}
