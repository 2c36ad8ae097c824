package main

import (
	"context"
	"log/slog"

	"github.com/example/go-kokoro-tts/internal/audio"
	"github.com/example/go-kokoro-tts/internal/config"
	"github.com/example/go-kokoro-tts/internal/tts"
)

// synthesizer is the part of *tts.Service the commands use.
type synthesizer interface {
	Synthesize(ctx context.Context, req tts.Request) (*audio.Buffer, error)
	Voices() []string
	Close() error
}

// newSynthesizer builds the synthesis service; tests replace it with a fake.
var newSynthesizer = func(cfg config.Config) (synthesizer, error) {
	return tts.NewService(cfg, slog.Default())
}
