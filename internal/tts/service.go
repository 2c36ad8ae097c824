// Package tts turns text into audio with the Kokoro model.
//
// A Service phonemizes the input, tokenizes it, looks up the voice style
// for the utterance length and runs one inference pass. Input too long for
// one pass is split at sentence boundaries, synthesized chunk by chunk and
// concatenated.
package tts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/go-kokoro-tts/internal/audio"
	"github.com/example/go-kokoro-tts/internal/config"
	"github.com/example/go-kokoro-tts/internal/errs"
	"github.com/example/go-kokoro-tts/internal/onnx"
	"github.com/example/go-kokoro-tts/internal/phonemize"
	"github.com/example/go-kokoro-tts/internal/text"
	"github.com/example/go-kokoro-tts/internal/tokenizer"
	"github.com/example/go-kokoro-tts/internal/voice"
)

// Phonemizer converts text to a phoneme string.
type Phonemizer interface {
	Phonemize(ctx context.Context, input, lang string) (string, error)
}

// VoiceSource resolves voices by name.
type VoiceSource interface {
	Get(name string) (*voice.Voice, error)
	Names() []string
}

// Deps are the collaborators a Service drives. All are required except
// Logger.
type Deps struct {
	Vocabulary *tokenizer.Vocabulary
	Phonemizer Phonemizer
	Voices     VoiceSource
	Model      onnx.Inferencer
	Defaults   config.TTSConfig
	Logger     *slog.Logger
}

// Request is one synthesis call. Zero fields fall back to the service
// defaults.
type Request struct {
	Text     string
	Voice    string
	Speed    float64
	Language string
	// OnChunk, when set, is called after each chunk of a multi-chunk
	// synthesis completes.
	OnChunk func(ChunkEvent)
}

// ChunkEvent reports progress through a chunked synthesis.
type ChunkEvent struct {
	Index   int
	Text    string
	Tokens  int
	Samples int
}

type Service struct {
	vocab      *tokenizer.Vocabulary
	phonemizer Phonemizer
	voices     VoiceSource
	model      onnx.Inferencer
	defaults   config.TTSConfig
	logger     *slog.Logger
}

// New builds a Service from already constructed parts.
func New(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	vocab := d.Vocabulary
	if vocab == nil {
		vocab = tokenizer.NewVocabulary()
	}
	return &Service{
		vocab:      vocab,
		phonemizer: d.Phonemizer,
		voices:     d.Voices,
		model:      d.Model,
		defaults:   d.Defaults,
		logger:     logger,
	}
}

// NewService loads the voice store and model named by cfg and wires the
// default phonemizer chain.
func NewService(cfg config.Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := voice.Load(cfg.Paths.VoicesPath)
	if err != nil {
		return nil, err
	}

	info, err := onnx.DetectRuntime(cfg.Runtime)
	if err != nil {
		return nil, errs.E(errs.KindModelLoadFailed, "tts.new", "onnx runtime", err)
	}

	model, err := onnx.LoadModel(cfg.Paths.ModelPath, onnx.ModelConfigFrom(cfg.Runtime, info.LibraryPath))
	if err != nil {
		return nil, err
	}

	logger.Info("tts service ready",
		"model", cfg.Paths.ModelPath,
		"voices", store.Len(),
		"ort_library", info.LibraryPath,
		"ort_version", info.Version,
	)

	return New(Deps{
		Vocabulary: tokenizer.NewVocabulary(),
		Phonemizer: phonemize.NewDefault(cfg.TTS.EspeakPath, phonemize.WithLogger(logger)),
		Voices:     store,
		Model:      model,
		Defaults:   cfg.TTS,
		Logger:     logger,
	}), nil
}

// Voices lists the available voice names in sorted order.
func (s *Service) Voices() []string {
	return s.voices.Names()
}

// Close releases the model.
func (s *Service) Close() error {
	if s.model == nil {
		return nil
	}
	return s.model.Close()
}

// Tokens phonemizes input and tokenizes the result.
func (s *Service) Tokens(ctx context.Context, input, lang string) (string, []int64, error) {
	if lang == "" {
		lang = s.defaults.Language
	}
	phonemes, err := s.phonemizer.Phonemize(ctx, input, lang)
	if err != nil {
		return "", nil, err
	}
	return phonemes, s.vocab.Tokenize(phonemes), nil
}

// Synthesize renders req.Text. Any stage failure aborts the call; partial
// audio is never returned.
func (s *Service) Synthesize(ctx context.Context, req Request) (*audio.Buffer, error) {
	req = s.withDefaults(req)

	input, err := text.Normalize(req.Text)
	if err != nil {
		return nil, errs.E(errs.KindEmptyTokenization, "tts.synthesize", "no valid tokens produced from text", err)
	}
	req.Text = input

	phonemes, tokens, err := s.Tokens(ctx, req.Text, req.Language)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("phonemized", "text_bytes", len(req.Text), "phoneme_bytes", len(phonemes), "tokens", len(tokens))

	if len(tokens) == 0 {
		return nil, errs.E(errs.KindEmptyTokenization, "tts.synthesize", "no valid tokens produced from text", nil)
	}

	if len(tokens) >= tokenizer.MaxPhonemeLen {
		return s.synthesizeChunked(ctx, req)
	}

	samples, err := s.infer(ctx, tokens, req)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("generated audio", "samples", len(samples))

	audio.Normalize(samples, audio.NormalizeTarget)
	return &audio.Buffer{Samples: samples, SampleRate: audio.SampleRate}, nil
}

func (s *Service) synthesizeChunked(ctx context.Context, req Request) (*audio.Buffer, error) {
	sentences := text.SplitSentences(req.Text)
	s.logger.Info("chunking long input", "sentences", len(sentences))

	count := func(candidate string) (int, error) {
		_, tokens, err := s.Tokens(ctx, candidate, req.Language)
		return len(tokens), err
	}

	var chunks [][]float32
	flush := func(batch string) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, tokens, err := s.Tokens(ctx, batch, req.Language)
		if err != nil {
			return err
		}

		var samples []float32
		if len(tokens) > 0 {
			samples, err = s.infer(ctx, tokens, req)
			if err != nil {
				return err
			}
		}

		ev := ChunkEvent{Index: len(chunks), Text: batch, Tokens: len(tokens), Samples: len(samples)}
		chunks = append(chunks, samples)
		s.logger.Debug("chunk synthesized", "index", ev.Index, "tokens", ev.Tokens, "samples", ev.Samples)
		if req.OnChunk != nil {
			req.OnChunk(ev)
		}
		return nil
	}

	if err := text.BatchSentences(sentences, tokenizer.MaxPhonemeLen, count, flush); err != nil {
		return nil, err
	}

	samples := audio.Concat(chunks)
	audio.Normalize(samples, audio.NormalizeTarget)
	return &audio.Buffer{Samples: samples, SampleRate: audio.SampleRate}, nil
}

// infer runs one pass over an unpadded token sequence.
func (s *Service) infer(ctx context.Context, tokens []int64, req Request) ([]float32, error) {
	v, err := s.voices.Get(req.Voice)
	if err != nil {
		return nil, err
	}

	style, err := v.Embedding(len(tokens))
	if err != nil {
		return nil, err
	}

	samples, err := s.model.Infer(ctx, tokenizer.PadTokens(tokens), style, float32(req.Speed))
	if err != nil {
		return nil, fmt.Errorf("voice %s: %w", req.Voice, err)
	}
	return samples, nil
}

func (s *Service) withDefaults(req Request) Request {
	if req.Voice == "" {
		req.Voice = s.defaults.Voice
	}
	if req.Speed <= 0 {
		req.Speed = s.defaults.Speed
	}
	if req.Speed <= 0 {
		req.Speed = 1
	}
	if req.Language == "" {
		req.Language = s.defaults.Language
	}
	return req
}
