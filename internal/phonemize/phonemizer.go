// Package phonemize converts text to phoneme strings for the Kokoro model.
//
// A Phonemizer runs a two-step strategy chain per text segment: the
// in-process G2P engine first, then the espeak-ng tool when G2P fails or
// produces nothing. Punctuation the model uses for prosody is split out
// before phonemization and reinserted verbatim.
package phonemize

import (
	"context"
	"log/slog"
	"strings"

	"github.com/example/go-kokoro-tts/internal/errs"
	"github.com/example/go-kokoro-tts/internal/text"
)

// Engine converts a text segment to phonemes.
type Engine interface {
	Name() string
	Phonemize(ctx context.Context, text, lang string) (string, error)
}

// Outcome records which engine produced a segment's phonemes and, for a
// primary step that was skipped over, why.
type Outcome struct {
	Engine   string
	Phonemes string
	Err      error
}

// Phonemizer is safe for concurrent use when its engines are.
type Phonemizer struct {
	primary  Engine
	fallback Engine
	logger   *slog.Logger
}

// Option configures a Phonemizer.
type Option func(*Phonemizer)

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Phonemizer) {
		if l != nil {
			p.logger = l
		}
	}
}

// New builds a Phonemizer. Either engine may be nil, but not both.
func New(primary, fallback Engine, opts ...Option) *Phonemizer {
	p := &Phonemizer{
		primary:  primary,
		fallback: fallback,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewDefault builds the G2P plus espeak-ng chain.
func NewDefault(espeakBinary string, opts ...Option) *Phonemizer {
	return New(NewG2P(), NewEspeak(espeakBinary), opts...)
}

// Phonemize converts text to a phoneme string. Line breaks become
// sentence boundaries, preserved punctuation is carried through, and
// segments are joined by single spaces.
func (p *Phonemizer) Phonemize(ctx context.Context, input, lang string) (string, error) {
	input = text.NormalizeParagraphs(input)

	var out strings.Builder
	space := func() {
		if out.Len() > 0 && !strings.HasSuffix(out.String(), " ") {
			out.WriteByte(' ')
		}
	}

	for _, seg := range text.SplitPreserved(input) {
		if seg.IsPunct() {
			space()
			out.WriteRune(seg.Punct)
			out.WriteByte(' ')
			continue
		}

		trimmed := strings.TrimSpace(seg.Text)
		if trimmed == "" {
			continue
		}

		res, err := p.Segment(ctx, trimmed, lang)
		if err != nil {
			return "", err
		}
		if res.Phonemes == "" {
			continue
		}
		space()
		out.WriteString(res.Phonemes)
	}

	return strings.TrimSpace(out.String()), nil
}

// Segment runs the strategy chain on one trimmed text segment. The
// fallback runs only when the primary step errors or returns nothing; the
// fallback's own error is returned unchanged.
func (p *Phonemizer) Segment(ctx context.Context, segment, lang string) (Outcome, error) {
	var primary Outcome
	if p.primary != nil {
		primary = p.step(ctx, p.primary, segment, lang)
		if primary.Err == nil && primary.Phonemes != "" {
			p.logger.Debug("phonemized", "engine", primary.Engine, "text", segment, "phonemes", primary.Phonemes)
			return primary, nil
		}
		if primary.Err != nil {
			p.logger.Warn("primary phonemizer failed, falling back",
				"engine", primary.Engine, "text", segment, "error", primary.Err)
		} else {
			p.logger.Debug("primary phonemizer returned nothing, falling back",
				"engine", primary.Engine, "text", segment)
		}
	}

	if p.fallback == nil {
		if primary.Err != nil {
			return primary, errs.E(errs.KindPhonemizationFailed, "phonemize", "no fallback engine", primary.Err)
		}
		return primary, nil
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	res := p.step(ctx, p.fallback, segment, lang)
	if res.Err != nil {
		return res, res.Err
	}
	return res, nil
}

func (p *Phonemizer) step(ctx context.Context, e Engine, segment, lang string) Outcome {
	ph, err := e.Phonemize(ctx, segment, lang)
	return Outcome{
		Engine:   e.Name(),
		Phonemes: strings.TrimSpace(ph),
		Err:      err,
	}
}
