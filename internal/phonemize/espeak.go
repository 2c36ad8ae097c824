package phonemize

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/example/go-kokoro-tts/internal/errs"
)

// DefaultEspeakBinary is looked up on PATH when no binary is configured.
const DefaultEspeakBinary = "espeak-ng"

// Espeak phonemizes by running the espeak-ng command line tool.
type Espeak struct {
	binary string
}

// NewEspeak returns an engine that runs binary, or espeak-ng from PATH
// when binary is empty.
func NewEspeak(binary string) *Espeak {
	if binary == "" {
		binary = DefaultEspeakBinary
	}
	return &Espeak{binary: binary}
}

// Name implements Engine.
func (e *Espeak) Name() string { return "espeak-ng" }

// Binary returns the configured executable.
func (e *Espeak) Binary() string { return e.binary }

// Phonemize implements Engine. espeak-ng prints one line per sentence and
// drops the sentence punctuation, so non-empty lines are rejoined with ". ".
func (e *Espeak) Phonemize(ctx context.Context, text, lang string) (string, error) {
	stdout, err := e.run(ctx, "espeak.phonemize", "-v", lang, "--ipa", "-q", text)
	if err != nil {
		return "", err
	}

	var lines []string
	for _, line := range strings.Split(stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, ". "), nil
}

// Version runs espeak-ng --version and returns its trimmed output.
func (e *Espeak) Version(ctx context.Context) (string, error) {
	out, err := e.run(ctx, "espeak.version", "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (e *Espeak) run(ctx context.Context, op string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, e.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return "", errs.E(errs.KindToolNotFound, op, e.binary, err)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", errs.E(errs.KindPhonemizationFailed, op, strings.TrimSpace(stderr.String()), err)
		}
		return "", errs.E(errs.KindPhonemizationFailed, op, "run "+e.binary, err)
	}

	return stdout.String(), nil
}
