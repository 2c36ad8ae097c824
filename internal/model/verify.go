// Package model checks that a Kokoro ONNX model file is present, intact and
// loadable by ONNX Runtime.
package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/example/go-kokoro-tts/internal/onnx"
	"github.com/example/go-kokoro-tts/internal/tokenizer"
	"github.com/example/go-kokoro-tts/internal/voice"
)

// ErrChecksumMismatch is returned when the model file does not hash to the
// expected SHA-256.
var ErrChecksumMismatch = errors.New("model checksum mismatch")

var shaHexPattern = regexp.MustCompile(`(?i)^[a-f0-9]{64}$`)

type VerifyOptions struct {
	ModelPath string
	Model     onnx.ModelConfig
	// SHA256 is the expected hex digest; empty skips the comparison.
	SHA256 string
	Stdout io.Writer
	Stderr io.Writer
}

// Report describes a verified model.
type Report struct {
	Path    string
	Size    int64
	SHA256  string
	Samples int
}

var loadModel = func(path string, cfg onnx.ModelConfig) (onnx.Inferencer, error) {
	return onnx.LoadModel(path, cfg)
}

// Verify hashes the model file, loads it, and runs a smoke inference on a
// single padded token with a zero style vector at speed 1.
func Verify(ctx context.Context, opts VerifyOptions) (Report, error) {
	if opts.ModelPath == "" {
		return Report{}, errors.New("model path is required")
	}
	if opts.SHA256 != "" && !isSHA256Hex(opts.SHA256) {
		return Report{}, fmt.Errorf("expected checksum %q is not a SHA-256 hex digest", opts.SHA256)
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}

	fi, err := os.Stat(opts.ModelPath)
	if err != nil {
		return Report{}, fmt.Errorf("stat model: %w", err)
	}
	if fi.IsDir() {
		return Report{}, fmt.Errorf("expected file at %s, found directory", opts.ModelPath)
	}

	sum, err := fileSHA256(opts.ModelPath)
	if err != nil {
		return Report{}, err
	}
	rep := Report{Path: opts.ModelPath, Size: fi.Size(), SHA256: sum}

	if opts.SHA256 != "" {
		if !strings.EqualFold(sum, opts.SHA256) {
			_, _ = fmt.Fprintf(opts.Stderr, "FAIL checksum: got %s, want %s\n", sum, strings.ToLower(opts.SHA256))
			return rep, fmt.Errorf("%w: %s", ErrChecksumMismatch, opts.ModelPath)
		}
		_, _ = fmt.Fprintf(opts.Stdout, "PASS checksum %s\n", sum)
	}

	m, err := loadModel(opts.ModelPath, opts.Model)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "FAIL load: %v\n", err)
		return rep, err
	}
	defer func() { _ = m.Close() }()
	_, _ = fmt.Fprintf(opts.Stdout, "PASS load %s\n", opts.ModelPath)

	samples, err := smoke(ctx, m)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "FAIL inference: %v\n", err)
		return rep, err
	}
	rep.Samples = samples
	_, _ = fmt.Fprintf(opts.Stdout, "PASS inference (%d samples)\n", samples)

	return rep, nil
}

func smoke(ctx context.Context, m onnx.Inferencer) (int, error) {
	ids := tokenizer.PadTokens([]int64{tokenizer.PadID})
	style := make([]float32, voice.StyleDim)

	out, err := m.Infer(ctx, ids, style, 1)
	if err != nil {
		return 0, fmt.Errorf("run inference: %w", err)
	}
	if len(out) == 0 {
		return 0, errors.New("run inference: model returned no samples")
	}
	return len(out), nil
}

func isSHA256Hex(v string) bool {
	return shaHexPattern.MatchString(v)
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("read file for checksum: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
