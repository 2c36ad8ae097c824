package text

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrEmptyText is returned when the input text is empty or whitespace-only.
var ErrEmptyText = errors.New("text is empty")

// Normalize prepares raw input text for synthesis.
// It normalizes line endings to \n, composes Unicode to NFC so accented
// letters reach the phonemizer as single scalars, trims surrounding
// whitespace and rejects empty input.
func Normalize(s string) (string, error) {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = norm.NFC.String(s)

	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyText
	}

	return s, nil
}

// NormalizeParagraphs turns paragraph and line breaks into sentence
// boundaries so the model pauses between them.
func NormalizeParagraphs(s string) string {
	s = strings.ReplaceAll(s, "\n\n", ". ")
	return strings.ReplaceAll(s, "\n", ". ")
}
