package text

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SplitSentences splits text after '.', '!' or '?' when the terminator is
// followed by whitespace or ends the text. Each sentence is trimmed and
// empty sentences are dropped. Text without terminators yields one
// sentence.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0

	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		end := i + utf8.RuneLen(r)
		if end < len(text) {
			next, _ := utf8.DecodeRuneInString(text[end:])
			if !unicode.IsSpace(next) {
				continue
			}
		}
		if s := strings.TrimSpace(text[start:end]); s != "" {
			sentences = append(sentences, s)
		}
		start = end
	}

	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// TokenCounter reports how many model tokens text produces.
type TokenCounter func(text string) (int, error)

// BatchSentences greedily groups sentences into batches that stay under
// limit tokens. For every sentence the prospective batch (current batch
// plus the sentence) is counted as a whole; when it reaches limit and the
// current batch is non-empty, the current batch is flushed and the
// sentence starts a new one. A single sentence at or over the limit still
// forms its own batch. flush is called in order, once per batch.
func BatchSentences(sentences []string, limit int, count TokenCounter, flush func(batch string) error) error {
	batch := ""

	for _, s := range sentences {
		candidate := s
		if batch != "" {
			candidate = batch + " " + s
		}

		n, err := count(candidate)
		if err != nil {
			return err
		}

		if n >= limit && batch != "" {
			if err := flush(batch); err != nil {
				return err
			}
			batch = s
			continue
		}
		batch = candidate
	}

	if batch != "" {
		return flush(batch)
	}

	return nil
}
