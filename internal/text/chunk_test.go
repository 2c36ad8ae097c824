package text

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "three terminators",
			text: "Hello world. How are you? I'm fine!",
			want: []string{"Hello world.", "How are you?", "I'm fine!"},
		},
		{
			name: "no terminator",
			text: "  no punctuation here  ",
			want: []string{"no punctuation here"},
		},
		{
			name: "empty",
			text: "",
			want: nil,
		},
		{
			name: "whitespace only",
			text: "   ",
			want: nil,
		},
		{
			name: "terminator inside token does not split",
			text: "Version 1.5 is out. Visit example.com today.",
			want: []string{"Version 1.5 is out.", "Visit example.com today."},
		},
		{
			name: "newline counts as whitespace",
			text: "One.\nTwo.",
			want: []string{"One.", "Two."},
		},
		{
			name: "ellipsis of periods stays attached",
			text: "Wait... what?",
			want: []string{"Wait...", "what?"},
		},
		{
			name: "trailing fragment kept",
			text: "Done. and then",
			want: []string{"Done.", "and then"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.text)
			if !slices.Equal(got, tt.want) {
				t.Errorf("SplitSentences(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

// wordCounter counts whitespace-separated words, standing in for a
// phonemize-then-tokenize pass.
func wordCounter(calls *[]string) TokenCounter {
	return func(text string) (int, error) {
		*calls = append(*calls, text)
		return len(strings.Fields(text)), nil
	}
}

func TestBatchSentences(t *testing.T) {
	tests := []struct {
		name      string
		sentences []string
		limit     int
		want      []string
	}{
		{
			name:      "all fit",
			sentences: []string{"a b.", "c d."},
			limit:     10,
			want:      []string{"a b. c d."},
		},
		{
			name:      "flush at limit",
			sentences: []string{"a b c.", "d e f."},
			limit:     6,
			want:      []string{"a b c.", "d e f."},
		},
		{
			name:      "one under limit is kept",
			sentences: []string{"a b c.", "d e."},
			limit:     6,
			want:      []string{"a b c. d e."},
		},
		{
			name:      "oversized single sentence forms its own batch",
			sentences: []string{"a b c d e f g.", "h."},
			limit:     3,
			want:      []string{"a b c d e f g.", "h."},
		},
		{
			name:      "no sentences",
			sentences: nil,
			limit:     3,
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			var got []string

			err := BatchSentences(tt.sentences, tt.limit, wordCounter(&calls), func(batch string) error {
				got = append(got, batch)
				return nil
			})
			if err != nil {
				t.Fatalf("BatchSentences: %v", err)
			}

			if !slices.Equal(got, tt.want) {
				t.Errorf("batches = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBatchSentencesCountsProspectiveBatch(t *testing.T) {
	var calls []string

	err := BatchSentences([]string{"one.", "two.", "three."}, 100, wordCounter(&calls), func(string) error { return nil })
	if err != nil {
		t.Fatalf("BatchSentences: %v", err)
	}

	want := []string{"one.", "one. two.", "one. two. three."}
	if !slices.Equal(calls, want) {
		t.Errorf("counted %q, want %q", calls, want)
	}
}

func TestBatchSentencesPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")

	err := BatchSentences([]string{"a."}, 10, func(string) (int, error) { return 0, boom }, func(string) error { return nil })
	if !errors.Is(err, boom) {
		t.Fatalf("count error = %v, want %v", err, boom)
	}

	err = BatchSentences([]string{"a."}, 10, func(string) (int, error) { return 1, nil }, func(string) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("flush error = %v, want %v", err, boom)
	}
}
