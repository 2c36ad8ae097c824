package tokenizer

import (
	"slices"
	"strings"
	"testing"
)

func TestVocabularySize(t *testing.T) {
	v := NewVocabulary()
	if v.Len() != 115 {
		t.Fatalf("Len() = %d; want 115", v.Len())
	}
}

func TestVocabularyIDsInRange(t *testing.T) {
	seen := map[int64]rune{}
	for _, e := range vocabEntries {
		if e.id < 0 || e.id > 177 {
			t.Errorf("id %d for %q out of range", e.id, e.r)
		}
		if prev, dup := seen[e.id]; dup {
			t.Errorf("id %d used by both %q and %q", e.id, prev, e.r)
		}
		seen[e.id] = e.r
	}
}

func TestTokenize(t *testing.T) {
	v := NewVocabulary()

	tests := []struct {
		name string
		in   string
		want []int64
	}{
		{"basic", "hello", []int64{50, 47, 54, 54, 57}},
		{"unknown skipped", "h€llo", []int64{50, 54, 54, 57}},
		{"punctuation", "hello, world!", []int64{50, 47, 54, 54, 57, 3, 16, 65, 57, 60, 54, 46, 5}},
		{"schwa", "ə", []int64{83}},
		{"stress marks", "ˈˌː", []int64{156, 157, 158}},
		{"ascii g absent", "g", []int64{}},
		{"ipa g", "ɡ", []int64{92}},
		{"dollar is pad id", "$", []int64{0}},
		{"empty", "", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Tokenize(tt.in)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v; want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenizeTruncates(t *testing.T) {
	v := NewVocabulary()

	got := v.Tokenize(strings.Repeat("a", 600))
	if len(got) != MaxPhonemeLen {
		t.Fatalf("len = %d; want %d", len(got), MaxPhonemeLen)
	}

	// Truncation is positional over mapped characters.
	got = v.Tokenize(strings.Repeat("a€", 600))
	if len(got) != MaxPhonemeLen {
		t.Fatalf("len with unknowns = %d; want %d", len(got), MaxPhonemeLen)
	}
}

func TestTokenizeIsDeterministic(t *testing.T) {
	v := NewVocabulary()
	in := "həlˈoʊ wɜːld"

	if !slices.Equal(v.Tokenize(in), v.Tokenize(in)) {
		t.Fatal("Tokenize is not deterministic")
	}
}

func TestPadTokens(t *testing.T) {
	in := []int64{50, 47}
	got := PadTokens(in)

	if !slices.Equal(got, []int64{0, 50, 47, 0}) {
		t.Fatalf("PadTokens = %v", got)
	}

	got[1] = 99
	if in[0] != 50 {
		t.Fatal("PadTokens aliased its input")
	}

	if empty := PadTokens(nil); !slices.Equal(empty, []int64{0, 0}) {
		t.Fatalf("PadTokens(nil) = %v", empty)
	}
}
