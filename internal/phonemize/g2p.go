package phonemize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrUnsupportedLanguage is returned by G2P for non-English language codes.
	ErrUnsupportedLanguage = errors.New("g2p: unsupported language")
	// ErrUnsupportedText is returned by G2P for words outside the ASCII
	// Latin alphabet.
	ErrUnsupportedText = errors.New("g2p: unsupported characters")
)

// kokoroAlphabet rewrites IPA diphthongs and affricates into the single
// symbols the model vocabulary uses.
var kokoroAlphabet = strings.NewReplacer(
	"aɪ", "I",
	"eɪ", "A",
	"oʊ", "O",
	"aʊ", "W",
	"ɔɪ", "Y",
	"dʒ", "ʤ",
	"tʃ", "ʧ",
	"ɝ", "ɜɹ",
	"g", "ɡ",
	"r", "ɹ",
)

const phonemeVowels = "aeiouæɑɐɒɔəɚɛɜɪʊʌAIOWYᵊ"

// G2P is an in-process English grapheme-to-phoneme engine: a pronunciation
// lexicon backed by longest-match spelling rules. It is deterministic and
// safe for concurrent use.
type G2P struct {
	lexicon map[string]string
	rules   map[string]string
}

// NewG2P builds the English engine.
func NewG2P() *G2P {
	g := &G2P{
		lexicon: make(map[string]string, len(lexicon)),
		rules:   make(map[string]string, len(spellingRules)),
	}
	for word, ipa := range lexicon {
		g.lexicon[word] = kokoroAlphabet.Replace(ipa)
	}
	for graph, ipa := range spellingRules {
		g.rules[graph] = kokoroAlphabet.Replace(ipa)
	}
	return g
}

// Name implements Engine.
func (g *G2P) Name() string { return "g2p" }

// Supports reports whether lang is an English language code.
func (g *G2P) Supports(lang string) bool {
	lang = strings.ToLower(lang)
	return lang == "" || lang == "en" || lang == "a" || lang == "b" ||
		strings.HasPrefix(lang, "en-") || strings.HasPrefix(lang, "en_")
}

// Phonemize implements Engine. Words are separated by single spaces and
// sentence punctuation is attached to the preceding word.
func (g *G2P) Phonemize(_ context.Context, text, lang string) (string, error) {
	if !g.Supports(lang) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}

	var out strings.Builder
	for _, tok := range g.tokens(text) {
		if len(tok) == 1 && isSentencePunct(rune(tok[0])) {
			out.WriteString(tok)
			continue
		}

		ph, err := g.word(tok)
		if err != nil {
			return "", err
		}
		if ph == "" {
			continue
		}
		if out.Len() > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(ph)
	}

	return strings.TrimSpace(out.String()), nil
}

// tokens expands abbreviations and numbers, then splits text into words
// and sentence punctuation.
func (g *G2P) tokens(text string) []string {
	fields := strings.Fields(text)
	var expanded []string
	for _, f := range fields {
		if full, ok := abbreviations[f]; ok {
			f = full
		}
		expanded = append(expanded, f)
	}

	var tokens []string
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}

	for _, f := range expanded {
		runes := []rune(f)
		for i := 0; i < len(runes); i++ {
			r := runes[i]
			switch {
			case isDigit(r):
				flush()
				j := i
				for j < len(runes) && (isDigit(runes[j]) || (runes[j] == ',' && j+1 < len(runes) && isDigit(runes[j+1]))) {
					j++
				}
				intPart := strings.ReplaceAll(string(runes[i:j]), ",", "")
				tokens = append(tokens, strings.Fields(numberWords(intPart))...)
				if j+1 < len(runes) && runes[j] == '.' && isDigit(runes[j+1]) {
					tokens = append(tokens, "point")
					j++
					for j < len(runes) && isDigit(runes[j]) {
						tokens = append(tokens, digitWords[runes[j]-'0'])
						j++
					}
				}
				i = j - 1
			case unicode.IsLetter(r) || (r == '\'' && word.Len() > 0):
				word.WriteRune(r)
			case isSentencePunct(r):
				flush()
				tokens = append(tokens, string(r))
			default:
				flush()
			}
		}
		flush()
	}

	return tokens
}

// word converts a single word.
func (g *G2P) word(w string) (string, error) {
	lower := strings.ToLower(strings.Trim(w, "'"))
	if lower == "" {
		return "", nil
	}
	if ph, ok := g.lexicon[lower]; ok {
		return ph, nil
	}
	for _, r := range lower {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || r == '\'') {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedText, w)
		}
	}
	// Single letters and short acronyms such as "TTS" are spelled out.
	if len(lower) == 1 || (len(w) <= 4 && strings.ToUpper(w) == w && !strings.ContainsRune(w, '\'')) {
		return g.spell(lower), nil
	}
	return addStress(g.rulesToPhonemes(lower)), nil
}

func (g *G2P) rulesToPhonemes(word string) string {
	word = strings.ReplaceAll(word, "'", "")
	// Silent final e, as in "make" or "phone".
	if len(word) > 3 && strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "ee") && !strings.HasSuffix(word, "le") {
		word = word[:len(word)-1]
	}

	var out strings.Builder
	for i := 0; i < len(word); {
		matched := false
		for n := 4; n >= 1; n-- {
			if i+n > len(word) {
				continue
			}
			if ph, ok := g.rules[word[i:i+n]]; ok {
				out.WriteString(ph)
				i += n
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}
	return out.String()
}

func (g *G2P) spell(word string) string {
	parts := make([]string, 0, len(word))
	for _, r := range word {
		parts = append(parts, letterNames[r])
	}
	return strings.Join(parts, "")
}

// addStress marks primary stress before the first vowel.
func addStress(ph string) string {
	if strings.ContainsRune(ph, 'ˈ') {
		return ph
	}
	for i, r := range ph {
		if strings.ContainsRune(phonemeVowels, r) {
			return ph[:i] + "ˈ" + ph[i:]
		}
	}
	return ph
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isSentencePunct(r rune) bool {
	return r == '.' || r == ',' || r == '!' || r == '?'
}

var letterNames = map[rune]string{
	'a': "ˈA", 'b': "bˈi", 'c': "sˈi", 'd': "dˈi", 'e': "ˈi", 'f': "ˈɛf",
	'g': "ʤˈi", 'h': "ˈAʧ", 'i': "ˈI", 'j': "ʤˈA", 'k': "kˈA", 'l': "ˈɛl",
	'm': "ˈɛm", 'n': "ˈɛn", 'o': "ˈO", 'p': "pˈi", 'q': "kjˈu", 'r': "ˈɑɹ",
	's': "ˈɛs", 't': "tˈi", 'u': "jˈu", 'v': "vˈi", 'w': "dˈʌbəlju", 'x': "ˈɛks",
	'y': "wˈI", 'z': "zˈi",
}

var digitWords = []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}

var teenWords = []string{"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen", "eighteen", "nineteen"}

var tensWords = []string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}

// numberWords spells a non-negative decimal integer in English words.
// Numbers too large to spell are read digit by digit.
func numberWords(digits string) string {
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return "zero"
	}
	if len(digits) > 12 {
		parts := make([]string, 0, len(digits))
		for _, d := range digits {
			parts = append(parts, digitWords[d-'0'])
		}
		return strings.Join(parts, " ")
	}

	var n int64
	for _, d := range digits {
		n = n*10 + int64(d-'0')
	}

	scales := []struct {
		value int64
		name  string
	}{
		{1_000_000_000, "billion"},
		{1_000_000, "million"},
		{1_000, "thousand"},
	}

	var words []string
	for _, s := range scales {
		if n >= s.value {
			words = append(words, belowThousand(n/s.value), s.name)
			n %= s.value
		}
	}
	if n > 0 {
		words = append(words, belowThousand(n))
	}
	return strings.Join(words, " ")
}

func belowThousand(n int64) string {
	var words []string
	if n >= 100 {
		words = append(words, digitWords[n/100], "hundred")
		n %= 100
	}
	switch {
	case n >= 20:
		words = append(words, tensWords[n/10])
		if n%10 > 0 {
			words = append(words, digitWords[n%10])
		}
	case n >= 10:
		words = append(words, teenWords[n-10])
	case n > 0:
		words = append(words, digitWords[n])
	}
	return strings.Join(words, " ")
}
