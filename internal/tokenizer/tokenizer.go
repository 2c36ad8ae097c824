// Package tokenizer maps phoneme strings to Kokoro model token ids.
//
// Each Unicode scalar of a phoneme string is looked up in a fixed
// vocabulary. Characters outside the vocabulary are dropped. Sequences are
// capped at MaxPhonemeLen tokens and framed with the pad id before
// inference.
package tokenizer

// MaxPhonemeLen is the longest token sequence the model accepts, excluding
// the two pad tokens.
const MaxPhonemeLen = 510

// PadID frames every sequence. It shares its value with '$'.
const PadID int64 = 0

// Vocabulary is an immutable rune to token-id table. Build one with
// NewVocabulary and share it; it is safe for concurrent use.
type Vocabulary struct {
	ids map[rune]int64
}

// NewVocabulary builds the Kokoro phoneme vocabulary.
func NewVocabulary() *Vocabulary {
	ids := make(map[rune]int64, len(vocabEntries))
	for _, e := range vocabEntries {
		ids[e.r] = e.id
	}
	return &Vocabulary{ids: ids}
}

// Len returns the number of vocabulary entries.
func (v *Vocabulary) Len() int { return len(v.ids) }

// Lookup returns the token id for r.
func (v *Vocabulary) Lookup(r rune) (int64, bool) {
	id, ok := v.ids[r]
	return id, ok
}

// Tokenize converts phonemes to token ids, skipping unmapped characters and
// keeping at most MaxPhonemeLen ids.
func (v *Vocabulary) Tokenize(phonemes string) []int64 {
	tokens := make([]int64, 0, min(len(phonemes), MaxPhonemeLen))
	for _, r := range phonemes {
		id, ok := v.ids[r]
		if !ok {
			continue
		}
		tokens = append(tokens, id)
		if len(tokens) == MaxPhonemeLen {
			break
		}
	}
	return tokens
}

// PadTokens returns a new slice of len(tokens)+2 with PadID at both ends.
func PadTokens(tokens []int64) []int64 {
	out := make([]int64, 0, len(tokens)+2)
	out = append(out, PadID)
	out = append(out, tokens...)
	return append(out, PadID)
}
