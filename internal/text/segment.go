package text

import "strings"

// preservedPunct lists punctuation the model uses for prosody but
// phonemizers drop.
const preservedPunct = "—…;:\"“”"

// Segment is either a run of text or a single preserved punctuation mark.
type Segment struct {
	Text  string
	Punct rune
}

// IsPunct reports whether the segment holds punctuation.
func (s Segment) IsPunct() bool { return s.Punct != 0 }

// IsPreservedPunct reports whether r is carried through phonemization
// verbatim.
func IsPreservedPunct(r rune) bool {
	return strings.ContainsRune(preservedPunct, r)
}

// SplitPreserved splits text into alternating text and punctuation
// segments. Text segments are returned untrimmed.
func SplitPreserved(text string) []Segment {
	var segments []Segment
	var current strings.Builder

	for _, r := range text {
		if !IsPreservedPunct(r) {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			segments = append(segments, Segment{Text: current.String()})
			current.Reset()
		}
		segments = append(segments, Segment{Punct: r})
	}
	if current.Len() > 0 {
		segments = append(segments, Segment{Text: current.String()})
	}

	return segments
}
