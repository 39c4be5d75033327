package segmenter

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// writtenWithoutSpaces reports whether words in tag's script are not
// separated by spaces, so whitespace splitting cannot count them.
func writtenWithoutSpaces(tag language.Tag) bool {
	base, _ := tag.Base()
	switch base.String() {
	case "ja", "zh", "th", "lo", "km", "my":
		return true
	default:
		return false
	}
}

// countWords counts whitespace separated words, or for unspaced scripts one
// word per two letters (~2 characters per word).
func (s *Segmenter) countWords(text string) int {
	if !s.runeCounting {
		return len(strings.Fields(text))
	}
	letters := 0
	for _, r := range text {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			continue
		}
		letters++
	}
	return (letters + 1) / 2
}
