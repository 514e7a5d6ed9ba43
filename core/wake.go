package orchestration

import "strings"

// WakeDetector gates which transcriptions open a conversation turn.
type WakeDetector interface {
	// Detect reports whether text starts with a wake trigger and returns the
	// remaining command with the trigger stripped.
	Detect(text string) (string, bool)
}

// phraseDetector matches a spoken wake phrase at the start of a
// transcription. Matching ignores case and punctuation so "Hey, Nova!"
// wakes a "hey nova" phrase.
type phraseDetector struct {
	words []string
}

func NewPhraseDetector(phrase string) WakeDetector {
	return phraseDetector{words: splitSpokenWords(phrase)}
}

func (d phraseDetector) Detect(text string) (string, bool) {
	words := splitSpokenWords(text)
	if len(d.words) == 0 || len(words) < len(d.words) {
		return "", false
	}

	for i, word := range d.words {
		if words[i] != word {
			return "", false
		}
	}

	return strings.Join(words[len(d.words):], " "), true
}

func splitSpokenWords(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', '.', '!', '?', ';', ':':
			return -1
		}
		return r
	}, strings.ToLower(text))

	return strings.Fields(cleaned)
}
