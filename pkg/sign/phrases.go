package sign

import (
	"strings"
)

// defaultPhrases maps fingerspelled letter runs to common phrases. Spelling
// out full words letter by letter is slow, so frequent words get expanded as
// soon as the accumulated run matches.
var defaultPhrases = map[string]string{
	"HI":     "Hi",
	"HELLO":  "Hello",
	"YES":    "Yes",
	"NO":     "No",
	"OK":     "Okay",
	"THANKS": "Thank you",
	"PLEASE": "Please",
	"HELP":   "Help",
	"SORRY":  "Sorry",
	"BYE":    "Goodbye",
	"LOVE":   "I love you",
	"WATER":  "Water",
	"FOOD":   "Food",
}

// maxPhraseRun bounds how many trailing letters are considered for a match.
const maxPhraseRun = 8

// PhraseMapper accumulates stable static letters and expands known runs
// into phrases. Unmapped sequences pass through unchanged.
//
// PhraseMapper is not goroutine-safe; the orchestrator serializes access.
type PhraseMapper struct {
	phrases map[string]string
	letters []string
}

// NewPhraseMapper creates a mapper with the default phrase dictionary.
func NewPhraseMapper() *PhraseMapper {
	return &PhraseMapper{phrases: defaultPhrases}
}

// NewPhraseMapperWith creates a mapper with a custom dictionary.
// Keys are uppercase letter runs, values the phrase to emit.
func NewPhraseMapperWith(phrases map[string]string) *PhraseMapper {
	if len(phrases) == 0 {
		phrases = defaultPhrases
	}
	return &PhraseMapper{phrases: phrases}
}

// Observe records a stable sign and returns the sign to surface: the mapped
// phrase when the trailing letter run matches the dictionary, otherwise the
// sign unchanged. Dynamic signs reset the letter run, since a gesture breaks
// a fingerspelling sequence.
func (m *PhraseMapper) Observe(s StableSign) StableSign {
	if s.Kind == Dynamic {
		m.letters = m.letters[:0]
		return s
	}

	// Only single letters participate in fingerspelling runs.
	if len(s.Label) != 1 {
		m.letters = m.letters[:0]
		return s
	}

	m.letters = append(m.letters, strings.ToUpper(s.Label))
	if len(m.letters) > maxPhraseRun {
		m.letters = m.letters[1:]
	}

	// Longest suffix match wins.
	run := strings.Join(m.letters, "")
	for i := 0; i < len(run); i++ {
		if phrase, ok := m.phrases[run[i:]]; ok {
			m.letters = m.letters[:0]
			mapped := s
			mapped.Label = phrase
			return mapped
		}
	}
	return s
}

// Sequence returns the accumulated letter run as a string.
func (m *PhraseMapper) Sequence() string {
	return strings.Join(m.letters, "")
}

// Reset clears the accumulated run. Called on mode switch.
func (m *PhraseMapper) Reset() {
	m.letters = m.letters[:0]
}
