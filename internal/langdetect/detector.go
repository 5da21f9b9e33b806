// Package langdetect maps free text to a best-guess ISO 639-1 language tag.
package langdetect

import (
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
)

const (
	// Fallback is returned when the language cannot be determined.
	Fallback = "en"
	// minRunes mirrors the minimum sample length below which trigram
	// detection is not attempted.
	minRunes = 10
)

// Detector identifies the language of a message.
type Detector struct {
	fallback string
}

// New returns a Detector that answers fallback when detection fails. An empty
// fallback selects Fallback.
func New(fallback string) *Detector {
	fallback = strings.ToLower(strings.TrimSpace(fallback))
	if fallback == "" {
		fallback = Fallback
	}
	return &Detector{fallback: fallback}
}

// Detect returns the ISO 639-1 code for text.
func (d *Detector) Detect(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minRunes {
		return d.fallback
	}
	info := whatlanggo.Detect(text)
	code := strings.TrimSpace(info.Lang.Iso6391())
	if code == "" {
		return d.fallback
	}
	return code
}
