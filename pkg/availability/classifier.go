// Package availability turns rendered booking tables into availability hits.
//
// The rule is a plain substring check: a row whose second cell does not
// contain the site's "not offering" phrase is treated as available. It is
// sensitive to wording changes on the site, so the phrase is configurable.
package availability

import "strings"

// DefaultUnavailablePhrase is how the booking site says an office has no slots
const DefaultUnavailablePhrase = "non offre al momento"

// Classifier decides whether a cell text signals availability
type Classifier struct {
	phrase string
}

// NewClassifier returns a classifier for phrase, matched case-insensitively.
// An empty phrase falls back to DefaultUnavailablePhrase.
func NewClassifier(phrase string) Classifier {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	if phrase == "" {
		phrase = DefaultUnavailablePhrase
	}
	return Classifier{phrase: phrase}
}

// Phrase returns the normalized unavailable phrase
func (c Classifier) Phrase() string {
	return c.phrase
}

// IsAvailable reports whether text does not contain the unavailable phrase
func (c Classifier) IsAvailable(text string) bool {
	return !strings.Contains(strings.ToLower(text), c.phrase)
}
