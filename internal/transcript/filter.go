// Package transcript guards the dialogue loop against recognizer
// hallucination: on noisy audio the STT engine occasionally decodes into
// scripts that cannot be German speech at all.
package transcript

import "strings"

// Characters of German outside ASCII that count as plausible.
const germanExtras = "äöüÄÖÜß"

// IsAcceptable reports whether text is plausibly German speech. Empty input
// is rejected; otherwise more than half of the runes must be ASCII or one of
// the German umlaut/sharp-s characters. This is a heuristic, not a language
// classifier.
func IsAcceptable(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	total := 0
	plausible := 0
	for _, r := range text {
		total++
		if r < 128 || strings.ContainsRune(germanExtras, r) {
			plausible++
		}
	}
	return float64(plausible)/float64(total) > 0.5
}
