// Package gate decides whether accumulated evidence is topically related
// enough to the question to justify answer synthesis. It guards against
// confident-looking answers built on unrelated passages.
package gate

import (
	"regexp"
	"strings"
)

// DefaultThreshold is the minimum overlap ratio for evidence to count as
// sufficient.
const DefaultThreshold = 0.12

// minTermLen filters out short function words; only question terms longer
// than this qualify.
const minTermLen = 3

var wordRe = regexp.MustCompile(`[a-zA-Z0-9]+`)

// OverlapRatio computes the fraction of distinct qualifying question terms
// (length > 3, case-insensitive) that occur as substrings of the evidence
// text. A question with no qualifying terms yields 0.0, so term-less input
// can never pass the gate.
func OverlapRatio(question, evidenceText string) float64 {
	terms := make(map[string]bool)
	for _, w := range wordRe.FindAllString(question, -1) {
		if len(w) > minTermLen {
			terms[strings.ToLower(w)] = true
		}
	}
	if len(terms) == 0 {
		return 0.0
	}

	evidence := strings.ToLower(evidenceText)
	hits := 0
	for term := range terms {
		if strings.Contains(evidence, term) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

// Sufficient reports whether the evidence clears the threshold, returning
// the computed overlap ratio alongside the verdict.
func Sufficient(question, evidenceText string, threshold float64) (float64, bool) {
	ratio := OverlapRatio(question, evidenceText)
	return ratio, ratio >= threshold
}
