// Package refine extracts controlled-vocabulary entities from accumulated
// evidence and expands the retrieval query with them between rounds. All
// matching is deterministic: fixed literal sets and a fixed command
// heuristic, no language model involved.
package refine

import (
	"sort"
	"strings"

	"github.com/riadocs/ria/engine/domain"
)

// Extract scans evidence chunks for product names, command-like tokens,
// and allowlisted keywords. Results per category are deduplicated, sorted
// lexicographically, and truncated to the category cap.
func Extract(chunks []domain.Chunk) domain.EntitySet {
	software := make(map[string]bool)
	commands := make(map[string]bool)
	keywords := make(map[string]bool)

	for _, c := range chunks {
		text := c.Text
		lower := strings.ToLower(text)

		for _, product := range productLiterals {
			if strings.Contains(lower, strings.ToLower(product)) {
				software[product] = true
			}
		}

		for _, kw := range keywordAllowlist {
			if strings.Contains(lower, strings.ToLower(kw)) {
				keywords[kw] = true
			}
		}

		for _, tok := range tokenRe.FindAllString(text, -1) {
			t := strings.ToLower(tok)
			if stopwords[t] {
				continue
			}
			if commandLiterals[t] {
				commands[t] = true
				continue
			}
			for _, marker := range commandMarkers {
				if strings.Contains(t, marker) {
					commands[t] = true
					break
				}
			}
		}
	}

	return domain.EntitySet{
		Software: sortedCapped(software, maxSoftware),
		Commands: sortedCapped(commands, maxCommands),
		Keywords: sortedCapped(keywords, maxKeywords),
	}
}

// BuildQuery concatenates the original question with every extracted
// entity, space-separated, in software→commands→keywords order. The
// refined query is always a strict textual superset of the question.
func BuildQuery(question string, entities domain.EntitySet) string {
	parts := make([]string, 0, 1+len(entities.Software)+len(entities.Commands)+len(entities.Keywords))
	parts = append(parts, question)
	parts = append(parts, entities.Software...)
	parts = append(parts, entities.Commands...)
	parts = append(parts, entities.Keywords...)
	return strings.Join(parts, " ")
}

func sortedCapped(set map[string]bool, cap int) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	if len(out) > cap {
		out = out[:cap]
	}
	return out
}
