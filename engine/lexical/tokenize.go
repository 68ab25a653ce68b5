package lexical

import "strings"

// Tokenize lowercases text, replaces every non-alphanumeric rune with a
// space, and keeps tokens longer than one character. The same tokenizer is
// applied to corpus documents at index build time and to queries at search
// time.
func Tokenize(text string) []string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return ' '
		}
	}, text)

	fields := strings.Fields(mapped)
	out := fields[:0]
	for _, t := range fields {
		if len(t) > 1 {
			out = append(out, t)
		}
	}
	return out
}
