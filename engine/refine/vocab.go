package refine

import "regexp"

// tokenRe matches word-like tokens of length ≥3 starting with a letter.
var tokenRe = regexp.MustCompile(`\b[a-zA-Z][a-zA-Z0-9_\-]{2,}\b`)

// productLiterals are product names matched verbatim (case-insensitively)
// in evidence text.
var productLiterals = []string{
	"RICOH ProcessDirector",
	"ProcessDirector",
}

// keywordAllowlist are manual-vocabulary terms worth feeding back into a
// refined query. Matched case-insensitively, reported in canonical form.
var keywordAllowlist = []string{
	"DB2", "PostgreSQL", "Windows", "Linux", "workflow",
	"property", "RAM", "memory", "disk", "logs",
}

// commandMarkers are infix fragments that mark a lowercase token as a
// likely executable or command.
var commandMarkers = []string{
	"aiw", "rpd", "pd", "db2", "psql", "systemctl", "service", "cmd", "exe",
}

// commandLiterals are tokens that always count as commands.
var commandLiterals = map[string]bool{
	"stopaiw":  true,
	"startaiw": true,
}

// stopwords are function words excluded from command-token harvesting.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"this": true, "that": true, "then": true, "than": true, "into": true,
	"onto": true, "when": true, "what": true, "where": true, "how": true,
	"does": true, "do": true, "did": true, "can": true, "will": true,
	"should": true, "would": true, "could": true, "are": true, "is": true,
	"was": true, "were": true, "been": true, "being": true, "it": true,
	"its": true, "you": true, "your": true, "they": true, "their": true,
	"them": true, "we": true, "our": true, "but": true, "also": true,
	"may": true, "might": true, "must": true, "not": true, "no": true,
	"yes": true, "a": true, "an": true, "to": true, "of": true,
	"in": true, "on": true, "at": true, "as": true,
}

// Category caps keep refined queries tight and output stable.
const (
	maxSoftware = 5
	maxCommands = 10
	maxKeywords = 10
)
