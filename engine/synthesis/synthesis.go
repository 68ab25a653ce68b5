// Package synthesis turns accumulated evidence into a cited markdown
// answer using deterministic text templates: keyword-scored evidence
// selection plus per-topic extractors for the question shapes that
// dominate manual Q&A (OS support, sizing, commands, properties). There
// is no language model; identical inputs yield identical answers.
package synthesis

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/riadocs/ria/engine/domain"
)

// Synthesizer produces cited markdown answers from evidence.
type Synthesizer struct{}

// New creates a Synthesizer.
func New() *Synthesizer { return &Synthesizer{} }

var queryTermRe = regexp.MustCompile(`[a-zA-Z0-9]+`)

// Cite renders the citation token for a chunk, in the exact format the
// verifier recognizes.
func Cite(c domain.Chunk) string {
	return fmt.Sprintf("[%s | p.%d-%d | chunk: %s]", c.DocName, c.PageStart, c.PageEnd, c.ChunkID)
}

// pickBest orders evidence by keyword-hit count, keeping only chunks with
// at least one hit; when nothing matches it falls back to the first five
// chunks. Ordering is stable so answers are deterministic.
func pickBest(evidence []domain.Chunk, keywords []string) []domain.Chunk {
	type scored struct {
		score int
		pos   int
		chunk domain.Chunk
	}
	all := make([]scored, 0, len(evidence))
	for i, e := range evidence {
		txt := strings.ToLower(e.Text)
		n := 0
		for _, kw := range keywords {
			if strings.Contains(txt, strings.ToLower(kw)) {
				n++
			}
		}
		all = append(all, scored{score: n, pos: i, chunk: e})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].pos < all[j].pos
	})

	var out []domain.Chunk
	for _, s := range all {
		if s.score > 0 {
			out = append(out, s.chunk)
		}
	}
	if len(out) == 0 {
		if len(evidence) > 5 {
			return evidence[:5]
		}
		return evidence
	}
	return out
}

// bulletsWithCitations renders one bullet per (text, source) pair, each
// carrying its own citation, deduplicated by normalized text.
func bulletsWithCitations(items []citedLine) string {
	seen := make(map[string]bool)
	var lines []string
	for _, it := range items {
		key := strings.ToLower(collapseSpace(it.text))
		if seen[key] {
			continue
		}
		seen[key] = true
		lines = append(lines, fmt.Sprintf("- %s %s", it.text, Cite(it.src)))
	}
	return strings.Join(lines, "\n")
}

type citedLine struct {
	text string
	src  domain.Chunk
}

// Answer builds a cited markdown answer for the question from the
// evidence. Evidence must be non-empty; the pipeline never calls the
// synthesizer otherwise.
func (s *Synthesizer) Answer(question string, evidence []domain.Chunk) string {
	q := strings.TrimSpace(question)
	ql := strings.ToLower(q)

	if strings.Contains(ql, "operating system") || regexp.MustCompile(`\bos\b`).MatchString(ql) {
		return s.answerOS(evidence)
	}
	if strings.Contains(ql, "printer") && strings.Contains(ql, "enable") &&
		(strings.Contains(ql, "restart") || strings.Contains(ql, "start")) {
		return s.answerEnableAfterRestart(evidence)
	}
	if strings.Contains(ql, "ram") || strings.Contains(ql, "memory") {
		return s.answerRAM(evidence)
	}
	if strings.Contains(ql, "db2") && strings.Contains(ql, "log") {
		return s.answerDB2Logs(evidence)
	}
	if (strings.Contains(ql, "command") || strings.Contains(ql, "cmd")) &&
		(strings.Contains(ql, "shut down") || strings.Contains(ql, "shutdown") || strings.Contains(ql, "stop")) {
		return s.answerShutdownCommand(evidence)
	}
	return s.answerGeneric(q, evidence)
}

func (s *Synthesizer) answerOS(evidence []domain.Chunk) string {
	best := pickBest(evidence, []string{
		"operating system", "linux", "windows", "red hat", "rocky", "suse",
		"primary server", "application server",
	})

	var linuxItems, winItems []citedLine
	for _, chunk := range best {
		for _, line := range extractSupportedOS(chunk.Text) {
			item := citedLine{text: line, src: chunk}
			if strings.Contains(strings.ToLower(line), "windows") {
				winItems = append(winItems, item)
			} else {
				linuxItems = append(linuxItems, item)
			}
		}
	}

	if len(linuxItems) == 0 && len(winItems) == 0 {
		return "### Operating system support\n\n" +
			"I found documentation mentioning operating system support, but could not extract an explicit list from the retrieved passages.\n\n" +
			Cite(best[0]) + "\n"
	}

	var b strings.Builder
	b.WriteString("### Operating system support\n\n")
	if len(linuxItems) > 0 {
		b.WriteString("**Primary server (base product): Linux**\n\n")
		b.WriteString(bulletsWithCitations(linuxItems))
		b.WriteString("\n\n")
	}
	if len(winItems) > 0 {
		b.WriteString("**Application server (optional): Windows**\n\n")
		b.WriteString(bulletsWithCitations(winItems))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func (s *Synthesizer) answerEnableAfterRestart(evidence []domain.Chunk) string {
	best := pickBest(evidence, []string{"printer", "enable", "restart", "start", "property"})
	for _, chunk := range best {
		if prop := extractEnableAfterRestart(chunk.Text); prop != "" {
			return "### Printer enable-after-restart setting\n\n" +
				"Use the documented setting/instruction:\n\n" +
				fmt.Sprintf("- %s %s\n", prop, Cite(chunk))
		}
	}
	return "### Printer enable-after-restart setting\n\n" +
		"I could not find an explicit property name/value in the retrieved passages for enabling printers after restart.\n\n" +
		Cite(best[0]) + "\n"
}

func (s *Synthesizer) answerRAM(evidence []domain.Chunk) string {
	best := pickBest(evidence, []string{
		"ram", "memory", "gb", "requirements", "prerequisites", "minimum",
		"recommended", "hardware", "resources", "sizing", "document-level",
		"document processing", "primary server",
	})
	for _, chunk := range best {
		if line := extractRAMRequirement(chunk.Text); line != "" {
			return "### Primary server RAM requirement\n\n" +
				fmt.Sprintf("- %s %s\n", line, Cite(chunk))
		}
	}
	return "### Primary server RAM requirement\n\n" +
		"I found related content, but not an explicit RAM requirement line in the retrieved passages.\n\n" +
		Cite(best[0]) + "\n"
}

func (s *Synthesizer) answerDB2Logs(evidence []domain.Chunk) string {
	best := pickBest(evidence, []string{"db2", "log", "logs", "gb", "mb", "space"})
	for _, chunk := range best {
		if line := extractDB2LogSpace(chunk.Text); line != "" {
			return "### DB2 log disk allocation\n\n" +
				fmt.Sprintf("- %s %s\n", line, Cite(chunk))
		}
	}
	return "### DB2 log disk allocation\n\n" +
		"I could not find an explicit disk-space value for DB2 logs in the retrieved passages.\n\n" +
		Cite(best[0]) + "\n"
}

func (s *Synthesizer) answerShutdownCommand(evidence []domain.Chunk) string {
	best := pickBest(evidence, []string{"stopaiw", "startaiw", "starting", "stopping", "server"})

	var found []citedLine
	for _, chunk := range best {
		if cmd := extractCommand(chunk.Text, stopCmdRe); cmd != "" {
			found = append(found, citedLine{text: cmd, src: chunk})
		}
	}
	if len(found) > 0 {
		seen := make(map[string]bool)
		var lines []string
		for _, f := range found {
			key := strings.ToLower(f.text)
			if seen[key] {
				continue
			}
			seen[key] = true
			lines = append(lines, fmt.Sprintf("- `%s` %s", f.text, Cite(f.src)))
		}
		return "### Command to shut down the server\n\n" + strings.Join(lines, "\n") + "\n"
	}

	return "### Command to shut down the server\n\n" +
		"I found starting/stopping content, but not an explicit shutdown command line in the retrieved passages.\n\n" +
		Cite(best[0]) + "\n"
}

func (s *Synthesizer) answerGeneric(question string, evidence []domain.Chunk) string {
	var terms []string
	for _, w := range queryTermRe.FindAllString(question, -1) {
		if len(w) > 3 {
			terms = append(terms, w)
		}
		if len(terms) == 8 {
			break
		}
	}
	best := pickBest(evidence, terms)
	top := best
	if len(top) > 3 {
		top = top[:3]
	}

	var b strings.Builder
	b.WriteString("### Answer (grounded)\n\n")
	b.WriteString("I found relevant documentation, but this question needs a more specific extractor to produce a clean one-shot answer.\n")
	b.WriteString("For now, here are the top supporting passages used:\n\n")
	for _, e := range top {
		fmt.Fprintf(&b, "- %s p.%d-%d (chunk %s)\n", e.DocName, e.PageStart, e.PageEnd, e.ChunkID)
	}
	b.WriteString("\n" + Cite(top[0]) + "\n")
	return b.String()
}
