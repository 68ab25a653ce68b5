package synthesis

import (
	"regexp"
	"strings"
)

// osLineRe matches standalone operating-system support lines as they
// appear in installation manuals.
var osLineRe = regexp.MustCompile(`(?i)^(?:` +
	`Red Hat\s*\d[\d.]*\s*through\s*latest\s*\d+\.x|` +
	`Rocky Linux\s*\d[\d.]*\s*through\s*latest\s*\d+\.x|` +
	`SUSE Linux Enterprise Server\s*\(SLES\)\s*\d[\d.]*.*|` +
	`Windows\s*(?:Server\s*)?\d{4,}.*|` +
	`Windows\s*1[01].*` +
	`)$`)

var (
	stopCmdRe  = regexp.MustCompile(`(?i)\bstopaiw\b(?:\s+[-/\w]+)*`)
	startCmdRe = regexp.MustCompile(`(?i)\bstartaiw\b(?:\s+[-/\w]+)*`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

func collapseSpace(s string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// extractSupportedOS returns deduplicated OS support lines from one chunk.
func extractSupportedOS(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, ln := range strings.Split(text, "\n") {
		ln = collapseSpace(ln)
		if ln == "" || !osLineRe.MatchString(ln) {
			continue
		}
		key := strings.ToLower(ln)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ln)
	}
	return out
}

// extractRAMRequirement finds a line pairing RAM/memory with a GB figure.
func extractRAMRequirement(text string) string {
	for _, ln := range strings.Split(text, "\n") {
		l := strings.ToLower(ln)
		if (strings.Contains(l, "ram") || strings.Contains(l, "memory")) && strings.Contains(l, "gb") {
			return collapseSpace(ln)
		}
	}
	return ""
}

// extractDB2LogSpace finds a line pairing DB2 logs with a size or space
// figure.
func extractDB2LogSpace(text string) string {
	for _, ln := range strings.Split(text, "\n") {
		l := strings.ToLower(ln)
		if strings.Contains(l, "db2") && strings.Contains(l, "log") &&
			(strings.Contains(l, "gb") || strings.Contains(l, "mb") || strings.Contains(l, "space")) {
			return collapseSpace(ln)
		}
	}
	return ""
}

// extractCommand returns the first occurrence of the given command
// pattern, normalized.
func extractCommand(text string, re *regexp.Regexp) string {
	for _, ln := range strings.Split(text, "\n") {
		if m := re.FindString(ln); m != "" {
			return collapseSpace(m)
		}
	}
	return ""
}

// extractEnableAfterRestart finds a line mentioning printers being
// enabled on restart.
func extractEnableAfterRestart(text string) string {
	for _, ln := range strings.Split(text, "\n") {
		l := strings.ToLower(ln)
		if strings.Contains(l, "printer") &&
			(strings.Contains(l, "enable") || strings.Contains(l, "enabled")) &&
			(strings.Contains(l, "restart") || strings.Contains(l, "start")) {
			return collapseSpace(ln)
		}
	}
	return ""
}
