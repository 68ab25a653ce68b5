// Package verify scores an answer's claim-level citation coverage. Claim
// extraction and citation matching are format-exact finite matchers: no
// natural-language processing, fully deterministic.
package verify

import (
	"regexp"
	"strings"

	"github.com/riadocs/ria/engine/domain"
)

// DefaultMinCoverage is the primary-path coverage threshold.
const DefaultMinCoverage = 0.95

// maxUnsupportedTexts caps the verbatim unsupported claims in the result.
const maxUnsupportedTexts = 12

// citeRe matches a bracketed citation carrying a `chunk:` marker followed
// by an alphanumeric/dash/underscore identifier. The verifier is
// format-exact only on this substring and agnostic about the rest of the
// bracket contents.
var citeRe = regexp.MustCompile(`(?i)\[[^\]]*chunk:\s*[A-Za-z0-9_\-]+\]`)

// numberedRe matches numbered-step markers like "3. ".
var numberedRe = regexp.MustCompile(`^\d+\.\s+`)

// minClaimLen is the trimmed length at which a plain line counts as a
// sentence-like claim.
const minClaimLen = 25

// SplitClaims extracts claim lines from answer markdown: bullets and
// numbered steps always qualify, headings never do, and any other
// non-empty line qualifies once it reaches sentence length.
func SplitClaims(answer string) []string {
	var claims []string
	for _, raw := range strings.Split(answer, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") || numberedRe.MatchString(line) {
			claims = append(claims, line)
			continue
		}
		if len(line) >= minClaimLen {
			claims = append(claims, line)
		}
	}
	return claims
}

// Citations computes the citation coverage of an answer against a minimum
// coverage threshold. A claimless answer yields coverage 0.0 and always
// needs confirmation. Any single uncited claim forces confirmation even
// when aggregate coverage clears the threshold.
func Citations(answer string, minCoverage float64) domain.VerificationResult {
	claims := SplitClaims(answer)
	if len(claims) == 0 {
		return domain.VerificationResult{
			CitationCoverage:  0.0,
			NeedsConfirmation: true,
		}
	}

	supported := 0
	var unsupported []string
	for _, claim := range claims {
		if citeRe.MatchString(claim) {
			supported++
		} else {
			unsupported = append(unsupported, claim)
		}
	}

	total := len(claims)
	coverage := float64(supported) / float64(total)
	capped := unsupported
	if len(capped) > maxUnsupportedTexts {
		capped = capped[:maxUnsupportedTexts]
	}

	return domain.VerificationResult{
		CitationCoverage:  coverage,
		TotalClaims:       total,
		UnsupportedClaims: total - supported,
		UnsupportedTexts:  capped,
		NeedsConfirmation: coverage < minCoverage || total-supported > 0,
	}
}
