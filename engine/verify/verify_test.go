package verify

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestSplitClaims_BulletsNumbersAndSentences(t *testing.T) {
	answer := strings.Join([]string{
		"### Heading is never a claim",
		"- bullet claim",
		"* star bullet",
		"1. numbered step",
		"short line",
		"this sentence-like line is definitely long enough to qualify",
		"",
	}, "\n")

	claims := SplitClaims(answer)
	if len(claims) != 4 {
		t.Fatalf("expected 4 claims, got %d: %v", len(claims), claims)
	}
}

func TestCitations_PartialCoverage(t *testing.T) {
	answer := strings.Join([]string{
		"- step one [manual.pdf | p.1-2 | chunk: abc_123]",
		"- step two [manual.pdf | p.3-3 | chunk: def-456]",
		"- step three [other.pdf | p.9-9 | chunk: ghi789]",
		"- step four has no citation at all",
	}, "\n")

	res := Citations(answer, 0.95)
	if math.Abs(res.CitationCoverage-0.75) > 1e-12 {
		t.Errorf("expected coverage 0.75, got %v", res.CitationCoverage)
	}
	if res.TotalClaims != 4 || res.UnsupportedClaims != 1 {
		t.Errorf("unexpected counts: %+v", res)
	}
	if !res.NeedsConfirmation {
		t.Error("expected needs_confirmation")
	}
	if len(res.UnsupportedTexts) != 1 || !strings.Contains(res.UnsupportedTexts[0], "step four") {
		t.Errorf("unexpected unsupported texts: %v", res.UnsupportedTexts)
	}
}

func TestCitations_SingleUncitedClaimForcesConfirmation(t *testing.T) {
	// 39 cited claims and 1 uncited: coverage 0.975 clears a 0.95
	// threshold, but the uncited claim still forces confirmation.
	var lines []string
	for i := 0; i < 39; i++ {
		lines = append(lines, fmt.Sprintf("- cited claim %d [m.pdf | p.1-1 | chunk: c%d]", i, i))
	}
	lines = append(lines, "- the one uncited claim")

	res := Citations(strings.Join(lines, "\n"), 0.95)
	if res.CitationCoverage < 0.95 {
		t.Fatalf("precondition failed: coverage %v", res.CitationCoverage)
	}
	if !res.NeedsConfirmation {
		t.Error("uncited claim must force confirmation despite coverage above threshold")
	}
}

func TestCitations_FullCoverage(t *testing.T) {
	answer := "- everything cited [manual.pdf | p.1-2 | chunk: abc]"
	res := Citations(answer, 0.95)
	if res.CitationCoverage != 1.0 || res.NeedsConfirmation {
		t.Errorf("expected clean pass, got %+v", res)
	}
}

func TestCitations_ClaimlessAnswer(t *testing.T) {
	res := Citations("### Only a heading\n\nok\n", 0.95)
	if res.CitationCoverage != 0.0 || !res.NeedsConfirmation || res.TotalClaims != 0 {
		t.Errorf("claimless answer must fail verification: %+v", res)
	}
}

func TestCitations_FormatExactOnChunkMarker(t *testing.T) {
	cases := []struct {
		line      string
		supported bool
	}{
		{"- cited [whatever | chunk: id-1]", true},
		{"- cited [chunk:id2]", true},
		{"- case insensitive [CHUNK: ID3]", true},
		{"- no marker [manual.pdf | p.1-2]", false},
		{"- empty id [chunk: ]", false},
		{"- unbracketed chunk: id4", false},
	}
	for _, tc := range cases {
		res := Citations(tc.line, 0.95)
		got := res.UnsupportedClaims == 0
		if got != tc.supported {
			t.Errorf("%q: supported=%v, want %v", tc.line, got, tc.supported)
		}
	}
}

func TestCitations_UnsupportedTextsCapped(t *testing.T) {
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, fmt.Sprintf("- uncited claim number %d", i))
	}
	res := Citations(strings.Join(lines, "\n"), 0.95)
	if res.UnsupportedClaims != 20 {
		t.Fatalf("expected 20 unsupported, got %d", res.UnsupportedClaims)
	}
	if len(res.UnsupportedTexts) != 12 {
		t.Errorf("expected 12 verbatim texts, got %d", len(res.UnsupportedTexts))
	}
}
