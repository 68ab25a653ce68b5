package pipeline

import (
	"strings"

	"github.com/riadocs/ria/engine/domain"
)

// RoundHit is the client-facing snapshot of one retrieved chunk.
type RoundHit struct {
	ChunkID   string `json:"chunk_id"`
	DocName   string `json:"doc_name"`
	PageStart int    `json:"page_start"`
	PageEnd   int    `json:"page_end"`
	Section   string `json:"section"`
	Text      string `json:"text"`
}

// Response is the full pipeline output for one question.
type Response struct {
	Plan           []string                  `json:"plan"`
	Question       string                    `json:"question"`
	Round1         []RoundHit                `json:"round1"`
	Round2         []RoundHit                `json:"round2"`
	Entities       domain.EntitySet          `json:"entities"`
	RefinedQueries []string                  `json:"refined_queries"`
	Verification   domain.VerificationResult `json:"verification"`
	Answer         string                    `json:"answer_markdown"`
	Trace          domain.IterationTrace     `json:"trace"`
}

func roundPayload(hits []domain.ScoredHit) []RoundHit {
	out := make([]RoundHit, len(hits))
	for i, h := range hits {
		section := h.Chunk.Section
		if section == "" {
			section = "UNSPECIFIED"
		}
		out[i] = RoundHit{
			ChunkID:   h.Chunk.ChunkID,
			DocName:   h.Chunk.DocName,
			PageStart: h.Chunk.PageStart,
			PageEnd:   h.Chunk.PageEnd,
			Section:   section,
			Text:      h.Chunk.Text,
		}
	}
	return out
}

const noEvidenceAnswer = `### Not enough evidence in the approved manuals
I searched the provided dataset but could not find documentation that supports an answer.
Try adding product/version, OS, module name, or the exact UI screen/setting label.
`

const lowOverlapAnswer = `### Not enough evidence in the approved manuals
I found documentation, but it does not clearly match this question.
Try adding product version, OS, module name, or the exact UI screen/setting label.
`

// wrapWithConfirmation surrounds an answer that failed verification with
// a visible confirmation banner and the list of unsupported claims. The
// answer is never withheld.
func wrapWithConfirmation(answer string, unsupported []string) string {
	var b strings.Builder
	b.WriteString("### ⚠️ Partial evidence found — manual confirmation recommended\n\n")
	b.WriteString("The system found relevant documentation, but not every statement could be fully supported ")
	b.WriteString("by explicit citations in the approved dataset.\n\n")
	b.WriteString(answer)
	b.WriteString("\n\n---\n### Unsupported or weakly supported statements:\n")
	if len(unsupported) == 0 {
		b.WriteString("- (none listed)\n")
		return b.String()
	}
	for _, u := range unsupported {
		b.WriteString("- " + u + "\n")
	}
	return b.String()
}
