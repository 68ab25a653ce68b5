// Package domain defines the core data model shared across the RIA engine
// pipeline: corpus chunks, scored retrieval hits, extracted entity sets,
// verification results, and the per-request iteration trace. It also acts
// as the validation gate at the transport entry point.
package domain

// Chunk is an immutable span of manual text produced by the ingest chunker.
// It is read-only everywhere downstream of ingestion.
type Chunk struct {
	ChunkID     string `json:"chunk_id"`
	DocName     string `json:"doc_name"`
	PageStart   int    `json:"page_start"`
	PageEnd     int    `json:"page_end"`
	Section     string `json:"section"`
	Text        string `json:"text"`
	TokensRough int    `json:"tokens_rough"`
}

// ScoredHit pairs a chunk with its fused relevance score in [0,1].
type ScoredHit struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// EntitySet holds controlled-vocabulary entities extracted from evidence.
// Each slice is deduplicated, lexicographically sorted, and capped
// (software ≤5, commands ≤10, keywords ≤10).
type EntitySet struct {
	Software []string `json:"software"`
	Commands []string `json:"commands"`
	Keywords []string `json:"keywords"`
}

// Empty reports whether no entities were extracted at all.
func (e EntitySet) Empty() bool {
	return len(e.Software) == 0 && len(e.Commands) == 0 && len(e.Keywords) == 0
}

// VerificationResult is the output of claim-level citation checking.
type VerificationResult struct {
	CitationCoverage  float64  `json:"citation_coverage"`
	TotalClaims       int      `json:"total_claims"`
	UnsupportedClaims int      `json:"unsupported_claims"`
	UnsupportedTexts  []string `json:"unsupported_claim_texts"`
	NeedsConfirmation bool     `json:"needs_confirmation"`
}

// StopReason is the categorical cause for terminating the retrieval loop.
type StopReason string

const (
	StopMaxRounds  StopReason = "max_rounds_exhausted"
	StopSaturated  StopReason = "evidence_saturated"
	StopNoEvidence StopReason = "no_evidence"
	StopLowOverlap StopReason = "low_evidence_overlap"
)

// TraceStep records one retrieval round.
type TraceStep struct {
	Round     int        `json:"round"`
	Query     string     `json:"query"`
	NewChunks int        `json:"new_chunks_added"`
	TopHits   []TraceHit `json:"top_hits"`
}

// TraceHit is a compact (doc, chunk) reference for trace sampling.
type TraceHit struct {
	DocName string `json:"doc_name"`
	ChunkID string `json:"chunk_id"`
}

// IterationTrace is the full record of one request's retrieval loop.
type IterationTrace struct {
	Rounds            int         `json:"rounds"`
	NewChunksPerRound []int       `json:"new_chunks_per_round"`
	StopReason        StopReason  `json:"stop_reason"`
	FinalQuery        string      `json:"final_query"`
	TotalUniqueChunks int         `json:"total_unique_chunks"`
	EvidenceOverlap   float64     `json:"evidence_overlap"`
	Steps             []TraceStep `json:"steps"`
}
