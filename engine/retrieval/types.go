// Package retrieval implements hybrid lexical+semantic retrieval over the
// manual corpus: score fusion of two ranked candidate lists, per-document
// diversity filtering, and the deduplicating evidence pool used by the
// iterative pipeline.
package retrieval

import (
	"context"

	"github.com/riadocs/ria/engine/domain"
)

// IndexScore is one ranked candidate: a corpus index with a raw score.
// Lexical scores are unbounded (higher is better); semantic scores are
// cosine similarities in [-1,1].
type IndexScore struct {
	Index int
	Score float64
}

// LexicalRanker returns the top-k lexically ranked corpus indexes for a
// query. Implementations are in-memory and must be deterministic.
type LexicalRanker interface {
	Rank(query string, k int) []IndexScore
}

// SemanticRanker returns the top-k semantically ranked corpus indexes for
// a query. Implementations typically embed the query and search a vector
// store, so they take a context and may fail.
type SemanticRanker interface {
	Rank(ctx context.Context, query string, k int) ([]IndexScore, error)
}

// CorpusStore is read-only chunk lookup by corpus index.
type CorpusStore interface {
	Chunk(index int) (domain.Chunk, error)
	Len() int
}

const (
	// lexicalWeight and semanticWeight are the fusion weights; they sum to 1.
	lexicalWeight  = 0.55
	semanticWeight = 0.45

	// candidateDepth is how many candidates each ranker contributes
	// before fusion.
	candidateDepth = 25
)
