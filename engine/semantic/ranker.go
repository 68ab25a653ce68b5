package semantic

import (
	"context"
	"fmt"

	"github.com/riadocs/ria/engine/retrieval"
)

// Searcher is the slice of VectorStore the ranker needs.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, topK int) ([]SearchResult, error)
}

// Ranker adapts an embedder plus a vector store to the retrieval
// SemanticRanker contract: query text in, (corpus index, cosine
// similarity) pairs out.
type Ranker struct {
	embed Embedder
	store Searcher
}

// NewRanker creates a Ranker.
func NewRanker(embed Embedder, store Searcher) *Ranker {
	return &Ranker{embed: embed, store: store}
}

// Rank embeds the query and searches the vector store.
func (r *Ranker) Rank(ctx context.Context, query string, k int) ([]retrieval.IndexScore, error) {
	vec, err := r.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("semantic: embed query: %w", err)
	}
	results, err := r.store.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	out := make([]retrieval.IndexScore, len(results))
	for i, sr := range results {
		out[i] = retrieval.IndexScore{Index: sr.CorpusIndex, Score: float64(sr.Score)}
	}
	return out, nil
}
