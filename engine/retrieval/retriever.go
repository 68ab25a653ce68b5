package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riadocs/ria/engine/domain"
)

// Retriever combines a lexical and a semantic ranker over one corpus.
type Retriever struct {
	lexical  LexicalRanker
	semantic SemanticRanker
	corpus   CorpusStore
	logger   *slog.Logger
}

// New creates a Retriever.
func New(lexical LexicalRanker, semantic SemanticRanker, corpus CorpusStore, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{lexical: lexical, semantic: semantic, corpus: corpus, logger: logger}
}

// Search returns up to topK fused hits for the query, highest score first.
// The result never contains duplicate chunk IDs: candidates are fused by
// corpus index, and each index resolves to exactly one chunk.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]domain.ScoredHit, error) {
	if topK <= 0 {
		return nil, nil
	}

	lex := r.lexical.Rank(query, candidateDepth)
	sem, err := r.semantic.Rank(ctx, query, candidateDepth)
	if err != nil {
		return nil, fmt.Errorf("retrieval: semantic rank: %w", err)
	}

	fused := fuse(lex, sem)
	if len(fused) > topK {
		fused = fused[:topK]
	}

	hits := make([]domain.ScoredHit, 0, len(fused))
	for _, is := range fused {
		chunk, err := r.corpus.Chunk(is.Index)
		if err != nil {
			return nil, fmt.Errorf("retrieval: resolve index %d: %w", is.Index, err)
		}
		hits = append(hits, domain.ScoredHit{Chunk: chunk, Score: is.Score})
	}

	r.logger.Debug("hybrid search",
		"query_len", len(query),
		"lexical", len(lex),
		"semantic", len(sem),
		"returned", len(hits),
	)
	return hits, nil
}
