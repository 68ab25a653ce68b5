package semantic

import "context"

// Embedder turns text into a normalized embedding vector. Implementations
// must embed queries and corpus chunks with the same model so cosine
// similarity is meaningful.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorRecord is one embedded chunk to be stored.
type VectorRecord struct {
	// PointID is the vector store point UUID.
	PointID string
	// CorpusIndex is the chunk's position in the corpus snapshot; search
	// results are joined to the lexical ranking through it.
	CorpusIndex int
	ChunkID     string
	DocName     string
	Embedding   []float32
}

// SearchResult is one k-NN match.
type SearchResult struct {
	CorpusIndex int
	ChunkID     string
	Score       float32
}

// Payload field names used in the vector store.
const (
	fieldCorpusIndex = "corpus_index"
	fieldChunkID     = "chunk_id"
	fieldDocName     = "doc_name"
)
