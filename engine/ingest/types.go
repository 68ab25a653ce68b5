// Package ingest turns parsed manual documents into the retrieval corpus:
// section-aware chunking, embedding, vector upsert, catalog registration,
// and the JSONL corpus snapshot. Documents arrive over NATS or straight
// from disk.
package ingest

import (
	"errors"
	"strings"

	"github.com/riadocs/ria/engine/domain"
)

// Page is one page of extracted PDF text.
type Page struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// ParsedDoc is a fully parsed manual ready for chunking.
type ParsedDoc struct {
	DocName string `json:"doc_name"`
	SHA256  string `json:"sha256,omitempty"`
	Pages   []Page `json:"pages"`
}

// ChunkedDoc pairs a document with its chunks.
type ChunkedDoc struct {
	ParsedDoc
	Chunks []domain.Chunk
}

// EmbeddedDoc adds one embedding per chunk, index-aligned.
type EmbeddedDoc struct {
	ChunkedDoc
	Embeddings [][]float32
}

var (
	ErrMissingDocName = errors.New("ingest: document has no name")
	ErrNoContent      = errors.New("ingest: document has no page text")
)

// ValidateDoc rejects documents that cannot produce chunks.
func ValidateDoc(doc ParsedDoc) error {
	if strings.TrimSpace(doc.DocName) == "" {
		return ErrMissingDocName
	}
	for _, p := range doc.Pages {
		if strings.TrimSpace(p.Text) != "" {
			return nil
		}
	}
	return ErrNoContent
}
