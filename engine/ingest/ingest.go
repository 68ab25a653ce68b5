package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/riadocs/ria/engine/catalog"
	"github.com/riadocs/ria/engine/domain"
	"github.com/riadocs/ria/engine/semantic"
	"github.com/riadocs/ria/pkg/fn"
)

// EmbedWorkers bounds concurrent embedding requests per document.
const EmbedWorkers = 4

// VectorUpserter stores embedded chunks.
type VectorUpserter interface {
	Upsert(ctx context.Context, records []semantic.VectorRecord) error
}

// CatalogStore registers documents, their sections, and cross-document
// references.
type CatalogStore interface {
	SaveDocument(ctx context.Context, d catalog.Document) error
	SaveSection(ctx context.Context, s catalog.Section) error
	LinkReference(ctx context.Context, from, to string) error
}

// Deps holds the external collaborators of the ingest pipeline.
type Deps struct {
	Embedder semantic.Embedder
	Vectors  VectorUpserter
	Catalog  CatalogStore
	Corpus   *CorpusWriter
	Logger   *slog.Logger
}

// Validate rejects documents that cannot produce chunks.
var Validate fn.Stage[ParsedDoc, ParsedDoc] = func(_ context.Context, doc ParsedDoc) fn.Result[ParsedDoc] {
	if err := ValidateDoc(doc); err != nil {
		return fn.Err[ParsedDoc](err)
	}
	return fn.Ok(doc)
}

// Chunk splits a document into section-aware chunks.
var Chunk fn.Stage[ParsedDoc, ChunkedDoc] = func(_ context.Context, doc ParsedDoc) fn.Result[ChunkedDoc] {
	chunks := ChunkDocument(doc, TargetTokens, OverlapTokens)
	if len(chunks) == 0 {
		return fn.Errf[ChunkedDoc]("ingest: %s produced no chunks", doc.DocName)
	}
	return fn.Ok(ChunkedDoc{ParsedDoc: doc, Chunks: chunks})
}

// NewEmbed creates the embedding stage. Chunks are embedded with bounded
// concurrency; order is preserved so embeddings stay index-aligned.
func NewEmbed(embedder semantic.Embedder) fn.Stage[ChunkedDoc, EmbeddedDoc] {
	return func(ctx context.Context, doc ChunkedDoc) fn.Result[EmbeddedDoc] {
		results := fn.ParMapResult(doc.Chunks, EmbedWorkers, func(c domain.Chunk) fn.Result[[]float32] {
			return fn.FromPair(embedder.Embed(ctx, c.Text))
		})
		embeddings, err := fn.Collect(results).Unwrap()
		if err != nil {
			return fn.Err[EmbeddedDoc](fmt.Errorf("ingest: embed %s: %w", doc.DocName, err))
		}
		return fn.Ok(EmbeddedDoc{ChunkedDoc: doc, Embeddings: embeddings})
	}
}

// NewStore creates the storage stage: corpus append, vector upsert, and
// catalog registration. The corpus append runs first because vector
// payloads carry the corpus index.
func NewStore(deps Deps) fn.Stage[EmbeddedDoc, string] {
	return func(ctx context.Context, doc EmbeddedDoc) fn.Result[string] {
		base, err := deps.Corpus.Append(doc.Chunks)
		if err != nil {
			return fn.Err[string](err)
		}

		records := make([]semantic.VectorRecord, len(doc.Chunks))
		for i, c := range doc.Chunks {
			records[i] = semantic.VectorRecord{
				PointID:     uuid.NewSHA1(uuid.NameSpaceURL, []byte(c.ChunkID)).String(),
				CorpusIndex: base + i,
				ChunkID:     c.ChunkID,
				DocName:     c.DocName,
				Embedding:   doc.Embeddings[i],
			}
		}
		if err := deps.Vectors.Upsert(ctx, records); err != nil {
			return fn.Err[string](fmt.Errorf("ingest: vector upsert %s: %w", doc.DocName, err))
		}

		sections := summarizeSections(doc.Chunks)
		if err := deps.Catalog.SaveDocument(ctx, catalog.Document{
			Name:       doc.DocName,
			Pages:      maxPage(doc.Pages),
			Chunks:     len(doc.Chunks),
			Sections:   len(sections),
			SHA256:     doc.SHA256,
			IngestedAt: time.Now().UTC(),
		}); err != nil {
			return fn.Err[string](err)
		}
		for _, s := range sections {
			if err := deps.Catalog.SaveSection(ctx, s); err != nil {
				return fn.Err[string](err)
			}
		}
		for _, ref := range mineReferences(doc.Chunks, doc.DocName) {
			if err := deps.Catalog.LinkReference(ctx, doc.DocName, ref); err != nil {
				return fn.Err[string](fmt.Errorf("ingest: link reference %s -> %s: %w", doc.DocName, ref, err))
			}
		}

		return fn.Ok(doc.DocName)
	}
}

// NewPipeline wires validate, chunk, embed, and store with tracing.
func NewPipeline(deps Deps) fn.Stage[ParsedDoc, string] {
	validated := fn.Traced("ingest.validate", Validate)
	chunked := fn.Traced("ingest.chunk", Chunk)
	embedded := fn.Traced("ingest.embed", NewEmbed(deps.Embedder))
	stored := fn.Traced("ingest.store", NewStore(deps))
	return fn.Then(fn.Then(fn.Then(validated, chunked), embedded), stored)
}

// summarizeSections reduces chunks to per-section page ranges and counts,
// in first-appearance order.
func summarizeSections(chunks []domain.Chunk) []catalog.Section {
	index := make(map[string]int)
	var out []catalog.Section
	for _, c := range chunks {
		i, seen := index[c.Section]
		if !seen {
			index[c.Section] = len(out)
			out = append(out, catalog.Section{
				DocName:   c.DocName,
				Title:     c.Section,
				PageStart: c.PageStart,
				PageEnd:   c.PageEnd,
				Chunks:    1,
			})
			continue
		}
		sec := &out[i]
		if c.PageStart < sec.PageStart {
			sec.PageStart = c.PageStart
		}
		if c.PageEnd > sec.PageEnd {
			sec.PageEnd = c.PageEnd
		}
		sec.Chunks++
	}
	return out
}

// referenceRe matches "see the <Title> Guide/Manual/Reference" phrases
// pointing at other publications.
var referenceRe = regexp.MustCompile(`\b[Ss]ee (?:also )?(?:the )?([A-Z][A-Za-z0-9 /&-]{2,60}?(?:Guide|Manual|Reference))\b`)

// mineReferences extracts the other publications a document points its
// readers to, in first-appearance order. Self references are dropped.
func mineReferences(chunks []domain.Chunk, docName string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range chunks {
		for _, m := range referenceRe.FindAllStringSubmatch(c.Text, -1) {
			ref := strings.TrimSpace(m[1])
			if ref == "" || strings.EqualFold(ref, docName) || seen[ref] {
				continue
			}
			seen[ref] = true
			out = append(out, ref)
		}
	}
	return out
}

func maxPage(pages []Page) int {
	max := 0
	for _, p := range pages {
		if p.Page > max {
			max = p.Page
		}
	}
	return max
}
