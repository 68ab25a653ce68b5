package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Store provides catalog operations over Neo4j.
type Store struct {
	opener SessionOpener
	logger *slog.Logger
}

// New creates a catalog Store over a Neo4j driver.
func New(driver neo4j.DriverWithContext, logger *slog.Logger) *Store {
	return NewWithOpener(driverOpener{driver: driver}, logger)
}

// NewWithOpener creates a catalog Store with a custom session opener.
func NewWithOpener(opener SessionOpener, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{opener: opener, logger: logger}
}

// SaveDocument creates or updates the registry node for a document.
// Re-ingesting the same document overwrites its properties in place.
func (s *Store) SaveDocument(ctx context.Context, d Document) error {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MERGE (n:Document {doc_name: $name}) SET n += $props`
	_, err := sess.Run(ctx, cypher, map[string]any{
		"name": d.Name,
		"props": map[string]any{
			"doc_name":    d.Name,
			"pages":       d.Pages,
			"chunks":      d.Chunks,
			"sections":    d.Sections,
			"sha256":      d.SHA256,
			"ingested_at": d.IngestedAt.Unix(),
		},
	})
	if err != nil {
		return fmt.Errorf("catalog: save document %q: %w", d.Name, err)
	}
	return nil
}

// SaveSection creates or updates a section node and links it to its
// document.
func (s *Store) SaveSection(ctx context.Context, sec Section) error {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MERGE (sec:Section {doc_name: $doc, title: $title})
	           SET sec.page_start = $start, sec.page_end = $end, sec.chunks = $chunks
	           WITH sec
	           MATCH (d:Document {doc_name: $doc})
	           MERGE (d)-[:HAS_SECTION]->(sec)`
	_, err := sess.Run(ctx, cypher, map[string]any{
		"doc":    sec.DocName,
		"title":  sec.Title,
		"start":  sec.PageStart,
		"end":    sec.PageEnd,
		"chunks": sec.Chunks,
	})
	if err != nil {
		return fmt.Errorf("catalog: save section %q/%q: %w", sec.DocName, sec.Title, err)
	}
	return nil
}

// LinkReference records that one document refers the reader to another,
// e.g. an installation guide pointing at the planning guide.
func (s *Store) LinkReference(ctx context.Context, fromDoc, toDoc string) error {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (a:Document {doc_name: $from}), (b:Document {doc_name: $to})
	           MERGE (a)-[:REFERENCES]->(b)`
	_, err := sess.Run(ctx, cypher, map[string]any{"from": fromDoc, "to": toDoc})
	if err != nil {
		return fmt.Errorf("catalog: link %q -> %q: %w", fromDoc, toDoc, err)
	}
	return nil
}

// ListDocuments returns every registered document, ordered by name.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (n:Document) RETURN n ORDER BY n.doc_name`
	result, err := sess.Run(ctx, cypher, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: list documents: %w", err)
	}
	return collectDocuments(ctx, result)
}

// Sections returns the sections of one document in page order.
func (s *Store) Sections(ctx context.Context, docName string) ([]Section, error) {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (:Document {doc_name: $doc})-[:HAS_SECTION]->(sec:Section)
	           RETURN sec ORDER BY sec.page_start, sec.title`
	result, err := sess.Run(ctx, cypher, map[string]any{"doc": docName})
	if err != nil {
		return nil, fmt.Errorf("catalog: sections of %q: %w", docName, err)
	}

	var out []Section
	for result.Next(ctx) {
		node, ok := nodeFromRecord(result.Record(), "sec")
		if !ok {
			continue
		}
		p := node.Props
		out = append(out, Section{
			DocName:   strProp(p, "doc_name"),
			Title:     strProp(p, "title"),
			PageStart: intProp(p, "page_start"),
			PageEnd:   intProp(p, "page_end"),
			Chunks:    intProp(p, "chunks"),
		})
	}
	return out, result.Err()
}

// References returns the names of documents the given document refers to.
func (s *Store) References(ctx context.Context, docName string) ([]string, error) {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (:Document {doc_name: $doc})-[:REFERENCES]->(b:Document)
	           RETURN b.doc_name AS name ORDER BY name`
	result, err := sess.Run(ctx, cypher, map[string]any{"doc": docName})
	if err != nil {
		return nil, fmt.Errorf("catalog: references of %q: %w", docName, err)
	}

	var out []string
	for result.Next(ctx) {
		if v, ok := result.Record().Get("name"); ok {
			if name, ok := v.(string); ok {
				out = append(out, name)
			}
		}
	}
	return out, result.Err()
}

// Stats returns aggregate catalog counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (d:Document)
	           OPTIONAL MATCH (d)-[:HAS_SECTION]->(sec:Section)
	           OPTIONAL MATCH (d)-[r:REFERENCES]->(:Document)
	           RETURN count(DISTINCT d) AS docs, count(DISTINCT sec) AS secs, count(DISTINCT r) AS refs`
	result, err := sess.Run(ctx, cypher, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("catalog: stats: %w", err)
	}

	var st Stats
	if result.Next(ctx) {
		rec := result.Record()
		st.Documents = intRecord(rec, "docs")
		st.Sections = intRecord(rec, "secs")
		st.References = intRecord(rec, "refs")
	}
	return st, result.Err()
}

func collectDocuments(ctx context.Context, result CypherResult) ([]Document, error) {
	var out []Document
	for result.Next(ctx) {
		node, ok := nodeFromRecord(result.Record(), "n")
		if !ok {
			continue
		}
		out = append(out, documentFromProps(node.Props))
	}
	return out, result.Err()
}

func documentFromProps(p map[string]any) Document {
	d := Document{
		Name:     strProp(p, "doc_name"),
		Pages:    intProp(p, "pages"),
		Chunks:   intProp(p, "chunks"),
		Sections: intProp(p, "sections"),
		SHA256:   strProp(p, "sha256"),
	}
	if ts := int64Prop(p, "ingested_at"); ts != 0 {
		d.IngestedAt = timeFromUnix(ts)
	}
	return d
}

func nodeFromRecord(rec *neo4j.Record, key string) (dbtype.Node, bool) {
	v, ok := rec.Get(key)
	if !ok {
		return dbtype.Node{}, false
	}
	node, ok := v.(dbtype.Node)
	return node, ok
}

func strProp(p map[string]any, key string) string {
	if v, ok := p[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func intProp(p map[string]any, key string) int {
	return int(int64Prop(p, key))
}

func int64Prop(p map[string]any, key string) int64 {
	if v, ok := p[key]; ok {
		switch n := v.(type) {
		case int64:
			return n
		case int:
			return int64(n)
		case float64:
			return int64(n)
		}
	}
	return 0
}

func intRecord(rec *neo4j.Record, key string) int64 {
	if v, ok := rec.Get(key); ok {
		if n, ok := v.(int64); ok {
			return n
		}
	}
	return 0
}
