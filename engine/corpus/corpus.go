// Package corpus provides the process-wide read-only chunk store. It is
// loaded once at startup from the JSONL snapshot written by the ingest
// pipeline and never mutated afterwards, so concurrent requests may read
// it without coordination.
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/riadocs/ria/engine/domain"
)

// Store holds the corpus chunks in ingest order. The position of a chunk
// in the slice is its corpus index, shared with the lexical and semantic
// indexes.
type Store struct {
	chunks  []domain.Chunk
	indexOf map[string]int // chunk_id → corpus index
}

// Load reads a JSONL snapshot, one chunk object per line.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a JSONL chunk stream.
func Read(r io.Reader) (*Store, error) {
	s := &Store{indexOf: make(map[string]int)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var c domain.Chunk
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("corpus: line %d: %w", lineNo, err)
		}
		if c.ChunkID == "" {
			return nil, fmt.Errorf("corpus: line %d: missing chunk_id", lineNo)
		}
		if _, dup := s.indexOf[c.ChunkID]; dup {
			return nil, fmt.Errorf("corpus: line %d: duplicate chunk_id %s", lineNo, c.ChunkID)
		}
		s.indexOf[c.ChunkID] = len(s.chunks)
		s.chunks = append(s.chunks, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("corpus: scan: %w", err)
	}
	return s, nil
}

// Chunk returns the chunk at the given corpus index.
func (s *Store) Chunk(index int) (domain.Chunk, error) {
	if index < 0 || index >= len(s.chunks) {
		return domain.Chunk{}, fmt.Errorf("corpus: index %d: %w", index, domain.ErrIndexOutOfRange)
	}
	return s.chunks[index], nil
}

// IndexOf returns the corpus index for a chunk ID.
func (s *Store) IndexOf(chunkID string) (int, error) {
	idx, ok := s.indexOf[chunkID]
	if !ok {
		return 0, fmt.Errorf("corpus: %s: %w", chunkID, domain.ErrUnknownChunk)
	}
	return idx, nil
}

// Len returns the number of chunks.
func (s *Store) Len() int { return len(s.chunks) }

// Texts returns every chunk's text in corpus index order, for building
// the lexical index.
func (s *Store) Texts() []string {
	out := make([]string, len(s.chunks))
	for i, c := range s.chunks {
		out[i] = c.Text
	}
	return out
}
