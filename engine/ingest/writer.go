package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/riadocs/ria/engine/domain"
)

// CorpusWriter appends chunks to the JSONL corpus snapshot and tracks the
// next corpus index so vector payloads can carry the join key.
type CorpusWriter struct {
	mu   sync.Mutex
	f    *os.File
	enc  *json.Encoder
	next int
}

// OpenCorpusWriter opens the corpus file for appending, counting any
// existing records so new chunks continue the index sequence.
func OpenCorpusWriter(path string) (*CorpusWriter, error) {
	existing, err := countLines(path)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ingest: open corpus %s: %w", path, err)
	}
	return &CorpusWriter{f: f, enc: json.NewEncoder(f), next: existing}, nil
}

// Append writes chunks as JSONL and returns the corpus index of the first
// one.
func (w *CorpusWriter) Append(chunks []domain.Chunk) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	base := w.next
	for _, c := range chunks {
		if err := w.enc.Encode(c); err != nil {
			return 0, fmt.Errorf("ingest: append chunk %s: %w", c.ChunkID, err)
		}
		w.next++
	}
	return base, nil
}

// Len returns the number of records written so far, including
// pre-existing ones.
func (w *CorpusWriter) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.next
}

// Close flushes and closes the corpus file.
func (w *CorpusWriter) Close() error { return w.f.Close() }

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("ingest: read corpus %s: %w", path, err)
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	return n, sc.Err()
}
