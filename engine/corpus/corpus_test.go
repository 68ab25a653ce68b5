package corpus

import (
	"errors"
	"strings"
	"testing"

	"github.com/riadocs/ria/engine/domain"
)

const sampleJSONL = `{"chunk_id":"m1_p0001_p0002_c000_aaaa","doc_name":"install.pdf","page_start":1,"page_end":2,"section":"Requirements","text":"The primary server needs 16 GB RAM.","tokens_rough":8}
{"chunk_id":"m1_p0003_p0003_c001_bbbb","doc_name":"install.pdf","page_start":3,"page_end":3,"section":"Commands","text":"Run stopaiw to stop the server.","tokens_rough":7}
`

func TestRead_IndexesInOrder(t *testing.T) {
	s, err := Read(strings.NewReader(sampleJSONL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 chunks, got %d", s.Len())
	}

	c0, err := s.Chunk(0)
	if err != nil || c0.Section != "Requirements" {
		t.Errorf("chunk 0: %+v, %v", c0, err)
	}
	idx, err := s.IndexOf("m1_p0003_p0003_c001_bbbb")
	if err != nil || idx != 1 {
		t.Errorf("IndexOf: %d, %v", idx, err)
	}
}

func TestRead_SkipsBlankLines(t *testing.T) {
	s, err := Read(strings.NewReader("\n" + sampleJSONL + "\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 chunks, got %d", s.Len())
	}
}

func TestRead_RejectsDuplicateIDs(t *testing.T) {
	dup := sampleJSONL + `{"chunk_id":"m1_p0001_p0002_c000_aaaa","doc_name":"x.pdf","text":"dup"}` + "\n"
	if _, err := Read(strings.NewReader(dup)); err == nil {
		t.Fatal("expected duplicate chunk_id error")
	}
}

func TestRead_RejectsMissingID(t *testing.T) {
	if _, err := Read(strings.NewReader(`{"doc_name":"x.pdf","text":"no id"}`)); err == nil {
		t.Fatal("expected missing chunk_id error")
	}
}

func TestChunk_OutOfRange(t *testing.T) {
	s, _ := Read(strings.NewReader(sampleJSONL))
	if _, err := s.Chunk(99); !errors.Is(err, domain.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := s.IndexOf("nope"); !errors.Is(err, domain.ErrUnknownChunk) {
		t.Errorf("expected ErrUnknownChunk, got %v", err)
	}
}

func TestTexts_Order(t *testing.T) {
	s, _ := Read(strings.NewReader(sampleJSONL))
	texts := s.Texts()
	if len(texts) != 2 || !strings.Contains(texts[1], "stopaiw") {
		t.Errorf("unexpected texts: %v", texts)
	}
}
