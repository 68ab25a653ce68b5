package lexical

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("Run stopaiw -all; check DB2 logs!")
	want := []string{"run", "stopaiw", "all", "check", "db2", "logs"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTokenize_DropsSingleChars(t *testing.T) {
	got := Tokenize("a b cd e fg")
	want := []string{"cd", "fg"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTokenize_Empty(t *testing.T) {
	if got := Tokenize("!!! ??"); len(got) != 0 {
		t.Errorf("expected no tokens, got %v", got)
	}
}

func TestRank_RelevantDocFirst(t *testing.T) {
	idx := NewIndex([]string{
		"the printer supports duplex trays and stapling",
		"stop the server with the stopaiw command",
		"memory requirements for the primary server",
	})

	top := idx.Rank("stopaiw command", 3)
	if len(top) == 0 || top[0].Index != 1 {
		t.Fatalf("expected doc 1 first, got %v", top)
	}
	if top[0].Score <= top[1].Score {
		t.Errorf("expected strictly higher score for matching doc: %v", top)
	}
}

func TestRank_TopKBound(t *testing.T) {
	idx := NewIndex([]string{"alpha beta", "beta gamma", "gamma delta", "delta alpha"})
	if got := idx.Rank("beta", 2); len(got) != 2 {
		t.Errorf("expected 2 results, got %d", len(got))
	}
}

func TestRank_EmptyQueryAndCorpus(t *testing.T) {
	idx := NewIndex([]string{"some document text here"})
	if got := idx.Rank("!!", 5); got != nil {
		t.Errorf("expected nil for token-less query, got %v", got)
	}
	empty := NewIndex(nil)
	if got := empty.Rank("anything", 5); got != nil {
		t.Errorf("expected nil for empty corpus, got %v", got)
	}
}

func TestRank_Deterministic(t *testing.T) {
	// Documents with identical content score identically; order must be
	// ascending index.
	idx := NewIndex([]string{"same text", "same text", "same text"})
	top := idx.Rank("same", 3)
	for i, is := range top {
		if is.Index != i {
			t.Fatalf("tie-break not ascending: %v", top)
		}
	}
}

func TestIDF_CommonTermsFloored(t *testing.T) {
	// "common" appears in every document; its raw IDF is negative and
	// must be floored, never subtracting relevance.
	idx := NewIndex([]string{
		"common alpha", "common beta", "common gamma", "common delta",
	})
	top := idx.Rank("common alpha", 4)
	if top[0].Index != 0 {
		t.Fatalf("expected doc 0 (matches both terms) first, got %v", top)
	}
	for _, is := range top {
		if is.Score < 0 {
			t.Errorf("negative BM25 score for index %d: %v", is.Index, is.Score)
		}
	}
}
