package ingest

import (
	"reflect"
	"regexp"
	"strings"
	"testing"
)

func TestIsHeading(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"3.2 Database setup", true},
		{"1.2.3.4 Deeply nested heading", true},
		{"INSTALLATION OVERVIEW", true},
		{"Prerequisites:", true},
		{"just some body text", false},
		{"Hi", false},
		{strings.Repeat("X", 141), false},
	}
	for _, tt := range tests {
		if got := isHeading(tt.line); got != tt.want {
			t.Errorf("isHeading(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestTokenCountRough(t *testing.T) {
	if got := tokenCountRough("stop the server, then restart"); got != 5 {
		t.Errorf("got %d, want 5", got)
	}
	if got := tokenCountRough(""); got != 0 {
		t.Errorf("empty text: got %d", got)
	}
}

func TestChunkDocument_SectionAssignment(t *testing.T) {
	doc := ParsedDoc{
		DocName: "install.pdf",
		Pages: []Page{
			{Page: 1, Text: "Intro text before any heading.\n\nINSTALLATION OVERVIEW\nThis guide describes installation."},
		},
	}
	chunks := ChunkDocument(doc, TargetTokens, OverlapTokens)
	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}

	sections := make(map[string]bool)
	for _, c := range chunks {
		sections[c.Section] = true
	}
	if !sections[UnspecifiedSection] {
		t.Errorf("pre-heading text must be UNSPECIFIED, sections: %v", sections)
	}
	if !sections["INSTALLATION OVERVIEW"] {
		t.Errorf("heading section missing, sections: %v", sections)
	}

	for _, c := range chunks {
		if strings.Contains(c.Text, "INSTALLATION OVERVIEW") {
			t.Errorf("heading line leaked into chunk text: %q", c.Text)
		}
	}
}

func TestChunkDocument_TargetAndOverlap(t *testing.T) {
	// Four 5-token blocks; target 10 flushes after every second block.
	doc := ParsedDoc{
		DocName: "guide.pdf",
		Pages: []Page{
			{Page: 1, Text: "one two three four five\n\nsix seven eight nine ten\n\na b c d e\n\nf g h i j"},
		},
	}

	chunks := ChunkDocument(doc, 10, 0)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].TokensRough != 10 || chunks[1].TokensRough != 10 {
		t.Errorf("token counts = %d/%d, want 10/10", chunks[0].TokensRough, chunks[1].TokensRough)
	}

	// With a 5-token overlap the second chunk re-starts at the previous
	// block.
	overlapped := ChunkDocument(doc, 10, 5)
	if len(overlapped) < 2 {
		t.Fatalf("got %d chunks, want >= 2", len(overlapped))
	}
	if !strings.HasPrefix(overlapped[1].Text, "six seven eight nine ten") {
		t.Errorf("second chunk must start with overlap text, got %q", overlapped[1].Text)
	}
}

func TestChunkDocument_PageSpan(t *testing.T) {
	doc := ParsedDoc{
		DocName: "guide.pdf",
		Pages: []Page{
			{Page: 3, Text: "alpha beta gamma"},
			{Page: 4, Text: "delta epsilon zeta"},
		},
	}
	chunks := ChunkDocument(doc, 100, 0)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].PageStart != 3 || chunks[0].PageEnd != 4 {
		t.Errorf("page span = %d-%d, want 3-4", chunks[0].PageStart, chunks[0].PageEnd)
	}
}

func TestMakeChunkID_Format(t *testing.T) {
	id := makeChunkID("Install Guide.pdf", 10, 12, "Prerequisites:", 3, "some chunk text here")
	re := regexp.MustCompile(`^Install_Guide_pdf_p0010_p0012_c003_[0-9a-f]{12}$`)
	if !re.MatchString(id) {
		t.Errorf("chunk ID %q does not match expected format", id)
	}
}

func TestChunkDocument_Deterministic(t *testing.T) {
	doc := ParsedDoc{
		DocName: "planning.pdf",
		Pages: []Page{
			{Page: 1, Text: "SYSTEM REQUIREMENTS\nAt least 16 GB RAM.\n\nAllocate 20 GB for DB2 logs."},
			{Page: 2, Text: "Use stopaiw to stop the server."},
		},
	}
	a := ChunkDocument(doc, 50, 10)
	b := ChunkDocument(doc, 50, 10)
	if !reflect.DeepEqual(a, b) {
		t.Error("identical input must produce identical chunks")
	}
}

func TestValidateDoc(t *testing.T) {
	if err := ValidateDoc(ParsedDoc{DocName: "", Pages: []Page{{Page: 1, Text: "x"}}}); err != ErrMissingDocName {
		t.Errorf("missing name: got %v", err)
	}
	if err := ValidateDoc(ParsedDoc{DocName: "a.pdf", Pages: []Page{{Page: 1, Text: "  "}}}); err != ErrNoContent {
		t.Errorf("blank pages: got %v", err)
	}
	if err := ValidateDoc(ParsedDoc{DocName: "a.pdf", Pages: []Page{{Page: 1, Text: "content"}}}); err != nil {
		t.Errorf("valid doc: got %v", err)
	}
}
