package ingest

import (
	"crypto/sha1"
	"fmt"
	"regexp"
	"strings"

	"github.com/riadocs/ria/engine/domain"
)

const (
	// TargetTokens is the rough token count a chunk aims for.
	TargetTokens = 520
	// OverlapTokens is the rough token overlap carried between chunks.
	OverlapTokens = 90

	// UnspecifiedSection labels text that appears before any heading.
	UnspecifiedSection = "UNSPECIFIED"
)

// headingRe matches numbered headings ("3.2 Title"), ALL-CAPS headings,
// and title-case lines ending with a colon.
var headingRe = regexp.MustCompile(`^((\d+(\.\d+){0,4}\s+.+)|([A-Z][A-Z0-9 /:\-]{6,})|([A-Z][a-z].{0,80}:))$`)

var (
	wordTokenRe = regexp.MustCompile(`\w+`)
	whitespace  = regexp.MustCompile(`\s+`)
	unsafeRune  = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

func isHeading(line string) bool {
	line = strings.TrimSpace(line)
	if len(line) < 4 || len(line) > 140 {
		return false
	}
	return headingRe.MatchString(line)
}

func normalizeLine(line string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(line), " ")
}

// tokenCountRough approximates token count as the number of word runs.
func tokenCountRough(text string) int {
	return len(wordTokenRe.FindAllString(text, -1))
}

// block is a double-newline-delimited paragraph with its page number.
type block struct {
	page int
	text string
}

func splitIntoBlocks(pages []Page) []block {
	var blocks []block
	for _, p := range pages {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		for _, part := range strings.Split(text, "\n\n") {
			part = strings.TrimSpace(part)
			if part != "" {
				blocks = append(blocks, block{page: p.Page, text: part})
			}
		}
	}
	return blocks
}

// sectionedBlock is a block tagged with the heading it falls under.
type sectionedBlock struct {
	page    int
	section string
	text    string
}

// buildSections assigns each block to the most recent heading. A block
// whose first line is a heading starts a new section; the heading line
// itself is dropped from the content.
func buildSections(blocks []block) []sectionedBlock {
	current := UnspecifiedSection
	var out []sectionedBlock
	for _, b := range blocks {
		var lines []string
		for _, ln := range strings.Split(b.text, "\n") {
			if strings.TrimSpace(ln) != "" {
				lines = append(lines, normalizeLine(ln))
			}
		}
		if len(lines) > 0 && isHeading(lines[0]) {
			current = lines[0]
			content := strings.TrimSpace(strings.Join(lines[1:], "\n"))
			if content != "" {
				out = append(out, sectionedBlock{page: b.page, section: current, text: content})
			}
		} else {
			out = append(out, sectionedBlock{page: b.page, section: current, text: strings.TrimSpace(strings.Join(lines, "\n"))})
		}
	}
	return out
}

// makeChunkID builds a stable, filesystem-safe chunk ID. The hash covers
// position and a text prefix so re-ingesting identical content yields
// identical IDs.
func makeChunkID(docName string, pageStart, pageEnd int, section string, chunkIndex int, text string) string {
	prefix := text
	if len(prefix) > 200 {
		prefix = prefix[:200]
	}
	base := fmt.Sprintf("%s|p%d-%d|%s|%d|%s", docName, pageStart, pageEnd, section, chunkIndex, prefix)
	sum := sha1.Sum([]byte(base))
	hash := fmt.Sprintf("%x", sum)[:12]

	safeDoc := unsafeRune.ReplaceAllString(docName, "_")
	if len(safeDoc) > 40 {
		safeDoc = safeDoc[:40]
	}
	return fmt.Sprintf("%s_p%04d_p%04d_c%03d_%s", safeDoc, pageStart, pageEnd, chunkIndex, hash)
}

type pageText struct {
	page int
	text string
}

// ChunkDocument splits a parsed document into section-aware chunks of
// roughly targetTokens tokens with overlapTokens carried between
// consecutive chunks. Section boundaries force a flush, so a chunk never
// mixes the bulk of two sections; the overlap tail may still cross the
// boundary.
func ChunkDocument(doc ParsedDoc, targetTokens, overlapTokens int) []domain.Chunk {
	if targetTokens <= 0 {
		targetTokens = TargetTokens
	}
	if overlapTokens < 0 {
		overlapTokens = 0
	}

	sectioned := buildSections(splitIntoBlocks(doc.Pages))

	var (
		chunks       []domain.Chunk
		buffer       []pageText
		bufferTokens int
		chunkIndex   int
	)
	currentSection := UnspecifiedSection

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		pageStart, pageEnd := buffer[0].page, buffer[0].page
		var parts []string
		for _, pt := range buffer {
			if pt.page < pageStart {
				pageStart = pt.page
			}
			if pt.page > pageEnd {
				pageEnd = pt.page
			}
			parts = append(parts, pt.text)
		}
		text := strings.TrimSpace(strings.Join(parts, "\n"))

		chunks = append(chunks, domain.Chunk{
			ChunkID:     makeChunkID(doc.DocName, pageStart, pageEnd, currentSection, chunkIndex, text),
			DocName:     doc.DocName,
			PageStart:   pageStart,
			PageEnd:     pageEnd,
			Section:     currentSection,
			Text:        text,
			TokensRough: tokenCountRough(text),
		})
		chunkIndex++

		if overlapTokens > 0 {
			var kept []pageText
			keptTokens := 0
			for i := len(buffer) - 1; i >= 0; i-- {
				kept = append([]pageText{buffer[i]}, kept...)
				keptTokens += tokenCountRough(buffer[i].text)
				if keptTokens >= overlapTokens {
					break
				}
			}
			buffer = kept
			bufferTokens = keptTokens
		} else {
			buffer = nil
			bufferTokens = 0
		}
	}

	for _, item := range sectioned {
		if item.text == "" {
			continue
		}

		if item.section != currentSection {
			flush()
			currentSection = item.section
		}

		tks := tokenCountRough(item.text)
		if bufferTokens+tks > targetTokens && len(buffer) > 0 {
			flush()
		}

		buffer = append(buffer, pageText{page: item.page, text: item.text})
		bufferTokens += tks

		if bufferTokens >= targetTokens {
			flush()
		}
	}
	flush()
	return chunks
}
