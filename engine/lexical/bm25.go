// Package lexical implements an in-memory Okapi BM25 index over the
// corpus texts. The index is built once at startup and is read-only
// afterwards, so concurrent searches need no coordination.
package lexical

import (
	"math"
	"sort"

	"github.com/riadocs/ria/engine/retrieval"
)

// Okapi BM25 parameters.
const (
	k1 = 1.5
	b  = 0.75

	// idfEpsilon floors negative IDF values (terms in more than half the
	// corpus) at epsilon times the average IDF, matching the classic
	// Okapi variant.
	idfEpsilon = 0.25
)

// Index is a BM25 index over one corpus. Document order matches corpus
// index order.
type Index struct {
	termFreqs []map[string]int // per document
	docLens   []int
	avgDocLen float64
	idf       map[string]float64
}

// NewIndex tokenizes and indexes the corpus texts in order.
func NewIndex(texts []string) *Index {
	idx := &Index{
		termFreqs: make([]map[string]int, len(texts)),
		docLens:   make([]int, len(texts)),
		idf:       make(map[string]float64),
	}

	docFreqs := make(map[string]int)
	totalLen := 0
	for i, text := range texts {
		tokens := Tokenize(text)
		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		for t := range tf {
			docFreqs[t]++
		}
		idx.termFreqs[i] = tf
		idx.docLens[i] = len(tokens)
		totalLen += len(tokens)
	}
	if len(texts) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(texts))
	}

	n := float64(len(texts))
	idfSum := 0.0
	var negative []string
	for term, df := range docFreqs {
		v := math.Log((n - float64(df) + 0.5) / (float64(df) + 0.5))
		idx.idf[term] = v
		idfSum += v
		if v < 0 {
			negative = append(negative, term)
		}
	}
	if len(docFreqs) > 0 {
		floor := idfEpsilon * (idfSum / float64(len(docFreqs)))
		for _, term := range negative {
			idx.idf[term] = floor
		}
	}
	return idx
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int { return len(idx.termFreqs) }

// score computes the BM25 score of one document for the query tokens.
func (idx *Index) score(docIdx int, tokens []string) float64 {
	tf := idx.termFreqs[docIdx]
	docLen := float64(idx.docLens[docIdx])

	s := 0.0
	for _, t := range tokens {
		f := float64(tf[t])
		if f == 0 {
			continue
		}
		norm := k1 * (1 - b + b*docLen/idx.avgDocLen)
		s += idx.idf[t] * f * (k1 + 1) / (f + norm)
	}
	return s
}

// Rank returns the top-k documents by BM25 score, highest first. Ties
// break by ascending corpus index so results are stable. An empty corpus
// or a query that tokenizes to nothing yields an empty result rather than
// an error.
func (idx *Index) Rank(query string, k int) []retrieval.IndexScore {
	if k <= 0 || idx.Len() == 0 {
		return nil
	}
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	scored := make([]retrieval.IndexScore, idx.Len())
	for i := range idx.termFreqs {
		scored[i] = retrieval.IndexScore{Index: i, Score: idx.score(i, tokens)}
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Index < scored[j].Index
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
