package retrieval

import "github.com/riadocs/ria/engine/domain"

// ByDocument caps the number of hits any single document may contribute
// within one retrieval round. Hits are scanned in rank order and relative
// order among survivors is preserved.
func ByDocument(hits []domain.ScoredHit, cap int) []domain.ScoredHit {
	if cap <= 0 {
		return nil
	}
	counts := make(map[string]int)
	out := make([]domain.ScoredHit, 0, len(hits))
	for _, h := range hits {
		counts[h.Chunk.DocName]++
		if counts[h.Chunk.DocName] <= cap {
			out = append(out, h)
		}
	}
	return out
}
