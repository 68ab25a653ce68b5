package retrieval

import "github.com/riadocs/ria/engine/domain"

// Pool accumulates chunks across retrieval rounds, deduplicated by chunk
// ID. It lives for one request and is never shared across requests.
type Pool struct {
	byID  map[string]domain.Chunk
	order []string // first-insertion order, for deterministic Values()
}

// NewPool creates an empty evidence pool.
func NewPool() *Pool {
	return &Pool{byID: make(map[string]domain.Chunk)}
}

// Merge inserts hits whose chunk ID has not been seen before and returns
// the count of genuinely new insertions. Re-merging known IDs is a no-op,
// so merging the same hit set twice always returns 0 the second time.
func (p *Pool) Merge(hits []domain.ScoredHit) int {
	added := 0
	for _, h := range hits {
		id := h.Chunk.ChunkID
		if id == "" {
			continue
		}
		if _, seen := p.byID[id]; seen {
			continue
		}
		p.byID[id] = h.Chunk
		p.order = append(p.order, id)
		added++
	}
	return added
}

// Values returns all accumulated chunks in first-insertion order.
func (p *Pool) Values() []domain.Chunk {
	out := make([]domain.Chunk, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.byID[id])
	}
	return out
}

// Len returns the number of unique chunks accumulated so far.
func (p *Pool) Len() int { return len(p.byID) }
