package retrieval

import "sort"

// degenerateEps is the spread below which a ranked list is treated as
// constant and every member normalizes to 1.0 instead of dividing by zero.
const degenerateEps = 1e-9

// normalize min-max scales a ranked list into [0,1], keyed by corpus index.
func normalize(list []IndexScore) map[int]float64 {
	if len(list) == 0 {
		return nil
	}
	lo, hi := list[0].Score, list[0].Score
	for _, is := range list[1:] {
		if is.Score < lo {
			lo = is.Score
		}
		if is.Score > hi {
			hi = is.Score
		}
	}
	out := make(map[int]float64, len(list))
	if hi-lo < degenerateEps {
		for _, is := range list {
			out[is.Index] = 1.0
		}
		return out
	}
	for _, is := range list {
		out[is.Index] = (is.Score - lo) / (hi - lo)
	}
	return out
}

// fuse combines two ranked lists into a single list sorted by fused score
// descending. A candidate absent from one list contributes 0 for that
// signal. Ties break by ascending corpus index so the ordering never
// depends on map iteration.
func fuse(lexical, semantic []IndexScore) []IndexScore {
	lexN := normalize(lexical)
	semN := normalize(semantic)

	fusedByIndex := make(map[int]float64, len(lexN)+len(semN))
	for idx, s := range lexN {
		fusedByIndex[idx] = lexicalWeight * s
	}
	for idx, s := range semN {
		fusedByIndex[idx] += semanticWeight * s
	}

	fused := make([]IndexScore, 0, len(fusedByIndex))
	for idx, s := range fusedByIndex {
		fused = append(fused, IndexScore{Index: idx, Score: s})
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].Index < fused[j].Index
	})
	return fused
}
