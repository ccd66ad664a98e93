package retriever

import "sort"

// fuse rewrites each candidate's scores to their min-max normalized
// values, combines them with the fixed weights, and stable-sorts by
// combined score. Normalization is per query over the candidate union:
// absolute similarity scales differ query to query, so only relative
// position within this candidate set carries meaning.
//
// When every observed score of one type is identical the normalized
// value is 1.0: a flat signal still counts as evidence, and collapsing
// it to zero would erase a single-candidate union's only score.
func fuse(candidates []*candidate) {
	denseLo, denseHi, denseAny := scoreRange(candidates, func(c *candidate) (float64, bool) { return c.dense, c.hasDense })
	sparseLo, sparseHi, sparseAny := scoreRange(candidates, func(c *candidate) (float64, bool) { return c.sparse, c.hasSparse })

	for _, cand := range candidates {
		if cand.hasDense && denseAny {
			cand.dense = normalize(cand.dense, denseLo, denseHi)
		} else {
			cand.dense = 0
		}
		if cand.hasSparse && sparseAny {
			cand.sparse = normalize(cand.sparse, sparseLo, sparseHi)
		} else {
			cand.sparse = 0
		}
		cand.combined = denseWeight*cand.dense + sparseWeight*cand.sparse
	}

	// Stable: equal combined scores keep merge order, which is dense
	// rank order first.
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].combined > candidates[b].combined
	})
}

func scoreRange(candidates []*candidate, score func(*candidate) (float64, bool)) (lo, hi float64, any bool) {
	for _, cand := range candidates {
		v, ok := score(cand)
		if !ok {
			continue
		}
		if !any || v < lo {
			lo = v
		}
		if !any || v > hi {
			hi = v
		}
		any = true
	}
	return lo, hi, any
}

func normalize(v, lo, hi float64) float64 {
	if hi > lo {
		return (v - lo) / (hi - lo)
	}
	return 1
}
