package annotate

import "math"

const (
	semanticWindowMin = 2
	semanticWindowMax = 5
)

// semanticSearcher answers nearest-keyword queries over the keyword vector
// space. A page slice matches when its cosine distance to the closest
// keyword vector falls under the configured threshold.
type semanticSearcher struct {
	vectors   [][]float32
	entryIdx  []int
	threshold float64
}

func newSemanticSearcher(entries []keywordEntry, threshold float64) *semanticSearcher {
	s := &semanticSearcher{threshold: threshold}
	for i, e := range entries {
		if len(e.vector) == 0 {
			continue
		}
		s.vectors = append(s.vectors, e.vector)
		s.entryIdx = append(s.entryIdx, i)
	}
	return s
}

// Search returns the entry index of the nearest keyword and whether that
// neighbor is close enough to count as a match.
func (s *semanticSearcher) Search(vec []float32) (int, bool) {
	if s == nil || len(s.vectors) == 0 || len(vec) == 0 {
		return 0, false
	}
	best := -1
	bestDist := math.MaxFloat64
	for i, kv := range s.vectors {
		d := cosineDistance(vec, kv)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 || bestDist >= s.threshold {
		return 0, false
	}
	return s.entryIdx[best], true
}

// meanVector averages token vectors; used to embed multi-token page slices.
func meanVector(vectors [][]float32) []float32 {
	var out []float32
	n := 0
	for _, v := range vectors {
		if len(v) == 0 {
			continue
		}
		if out == nil {
			out = make([]float32, len(v))
		}
		if len(v) != len(out) {
			continue
		}
		for i, x := range v {
			out[i] += x
		}
		n++
	}
	if n == 0 {
		return nil
	}
	for i := range out {
		out[i] /= float32(n)
	}
	return out
}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.MaxFloat64
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return math.MaxFloat64
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
