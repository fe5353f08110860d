// Package vecmath holds the similarity helpers shared by the local vector stores.
package vecmath

import (
	"container/heap"
	"math"
	"sort"
)

// Norm returns the Euclidean length of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of a and b given their norms.
// Zero-length vectors and mismatched dimensions score 0.
func Cosine(a, b []float32, normA, normB float64) float64 {
	if len(a) != len(b) || normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

// Scored pairs an item index with its score.
type Scored struct {
	Index int
	Score float64
}

// TopK keeps the k best scores seen so far.
type TopK struct {
	k int
	h minHeap
}

// NewTopK creates a collector for the k highest scores.
func NewTopK(k int) *TopK {
	return &TopK{k: k, h: make(minHeap, 0, max(k, 0))}
}

// Push offers a score.
func (t *TopK) Push(index int, score float64) {
	if t.k <= 0 {
		return
	}
	if len(t.h) < t.k {
		heap.Push(&t.h, Scored{Index: index, Score: score})
		return
	}
	if score > t.h[0].Score {
		t.h[0] = Scored{Index: index, Score: score}
		heap.Fix(&t.h, 0)
	}
}

// Results returns the collected scores, best first. Ties keep insertion order.
func (t *TopK) Results() []Scored {
	out := make([]Scored, len(t.h))
	copy(out, t.h)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Index < out[j].Index
	})
	return out
}

type minHeap []Scored

func (h minHeap) Len() int { return len(h) }
func (h minHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	// Later items are evicted first on ties.
	return h[i].Index > h[j].Index
}
func (h minHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)   { *h = append(*h, x.(Scored)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
