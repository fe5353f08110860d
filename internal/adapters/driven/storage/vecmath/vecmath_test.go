package vecmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	c := []float32{2, 0}

	assert.InDelta(t, 0, Cosine(a, b, Norm(a), Norm(b)), 1e-9)
	assert.InDelta(t, 1, Cosine(a, c, Norm(a), Norm(c)), 1e-9)
	assert.Zero(t, Cosine(a, []float32{1, 0, 0}, 1, 1))
	assert.Zero(t, Cosine(a, []float32{0, 0}, 1, 0))
}

func TestTopK(t *testing.T) {
	top := NewTopK(3)
	for i, s := range []float64{0.1, 0.9, 0.5, 0.7, 0.2, 0.9} {
		top.Push(i, s)
	}

	got := top.Results()

	assert.Equal(t, []Scored{{1, 0.9}, {5, 0.9}, {3, 0.7}}, got)
}

func TestTopK_FewerThanK(t *testing.T) {
	top := NewTopK(10)
	top.Push(0, 0.3)
	top.Push(1, 0.6)

	assert.Equal(t, []Scored{{1, 0.6}, {0, 0.3}}, top.Results())
}

func TestTopK_ZeroK(t *testing.T) {
	top := NewTopK(0)
	top.Push(0, 1)

	assert.Empty(t, top.Results())
}
