package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toyVectors builds a well-separated embedding space: the first three
// vectors point roughly the same way, the fourth is orthogonal.
func toyVectors() [][]float64 {
	return [][]float64{
		{1, 0, 0},
		{0.98, 0.08, 0},
		{0.96, 0.12, 0},
		{0, 0, 1},
	}
}

func TestClusterLabels_GroupsSimilarVectors(t *testing.T) {
	dist := DistanceMatrix(Matrix(toyVectors()))

	labels := ClusterLabels(dist, 1.0-0.85)
	require.Len(t, labels, 4)

	// High-similarity trio lands in one group, the orthogonal vector alone.
	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[0], labels[2])
	assert.NotEqual(t, labels[0], labels[3])
}

func TestClusterLabels_ThresholdIsAParameter(t *testing.T) {
	dist := DistanceMatrix(Matrix(toyVectors()))

	// A near-zero threshold keeps everything separate.
	labels := ClusterLabels(dist, 1e-6)
	seen := make(map[int]bool)
	for _, l := range labels {
		seen[l] = true
	}
	assert.Len(t, seen, 4)

	// A permissive threshold merges everything.
	labels = ClusterLabels(dist, 2.0)
	for _, l := range labels {
		assert.Equal(t, labels[0], l)
	}
}

func TestClusterLabels_Deterministic(t *testing.T) {
	dist := DistanceMatrix(Matrix(toyVectors()))

	first := ClusterLabels(dist, 0.15)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ClusterLabels(dist, 0.15))
	}
}

func TestClusterLabels_LabelsOrderedByFirstMember(t *testing.T) {
	// Index 0 is orthogonal to the similar pair at 1 and 2; label 0 must
	// still belong to index 0.
	vectors := [][]float64{
		{0, 0, 1},
		{1, 0, 0},
		{0.99, 0.05, 0},
	}
	dist := DistanceMatrix(Matrix(vectors))

	labels := ClusterLabels(dist, 0.15)
	assert.Equal(t, 0, labels[0])
	assert.Equal(t, 1, labels[1])
	assert.Equal(t, 1, labels[2])
}

func TestClusterLabels_Empty(t *testing.T) {
	assert.Nil(t, ClusterLabels(nil, 0.15))
}

func TestClusterLabels_SingleItem(t *testing.T) {
	labels := ClusterLabels([][]float64{{0}}, 0.15)
	assert.Equal(t, []int{0}, labels)
}
