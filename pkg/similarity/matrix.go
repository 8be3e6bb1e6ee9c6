// Package similarity provides vector similarity and clustering utilities.
package similarity

import "math"

// Cosine calculates the cosine similarity between two vectors.
// Returns 0 for mismatched lengths, empty vectors, or zero vectors.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Matrix builds the full pairwise cosine-similarity matrix for vectors.
// The result is symmetric with 1.0 on the diagonal. O(n²) in time and
// memory; callers bound n before getting here.
func Matrix(vectors [][]float64) [][]float64 {
	n := len(vectors)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1.0
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := Cosine(vectors[i], vectors[j])
			m[i][j] = s
			m[j][i] = s
		}
	}
	return m
}

// DistanceMatrix converts a similarity matrix to distances (d = 1 - s).
func DistanceMatrix(sim [][]float64) [][]float64 {
	n := len(sim)
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
		for j := range d[i] {
			d[i][j] = 1.0 - sim[i][j]
		}
	}
	return d
}

// Normalize scales a vector to unit L2 norm in place. Zero vectors are
// left untouched.
func Normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
}
