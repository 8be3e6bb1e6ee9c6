// Package embedding provides embedding generation for spoken lines.
package embedding

import "context"

// Provider generates vector embeddings for text.
//
// EmbedMany is the primary method; batch operations are natural for all
// backends. The returned slice has the same length and order as the input,
// every vector is L2-normalized, and a per-text failure yields a zero
// vector rather than aborting the call.
type Provider interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float64, error)

	// Dim returns the dimensionality of vectors produced by this provider.
	Dim() int

	// Model returns the model identifier used by this provider.
	Model() string
}

// ZeroVector returns an all-zero vector of the given dimension, the
// degraded stand-in for a failed embedding.
func ZeroVector(dim int) []float64 {
	return make([]float64, dim)
}

// IsZero reports whether a vector is the degraded zero vector.
func IsZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
