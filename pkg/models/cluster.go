package models

import "fmt"

// LineVariation is one member of a semantic cluster. Many variations belong
// to exactly one cluster; the canonical line appears among them with
// similarity 1.0.
type LineVariation struct {
	OriginalText          string  `json:"original_text"`
	Speaker               string  `json:"speaker,omitempty"`
	Timestamp             string  `json:"timestamp,omitempty"`
	ConversationID        string  `json:"conversation_id"`
	SimilarityToCanonical float64 `json:"similarity_to_canonical"`
	LineHash              string  `json:"line_hash"`
}

// SemanticCluster is a group of near-duplicate lines with one canonical
// representative. Built fresh each run, then reconciled against persisted
// clusters by canonical text.
type SemanticCluster struct {
	ClusterID       string          `json:"cluster_id"`
	Theme           string          `json:"theme"`
	CanonicalLine   string          `json:"canonical_line"`
	CanonicalHash   string          `json:"canonical_hash"`
	Variations      []LineVariation `json:"variations"`
	ConfidenceScore float64         `json:"confidence_score"`
	FrequencyCount  int             `json:"frequency_count"`
}

// Speakers returns the distinct speakers across the cluster's variations.
func (c *SemanticCluster) Speakers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range c.Variations {
		if v.Speaker == "" || seen[v.Speaker] {
			continue
		}
		seen[v.Speaker] = true
		out = append(out, v.Speaker)
	}
	return out
}

// ContainsText reports whether text appears among the cluster's variations.
func (c *SemanticCluster) ContainsText(text string) bool {
	for _, v := range c.Variations {
		if v.OriginalText == text {
			return true
		}
	}
	return false
}

// FormatClusterID formats a cluster identifier from a theme and a clustering
// label. Stable across repeated identical runs for the same theme/label.
func FormatClusterID(theme string, label int) string {
	return fmt.Sprintf("%s_%03d", theme, label)
}

// ClusterOutcome is the result of one clustering pass. An empty outcome
// means there was not enough data to cluster; that is not an error and the
// conversation passes through unmodified.
type ClusterOutcome struct {
	Clusters []*SemanticCluster `json:"clusters"`
}

// NoClusters is the outcome for batches below the minimum cluster size.
func NoClusters() ClusterOutcome {
	return ClusterOutcome{}
}

// Empty reports whether the pass produced no clusters.
func (o ClusterOutcome) Empty() bool {
	return len(o.Clusters) == 0
}
