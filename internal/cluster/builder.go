// Package cluster assembles semantic clusters from labeled line groups.
package cluster

import (
	"sort"

	"github.com/lukaszraczylo/transcript-dedup/pkg/models"
)

// nonCanonicalSimilarity is the fixed similarity recorded for variations
// other than the canonical line. A real cosine value is available from the
// distance matrix at clustering time but is intentionally not carried here;
// this keeps parity with the recorded-score contract.
const nonCanonicalSimilarity = 0.9

const (
	confidenceBase    = 0.7
	confidencePerLine = 0.05
	confidenceCap     = 0.95
)

// Build constructs one semantic cluster per label group. Groups arrive as
// lines plus the flat labels produced by the clustering engine; encounter
// order within a group is the order lines were scanned.
func Build(lines []models.SpokenLine, labels []int) []*models.SemanticCluster {
	if len(lines) == 0 || len(lines) != len(labels) {
		return nil
	}

	grouped := make(map[int][]models.SpokenLine)
	var order []int
	for i, line := range lines {
		label := labels[i]
		if _, seen := grouped[label]; !seen {
			order = append(order, label)
		}
		grouped[label] = append(grouped[label], line)
	}
	sort.Ints(order)

	clusters := make([]*models.SemanticCluster, 0, len(order))
	for _, label := range order {
		clusters = append(clusters, buildOne(grouped[label], label))
	}
	return clusters
}

// buildOne assembles a single cluster from one label group.
func buildOne(group []models.SpokenLine, label int) *models.SemanticCluster {
	canonical := selectCanonical(group)
	theme := AssignTheme(canonical.Text)

	variations := make([]models.LineVariation, 0, len(group))
	for _, line := range group {
		sim := nonCanonicalSimilarity
		if line.LineHash == canonical.LineHash && line.NodeIndex == canonical.NodeIndex &&
			line.ConversationID == canonical.ConversationID {
			sim = 1.0
		}
		variations = append(variations, models.LineVariation{
			OriginalText:          line.Text,
			Speaker:               line.Speaker,
			Timestamp:             line.Timestamp,
			ConversationID:        line.ConversationID,
			SimilarityToCanonical: sim,
			LineHash:              line.LineHash,
		})
	}

	return &models.SemanticCluster{
		ClusterID:       models.FormatClusterID(theme, label),
		Theme:           theme,
		CanonicalLine:   canonical.Text,
		CanonicalHash:   canonical.LineHash,
		Variations:      variations,
		ConfidenceScore: Confidence(len(group)),
		FrequencyCount:  len(group),
	}
}

// selectCanonical picks the group's representative: earliest parseable
// timestamp wins; with no parseable timestamps the line with the fewest
// words wins. Ties break by encounter order.
func selectCanonical(group []models.SpokenLine) models.SpokenLine {
	best := -1
	for i, line := range group {
		ts, ok := line.ParsedTimestamp()
		if !ok {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		bestTS, _ := group[best].ParsedTimestamp()
		if ts.Before(bestTS) {
			best = i
		}
	}
	if best >= 0 {
		return group[best]
	}

	// No parseable timestamps: fewest words, first scanned wins ties.
	best = 0
	for i := 1; i < len(group); i++ {
		if models.WordCount(group[i].Text) < models.WordCount(group[best].Text) {
			best = i
		}
	}
	return group[best]
}

// Confidence rewards larger groups, capped at 0.95.
func Confidence(groupSize int) float64 {
	score := confidenceBase + confidencePerLine*float64(groupSize)
	if score > confidenceCap {
		return confidenceCap
	}
	return score
}
