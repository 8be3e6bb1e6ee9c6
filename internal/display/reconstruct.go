// Package display rewrites conversations so repeated semantic content is
// shown once.
package display

import (
	"sort"
	"strings"

	"github.com/lukaszraczylo/transcript-dedup/pkg/models"
)

// Reconstruct rewrites one conversation's node order against the accepted
// clusters. A single forward pass keeps chronology: unique nodes pass
// through, the first occurrence of each cluster emits the canonical line
// (annotated with how many variations it hides), and later occurrences are
// suppressed.
//
// Matching is by exact text equality. Two textually identical lines from
// unrelated moments collapse together; that is the documented join
// contract of this reconstructor.
func Reconstruct(conv models.Conversation, clusters []*models.SemanticCluster) models.DisplayConversation {
	byText := indexByText(clusters)

	out := models.DisplayConversation{
		ConversationID: conv.ID,
		Nodes:          make([]models.DisplayNode, 0, len(conv.Nodes)),
		Clusters:       make(map[string]models.ClusterSummary),
	}

	used := make(map[string]bool)
	dedupCount := 0
	themes := make(map[string]bool)

	for _, node := range conv.Nodes {
		// Extraction trims before hashing; the join key must match.
		content := strings.TrimSpace(node.Content)
		c, matched := byText[content]
		if !matched {
			out.Nodes = append(out.Nodes, models.DisplayNode{
				Content:   node.Content,
				Speaker:   node.SpeakerName,
				Timestamp: node.StartTime,
				IsUnique:  true,
			})
			continue
		}

		if used[c.ClusterID] {
			// Repeated semantic content collapses to the first displayed line.
			continue
		}
		used[c.ClusterID] = true

		display := models.DisplayNode{
			Content:           c.CanonicalLine,
			Speaker:           node.SpeakerName,
			Timestamp:         node.StartTime,
			IsDeduplicated:    true,
			RepresentsCluster: c.ClusterID,
			HiddenVariations:  c.FrequencyCount - 1,
		}
		if content != c.CanonicalLine {
			display.ReplacedOriginal = node.Content
		}
		out.Nodes = append(out.Nodes, display)

		out.Clusters[c.ClusterID] = summarize(c)
		themes[c.Theme] = true
		dedupCount++
	}

	out.Stats = models.DisplayStats{
		TotalLines:        len(conv.Nodes),
		DeduplicatedLines: dedupCount,
		Themes:            sortedKeys(themes),
		SemanticDensity:   density(len(out.Nodes), len(conv.Nodes)),
	}
	return out
}

// indexByText maps every variation text to its cluster.
func indexByText(clusters []*models.SemanticCluster) map[string]*models.SemanticCluster {
	byText := make(map[string]*models.SemanticCluster)
	for _, c := range clusters {
		for _, v := range c.Variations {
			byText[v.OriginalText] = c
		}
	}
	return byText
}

// summarize builds the per-conversation cluster view, excluding the
// canonical text from the variation list.
func summarize(c *models.SemanticCluster) models.ClusterSummary {
	variations := make([]string, 0, len(c.Variations))
	for _, v := range c.Variations {
		if v.OriginalText == c.CanonicalLine {
			continue
		}
		variations = append(variations, v.OriginalText)
	}
	return models.ClusterSummary{
		Theme:      c.Theme,
		Canonical:  c.CanonicalLine,
		Variations: variations,
		Frequency:  c.FrequencyCount,
		Confidence: c.ConfidenceScore,
	}
}

func density(displayed, total int) float64 {
	if total == 0 {
		return 1.0
	}
	return float64(displayed) / float64(total)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
