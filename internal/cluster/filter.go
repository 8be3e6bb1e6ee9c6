package cluster

import "github.com/lukaszraczylo/transcript-dedup/pkg/models"

// FilterOptions control which built clusters survive.
type FilterOptions struct {
	MinClusterSize    int
	AllowCrossSpeaker bool
}

// Filter drops clusters below the minimum size and, when cross-speaker
// clustering is disabled, clusters spanning more than one distinct
// speaker. Runs after clustering: low-quality groups are computed and then
// discarded.
func Filter(clusters []*models.SemanticCluster, opts FilterOptions) []*models.SemanticCluster {
	kept := make([]*models.SemanticCluster, 0, len(clusters))
	for _, c := range clusters {
		if c.FrequencyCount < opts.MinClusterSize {
			continue
		}
		if !opts.AllowCrossSpeaker && len(c.Speakers()) > 1 {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}
