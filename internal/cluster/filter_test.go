package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukaszraczylo/transcript-dedup/pkg/models"
)

func testCluster(id string, speakers ...string) *models.SemanticCluster {
	c := &models.SemanticCluster{
		ClusterID:      id,
		Theme:          "general_conversation",
		CanonicalLine:  "some canonical line",
		FrequencyCount: len(speakers),
	}
	for _, sp := range speakers {
		c.Variations = append(c.Variations, models.LineVariation{
			OriginalText:          "some canonical line",
			Speaker:               sp,
			SimilarityToCanonical: 0.9,
		})
	}
	return c
}

func TestFilter_DropsSmallClusters(t *testing.T) {
	clusters := []*models.SemanticCluster{
		testCluster("a", "Mike"),
		testCluster("b", "Mike", "Sarah"),
	}

	kept := Filter(clusters, FilterOptions{MinClusterSize: 2, AllowCrossSpeaker: true})
	require.Len(t, kept, 1)
	assert.Equal(t, "b", kept[0].ClusterID)
}

func TestFilter_CrossSpeakerPolicy(t *testing.T) {
	clusters := []*models.SemanticCluster{
		testCluster("same", "Mike", "Mike"),
		testCluster("mixed", "Mike", "Sarah"),
	}

	kept := Filter(clusters, FilterOptions{MinClusterSize: 2, AllowCrossSpeaker: false})
	require.Len(t, kept, 1)
	assert.Equal(t, "same", kept[0].ClusterID)

	kept = Filter(clusters, FilterOptions{MinClusterSize: 2, AllowCrossSpeaker: true})
	assert.Len(t, kept, 2)
}

func TestFilter_EmptyInput(t *testing.T) {
	assert.Empty(t, Filter(nil, FilterOptions{MinClusterSize: 2, AllowCrossSpeaker: true}))
}
