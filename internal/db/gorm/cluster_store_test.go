package gorm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lukaszraczylo/transcript-dedup/pkg/models"
)

// ClusterStoreSuite is a test suite for cluster persistence.
type ClusterStoreSuite struct {
	suite.Suite
	tempDir string
	store   *Store
	cs      *ClusterStore
	ctx     context.Context
}

func (s *ClusterStoreSuite) SetupTest() {
	var err error
	s.tempDir, err = os.MkdirTemp("", "cluster-store-test-*")
	s.Require().NoError(err)

	s.store, err = NewStore(Config{
		Path:     filepath.Join(s.tempDir, "test.db"),
		LogLevel: logger.Silent,
	})
	s.Require().NoError(err)

	s.cs = NewClusterStore(s.store)
	s.ctx = context.Background()
}

func (s *ClusterStoreSuite) TearDownTest() {
	s.store.Close()
	os.RemoveAll(s.tempDir)
}

func TestClusterStoreSuite(t *testing.T) {
	suite.Run(t, new(ClusterStoreSuite))
}

func (s *ClusterStoreSuite) sampleCluster() *models.SemanticCluster {
	return &models.SemanticCluster{
		ClusterID:     "general_conversation_000",
		Theme:         "general_conversation",
		CanonicalLine: "Yeah, that's right",
		CanonicalHash: models.HashLine("Yeah, that's right"),
		Variations: []models.LineVariation{
			{OriginalText: "Yeah, that's right", Speaker: "Mike", Timestamp: "2024-03-01T10:05:22Z", ConversationID: "conv-1", SimilarityToCanonical: 1.0},
			{OriginalText: "That's right, yeah", Speaker: "Sarah", Timestamp: "2024-03-01T10:05:45Z", ConversationID: "conv-1", SimilarityToCanonical: 0.9},
		},
		ConfidenceScore: 0.8,
		FrequencyCount:  2,
	}
}

func (s *ClusterStoreSuite) TestClusterExists() {
	exists, err := s.cs.ClusterExists(s.ctx, "nope")
	s.Require().NoError(err)
	s.False(exists)

	_, err = s.cs.StoreCluster(s.ctx, s.sampleCluster(), "conv-1")
	s.Require().NoError(err)

	exists, err = s.cs.ClusterExists(s.ctx, "general_conversation_000")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *ClusterStoreSuite) TestStoreCluster_InsertsClusterAndMappings() {
	outcome, err := s.cs.StoreCluster(s.ctx, s.sampleCluster(), "conv-1")
	s.Require().NoError(err)
	s.Equal(StoreStatusStored, outcome.Status)

	var clusterCount, mappingCount int64
	s.Require().NoError(s.store.DB.Model(&SemanticCluster{}).Count(&clusterCount).Error)
	s.Require().NoError(s.store.DB.Model(&LineClusterMapping{}).Count(&mappingCount).Error)
	s.Equal(int64(1), clusterCount)
	s.Equal(int64(2), mappingCount)

	// Exactly one canonical mapping for this (item, cluster) pair.
	var canonical int64
	s.Require().NoError(s.store.DB.Model(&LineClusterMapping{}).
		Where("data_item_id = ? AND cluster_id = ? AND is_canonical = 1", "conv-1", "general_conversation_000").
		Count(&canonical).Error)
	s.Equal(int64(1), canonical)
}

func (s *ClusterStoreSuite) TestStoreCluster_UpdateOnSecondSight() {
	_, err := s.cs.StoreCluster(s.ctx, s.sampleCluster(), "conv-1")
	s.Require().NoError(err)

	grown := s.sampleCluster()
	grown.FrequencyCount = 3
	grown.ConfidenceScore = 0.85
	grown.Variations = append(grown.Variations, models.LineVariation{
		OriginalText: "Exactly, that's correct", Speaker: "Alex",
		ConversationID: "conv-2", SimilarityToCanonical: 0.9,
	})

	outcome, err := s.cs.StoreCluster(s.ctx, grown, "conv-2")
	s.Require().NoError(err)
	s.Equal(StoreStatusUpdated, outcome.Status)

	var row SemanticCluster
	s.Require().NoError(s.store.DB.First(&row, "id = ?", "general_conversation_000").Error)
	s.Equal(3, row.FrequencyCount)
	s.InDelta(0.85, row.ConfidenceScore, 1e-9)

	// Mapping rows are appended, never merged: 2 from the first run plus
	// 3 from the second.
	var mappingCount int64
	s.Require().NoError(s.store.DB.Model(&LineClusterMapping{}).Count(&mappingCount).Error)
	s.Equal(int64(5), mappingCount)
}

func (s *ClusterStoreSuite) TestStoreCluster_AtMostOneCanonicalPerItem() {
	// Same cluster, same item, stored twice (a reprocessing run).
	_, err := s.cs.StoreCluster(s.ctx, s.sampleCluster(), "conv-1")
	s.Require().NoError(err)
	_, err = s.cs.StoreCluster(s.ctx, s.sampleCluster(), "conv-1")
	s.Require().NoError(err)

	var canonical int64
	s.Require().NoError(s.store.DB.Model(&LineClusterMapping{}).
		Where("data_item_id = ? AND cluster_id = ? AND is_canonical = 1", "conv-1", "general_conversation_000").
		Count(&canonical).Error)
	s.Equal(int64(1), canonical)

	// Duplicate rows are still appended.
	var total int64
	s.Require().NoError(s.store.DB.Model(&LineClusterMapping{}).Count(&total).Error)
	s.Equal(int64(4), total)
}

func (s *ClusterStoreSuite) TestStoreCluster_ConcurrentSameID() {
	// Unrelated items can mint the same theme-derived id in one batch;
	// every store call must land, none may fail on the primary key.
	const writers = 8

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.cs.StoreCluster(s.ctx, s.sampleCluster(), fmt.Sprintf("conv-%d", i))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		s.NoErrorf(err, "writer %d", i)
	}

	var clusterCount, mappingCount, canonical int64
	s.Require().NoError(s.store.DB.Model(&SemanticCluster{}).Count(&clusterCount).Error)
	s.Require().NoError(s.store.DB.Model(&LineClusterMapping{}).Count(&mappingCount).Error)
	s.Require().NoError(s.store.DB.Model(&LineClusterMapping{}).
		Where("is_canonical = 1").Count(&canonical).Error)

	s.Equal(int64(1), clusterCount)
	s.Equal(int64(2*writers), mappingCount)
	s.Equal(int64(writers), canonical) // one per data item
}

func (s *ClusterStoreSuite) TestLoadExistingClusters() {
	_, err := s.cs.StoreCluster(s.ctx, s.sampleCluster(), "conv-1")
	s.Require().NoError(err)

	clusters, err := s.cs.LoadExistingClusters(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(clusters, 1)

	c := clusters[0]
	s.Equal("general_conversation_000", c.ClusterID)
	s.Equal("Yeah, that's right", c.CanonicalLine)
	s.Equal(2, c.FrequencyCount)
	s.Len(c.Variations, 2)
	s.True(c.ContainsText("That's right, yeah"))
	s.Equal("conv-1", c.Variations[0].ConversationID)
}

func (s *ClusterStoreSuite) TestDeleteCluster_CascadesMappings() {
	_, err := s.cs.StoreCluster(s.ctx, s.sampleCluster(), "conv-1")
	s.Require().NoError(err)

	removed, err := s.cs.DeleteCluster(s.ctx, "general_conversation_000")
	s.Require().NoError(err)
	s.Equal(int64(2), removed)

	var mappingCount int64
	s.Require().NoError(s.store.DB.Model(&LineClusterMapping{}).Count(&mappingCount).Error)
	s.Zero(mappingCount)
}

func (s *ClusterStoreSuite) TestDeleteCluster_Missing() {
	_, err := s.cs.DeleteCluster(s.ctx, "ghost_000")
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *ClusterStoreSuite) TestGetClusterStatistics() {
	_, err := s.cs.StoreCluster(s.ctx, s.sampleCluster(), "conv-1")
	s.Require().NoError(err)

	weather := s.sampleCluster()
	weather.ClusterID = "weather_001"
	weather.Theme = "weather"
	weather.ConfidenceScore = 0.9
	_, err = s.cs.StoreCluster(s.ctx, weather, "conv-1")
	s.Require().NoError(err)

	stats, err := s.cs.GetClusterStatistics(s.ctx)
	s.Require().NoError(err)

	s.Equal(int64(2), stats.ClusterStats.TotalClusters)
	s.Equal(int64(4), stats.ClusterStats.TotalFrequency)
	s.InDelta(0.85, stats.ClusterStats.AvgConfidence, 1e-9)
	s.Equal(int64(1), stats.ThemeDistribution["weather"])
	s.Equal(int64(1), stats.ThemeDistribution["general_conversation"])
	s.Equal(int64(4), stats.MappingStats.TotalMappings)
	s.Equal(int64(2), stats.MappingStats.CanonicalMappings)
}
