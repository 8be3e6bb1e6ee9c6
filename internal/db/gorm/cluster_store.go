// Package gorm provides GORM-based database operations for transcript-dedup.
package gorm

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lukaszraczylo/transcript-dedup/pkg/models"
)

// Store outcome statuses.
const (
	StoreStatusStored  = "stored"
	StoreStatusUpdated = "updated"
	StoreStatusSkipped = "skipped"
)

// StoreOutcome reports what a StoreCluster call did. Callers branch on
// Status instead of catching errors for the skip path.
type StoreOutcome struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// ClusterStore provides cluster persistence operations using GORM.
type ClusterStore struct {
	db *gorm.DB
}

// NewClusterStore creates a new cluster store.
func NewClusterStore(store *Store) *ClusterStore {
	return &ClusterStore{db: store.DB}
}

// ClusterExists reports whether a cluster row with the given id exists.
func (s *ClusterStore) ClusterExists(ctx context.Context, clusterID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&SemanticCluster{}).
		Where("id = ?", clusterID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check cluster %s: %w", clusterID, err)
	}
	return count > 0, nil
}

// StoreCluster persists one cluster and its line mappings for a source
// item. First sight of a cluster id inserts the cluster row plus all
// mapping rows in one transaction; subsequent sight updates only
// frequency, confidence and updated_at, and appends this run's mapping
// rows without deduplicating against existing ones.
//
// Concurrent batches can mint the same cluster id; the insert carries an
// ON CONFLICT clause so the loser takes the update path instead of
// failing on the primary key.
func (s *ClusterStore) StoreCluster(ctx context.Context, cluster *models.SemanticCluster, dataItemID string) (StoreOutcome, error) {
	// Status probe only; correctness does not depend on it. The upsert
	// below resolves a lost race on the insert side.
	existed, err := s.ClusterExists(ctx, cluster.ClusterID)
	if err != nil {
		return StoreOutcome{Status: StoreStatusSkipped, Reason: err.Error()}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		row := &SemanticCluster{
			ID:              cluster.ClusterID,
			Theme:           cluster.Theme,
			CanonicalLine:   cluster.CanonicalLine,
			CanonicalHash:   cluster.CanonicalHash,
			ConfidenceScore: cluster.ConfidenceScore,
			FrequencyCount:  cluster.FrequencyCount,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"frequency_count":  cluster.FrequencyCount,
				"confidence_score": cluster.ConfidenceScore,
				"updated_at":       now.Format(time.RFC3339),
				"updated_at_epoch": now.UnixMilli(),
			}),
		}).Create(row).Error
		if err != nil {
			return fmt.Errorf("upsert cluster: %w", err)
		}

		return s.appendMappings(tx, cluster, dataItemID)
	})
	if err != nil {
		return StoreOutcome{Status: StoreStatusSkipped, Reason: err.Error()}, err
	}

	if existed {
		return StoreOutcome{Status: StoreStatusUpdated}, nil
	}
	return StoreOutcome{Status: StoreStatusStored}, nil
}

// appendMappings inserts one mapping row per variation. The canonical
// variation is flagged only when no canonical row exists yet for this
// (data item, cluster) pair, keeping at most one canonical row per pair.
func (s *ClusterStore) appendMappings(tx *gorm.DB, cluster *models.SemanticCluster, dataItemID string) error {
	var canonicalCount int64
	err := tx.Model(&LineClusterMapping{}).
		Where("data_item_id = ? AND cluster_id = ? AND is_canonical = 1", dataItemID, cluster.ClusterID).
		Count(&canonicalCount).Error
	if err != nil {
		return fmt.Errorf("count canonical mappings: %w", err)
	}
	canonicalTaken := canonicalCount > 0

	for _, v := range cluster.Variations {
		isCanonical := 0
		if !canonicalTaken && v.OriginalText == cluster.CanonicalLine {
			isCanonical = 1
			canonicalTaken = true
		}

		row := &LineClusterMapping{
			DataItemID:      dataItemID,
			LineContent:     v.OriginalText,
			ClusterID:       cluster.ClusterID,
			SimilarityScore: v.SimilarityToCanonical,
			Speaker:         nullString(v.Speaker),
			LineTimestamp:   nullString(v.Timestamp),
			IsCanonical:     isCanonical,
		}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("insert mapping: %w", err)
		}
	}
	return nil
}

// LoadExistingClusters reconstructs all persisted clusters and their
// variations for incremental processing.
func (s *ClusterStore) LoadExistingClusters(ctx context.Context) ([]*models.SemanticCluster, error) {
	var rows []SemanticCluster
	err := s.db.WithContext(ctx).
		Order("created_at_epoch ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load clusters: %w", err)
	}

	clusters := make([]*models.SemanticCluster, 0, len(rows))
	for _, row := range rows {
		var mappings []LineClusterMapping
		err := s.db.WithContext(ctx).
			Where("cluster_id = ?", row.ID).
			Order("id ASC").
			Find(&mappings).Error
		if err != nil {
			return nil, fmt.Errorf("load mappings for %s: %w", row.ID, err)
		}

		c := &models.SemanticCluster{
			ClusterID:       row.ID,
			Theme:           row.Theme,
			CanonicalLine:   row.CanonicalLine,
			CanonicalHash:   row.CanonicalHash,
			ConfidenceScore: row.ConfidenceScore,
			FrequencyCount:  row.FrequencyCount,
		}
		for _, m := range mappings {
			c.Variations = append(c.Variations, models.LineVariation{
				OriginalText:          m.LineContent,
				Speaker:               m.Speaker.String,
				Timestamp:             m.LineTimestamp.String,
				ConversationID:        m.DataItemID,
				SimilarityToCanonical: m.SimilarityScore,
				LineHash:              models.HashLine(m.LineContent),
			})
		}
		clusters = append(clusters, c)
	}

	return clusters, nil
}

// DeleteCluster removes a cluster row; its mapping rows go with it via the
// cascade. Returns the number of mapping rows that were removed. Count and
// delete share one transaction so the count reflects exactly what the
// cascade removed.
func (s *ClusterStore) DeleteCluster(ctx context.Context, clusterID string) (int64, error) {
	var mappingCount int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&LineClusterMapping{}).
			Where("cluster_id = ?", clusterID).Count(&mappingCount).Error
		if err != nil {
			return fmt.Errorf("count mappings for %s: %w", clusterID, err)
		}

		res := tx.Delete(&SemanticCluster{}, "id = ?", clusterID)
		if res.Error != nil {
			return fmt.Errorf("delete cluster %s: %w", clusterID, res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return mappingCount, nil
}

// ClusterStatistics aggregates persisted state for the stats endpoint.
type ClusterStatistics struct {
	ClusterStats      ClusterStats     `json:"cluster_stats"`
	ThemeDistribution map[string]int64 `json:"theme_distribution"`
	MappingStats      MappingStats     `json:"mapping_stats"`
}

// ClusterStats summarizes the cluster table.
type ClusterStats struct {
	TotalClusters  int64   `json:"total_clusters"`
	TotalFrequency int64   `json:"total_frequency"`
	AvgConfidence  float64 `json:"avg_confidence"`
}

// MappingStats summarizes the mapping table.
type MappingStats struct {
	TotalMappings     int64 `json:"total_mappings"`
	CanonicalMappings int64 `json:"canonical_mappings"`
}

// GetClusterStatistics returns cluster, theme, and mapping aggregates.
func (s *ClusterStore) GetClusterStatistics(ctx context.Context) (*ClusterStatistics, error) {
	stats := &ClusterStatistics{ThemeDistribution: make(map[string]int64)}

	db := s.db.WithContext(ctx)

	if err := db.Model(&SemanticCluster{}).Count(&stats.ClusterStats.TotalClusters).Error; err != nil {
		return nil, fmt.Errorf("count clusters: %w", err)
	}

	if stats.ClusterStats.TotalClusters > 0 {
		row := db.Model(&SemanticCluster{}).
			Select("COALESCE(SUM(frequency_count), 0), COALESCE(AVG(confidence_score), 0)").
			Row()
		if err := row.Scan(&stats.ClusterStats.TotalFrequency, &stats.ClusterStats.AvgConfidence); err != nil {
			return nil, fmt.Errorf("aggregate clusters: %w", err)
		}
	}

	type themeCount struct {
		Theme string
		Count int64
	}
	var themeCounts []themeCount
	err := db.Model(&SemanticCluster{}).
		Select("theme, COUNT(*) as count").
		Group("theme").
		Scan(&themeCounts).Error
	if err != nil {
		return nil, fmt.Errorf("theme distribution: %w", err)
	}
	for _, tc := range themeCounts {
		stats.ThemeDistribution[tc.Theme] = tc.Count
	}

	if err := db.Model(&LineClusterMapping{}).Count(&stats.MappingStats.TotalMappings).Error; err != nil {
		return nil, fmt.Errorf("count mappings: %w", err)
	}
	if err := db.Model(&LineClusterMapping{}).
		Where("is_canonical = 1").
		Count(&stats.MappingStats.CanonicalMappings).Error; err != nil {
		return nil, fmt.Errorf("count canonical mappings: %w", err)
	}

	return stats, nil
}
