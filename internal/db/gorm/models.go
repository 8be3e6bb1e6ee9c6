// Package gorm provides GORM-based database operations for transcript-dedup.
package gorm

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// GORM Models

// SemanticCluster is the persisted cluster record. The primary key is the
// theme-derived cluster id produced by the builder.
type SemanticCluster struct {
	ID              string  `gorm:"primaryKey;type:text"`
	Theme           string  `gorm:"index;not null"`
	CanonicalLine   string  `gorm:"type:text;not null"`
	CanonicalHash   string  `gorm:"index"`
	ConfidenceScore float64 `gorm:"type:real;check:confidence_score >= 0 AND confidence_score <= 1;not null"`
	FrequencyCount  int     `gorm:"check:frequency_count > 0;not null"`
	CreatedAt       string  `gorm:"not null"`
	CreatedAtEpoch  int64   `gorm:"index:idx_clusters_created,sort:desc;not null"`
	UpdatedAt       string  `gorm:"not null"`
	UpdatedAtEpoch  int64   `gorm:"not null"`

	Mappings []LineClusterMapping `gorm:"foreignKey:ClusterID;constraint:OnDelete:CASCADE"`
}

func (SemanticCluster) TableName() string { return "semantic_clusters" }

// BeforeCreate hook to ensure timestamps are set.
func (c *SemanticCluster) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if c.CreatedAtEpoch == 0 {
		c.CreatedAtEpoch = now.UnixMilli()
	}
	if c.CreatedAt == "" {
		c.CreatedAt = now.Format(time.RFC3339)
	}
	if c.UpdatedAtEpoch == 0 {
		c.UpdatedAtEpoch = now.UnixMilli()
	}
	if c.UpdatedAt == "" {
		c.UpdatedAt = now.Format(time.RFC3339)
	}
	return nil
}

// LineClusterMapping links one line occurrence from one data item to a
// cluster. Rows are appended per run; the canonical flag is set on at most
// one row per (data item, cluster).
type LineClusterMapping struct {
	ID              int64          `gorm:"primaryKey;autoIncrement"`
	DataItemID      string         `gorm:"index;index:idx_mapping_item_cluster,priority:1;not null"`
	LineContent     string         `gorm:"type:text;not null"`
	ClusterID       string         `gorm:"index;index:idx_mapping_item_cluster,priority:2;not null"`
	SimilarityScore float64        `gorm:"type:real;check:similarity_score >= 0 AND similarity_score <= 1"`
	Speaker         sql.NullString `gorm:"type:text"`
	LineTimestamp   sql.NullString `gorm:"type:text"`
	IsCanonical     int            `gorm:"default:0;not null"`
	CreatedAt       string         `gorm:"not null"`
	CreatedAtEpoch  int64          `gorm:"not null"`
}

func (LineClusterMapping) TableName() string { return "line_cluster_mapping" }

// BeforeCreate hook to ensure timestamps are set.
func (m *LineClusterMapping) BeforeCreate(tx *gorm.DB) error {
	if m.CreatedAtEpoch == 0 {
		m.CreatedAtEpoch = time.Now().UnixMilli()
	}
	if m.CreatedAt == "" {
		m.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
