// Package gorm provides GORM-based database operations for transcript-dedup.
package gorm

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: cluster and mapping tables
		{
			ID: "001_semantic_clusters",
			Migrate: func(tx *gorm.DB) error {
				// AutoMigrate creates tables with all indexes and the
				// cascade foreign key from struct tags.
				if err := tx.AutoMigrate(&SemanticCluster{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&LineClusterMapping{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("line_cluster_mapping", "semantic_clusters")
			},
		},
	})

	return m.Migrate()
}
