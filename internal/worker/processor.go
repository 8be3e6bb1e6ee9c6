package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/lukaszraczylo/transcript-dedup/internal/cluster"
	db "github.com/lukaszraczylo/transcript-dedup/internal/db/gorm"
	"github.com/lukaszraczylo/transcript-dedup/internal/display"
	"github.com/lukaszraczylo/transcript-dedup/internal/extract"
	"github.com/lukaszraczylo/transcript-dedup/pkg/models"
	"github.com/lukaszraczylo/transcript-dedup/pkg/similarity"
)

// maxConcurrentItems bounds the conversation fan-out within one batch.
// The embedding provider serializes internally; this only overlaps
// extraction, matrix work, and storage.
const maxConcurrentItems = 4

// ProcessItems runs the full dedup pipeline over a batch of conversations
// and returns the batch result plus one display conversation per input, in
// input order. It never panics or returns an error: total failure is
// reported as a zero-progress result with a descriptive error string.
func (s *Service) ProcessItems(ctx context.Context, items []models.Conversation) (result *models.ProcessingResult, displays []models.DisplayConversation) {
	start := time.Now()
	result = &models.ProcessingResult{
		RunID:  uuid.NewString(),
		Errors: []string{},
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Batch processing panicked")
			result = &models.ProcessingResult{
				RunID:          result.RunID,
				Errors:         []string{fmt.Sprintf("batch processing failed: %v", r)},
				ProcessingTime: time.Since(start),
			}
			displays = nil
		}
	}()

	// Prior state for incremental matching; a load failure degrades to a
	// from-scratch run.
	existing, err := s.clusterStore.LoadExistingClusters(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load existing clusters, clustering from scratch")
		existing = nil
	}
	byCanonical := make(map[string]*models.SemanticCluster, len(existing))
	for _, c := range existing {
		byCanonical[c.CanonicalLine] = c
	}

	displays = make([]models.DisplayConversation, len(items))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentItems)

	for i, conv := range items {
		i, conv := i, conv
		g.Go(func() error {
			out := s.processConversation(gctx, conv, byCanonical)

			mu.Lock()
			defer mu.Unlock()
			displays[i] = out.display
			result.TotalProcessed++
			result.ClustersCreated += out.clustersCreated
			if out.modified {
				result.ItemsModified++
			}
			result.Errors = append(result.Errors, out.errors...)
			return nil
		})
	}
	_ = g.Wait() // workers report through the result, not through errors

	result.ProcessingTime = time.Since(start)
	log.Info().
		Str("run_id", result.RunID).
		Int("total_processed", result.TotalProcessed).
		Int("clusters_created", result.ClustersCreated).
		Int("items_modified", result.ItemsModified).
		Int("errors", len(result.Errors)).
		Dur("took", result.ProcessingTime).
		Msg("Batch processed")
	return result, displays
}

// conversationOutput carries one conversation's results back to the batch.
type conversationOutput struct {
	display         models.DisplayConversation
	clustersCreated int
	modified        bool
	errors          []string
}

// processConversation runs extract → embed → cluster → build → filter →
// reconstruct → store for one conversation.
func (s *Service) processConversation(ctx context.Context, conv models.Conversation, byCanonical map[string]*models.SemanticCluster) conversationOutput {
	var out conversationOutput

	lines := extract.Lines(conv, extract.Options{
		MinWords: s.cfg.MinLineWords,
		MaxWords: s.cfg.MaxLineWords,
	})
	unique := uniqueByText(lines, s.cfg.MaxBatchLines)

	outcome := s.clusterLines(ctx, unique, byCanonical, &out)
	if outcome.Empty() {
		// Not enough data or nothing survived the filter: the
		// conversation passes through unmodified.
		out.display = display.Reconstruct(conv, nil)
		return out
	}

	out.display = display.Reconstruct(conv, outcome.Clusters)
	out.modified = out.display.Stats.DeduplicatedLines > 0

	for _, c := range outcome.Clusters {
		storeOutcome, err := s.clusterStore.StoreCluster(ctx, c, conv.ID)
		if err != nil {
			// One bad cluster does not abort the rest of the batch.
			log.Error().Err(err).Str("cluster_id", c.ClusterID).Msg("Failed to store cluster, skipping")
			out.errors = append(out.errors, fmt.Sprintf("store cluster %s: %v", c.ClusterID, err))
			continue
		}
		if storeOutcome.Status == db.StoreStatusStored {
			out.clustersCreated++
		}
	}

	return out
}

// clusterLines embeds unique lines, partitions them, and builds the
// accepted clusters. Fewer than MinClusterSize unique lines is not an
// error; it yields an empty outcome.
func (s *Service) clusterLines(ctx context.Context, unique []models.SpokenLine, byCanonical map[string]*models.SemanticCluster, out *conversationOutput) models.ClusterOutcome {
	if len(unique) < s.cfg.MinClusterSize {
		return models.NoClusters()
	}

	vectors, err := s.embedLines(ctx, unique)
	if err != nil {
		out.errors = append(out.errors, err.Error())
		return models.NoClusters()
	}

	sim := s.similarityMatrix(unique, vectors)
	labels := similarity.ClusterLabels(similarity.DistanceMatrix(sim), 1.0-s.cfg.SimilarityThreshold)

	built := cluster.Build(unique, labels)
	kept := cluster.Filter(built, cluster.FilterOptions{
		MinClusterSize:    s.cfg.MinClusterSize,
		AllowCrossSpeaker: s.cfg.AllowCrossSpeaker,
	})

	// Reconcile with persisted state: a cluster whose canonical text is
	// already stored adopts the stored id and theme, so the store updates
	// that row instead of creating a sibling.
	for _, c := range kept {
		if prior, ok := byCanonical[c.CanonicalLine]; ok {
			c.ClusterID = prior.ClusterID
			c.Theme = prior.Theme
		}
	}

	return models.ClusterOutcome{Clusters: kept}
}

// ProcessHistorical reprocesses stored conversations from the item source
// in batches, up to maxItems (0 for no limit). Requires an ItemSource.
func (s *Service) ProcessHistorical(ctx context.Context, namespace string, batchSize, maxItems int) *models.ProcessingResult {
	start := time.Now()
	combined := &models.ProcessingResult{
		RunID:  uuid.NewString(),
		Errors: []string{},
	}

	if s.source == nil {
		combined.AddError("no item source configured for historical processing")
		combined.ProcessingTime = time.Since(start)
		return combined
	}
	if batchSize <= 0 {
		batchSize = 50
	}

	offset := 0
	for {
		limit := batchSize
		if maxItems > 0 && offset+limit > maxItems {
			limit = maxItems - offset
		}
		if limit <= 0 {
			break
		}

		items, err := s.source.ListConversations(ctx, namespace, offset, limit)
		if err != nil {
			combined.AddError(fmt.Sprintf("list conversations at offset %d: %v", offset, err))
			break
		}
		if len(items) == 0 {
			break
		}

		batchResult, _ := s.ProcessItems(ctx, items)
		combined.TotalProcessed += batchResult.TotalProcessed
		combined.ClustersCreated += batchResult.ClustersCreated
		combined.ItemsModified += batchResult.ItemsModified
		combined.Errors = append(combined.Errors, batchResult.Errors...)

		offset += len(items)
		if len(items) < limit {
			break
		}
	}

	combined.ProcessingTime = time.Since(start)
	return combined
}

// GetClusterStatistics exposes persisted aggregates for the API layer.
func (s *Service) GetClusterStatistics(ctx context.Context) (*db.ClusterStatistics, error) {
	return s.clusterStore.GetClusterStatistics(ctx)
}
