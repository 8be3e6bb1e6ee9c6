// Package worker provides the batch dedup worker service for
// transcript-dedup.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/lukaszraczylo/transcript-dedup/internal/config"
	db "github.com/lukaszraczylo/transcript-dedup/internal/db/gorm"
	"github.com/lukaszraczylo/transcript-dedup/internal/embedding"
	"github.com/lukaszraczylo/transcript-dedup/pkg/models"
	"github.com/lukaszraczylo/transcript-dedup/pkg/similarity"
)

// ItemSource supplies stored conversations for historical reprocessing.
// The ingestion pipeline that fills it is an external collaborator.
type ItemSource interface {
	ListConversations(ctx context.Context, namespace string, offset, limit int) ([]models.Conversation, error)
}

// Service owns the dedup pipeline and its caches. The embedding and
// similarity caches are scoped to the service instance, guarded by mu, and
// clearable between large runs to bound memory.
type Service struct {
	version      string
	cfg          *config.Config
	store        *db.Store
	clusterStore *db.ClusterStore
	provider     embedding.Provider
	source       ItemSource
	router       chi.Router
	startTime    time.Time

	mu              sync.Mutex
	embeddingCache  map[string][]float64 // line hash -> vector
	similarityCache map[string]float64   // hash pair -> cosine
}

// NewService creates a worker service. source may be nil when historical
// reprocessing is not needed.
func NewService(version string, cfg *config.Config, store *db.Store, provider embedding.Provider, source ItemSource) *Service {
	s := &Service{
		version:         version,
		cfg:             cfg,
		store:           store,
		clusterStore:    db.NewClusterStore(store),
		provider:        provider,
		source:          source,
		router:          chi.NewRouter(),
		startTime:       time.Now(),
		embeddingCache:  make(map[string][]float64),
		similarityCache: make(map[string]float64),
	}
	s.setupRoutes()
	return s
}

// Router returns the HTTP router for the worker API.
func (s *Service) Router() chi.Router {
	return s.router
}

// ClearCaches drops the embedding and similarity caches.
func (s *Service) ClearCaches() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddingCache = make(map[string][]float64)
	s.similarityCache = make(map[string]float64)
}

// CacheSizes returns current cache entry counts, for the health endpoint.
func (s *Service) CacheSizes() (embeddings, similarities int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.embeddingCache), len(s.similarityCache)
}

// embedLines returns one vector per line, hitting the per-run cache by
// line hash and calling the provider only for misses.
func (s *Service) embedLines(ctx context.Context, lines []models.SpokenLine) ([][]float64, error) {
	vectors := make([][]float64, len(lines))

	var missTexts []string
	var missIdx []int

	s.mu.Lock()
	for i, line := range lines {
		if vec, ok := s.embeddingCache[line.LineHash]; ok {
			vectors[i] = vec
			continue
		}
		missTexts = append(missTexts, line.Text)
		missIdx = append(missIdx, i)
	}
	s.mu.Unlock()

	if len(missTexts) == 0 {
		return vectors, nil
	}

	fresh, err := s.provider.EmbedMany(ctx, missTexts)
	if err != nil {
		return nil, fmt.Errorf("embed %d lines: %w", len(missTexts), err)
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("provider returned %d vectors for %d texts", len(fresh), len(missTexts))
	}

	s.mu.Lock()
	for j, i := range missIdx {
		vectors[i] = fresh[j]
		s.embeddingCache[lines[i].LineHash] = fresh[j]
	}
	s.mu.Unlock()

	return vectors, nil
}

// similarityMatrix builds the pairwise cosine matrix for lines, reusing
// cached pair similarities where available.
func (s *Service) similarityMatrix(lines []models.SpokenLine, vectors [][]float64) [][]float64 {
	n := len(lines)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1.0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			key := pairKey(lines[i].LineHash, lines[j].LineHash)
			sim, ok := s.similarityCache[key]
			if !ok {
				sim = similarity.Cosine(vectors[i], vectors[j])
				s.similarityCache[key] = sim
			}
			m[i][j] = sim
			m[j][i] = sim
		}
	}
	return m
}

// pairKey builds an order-independent cache key for a hash pair.
func pairKey(h1, h2 string) string {
	if h1 > h2 {
		h1, h2 = h2, h1
	}
	return h1 + "|" + h2
}

// uniqueByText keeps the first occurrence of each distinct text, capped at
// max lines. The pairwise matrix is O(n²), so batches beyond the cap are
// truncated with a warning rather than processed unbounded.
func uniqueByText(lines []models.SpokenLine, max int) []models.SpokenLine {
	seen := make(map[string]bool, len(lines))
	unique := make([]models.SpokenLine, 0, len(lines))
	for _, line := range lines {
		if seen[line.Text] {
			continue
		}
		seen[line.Text] = true
		unique = append(unique, line)
	}

	if max > 0 && len(unique) > max {
		log.Warn().
			Int("unique_lines", len(unique)).
			Int("cap", max).
			Msg("Unique line count exceeds batch cap, truncating")
		unique = unique[:max]
	}
	return unique
}
