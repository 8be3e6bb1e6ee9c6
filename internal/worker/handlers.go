package worker

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/lukaszraczylo/transcript-dedup/pkg/models"
)

// setupRoutes registers the worker HTTP API.
func (s *Service) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/process", s.handleProcess)
		r.Post("/process/historical", s.handleProcessHistorical)
		r.Get("/clusters", s.handleListClusters)
		r.Get("/clusters/stats", s.handleClusterStats)
		r.Delete("/clusters/{clusterID}", s.handleDeleteCluster)
		r.Post("/caches/clear", s.handleClearCaches)
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	if err := s.store.Ping(); err != nil {
		log.Error().Err(err).Msg("Database ping failed")
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	embeddings, similarities := s.CacheSizes()
	writeJSON(w, httpStatus, map[string]any{
		"status":           status,
		"version":          s.version,
		"uptime_seconds":   int(time.Since(s.startTime).Seconds()),
		"embedding_model":  s.provider.Model(),
		"cache_embeddings": embeddings,
		"cache_pairs":      similarities,
	})
}

// processRequest is the body of POST /api/process.
type processRequest struct {
	Items []models.Conversation `json:"items"`
}

// handleProcess runs the dedup pipeline over the posted conversations.
// Partial failures are reported in the result's errors list, not as an
// HTTP error status.
func (s *Service) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"errors":  []string{"invalid request body: " + err.Error()},
		})
		return
	}

	result, displays := s.ProcessItems(r.Context(), req.Items)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       result.Success(),
		"result":        result,
		"conversations": displays,
	})
}

// historicalRequest is the body of POST /api/process/historical.
type historicalRequest struct {
	Namespace string `json:"namespace"`
	BatchSize int    `json:"batch_size"`
	MaxItems  int    `json:"max_items"`
}

func (s *Service) handleProcessHistorical(w http.ResponseWriter, r *http.Request) {
	var req historicalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"errors":  []string{"invalid request body: " + err.Error()},
		})
		return
	}

	result := s.ProcessHistorical(r.Context(), req.Namespace, req.BatchSize, req.MaxItems)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": result.Success(),
		"result":  result,
	})
}

func (s *Service) handleListClusters(w http.ResponseWriter, r *http.Request) {
	clusters, err := s.clusterStore.LoadExistingClusters(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load clusters")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"errors":  []string{err.Error()},
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"clusters": clusters,
	})
}

func (s *Service) handleClusterStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.GetClusterStatistics(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute cluster statistics")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"errors":  []string{err.Error()},
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"cluster_stats":      stats.ClusterStats,
		"theme_distribution": stats.ThemeDistribution,
		"mapping_stats":      stats.MappingStats,
	})
}

func (s *Service) handleDeleteCluster(w http.ResponseWriter, r *http.Request) {
	clusterID := chi.URLParam(r, "clusterID")

	removed, err := s.clusterStore.DeleteCluster(r.Context(), clusterID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"errors":  []string{"cluster not found: " + clusterID},
		})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("cluster_id", clusterID).Msg("Failed to delete cluster")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"errors":  []string{err.Error()},
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"cluster_id":       clusterID,
		"removed_mappings": removed,
	})
}

func (s *Service) handleClearCaches(w http.ResponseWriter, r *http.Request) {
	s.ClearCaches()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
