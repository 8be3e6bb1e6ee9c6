package embedding

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/lukaszraczylo/transcript-dedup/pkg/similarity"
)

// OllamaClient generates embeddings via the Ollama HTTP API.
//
// The model runtime is a shared single resource: concurrent EmbedMany
// calls are serialized through mu so the runtime is never oversubscribed.
// Requests are chunked by batchSize to bound peak memory.
type OllamaClient struct {
	baseURL   string
	model     string
	dim       int
	batchSize int
	client    *http.Client
	mu        sync.Mutex
}

// OllamaConfig holds Ollama client settings.
type OllamaConfig struct {
	BaseURL   string
	Model     string
	Dim       int
	BatchSize int
}

// NewOllamaClient creates a new Ollama embedding client.
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "nomic-embed-text" // good default, 768 dims
	}
	if cfg.Dim <= 0 {
		cfg.Dim = 768
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &OllamaClient{
		baseURL:   cfg.BaseURL,
		model:     cfg.Model,
		dim:       cfg.Dim,
		batchSize: cfg.BatchSize,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Dim returns the configured embedding dimension.
func (c *OllamaClient) Dim() int { return c.dim }

// Model returns the embedding model name.
func (c *OllamaClient) Model() string { return c.model }

// embeddingRequest is the Ollama API request format.
type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// embeddingResponse is the Ollama API response format.
type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// EmbedMany generates L2-normalized embeddings for texts, same length and
// order as the input. A failed text degrades to a zero vector; only a
// cancelled context aborts the whole call.
func (c *OllamaClient) EmbedMany(ctx context.Context, texts []string) ([][]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	vectors := make([][]float64, len(texts))

	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			vec, err := c.embedOne(ctx, texts[i])
			if err != nil {
				log.Warn().Err(err).Int("index", i).Msg("Embedding failed, degrading to zero vector")
				vectors[i] = ZeroVector(c.dim)
				continue
			}
			similarity.Normalize(vec)
			vectors[i] = vec
		}
	}

	return vectors, nil
}

// embedOne generates a single embedding.
func (c *OllamaClient) embedOne(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}

	jsonBody, err := json.Marshal(embeddingRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	var result embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}

	return result.Embedding, nil
}
