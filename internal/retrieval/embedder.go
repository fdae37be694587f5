// Package retrieval maintains an in-memory semantic index over projected
// schedule documents and answers free-text queries by cosine similarity.
package retrieval

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Embedder turns text into a dense vector. Implementations must return
// vectors of a stable dimension.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIEmbedder embeds text through the OpenAI embeddings API or any
// OpenAI-compatible endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// OpenAIConfig configures the embedder. BaseURL may point at any
// OpenAI-compatible service.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewOpenAIEmbedder constructs an embedder from explicit configuration.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	apiKey := cfg.APIKey
	if apiKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai api key required")
	}
	var client *openai.Client
	if cfg.BaseURL != "" {
		if apiKey == "" {
			apiKey = "dummy-key"
		}
		clientConfig := openai.DefaultConfig(apiKey)
		clientConfig.BaseURL = cfg.BaseURL
		client = openai.NewClientWithConfig(clientConfig)
	} else {
		client = openai.NewClient(apiKey)
	}
	model := openai.EmbeddingModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.SmallEmbedding3
	}
	return &OpenAIEmbedder{client: client, model: model}, nil
}

// OpenOpenAIEmbedderFromEnv constructs an embedder from process environment.
//
//	THEATRECORE_OPENAI_API_KEY (or OPENAI_API_KEY)
//	THEATRECORE_OPENAI_BASE_URL (optional, OpenAI-compatible endpoint)
//	THEATRECORE_EMBEDDING_MODEL (optional)
func OpenOpenAIEmbedderFromEnv() (*OpenAIEmbedder, error) {
	apiKey := os.Getenv("THEATRECORE_OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	return NewOpenAIEmbedder(OpenAIConfig{
		APIKey:  apiKey,
		BaseURL: os.Getenv("THEATRECORE_OPENAI_BASE_URL"),
		Model:   os.Getenv("THEATRECORE_EMBEDDING_MODEL"),
	})
}

// Embed requests embeddings for all texts in one call.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: want %d got %d", len(texts), len(resp.Data))
	}
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

const localEmbeddingDim = 256

// LocalEmbedder is a deterministic offline fallback: hashed bag-of-words
// vectors, L2-normalized. Quality is far below a real embedding model but
// the behavior is stable, which is what tests and air-gapped deployments
// need.
type LocalEmbedder struct{}

// NewLocalEmbedder returns the deterministic fallback embedder.
func NewLocalEmbedder() *LocalEmbedder { return &LocalEmbedder{} }

// Embed hashes each token into a fixed-dimension vector.
func (LocalEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, localEmbeddingDim)
		for _, token := range tokenize(text) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(token))
			vec[h.Sum32()%localEmbeddingDim]++
		}
		normalize(vec)
		out[i] = vec
	}
	return out, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}

func normalize(vec []float32) {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
