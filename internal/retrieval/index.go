package retrieval

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"theatrecore/internal/projection"
	"theatrecore/pkg/domain"
)

// Match is one search hit.
type Match struct {
	Document projection.Document `json:"document"`
	Score    float64             `json:"score"`
}

type indexed struct {
	doc    projection.Document
	vector []float32
}

// Index holds projected documents and their embeddings in memory. It
// implements the service's projection sink: every committed snapshot is
// re-projected and re-embedded wholesale, which is cheap at schedule scale
// and keeps the index trivially consistent.
type Index struct {
	embedder Embedder

	mu   sync.RWMutex
	docs []indexed
}

// NewIndex constructs an index over the supplied embedder. A nil embedder
// falls back to the deterministic local one.
func NewIndex(embedder Embedder) *Index {
	if embedder == nil {
		embedder = NewLocalEmbedder()
	}
	return &Index{embedder: embedder}
}

// SyncSnapshot projects the snapshot and replaces the index contents.
func (x *Index) SyncSnapshot(ctx context.Context, snapshot domain.Snapshot) error {
	docs := projection.NewProjector(snapshot).Documents()
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	vectors, err := x.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embedding count mismatch: want %d got %d", len(docs), len(vectors))
	}
	next := make([]indexed, len(docs))
	for i := range docs {
		next[i] = indexed{doc: docs[i], vector: vectors[i]}
	}
	x.mu.Lock()
	x.docs = next
	x.mu.Unlock()
	return nil
}

// Len reports the number of indexed documents.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

// Search embeds the query and returns the topK most similar documents,
// highest score first. Ties break on entity id for stable output.
func (x *Index) Search(ctx context.Context, query string, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 5
	}
	vectors, err := x.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding count mismatch: want 1 got %d", len(vectors))
	}
	queryVec := vectors[0]

	x.mu.RLock()
	matches := make([]Match, 0, len(x.docs))
	for _, entry := range x.docs {
		matches = append(matches, Match{
			Document: entry.doc,
			Score:    cosineSimilarity(queryVec, entry.vector),
		})
	}
	x.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Document.EntityID < matches[j].Document.EntityID
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}
