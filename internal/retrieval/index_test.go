package retrieval

import (
	"context"
	"math"
	"reflect"
	"testing"

	"theatrecore/internal/core"
	"theatrecore/pkg/domain"
)

func seededSnapshot(t *testing.T) domain.Snapshot {
	t.Helper()
	store := core.NewMemoryStore(core.NewDefaultRulesEngine())
	if err := core.SeedSampleData(context.Background(), store); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store.Export()
}

func newSyncedIndex(t *testing.T) *Index {
	t.Helper()
	index := NewIndex(nil)
	if err := index.SyncSnapshot(context.Background(), seededSnapshot(t)); err != nil {
		t.Fatalf("sync: %v", err)
	}
	return index
}

func TestLocalEmbedderIsDeterministic(t *testing.T) {
	embedder := NewLocalEmbedder()
	ctx := context.Background()
	a, err := embedder.Embed(ctx, []string{"brain surgery in the neuro theatre"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, err := embedder.Embed(ctx, []string{"brain surgery in the neuro theatre"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical text must embed identically")
	}
	if len(a[0]) != 256 {
		t.Fatalf("unexpected vector size %d", len(a[0]))
	}
	var norm float64
	for _, v := range a[0] {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Fatalf("vector not normalized: %f", norm)
	}
}

func TestSyncSnapshotIndexesAllDocuments(t *testing.T) {
	index := newSyncedIndex(t)
	// 24 entities plus the rules document.
	if got := index.Len(); got != 25 {
		t.Fatalf("expected 25 documents, got %d", got)
	}
}

func TestSearchFindsRelevantSurgery(t *testing.T) {
	index := newSyncedIndex(t)
	matches, err := index.Search(context.Background(), "Brain_Surgery emergency in Neuro_Theatre with Dr_Smith", 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	// The hashed bag-of-words embedder ranks the surgery and its theatre
	// close together; the surgery must at least make the short list.
	found := false
	for _, m := range matches {
		if m.Document.EntityID == "surgery_brain" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected surgery_brain among the top matches, got %+v", matches)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i-1].Score < matches[i].Score {
			t.Fatal("matches must be ordered by descending score")
		}
	}
}

func TestSearchDefaultsTopK(t *testing.T) {
	index := newSyncedIndex(t)
	matches, err := index.Search(context.Background(), "surgery", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 5 {
		t.Fatalf("expected default of 5 matches, got %d", len(matches))
	}
}

func TestSearchIsDeterministic(t *testing.T) {
	index := newSyncedIndex(t)
	first, err := index.Search(context.Background(), "recovery room ward patient", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	second, err := index.Search(context.Background(), "recovery room ward patient", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("search must be deterministic for a fixed index")
	}
}

func TestSyncSnapshotReplacesContents(t *testing.T) {
	index := newSyncedIndex(t)
	if err := index.SyncSnapshot(context.Background(), domain.Snapshot{}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	// Only the rules document remains for an empty graph.
	if got := index.Len(); got != 1 {
		t.Fatalf("expected 1 document, got %d", got)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical vectors: %f", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); math.Abs(got) > 1e-9 {
		t.Fatalf("orthogonal vectors: %f", got)
	}
	if got := cosineSimilarity(nil, []float32{1}); got != 0 {
		t.Fatalf("mismatched lengths must score zero: %f", got)
	}
}
