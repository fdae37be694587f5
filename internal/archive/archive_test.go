package archive

import (
	"context"
	"strings"
	"testing"
	"time"

	"theatrecore/internal/blob"
	"theatrecore/internal/core"
	"theatrecore/pkg/domain"
)

func newSeededArchiver(t *testing.T) (*Archiver, *core.MemoryStore) {
	t.Helper()
	store := core.NewMemoryStore(core.NewDefaultRulesEngine())
	if err := core.SeedSampleData(context.Background(), store); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return New(blob.NewMemory(), store), store
}

func TestArchiveListRestore(t *testing.T) {
	archiver, store := newSeededArchiver(t)
	ctx := context.Background()

	entry, err := archiver.Archive(ctx)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !strings.HasPrefix(entry.Key, "snapshots/") || !strings.HasSuffix(entry.Key, ".json") {
		t.Fatalf("unexpected key %s", entry.Key)
	}
	if entry.SizeBytes == 0 {
		t.Fatal("expected a non-empty payload")
	}

	entries, err := archiver.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Key != entry.Key {
		t.Fatalf("unexpected listing %v", entries)
	}
	if !entries[0].ArchivedAt.Equal(entry.ArchivedAt.Truncate(time.Second)) {
		t.Fatalf("archived_at metadata lost: %v vs %v", entries[0].ArchivedAt, entry.ArchivedAt)
	}

	// Wipe the schedule, then restore the archived state.
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		for _, surgery := range store.ListSurgeries() {
			if err := tx.DeleteSurgery(surgery.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("wipe: %v", err)
	}
	if got := len(store.ListSurgeries()); got != 0 {
		t.Fatalf("expected empty schedule, got %d", got)
	}

	if err := archiver.Restore(ctx, entry.Key); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, ok := store.GetSurgery("surgery_brain"); !ok {
		t.Fatal("surgery_brain missing after restore")
	}
	if got := store.Summarize().Total; got != 24 {
		t.Fatalf("expected 24 entities after restore, got %d", got)
	}
}

func TestListOrdersChronologically(t *testing.T) {
	archiver, _ := newSeededArchiver(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	step := 0
	archiver.nowFn = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}
	first, err := archiver.Archive(ctx)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	second, err := archiver.Archive(ctx)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}

	entries, err := archiver.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Key != first.Key || entries[1].Key != second.Key {
		t.Fatalf("expected chronological order, got %v", entries)
	}
	if !entries[1].ArchivedAt.After(entries[0].ArchivedAt) {
		t.Fatalf("timestamps out of order: %v", entries)
	}
}

func TestRestoreMissingKey(t *testing.T) {
	archiver, _ := newSeededArchiver(t)
	if err := archiver.Restore(context.Background(), "snapshots/nope.json"); err == nil {
		t.Fatal("expected restore of a missing key to fail")
	}
}

func TestRestoreRejectsCorruptPayload(t *testing.T) {
	blobs := blob.NewMemory()
	store := core.NewMemoryStore(core.NewDefaultRulesEngine())
	if _, err := blobs.Put(context.Background(), "snapshots/bad.json", strings.NewReader("{not json"), blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := New(blobs, store).Restore(context.Background(), "snapshots/bad.json"); err == nil {
		t.Fatal("expected decode failure")
	}
}
