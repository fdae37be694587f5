package persistence

import (
	"path/filepath"
	"testing"

	"theatrecore/internal/core"
	"theatrecore/internal/infra/persistence/memory"
	"theatrecore/internal/infra/persistence/sqlite"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv("THEATRECORE_STORAGE_DRIVER", "memory")
	store, err := OpenPersistentStore(core.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenPersistentStoreSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.db")
	t.Setenv("THEATRECORE_STORAGE_DRIVER", "sqlite")
	t.Setenv("THEATRECORE_SQLITE_PATH", path)
	store, err := OpenPersistentStore(core.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	defer func() { _ = s.Close() }()
	if s.Path() != path {
		t.Fatalf("unexpected path %s", s.Path())
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	t.Setenv("THEATRECORE_STORAGE_DRIVER", "etcd")
	if _, err := OpenPersistentStore(core.NewDefaultRulesEngine()); err == nil {
		t.Fatal("expected unknown driver error")
	}
}
