// Package persistence selects a concrete storage backend for the schedule
// graph from environment configuration.
package persistence

import (
	"fmt"
	"os"

	"theatrecore/internal/infra/persistence/memory"
	"theatrecore/internal/infra/persistence/postgres"
	"theatrecore/internal/infra/persistence/sqlite"
	"theatrecore/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	THEATRECORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	THEATRECORE_SQLITE_PATH: path to sqlite file (default ./theatrecore.db)
//	THEATRECORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *domain.RulesEngine) (domain.PersistentStore, error) {
	driver := os.Getenv("THEATRECORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("THEATRECORE_SQLITE_PATH")
		return sqlite.NewStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("THEATRECORE_POSTGRES_DSN")
		return postgres.NewStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
