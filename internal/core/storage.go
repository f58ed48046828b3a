package core

import (
	"fmt"
	"os"

	"carecore/internal/infra/persistence/memory"
	"carecore/internal/infra/persistence/postgres"
	"carecore/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	// StorageMemory keeps state in process memory only (tests / ephemeral).
	StorageMemory StorageDriver = "memory"
	// StorageSQLite snapshots state to an embedded sqlite file.
	StorageSQLite StorageDriver = "sqlite"
	// StoragePostgres snapshots state to a PostgreSQL server.
	StoragePostgres StorageDriver = "postgres"
)

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	CARECORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	CARECORE_SQLITE_PATH: path to sqlite file (default ./carecore.db)
//	CARECORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *RulesEngine) (PersistentStore, error) {
	driver := os.Getenv("CARECORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("CARECORE_SQLITE_PATH")
		return sqlite.NewStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("CARECORE_POSTGRES_DSN")
		return postgres.NewStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
