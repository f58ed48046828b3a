package core

import (
	"path/filepath"
	"testing"

	"carecore/internal/infra/persistence/memory"
	"carecore/internal/infra/persistence/sqlite"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv("CARECORE_STORAGE_DRIVER", "memory")
	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenPersistentStoreDefaultsToSQLite(t *testing.T) {
	t.Setenv("CARECORE_STORAGE_DRIVER", "")
	t.Setenv("CARECORE_SQLITE_PATH", filepath.Join(t.TempDir(), "care.db"))
	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*sqlite.Store); !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	t.Setenv("CARECORE_STORAGE_DRIVER", "floppy")
	if _, err := OpenPersistentStore(NewDefaultRulesEngine()); err == nil {
		t.Fatal("expected unknown driver error")
	}
}

func TestCaregiverCapacityFromEnv(t *testing.T) {
	t.Setenv("CARECORE_CAREGIVER_CAPACITY", "")
	if got := CaregiverCapacityFromEnv(); got != DefaultCaregiverCapacity {
		t.Fatalf("expected default, got %d", got)
	}
	t.Setenv("CARECORE_CAREGIVER_CAPACITY", "8")
	if got := CaregiverCapacityFromEnv(); got != 8 {
		t.Fatalf("expected 8, got %d", got)
	}
	t.Setenv("CARECORE_CAREGIVER_CAPACITY", "zero")
	if got := CaregiverCapacityFromEnv(); got != DefaultCaregiverCapacity {
		t.Fatalf("invalid value must fall back, got %d", got)
	}
	t.Setenv("CARECORE_CAREGIVER_CAPACITY", "-3")
	if got := CaregiverCapacityFromEnv(); got != DefaultCaregiverCapacity {
		t.Fatalf("negative value must fall back, got %d", got)
	}
}
