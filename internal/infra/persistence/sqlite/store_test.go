package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"carecore/pkg/domain"
)

func TestStoreSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "state.db")
	store, err := NewStore(dbPath, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	ctx := context.Background()
	var resident domain.Resident
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var e error
		resident, e = tx.CreateResident(domain.Resident{Name: "Ada", Room: "101"})
		return e
	}); err != nil {
		t.Fatalf("create resident: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, e := tx.CreateNote(domain.Note{ResidentID: resident.ID, Author: "nurse", Body: "settled in"})
		return e
	}); err != nil {
		t.Fatalf("create note: %v", err)
	}

	reopened, err := NewStore(dbPath, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reopen sqlite store: %v", err)
	}
	residents := reopened.ListResidents()
	if len(residents) != 1 || residents[0].Name != "Ada" {
		t.Fatalf("expected snapshot reload, got %+v", residents)
	}
	notes := reopened.ListNotes()
	if len(notes) != 1 || notes[0].ResidentID != resident.ID {
		t.Fatalf("expected note reload, got %+v", notes)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("db file missing: %v", err)
	}
}

func TestStoreDefaultsPath(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "carecore.db")
	store, err := NewStore(dbPath, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	if store.Path() != dbPath {
		t.Fatalf("expected path %s, got %s", dbPath, store.Path())
	}
	if store.DB() == nil {
		t.Fatal("expected db handle")
	}
}

func TestFailedTransactionDoesNotPersist(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "state.db")
	store, err := NewStore(dbPath, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateHealthLog(domain.HealthLog{ResidentID: "missing"})
		return e
	}); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	reopened, err := NewStore(dbPath, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reopen sqlite store: %v", err)
	}
	if got := len(reopened.ListHealthLogs()); got != 0 {
		t.Fatalf("failed transaction must not persist, found %d logs", got)
	}
}
