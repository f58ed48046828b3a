package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"carecore/pkg/domain"
)

func newTestStore() *Store {
	return NewStore(domain.NewRulesEngine())
}

func createResident(t *testing.T, store *Store, name string) Resident {
	t.Helper()
	var created Resident
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		created, err = tx.CreateResident(Resident{Name: name, Room: "101"})
		return err
	}); err != nil {
		t.Fatalf("create resident: %v", err)
	}
	return created
}

func TestCreateResidentDefaults(t *testing.T) {
	store := newTestStore()
	created := createResident(t, store, "Ada")
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.Status != domain.ResidentActive {
		t.Fatalf("expected default active status, got %s", created.Status)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

func TestCreateResidentInvalidStatus(t *testing.T) {
	store := newTestStore()
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, e := tx.CreateResident(Resident{Name: "Bad", Status: "retired"})
		return e
	})
	if err == nil || !strings.Contains(err.Error(), "invalid resident status") {
		t.Fatalf("expected invalid status error, got %v", err)
	}
}

func TestDeleteResidentBlockedByDependents(t *testing.T) {
	store := newTestStore()
	resident := createResident(t, store, "Ada")
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, e := tx.CreateHealthLog(HealthLog{ResidentID: resident.ID, Observer: "nurse"})
		return e
	}); err != nil {
		t.Fatalf("create health log: %v", err)
	}
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		return tx.DeleteResident(resident.ID)
	})
	if err == nil || !strings.Contains(err.Error(), "still referenced") {
		t.Fatalf("expected reference guard error, got %v", err)
	}
	if _, ok := store.GetResident(resident.ID); !ok {
		t.Fatal("resident should survive a failed transaction")
	}
}

func TestDeleteCaregiverBlockedByResidentLink(t *testing.T) {
	store := newTestStore()
	resident := createResident(t, store, "Ada")
	var caregiver Caregiver
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		caregiver, err = tx.CreateCaregiver(Caregiver{Name: "Grace"})
		if err != nil {
			return err
		}
		if _, err = tx.UpdateResident(resident.ID, func(r *Resident) error {
			r.AssignedCaregiverIDs = append(r.AssignedCaregiverIDs, caregiver.ID)
			return nil
		}); err != nil {
			return err
		}
		_, err = tx.UpdateCaregiver(caregiver.ID, func(c *Caregiver) error {
			c.AssignedResidentIDs = append(c.AssignedResidentIDs, resident.ID)
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("link caregiver: %v", err)
	}
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		return tx.DeleteCaregiver(caregiver.ID)
	})
	if err == nil || !strings.Contains(err.Error(), "still referenced by resident") {
		t.Fatalf("expected resident reference guard, got %v", err)
	}
}

func TestCreateDependentsRequireResident(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, e := tx.CreateHealthLog(HealthLog{ResidentID: "missing"})
		return e
	}); !domain.IsNotFound(err) {
		t.Fatalf("expected not found for health log, got %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, e := tx.CreateMedication(Medication{ResidentID: "missing", Name: "aspirin"})
		return e
	}); !domain.IsNotFound(err) {
		t.Fatalf("expected not found for medication, got %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, e := tx.CreateNote(Note{ResidentID: "missing", Body: "hello"})
		return e
	}); !domain.IsNotFound(err) {
		t.Fatalf("expected not found for note, got %v", err)
	}
}

func TestCreateEventValidation(t *testing.T) {
	store := newTestStore()
	resident := createResident(t, store, "Ada")
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, e := tx.CreateEvent(Event{Title: "empty", StartsAt: now, EndsAt: now.Add(time.Hour)})
		return e
	}); err == nil || !strings.Contains(err.Error(), "at least one resident") {
		t.Fatalf("expected resident requirement, got %v", err)
	}

	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, e := tx.CreateEvent(Event{Title: "bad window", ResidentIDs: []string{resident.ID}, StartsAt: now, EndsAt: now})
		return e
	}); err == nil || !strings.Contains(err.Error(), "end must be after start") {
		t.Fatalf("expected window validation, got %v", err)
	}

	var event Event
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		var e error
		event, e = tx.CreateEvent(Event{Title: "walk", ResidentIDs: []string{resident.ID, resident.ID}, StartsAt: now, EndsAt: now.Add(time.Hour)})
		return e
	}); err != nil {
		t.Fatalf("create event: %v", err)
	}
	if len(event.ResidentIDs) != 1 {
		t.Fatalf("expected deduped resident ids, got %v", event.ResidentIDs)
	}
}

func TestDeleteMedicationBlockedByHealthLog(t *testing.T) {
	store := newTestStore()
	resident := createResident(t, store, "Ada")
	var medication Medication
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		medication, err = tx.CreateMedication(Medication{ResidentID: resident.ID, Name: "aspirin"})
		if err != nil {
			return err
		}
		_, err = tx.CreateHealthLog(HealthLog{ResidentID: resident.ID, MedicationIDs: []string{medication.ID}})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		return tx.DeleteMedication(medication.ID)
	})
	if err == nil || !strings.Contains(err.Error(), "still referenced by health log") {
		t.Fatalf("expected health log guard, got %v", err)
	}
}

type blockAllRule struct{}

func (blockAllRule) Name() string { return "block_all" }

func (blockAllRule) Evaluate(_ context.Context, _ domain.RuleView, _ []domain.Change) (Result, error) {
	return Result{Violations: []domain.Violation{{Rule: "block_all", Severity: domain.SeverityBlock, Message: "blocked"}}}, nil
}

func TestBlockingRuleAbortsCommit(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockAllRule{})
	store := NewStore(engine)
	res, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, e := tx.CreateResident(Resident{Name: "Ada"})
		return e
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation error, got %v", err)
	}
	if !res.HasBlocking() {
		t.Fatal("expected blocking result")
	}
	if got := len(store.ListResidents()); got != 0 {
		t.Fatalf("state should be untouched, found %d residents", got)
	}
}

func TestCanceledContextAborts(t *testing.T) {
	store := newTestStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, e := tx.CreateResident(Resident{Name: "Ada"})
		return e
	})
	if !domain.IsRetryable(err) {
		t.Fatalf("expected retryable aborted error, got %v", err)
	}
	if got := len(store.ListResidents()); got != 0 {
		t.Fatalf("aborted transaction must not commit, found %d residents", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := newTestStore()
	resident := createResident(t, store, "Ada")
	snapshot := store.ExportState()

	restored := newTestStore()
	restored.ImportState(snapshot)
	got, ok := restored.GetResident(resident.ID)
	if !ok || got.Name != "Ada" {
		t.Fatalf("expected restored resident, got %+v ok=%v", got, ok)
	}
}

func TestImportStateRepairsInconsistencies(t *testing.T) {
	snapshot := Snapshot{
		Residents: map[string]Resident{
			"r1": {Base: domain.Base{ID: "r1"}, Name: "Ada", AssignedCaregiverIDs: []string{"c1", "ghost"}},
		},
		Caregivers: map[string]Caregiver{
			"c1": {Base: domain.Base{ID: "c1"}, Name: "Grace", AssignedResidentIDs: []string{"r1", "gone"}},
			"c2": {Base: domain.Base{ID: "c2"}, Name: "Alan", AssignedResidentIDs: []string{"r1"}},
		},
		HealthLogs: map[string]HealthLog{
			"h1": {Base: domain.Base{ID: "h1"}, ResidentID: "r1", MedicationIDs: []string{"m-gone"}},
			"h2": {Base: domain.Base{ID: "h2"}, ResidentID: "deleted"},
		},
		Medications: map[string]Medication{
			"m1": {Base: domain.Base{ID: "m1"}, ResidentID: "deleted"},
		},
		Events: map[string]Event{
			"e1": {Base: domain.Base{ID: "e1"}, ResidentIDs: []string{"deleted"}},
			"e2": {Base: domain.Base{ID: "e2"}, ResidentIDs: []string{"r1", "deleted"}},
		},
		Notes: map[string]Note{
			"n1": {Base: domain.Base{ID: "n1"}, ResidentID: "deleted"},
		},
	}

	store := newTestStore()
	store.ImportState(snapshot)

	resident, _ := store.GetResident("r1")
	if len(resident.AssignedCaregiverIDs) != 1 || resident.AssignedCaregiverIDs[0] != "c1" {
		t.Fatalf("expected only mutual pair to survive, got %v", resident.AssignedCaregiverIDs)
	}
	c2, _ := store.GetCaregiver("c2")
	if len(c2.AssignedResidentIDs) != 0 {
		t.Fatalf("one-sided caregiver link should be dropped, got %v", c2.AssignedResidentIDs)
	}
	logs := store.ListHealthLogs()
	if len(logs) != 1 || logs[0].ID != "h1" || len(logs[0].MedicationIDs) != 0 {
		t.Fatalf("expected repaired health logs, got %+v", logs)
	}
	if got := len(store.ListMedications()); got != 0 {
		t.Fatalf("dangling medication should be dropped, found %d", got)
	}
	events := store.ListEvents()
	if len(events) != 1 || events[0].ID != "e2" || len(events[0].ResidentIDs) != 1 {
		t.Fatalf("expected pruned events, got %+v", events)
	}
	if got := len(store.ListNotes()); got != 0 {
		t.Fatalf("dangling note should be dropped, found %d", got)
	}
}

func TestUpdateResidentNotFound(t *testing.T) {
	store := newTestStore()
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, e := tx.UpdateResident("missing", func(r *Resident) error { return nil })
		return e
	})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestViewIsolation(t *testing.T) {
	store := newTestStore()
	resident := createResident(t, store, "Ada")
	err := store.View(context.Background(), func(view TransactionView) error {
		got, ok := view.FindResident(resident.ID)
		if !ok {
			t.Fatal("expected resident in view")
		}
		got.Name = "Mutated"
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	fresh, _ := store.GetResident(resident.ID)
	if fresh.Name != "Ada" {
		t.Fatalf("view mutation leaked into store: %s", fresh.Name)
	}
}
