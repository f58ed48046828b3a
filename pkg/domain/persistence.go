package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateResident(Resident) (Resident, error)
	UpdateResident(id string, mutator func(*Resident) error) (Resident, error)
	DeleteResident(id string) error
	CreateCaregiver(Caregiver) (Caregiver, error)
	UpdateCaregiver(id string, mutator func(*Caregiver) error) (Caregiver, error)
	DeleteCaregiver(id string) error
	CreateHealthLog(HealthLog) (HealthLog, error)
	UpdateHealthLog(id string, mutator func(*HealthLog) error) (HealthLog, error)
	DeleteHealthLog(id string) error
	CreateMedication(Medication) (Medication, error)
	UpdateMedication(id string, mutator func(*Medication) error) (Medication, error)
	DeleteMedication(id string) error
	CreateEvent(Event) (Event, error)
	UpdateEvent(id string, mutator func(*Event) error) (Event, error)
	DeleteEvent(id string) error
	CreateNote(Note) (Note, error)
	UpdateNote(id string, mutator func(*Note) error) (Note, error)
	DeleteNote(id string) error
	FindResident(id string) (Resident, bool)
	FindCaregiver(id string) (Caregiver, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// for callers inspecting transactional state.
type TransactionView interface {
	RuleView
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetResident(id string) (Resident, bool)
	ListResidents() []Resident
	GetCaregiver(id string) (Caregiver, bool)
	ListCaregivers() []Caregiver
	ListHealthLogs() []HealthLog
	ListMedications() []Medication
	ListEvents() []Event
	ListNotes() []Note
}
