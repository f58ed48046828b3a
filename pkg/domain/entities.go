// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by carecore.
package domain

import (
	"sort"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityResident identifies an elder-care recipient record.
	EntityResident EntityType = "resident"
	// EntityCaregiver identifies a staff record assignable to residents.
	EntityCaregiver EntityType = "caregiver"
	// EntityHealthLog identifies a timestamped health observation record.
	EntityHealthLog EntityType = "health_log"
	// EntityMedication identifies a prescribed medication record.
	EntityMedication EntityType = "medication"
	// EntityEvent identifies a scheduled care event record.
	EntityEvent EntityType = "event"
	// EntityNote identifies a free-form note record.
	EntityNote EntityType = "note"
)

// ResidentStatus represents the canonical resident lifecycle states.
type ResidentStatus string

// Canonical resident statuses. Hard deletion cascades; the others are
// bookkeeping transitions that keep the record and its references intact.
const (
	ResidentActive      ResidentStatus = "active"
	ResidentInactive    ResidentStatus = "inactive"
	ResidentDeceased    ResidentStatus = "deceased"
	ResidentTransferred ResidentStatus = "transferred"
)

// CaregiverStatus enumerates caregiver availability states.
type CaregiverStatus string

// Canonical caregiver statuses.
const (
	CaregiverActive   CaregiverStatus = "active"
	CaregiverOnLeave  CaregiverStatus = "on_leave"
	CaregiverInactive CaregiverStatus = "inactive"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Resident represents an elder-care recipient tracked by the system.
type Resident struct {
	Base
	Name                 string         `json:"name"`
	DateOfBirth          *time.Time     `json:"date_of_birth"`
	Room                 string         `json:"room"`
	MedicalNotes         string         `json:"medical_notes,omitempty"`
	Status               ResidentStatus `json:"status"`
	AssignedCaregiverIDs []string       `json:"assigned_caregiver_ids"`
	PhotoURL             *string        `json:"photo_url"`
	DocumentURLs         []string       `json:"document_urls"`
}

// MediaRefs returns the distinct blob URLs referenced by the resident,
// treating the scalar photo as a singleton set.
func (r Resident) MediaRefs() []string {
	seen := make(map[string]struct{}, len(r.DocumentURLs)+1)
	var refs []string
	add := func(u string) {
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		refs = append(refs, u)
	}
	if r.PhotoURL != nil {
		add(*r.PhotoURL)
	}
	for _, u := range r.DocumentURLs {
		add(u)
	}
	sort.Strings(refs)
	return refs
}

// Caregiver represents a staff member assignable to residents.
type Caregiver struct {
	Base
	Name                string          `json:"name"`
	Phone               string          `json:"phone"`
	Role                string          `json:"role"`
	Status              CaregiverStatus `json:"status"`
	AssignedResidentIDs []string        `json:"assigned_resident_ids"`
}

// HealthLog records a timestamped health observation for exactly one resident.
type HealthLog struct {
	Base
	ResidentID    string    `json:"resident_id"`
	RecordedAt    time.Time `json:"recorded_at"`
	Observer      string    `json:"observer"`
	Notes         string    `json:"notes,omitempty"`
	MedicationIDs []string  `json:"medication_ids"`
}

// Medication represents a prescription belonging to exactly one resident.
type Medication struct {
	Base
	ResidentID string `json:"resident_id"`
	Name       string `json:"name"`
	Dosage     string `json:"dosage"`
	Schedule   string `json:"schedule"`
}

// Event represents a scheduled care event referencing one or more residents
// over the half-open window [StartsAt, EndsAt).
type Event struct {
	Base
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ResidentIDs []string  `json:"resident_ids"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
}

// Note captures a free-form note attached to exactly one resident.
type Note struct {
	Base
	ResidentID string `json:"resident_id"`
	Author     string `json:"author"`
	Body       string `json:"body"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
