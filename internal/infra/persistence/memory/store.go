// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"carecore/pkg/domain"

	"github.com/google/uuid"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Resident aliases domain.Resident for in-memory persistence operations.
	Resident = domain.Resident
	// Caregiver aliases domain.Caregiver.
	Caregiver = domain.Caregiver
	// HealthLog aliases domain.HealthLog.
	HealthLog = domain.HealthLog
	// Medication aliases domain.Medication.
	Medication = domain.Medication
	// Event aliases domain.Event.
	Event = domain.Event
	// Note aliases domain.Note.
	Note = domain.Note
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

type memoryState struct {
	residents   map[string]Resident
	caregivers  map[string]Caregiver
	healthLogs  map[string]HealthLog
	medications map[string]Medication
	events      map[string]Event
	notes       map[string]Note
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Residents   map[string]Resident   `json:"residents"`
	Caregivers  map[string]Caregiver  `json:"caregivers"`
	HealthLogs  map[string]HealthLog  `json:"health_logs"`
	Medications map[string]Medication `json:"medications"`
	Events      map[string]Event      `json:"events"`
	Notes       map[string]Note       `json:"notes"`
}

func newMemoryState() memoryState {
	return memoryState{
		residents:   make(map[string]Resident),
		caregivers:  make(map[string]Caregiver),
		healthLogs:  make(map[string]HealthLog),
		medications: make(map[string]Medication),
		events:      make(map[string]Event),
		notes:       make(map[string]Note),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Residents:   make(map[string]Resident, len(state.residents)),
		Caregivers:  make(map[string]Caregiver, len(state.caregivers)),
		HealthLogs:  make(map[string]HealthLog, len(state.healthLogs)),
		Medications: make(map[string]Medication, len(state.medications)),
		Events:      make(map[string]Event, len(state.events)),
		Notes:       make(map[string]Note, len(state.notes)),
	}
	for k, v := range state.residents {
		s.Residents[k] = cloneResident(v)
	}
	for k, v := range state.caregivers {
		s.Caregivers[k] = cloneCaregiver(v)
	}
	for k, v := range state.healthLogs {
		s.HealthLogs[k] = cloneHealthLog(v)
	}
	for k, v := range state.medications {
		s.Medications[k] = cloneMedication(v)
	}
	for k, v := range state.events {
		s.Events[k] = cloneEvent(v)
	}
	for k, v := range state.notes {
		s.Notes[k] = cloneNote(v)
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Residents {
		state.residents[k] = cloneResident(v)
	}
	for k, v := range s.Caregivers {
		state.caregivers[k] = cloneCaregiver(v)
	}
	for k, v := range s.HealthLogs {
		state.healthLogs[k] = cloneHealthLog(v)
	}
	for k, v := range s.Medications {
		state.medications[k] = cloneMedication(v)
	}
	for k, v := range s.Events {
		state.events[k] = cloneEvent(v)
	}
	for k, v := range s.Notes {
		state.notes[k] = cloneNote(v)
	}
	return state
}

// migrateSnapshot normalizes snapshots loaded from durable backends: nil maps
// become empty, dangling resident references are pruned, and the mirrored
// assignment sets are reduced to pairs recorded on both sides.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Residents == nil {
		snapshot.Residents = map[string]Resident{}
	}
	if snapshot.Caregivers == nil {
		snapshot.Caregivers = map[string]Caregiver{}
	}
	if snapshot.HealthLogs == nil {
		snapshot.HealthLogs = map[string]HealthLog{}
	}
	if snapshot.Medications == nil {
		snapshot.Medications = map[string]Medication{}
	}
	if snapshot.Events == nil {
		snapshot.Events = map[string]Event{}
	}
	if snapshot.Notes == nil {
		snapshot.Notes = map[string]Note{}
	}

	residentExists := func(id string) bool {
		_, ok := snapshot.Residents[id]
		return ok
	}
	medicationExists := func(id string) bool {
		_, ok := snapshot.Medications[id]
		return ok
	}

	for id, medication := range snapshot.Medications {
		if medication.ResidentID == "" || !residentExists(medication.ResidentID) {
			delete(snapshot.Medications, id)
		}
	}

	for id, log := range snapshot.HealthLogs {
		if log.ResidentID == "" || !residentExists(log.ResidentID) {
			delete(snapshot.HealthLogs, id)
			continue
		}
		if filtered, changed := filterIDs(log.MedicationIDs, medicationExists); changed {
			log.MedicationIDs = filtered
		}
		snapshot.HealthLogs[id] = log
	}

	for id, note := range snapshot.Notes {
		if note.ResidentID == "" || !residentExists(note.ResidentID) {
			delete(snapshot.Notes, id)
		}
	}

	for id, event := range snapshot.Events {
		if filtered, changed := filterIDs(event.ResidentIDs, residentExists); changed {
			event.ResidentIDs = filtered
		}
		if len(event.ResidentIDs) == 0 {
			delete(snapshot.Events, id)
			continue
		}
		snapshot.Events[id] = event
	}

	// A pair survives only when both mirrored sets record it.
	for id, resident := range snapshot.Residents {
		kept := resident.AssignedCaregiverIDs[:0:0]
		for _, cgID := range dedupeStrings(resident.AssignedCaregiverIDs) {
			cg, ok := snapshot.Caregivers[cgID]
			if ok && containsString(cg.AssignedResidentIDs, id) {
				kept = append(kept, cgID)
			}
		}
		sort.Strings(kept)
		resident.AssignedCaregiverIDs = kept
		if resident.Status == "" {
			resident.Status = domain.ResidentActive
		}
		snapshot.Residents[id] = resident
	}
	for id, caregiver := range snapshot.Caregivers {
		kept := caregiver.AssignedResidentIDs[:0:0]
		for _, resID := range dedupeStrings(caregiver.AssignedResidentIDs) {
			res, ok := snapshot.Residents[resID]
			if ok && containsString(res.AssignedCaregiverIDs, id) {
				kept = append(kept, resID)
			}
		}
		sort.Strings(kept)
		caregiver.AssignedResidentIDs = kept
		if caregiver.Status == "" {
			caregiver.Status = domain.CaregiverActive
		}
		snapshot.Caregivers[id] = caregiver
	}

	return snapshot
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.residents {
		cloned.residents[k] = cloneResident(v)
	}
	for k, v := range s.caregivers {
		cloned.caregivers[k] = cloneCaregiver(v)
	}
	for k, v := range s.healthLogs {
		cloned.healthLogs[k] = cloneHealthLog(v)
	}
	for k, v := range s.medications {
		cloned.medications[k] = cloneMedication(v)
	}
	for k, v := range s.events {
		cloned.events[k] = cloneEvent(v)
	}
	for k, v := range s.notes {
		cloned.notes[k] = cloneNote(v)
	}
	return cloned
}

func cloneResident(r Resident) Resident {
	cp := r
	cp.AssignedCaregiverIDs = append([]string(nil), r.AssignedCaregiverIDs...)
	cp.DocumentURLs = append([]string(nil), r.DocumentURLs...)
	if r.PhotoURL != nil {
		u := *r.PhotoURL
		cp.PhotoURL = &u
	}
	if r.DateOfBirth != nil {
		t := *r.DateOfBirth
		cp.DateOfBirth = &t
	}
	return cp
}

func cloneCaregiver(c Caregiver) Caregiver {
	cp := c
	cp.AssignedResidentIDs = append([]string(nil), c.AssignedResidentIDs...)
	return cp
}

func cloneHealthLog(h HealthLog) HealthLog {
	cp := h
	cp.MedicationIDs = append([]string(nil), h.MedicationIDs...)
	return cp
}

func cloneMedication(m Medication) Medication { return m }

func cloneEvent(e Event) Event {
	cp := e
	cp.ResidentIDs = append([]string(nil), e.ResidentIDs...)
	return cp
}

func cloneNote(n Note) Note { return n }

func containsString(values []string, id string) bool {
	for _, existing := range values {
		if existing == id {
			return true
		}
	}
	return false
}

func dedupeStrings(values []string) []string {
	if len(values) <= 1 {
		return append([]string(nil), values...)
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func sortedSet(values []string) []string {
	out := dedupeStrings(values)
	sort.Strings(out)
	return out
}

func removeString(values []string, id string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func filterIDs(values []string, exists func(string) bool) ([]string, bool) {
	if len(values) == 0 {
		return nil, false
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	changed := false
	for _, v := range values {
		if _, ok := seen[v]; ok {
			changed = true
			continue
		}
		seen[v] = struct{}{}
		if !exists(v) {
			changed = true
			continue
		}
		out = append(out, v)
	}
	if !changed && len(out) == len(values) {
		return values, false
	}
	return out, true
}

var validResidentStatuses = map[domain.ResidentStatus]struct{}{
	domain.ResidentActive:      {},
	domain.ResidentInactive:    {},
	domain.ResidentDeceased:    {},
	domain.ResidentTransferred: {},
}

var validCaregiverStatuses = map[domain.CaregiverStatus]struct{}{
	domain.CaregiverActive:   {},
	domain.CaregiverOnLeave:  {},
	domain.CaregiverInactive: {},
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine for integration points.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListResidents returns all residents within the transaction snapshot.
func (v transactionView) ListResidents() []Resident {
	out := make([]Resident, 0, len(v.state.residents))
	for _, r := range v.state.residents {
		out = append(out, cloneResident(r))
	}
	return out
}

// ListCaregivers returns all caregivers.
func (v transactionView) ListCaregivers() []Caregiver {
	out := make([]Caregiver, 0, len(v.state.caregivers))
	for _, c := range v.state.caregivers {
		out = append(out, cloneCaregiver(c))
	}
	return out
}

// ListHealthLogs returns all health logs in the snapshot.
func (v transactionView) ListHealthLogs() []HealthLog {
	out := make([]HealthLog, 0, len(v.state.healthLogs))
	for _, h := range v.state.healthLogs {
		out = append(out, cloneHealthLog(h))
	}
	return out
}

// ListMedications returns all medications in the snapshot.
func (v transactionView) ListMedications() []Medication {
	out := make([]Medication, 0, len(v.state.medications))
	for _, m := range v.state.medications {
		out = append(out, cloneMedication(m))
	}
	return out
}

// ListEvents returns all events in the snapshot.
func (v transactionView) ListEvents() []Event {
	out := make([]Event, 0, len(v.state.events))
	for _, e := range v.state.events {
		out = append(out, cloneEvent(e))
	}
	return out
}

// ListNotes returns all notes in the snapshot.
func (v transactionView) ListNotes() []Note {
	out := make([]Note, 0, len(v.state.notes))
	for _, n := range v.state.notes {
		out = append(out, cloneNote(n))
	}
	return out
}

// FindResident retrieves a resident by ID from the snapshot.
func (v transactionView) FindResident(id string) (Resident, bool) {
	r, ok := v.state.residents[id]
	if !ok {
		return Resident{}, false
	}
	return cloneResident(r), true
}

// FindCaregiver retrieves a caregiver by ID from the snapshot.
func (v transactionView) FindCaregiver(id string) (Caregiver, bool) {
	c, ok := v.state.caregivers[id]
	if !ok {
		return Caregiver{}, false
	}
	return cloneCaregiver(c), true
}

// RunInTransaction executes fn within a transactional copy of the store state.
// Cancellation or deadline expiry before commit aborts with a retryable error.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, domain.AbortedError{Op: "transaction", Err: err}
	}

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if err := ctx.Err(); err != nil {
		return Result{}, domain.AbortedError{Op: "commit", Err: err}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// helper to record and append change entries.
func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindResident exposes resident lookup within the transaction scope.
func (tx *transaction) FindResident(id string) (Resident, bool) {
	r, ok := tx.state.residents[id]
	if !ok {
		return Resident{}, false
	}
	return cloneResident(r), true
}

// FindCaregiver exposes caregiver lookup within the transaction scope.
func (tx *transaction) FindCaregiver(id string) (Caregiver, bool) {
	c, ok := tx.state.caregivers[id]
	if !ok {
		return Caregiver{}, false
	}
	return cloneCaregiver(c), true
}

func (tx *transaction) residentExists(id string) bool {
	_, ok := tx.state.residents[id]
	return ok
}

// CreateResident stores a new resident within the transaction.
func (tx *transaction) CreateResident(r Resident) (Resident, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.residents[r.ID]; exists {
		return Resident{}, fmt.Errorf("resident %q already exists", r.ID)
	}
	if r.Status == "" {
		r.Status = domain.ResidentActive
	}
	if _, ok := validResidentStatuses[r.Status]; !ok {
		return Resident{}, fmt.Errorf("invalid resident status %q", r.Status)
	}
	r.AssignedCaregiverIDs = sortedSet(r.AssignedCaregiverIDs)
	r.DocumentURLs = dedupeStrings(r.DocumentURLs)
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.residents[r.ID] = cloneResident(r)
	tx.recordChange(Change{Entity: domain.EntityResident, Action: domain.ActionCreate, After: cloneResident(r)})
	return cloneResident(r), nil
}

// UpdateResident mutates a resident using the provided mutator function.
func (tx *transaction) UpdateResident(id string, mutator func(*Resident) error) (Resident, error) {
	current, ok := tx.state.residents[id]
	if !ok {
		return Resident{}, domain.NotFoundError{Entity: domain.EntityResident, ID: id}
	}
	before := cloneResident(current)
	if err := mutator(&current); err != nil {
		return Resident{}, err
	}
	if _, ok := validResidentStatuses[current.Status]; !ok {
		return Resident{}, fmt.Errorf("invalid resident status %q", current.Status)
	}
	current.ID = id
	current.AssignedCaregiverIDs = sortedSet(current.AssignedCaregiverIDs)
	current.DocumentURLs = dedupeStrings(current.DocumentURLs)
	current.UpdatedAt = tx.now
	tx.state.residents[id] = cloneResident(current)
	tx.recordChange(Change{Entity: domain.EntityResident, Action: domain.ActionUpdate, Before: before, After: cloneResident(current)})
	return cloneResident(current), nil
}

// DeleteResident removes a resident from the transaction state. Dependent
// records must be removed or unlinked first within the same transaction.
func (tx *transaction) DeleteResident(id string) error {
	current, ok := tx.state.residents[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityResident, ID: id}
	}
	for _, log := range tx.state.healthLogs {
		if log.ResidentID == id {
			return fmt.Errorf("resident %q still referenced by health log %q", id, log.ID)
		}
	}
	for _, medication := range tx.state.medications {
		if medication.ResidentID == id {
			return fmt.Errorf("resident %q still referenced by medication %q", id, medication.ID)
		}
	}
	for _, note := range tx.state.notes {
		if note.ResidentID == id {
			return fmt.Errorf("resident %q still referenced by note %q", id, note.ID)
		}
	}
	for _, event := range tx.state.events {
		if containsString(event.ResidentIDs, id) {
			return fmt.Errorf("resident %q still referenced by event %q", id, event.ID)
		}
	}
	for _, caregiver := range tx.state.caregivers {
		if containsString(caregiver.AssignedResidentIDs, id) {
			return fmt.Errorf("resident %q still referenced by caregiver %q", id, caregiver.ID)
		}
	}
	delete(tx.state.residents, id)
	tx.recordChange(Change{Entity: domain.EntityResident, Action: domain.ActionDelete, Before: cloneResident(current)})
	return nil
}

// CreateCaregiver stores a new caregiver.
func (tx *transaction) CreateCaregiver(c Caregiver) (Caregiver, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.caregivers[c.ID]; exists {
		return Caregiver{}, fmt.Errorf("caregiver %q already exists", c.ID)
	}
	if c.Status == "" {
		c.Status = domain.CaregiverActive
	}
	if _, ok := validCaregiverStatuses[c.Status]; !ok {
		return Caregiver{}, fmt.Errorf("invalid caregiver status %q", c.Status)
	}
	c.AssignedResidentIDs = sortedSet(c.AssignedResidentIDs)
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.caregivers[c.ID] = cloneCaregiver(c)
	tx.recordChange(Change{Entity: domain.EntityCaregiver, Action: domain.ActionCreate, After: cloneCaregiver(c)})
	return cloneCaregiver(c), nil
}

// UpdateCaregiver mutates an existing caregiver.
func (tx *transaction) UpdateCaregiver(id string, mutator func(*Caregiver) error) (Caregiver, error) {
	current, ok := tx.state.caregivers[id]
	if !ok {
		return Caregiver{}, domain.NotFoundError{Entity: domain.EntityCaregiver, ID: id}
	}
	before := cloneCaregiver(current)
	if err := mutator(&current); err != nil {
		return Caregiver{}, err
	}
	if _, ok := validCaregiverStatuses[current.Status]; !ok {
		return Caregiver{}, fmt.Errorf("invalid caregiver status %q", current.Status)
	}
	current.ID = id
	current.AssignedResidentIDs = sortedSet(current.AssignedResidentIDs)
	current.UpdatedAt = tx.now
	tx.state.caregivers[id] = cloneCaregiver(current)
	tx.recordChange(Change{Entity: domain.EntityCaregiver, Action: domain.ActionUpdate, Before: before, After: cloneCaregiver(current)})
	return cloneCaregiver(current), nil
}

// DeleteCaregiver removes a caregiver from state. Resident-side references
// must be unlinked first within the same transaction.
func (tx *transaction) DeleteCaregiver(id string) error {
	current, ok := tx.state.caregivers[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityCaregiver, ID: id}
	}
	for _, resident := range tx.state.residents {
		if containsString(resident.AssignedCaregiverIDs, id) {
			return fmt.Errorf("caregiver %q still referenced by resident %q", id, resident.ID)
		}
	}
	delete(tx.state.caregivers, id)
	tx.recordChange(Change{Entity: domain.EntityCaregiver, Action: domain.ActionDelete, Before: cloneCaregiver(current)})
	return nil
}

// CreateHealthLog stores a health observation for an existing resident.
func (tx *transaction) CreateHealthLog(h HealthLog) (HealthLog, error) {
	if h.ID == "" {
		h.ID = tx.store.newID()
	}
	if _, exists := tx.state.healthLogs[h.ID]; exists {
		return HealthLog{}, fmt.Errorf("health log %q already exists", h.ID)
	}
	if h.ResidentID == "" || !tx.residentExists(h.ResidentID) {
		return HealthLog{}, domain.NotFoundError{Entity: domain.EntityResident, ID: h.ResidentID}
	}
	for _, medID := range h.MedicationIDs {
		if _, ok := tx.state.medications[medID]; !ok {
			return HealthLog{}, domain.NotFoundError{Entity: domain.EntityMedication, ID: medID}
		}
	}
	h.MedicationIDs = sortedSet(h.MedicationIDs)
	if h.RecordedAt.IsZero() {
		h.RecordedAt = tx.now
	}
	h.CreatedAt = tx.now
	h.UpdatedAt = tx.now
	tx.state.healthLogs[h.ID] = cloneHealthLog(h)
	tx.recordChange(Change{Entity: domain.EntityHealthLog, Action: domain.ActionCreate, After: cloneHealthLog(h)})
	return cloneHealthLog(h), nil
}

// UpdateHealthLog mutates an existing health log.
func (tx *transaction) UpdateHealthLog(id string, mutator func(*HealthLog) error) (HealthLog, error) {
	current, ok := tx.state.healthLogs[id]
	if !ok {
		return HealthLog{}, domain.NotFoundError{Entity: domain.EntityHealthLog, ID: id}
	}
	before := cloneHealthLog(current)
	if err := mutator(&current); err != nil {
		return HealthLog{}, err
	}
	if current.ResidentID == "" || !tx.residentExists(current.ResidentID) {
		return HealthLog{}, domain.NotFoundError{Entity: domain.EntityResident, ID: current.ResidentID}
	}
	for _, medID := range current.MedicationIDs {
		if _, ok := tx.state.medications[medID]; !ok {
			return HealthLog{}, domain.NotFoundError{Entity: domain.EntityMedication, ID: medID}
		}
	}
	current.ID = id
	current.MedicationIDs = sortedSet(current.MedicationIDs)
	current.UpdatedAt = tx.now
	tx.state.healthLogs[id] = cloneHealthLog(current)
	tx.recordChange(Change{Entity: domain.EntityHealthLog, Action: domain.ActionUpdate, Before: before, After: cloneHealthLog(current)})
	return cloneHealthLog(current), nil
}

// DeleteHealthLog removes a health log.
func (tx *transaction) DeleteHealthLog(id string) error {
	current, ok := tx.state.healthLogs[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityHealthLog, ID: id}
	}
	delete(tx.state.healthLogs, id)
	tx.recordChange(Change{Entity: domain.EntityHealthLog, Action: domain.ActionDelete, Before: cloneHealthLog(current)})
	return nil
}

// CreateMedication stores a medication for an existing resident.
func (tx *transaction) CreateMedication(m Medication) (Medication, error) {
	if m.ID == "" {
		m.ID = tx.store.newID()
	}
	if _, exists := tx.state.medications[m.ID]; exists {
		return Medication{}, fmt.Errorf("medication %q already exists", m.ID)
	}
	if m.ResidentID == "" || !tx.residentExists(m.ResidentID) {
		return Medication{}, domain.NotFoundError{Entity: domain.EntityResident, ID: m.ResidentID}
	}
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	tx.state.medications[m.ID] = cloneMedication(m)
	tx.recordChange(Change{Entity: domain.EntityMedication, Action: domain.ActionCreate, After: cloneMedication(m)})
	return cloneMedication(m), nil
}

// UpdateMedication mutates an existing medication.
func (tx *transaction) UpdateMedication(id string, mutator func(*Medication) error) (Medication, error) {
	current, ok := tx.state.medications[id]
	if !ok {
		return Medication{}, domain.NotFoundError{Entity: domain.EntityMedication, ID: id}
	}
	before := cloneMedication(current)
	if err := mutator(&current); err != nil {
		return Medication{}, err
	}
	if current.ResidentID == "" || !tx.residentExists(current.ResidentID) {
		return Medication{}, domain.NotFoundError{Entity: domain.EntityResident, ID: current.ResidentID}
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.medications[id] = cloneMedication(current)
	tx.recordChange(Change{Entity: domain.EntityMedication, Action: domain.ActionUpdate, Before: before, After: cloneMedication(current)})
	return cloneMedication(current), nil
}

// DeleteMedication removes a medication unless a health log still records it.
func (tx *transaction) DeleteMedication(id string) error {
	current, ok := tx.state.medications[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityMedication, ID: id}
	}
	for _, log := range tx.state.healthLogs {
		if containsString(log.MedicationIDs, id) {
			return fmt.Errorf("medication %q still referenced by health log %q", id, log.ID)
		}
	}
	delete(tx.state.medications, id)
	tx.recordChange(Change{Entity: domain.EntityMedication, Action: domain.ActionDelete, Before: cloneMedication(current)})
	return nil
}

// CreateEvent stores an event referencing one or more existing residents.
func (tx *transaction) CreateEvent(e Event) (Event, error) {
	if e.ID == "" {
		e.ID = tx.store.newID()
	}
	if _, exists := tx.state.events[e.ID]; exists {
		return Event{}, fmt.Errorf("event %q already exists", e.ID)
	}
	e.ResidentIDs = sortedSet(e.ResidentIDs)
	if len(e.ResidentIDs) == 0 {
		return Event{}, errors.New("event requires at least one resident")
	}
	for _, resID := range e.ResidentIDs {
		if !tx.residentExists(resID) {
			return Event{}, domain.NotFoundError{Entity: domain.EntityResident, ID: resID}
		}
	}
	if !e.EndsAt.After(e.StartsAt) {
		return Event{}, errors.New("event end must be after start")
	}
	e.CreatedAt = tx.now
	e.UpdatedAt = tx.now
	tx.state.events[e.ID] = cloneEvent(e)
	tx.recordChange(Change{Entity: domain.EntityEvent, Action: domain.ActionCreate, After: cloneEvent(e)})
	return cloneEvent(e), nil
}

// UpdateEvent mutates an existing event, revalidating its time window and
// resident references.
func (tx *transaction) UpdateEvent(id string, mutator func(*Event) error) (Event, error) {
	current, ok := tx.state.events[id]
	if !ok {
		return Event{}, domain.NotFoundError{Entity: domain.EntityEvent, ID: id}
	}
	before := cloneEvent(current)
	if err := mutator(&current); err != nil {
		return Event{}, err
	}
	current.ResidentIDs = sortedSet(current.ResidentIDs)
	if len(current.ResidentIDs) == 0 {
		return Event{}, errors.New("event requires at least one resident")
	}
	for _, resID := range current.ResidentIDs {
		if !tx.residentExists(resID) {
			return Event{}, domain.NotFoundError{Entity: domain.EntityResident, ID: resID}
		}
	}
	if !current.EndsAt.After(current.StartsAt) {
		return Event{}, errors.New("event end must be after start")
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.events[id] = cloneEvent(current)
	tx.recordChange(Change{Entity: domain.EntityEvent, Action: domain.ActionUpdate, Before: before, After: cloneEvent(current)})
	return cloneEvent(current), nil
}

// DeleteEvent removes an event from state.
func (tx *transaction) DeleteEvent(id string) error {
	current, ok := tx.state.events[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityEvent, ID: id}
	}
	delete(tx.state.events, id)
	tx.recordChange(Change{Entity: domain.EntityEvent, Action: domain.ActionDelete, Before: cloneEvent(current)})
	return nil
}

// CreateNote stores a note for an existing resident.
func (tx *transaction) CreateNote(n Note) (Note, error) {
	if n.ID == "" {
		n.ID = tx.store.newID()
	}
	if _, exists := tx.state.notes[n.ID]; exists {
		return Note{}, fmt.Errorf("note %q already exists", n.ID)
	}
	if n.ResidentID == "" || !tx.residentExists(n.ResidentID) {
		return Note{}, domain.NotFoundError{Entity: domain.EntityResident, ID: n.ResidentID}
	}
	n.CreatedAt = tx.now
	n.UpdatedAt = tx.now
	tx.state.notes[n.ID] = cloneNote(n)
	tx.recordChange(Change{Entity: domain.EntityNote, Action: domain.ActionCreate, After: cloneNote(n)})
	return cloneNote(n), nil
}

// UpdateNote mutates an existing note.
func (tx *transaction) UpdateNote(id string, mutator func(*Note) error) (Note, error) {
	current, ok := tx.state.notes[id]
	if !ok {
		return Note{}, domain.NotFoundError{Entity: domain.EntityNote, ID: id}
	}
	before := cloneNote(current)
	if err := mutator(&current); err != nil {
		return Note{}, err
	}
	if current.ResidentID == "" || !tx.residentExists(current.ResidentID) {
		return Note{}, domain.NotFoundError{Entity: domain.EntityResident, ID: current.ResidentID}
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.notes[id] = cloneNote(current)
	tx.recordChange(Change{Entity: domain.EntityNote, Action: domain.ActionUpdate, Before: before, After: cloneNote(current)})
	return cloneNote(current), nil
}

// DeleteNote removes a note from state.
func (tx *transaction) DeleteNote(id string) error {
	current, ok := tx.state.notes[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityNote, ID: id}
	}
	delete(tx.state.notes, id)
	tx.recordChange(Change{Entity: domain.EntityNote, Action: domain.ActionDelete, Before: cloneNote(current)})
	return nil
}

// Read helpers ---------------------------------------------------------------

// GetResident retrieves a resident by ID from committed state.
func (s *Store) GetResident(id string) (Resident, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.residents[id]
	if !ok {
		return Resident{}, false
	}
	return cloneResident(r), true
}

// ListResidents returns all residents from committed state.
func (s *Store) ListResidents() []Resident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Resident, 0, len(s.state.residents))
	for _, r := range s.state.residents {
		out = append(out, cloneResident(r))
	}
	return out
}

// GetCaregiver retrieves a caregiver by ID.
func (s *Store) GetCaregiver(id string) (Caregiver, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.caregivers[id]
	if !ok {
		return Caregiver{}, false
	}
	return cloneCaregiver(c), true
}

// ListCaregivers returns all caregivers.
func (s *Store) ListCaregivers() []Caregiver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Caregiver, 0, len(s.state.caregivers))
	for _, c := range s.state.caregivers {
		out = append(out, cloneCaregiver(c))
	}
	return out
}

// ListHealthLogs returns all health logs.
func (s *Store) ListHealthLogs() []HealthLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]HealthLog, 0, len(s.state.healthLogs))
	for _, h := range s.state.healthLogs {
		out = append(out, cloneHealthLog(h))
	}
	return out
}

// ListMedications returns all medications.
func (s *Store) ListMedications() []Medication {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Medication, 0, len(s.state.medications))
	for _, m := range s.state.medications {
		out = append(out, cloneMedication(m))
	}
	return out
}

// ListEvents returns all events.
func (s *Store) ListEvents() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, 0, len(s.state.events))
	for _, e := range s.state.events {
		out = append(out, cloneEvent(e))
	}
	return out
}

// ListNotes returns all notes.
func (s *Store) ListNotes() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Note, 0, len(s.state.notes))
	for _, n := range s.state.notes {
		out = append(out, cloneNote(n))
	}
	return out
}
