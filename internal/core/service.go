package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"carecore/internal/blob"
	"carecore/internal/infra/persistence/memory"
	"carecore/pkg/domain"
)

// Service exposes transactional operations over the care domain and owns the
// post-commit blob cleanup protocol. Record mutations commit first; media
// removal is best-effort afterwards and never blocks or rolls back a commit.
type Service struct {
	store     PersistentStore
	blobs     blob.Store
	clock     Clock
	logger    Logger
	audit     AuditRecorder
	metrics   MetricsRecorder
	tracer    Tracer
	capacity  int
	opTimeout time.Duration
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	options := defaultServiceOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{
		store:     store,
		blobs:     options.blobs,
		clock:     options.clock,
		logger:    options.logger,
		audit:     options.audit,
		metrics:   options.metrics,
		tracer:    options.tracer,
		capacity:  options.capacity,
		opTimeout: options.opTimeout,
	}
}

// NewInMemoryService creates a service and in-memory store. A nil engine gets
// the default rule set built with the service's caregiver capacity, so the
// pre-check and the commit rule share one limit. Callers supplying their own
// engine own that agreement. The blob backend defaults to the in-memory driver.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	if engine == nil {
		options := defaultServiceOptions()
		for _, opt := range opts {
			opt(&options)
		}
		engine = NewDefaultRulesEngineWithCapacity(options.capacity)
	}
	svc := NewService(memory.NewStore(engine), opts...)
	if svc.blobs == nil {
		svc.blobs = blob.NewMemory()
	}
	return svc
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore { return s.store }

// Blobs returns the configured media backend, if any.
func (s *Service) Blobs() blob.Store { return s.blobs }

// CaregiverCapacity returns the per-caregiver resident limit in effect.
func (s *Service) CaregiverCapacity() int { return s.capacity }

type auditMetadata struct {
	entity domain.EntityType
	action domain.Action
}

var auditOperations = map[string]auditMetadata{
	"create_resident":       {domain.EntityResident, domain.ActionCreate},
	"update_resident":       {domain.EntityResident, domain.ActionUpdate},
	"delete_resident":       {domain.EntityResident, domain.ActionDelete},
	"update_resident_media": {domain.EntityResident, domain.ActionUpdate},
	"create_caregiver":      {domain.EntityCaregiver, domain.ActionCreate},
	"update_caregiver":      {domain.EntityCaregiver, domain.ActionUpdate},
	"delete_caregiver":      {domain.EntityCaregiver, domain.ActionDelete},
	"assign_caregiver":      {domain.EntityResident, domain.ActionUpdate},
	"unassign_caregiver":    {domain.EntityResident, domain.ActionUpdate},
	"create_health_log":     {domain.EntityHealthLog, domain.ActionCreate},
	"update_health_log":     {domain.EntityHealthLog, domain.ActionUpdate},
	"delete_health_log":     {domain.EntityHealthLog, domain.ActionDelete},
	"create_medication":     {domain.EntityMedication, domain.ActionCreate},
	"update_medication":     {domain.EntityMedication, domain.ActionUpdate},
	"delete_medication":     {domain.EntityMedication, domain.ActionDelete},
	"create_event":          {domain.EntityEvent, domain.ActionCreate},
	"update_event":          {domain.EntityEvent, domain.ActionUpdate},
	"delete_event":          {domain.EntityEvent, domain.ActionDelete},
	"create_note":           {domain.EntityNote, domain.ActionCreate},
	"update_note":           {domain.EntityNote, domain.ActionUpdate},
	"delete_note":           {domain.EntityNote, domain.ActionDelete},
}

func (s *Service) recordAuditSuccess(ctx context.Context, operation, entityID string, duration time.Duration) {
	meta, ok := auditOperations[operation]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: operation,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Actor:     ActorFromContext(ctx),
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	})
}

func (s *Service) recordAuditError(ctx context.Context, operation, entityID string, duration time.Duration) {
	meta, ok := auditOperations[operation]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: operation,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Actor:     ActorFromContext(ctx),
		Status:    AuditStatusError,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	})
}

// run wraps one service operation with timeout, tracing, metrics, logging,
// and audit recording. entityID is resolved after fn so created ids are seen.
func (s *Service) run(ctx context.Context, operation string, fn func(context.Context) error, entityID func() string) error {
	if s.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opTimeout)
		defer cancel()
	}
	ctx, span := s.tracer.Start(ctx, operation)
	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, duration)
	id := ""
	if entityID != nil {
		id = entityID()
	}
	if err != nil {
		s.logger.Error("operation failed", "operation", operation, "entity_id", id, "error", err)
		s.recordAuditError(ctx, operation, id, duration)
		return err
	}
	s.logger.Debug("operation completed", "operation", operation, "entity_id", id)
	s.recordAuditSuccess(ctx, operation, id, duration)
	return nil
}

// OutcomeStatus distinguishes fully-completed operations from those with
// pending best-effort cleanup.
type OutcomeStatus string

const (
	// OutcomeSuccess means the record commit and all blob cleanup completed.
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomePartial means the record commit succeeded but some blobs remain.
	OutcomePartial OutcomeStatus = "partial"
)

// DeleteResidentOutcome reports the result of a cascading resident delete.
type DeleteResidentOutcome struct {
	ResidentID      string
	Status          OutcomeStatus
	RemovedBlobs    int
	PendingBlobURLs []string
}

// MediaField selects which resident media slot UpdateResidentMedia rewrites.
type MediaField string

const (
	// MediaFieldPhoto targets the single photo reference.
	MediaFieldPhoto MediaField = "photo"
	// MediaFieldDocuments targets the document reference list.
	MediaFieldDocuments MediaField = "documents"
)

// MediaUpdateOutcome reports post-commit cleanup results for a media update.
type MediaUpdateOutcome struct {
	Status          OutcomeStatus
	RemovedBlobs    int
	PendingBlobURLs []string
}

// deleteBlobs removes the given media references from the blob backend.
// Missing objects count as removed; failures are logged and reported back as
// pending, never escalated into an operation error.
func (s *Service) deleteBlobs(ctx context.Context, refs []string) (int, []string) {
	if s.blobs == nil || len(refs) == 0 {
		return 0, nil
	}
	removed := 0
	var pending []string
	for _, ref := range refs {
		key := blob.KeyFromURL(ref)
		if _, err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Warn("blob cleanup failed", "key", key, "error", err)
			pending = append(pending, ref)
			continue
		}
		removed++
	}
	return removed, pending
}

// diffRefs returns the entries of old that are absent from updated.
func diffRefs(old, updated []string) []string {
	current := make(map[string]struct{}, len(updated))
	for _, ref := range updated {
		current[ref] = struct{}{}
	}
	var removed []string
	for _, ref := range old {
		if _, ok := current[ref]; !ok {
			removed = append(removed, ref)
		}
	}
	return removed
}

// Residents -----------------------------------------------------------------

// CreateResident persists a new resident.
func (s *Service) CreateResident(ctx context.Context, resident Resident) (Resident, Result, error) {
	var created Resident
	var res Result
	err := s.run(ctx, "create_resident", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			created, txErr = tx.CreateResident(resident)
			return txErr
		})
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateResident mutates a resident using the provided mutator.
func (s *Service) UpdateResident(ctx context.Context, id string, mutator func(*Resident) error) (Resident, Result, error) {
	var updated Resident
	var res Result
	err := s.run(ctx, "update_resident", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			updated, txErr = tx.UpdateResident(id, mutator)
			return txErr
		})
		return err
	}, func() string { return id })
	return updated, res, err
}

// DeleteResident removes a resident and every dependent record in one
// transaction, then deletes the resident's media blobs best-effort. A partial
// outcome lists blob references that survived cleanup; the record delete is
// already durable at that point and is never rolled back.
func (s *Service) DeleteResident(ctx context.Context, id string) (DeleteResidentOutcome, Result, error) {
	var refs []string
	var res Result
	err := s.run(ctx, "delete_resident", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			resident, ok := tx.FindResident(id)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityResident, ID: id}
			}
			refs = resident.MediaRefs()
			for _, step := range ResidentCascade {
				if stepErr := step.Run(tx, id); stepErr != nil {
					return fmt.Errorf("cascade %s: %w", step.Name, stepErr)
				}
			}
			return tx.DeleteResident(id)
		})
		return err
	}, func() string { return id })
	if err != nil {
		return DeleteResidentOutcome{}, res, err
	}
	removed, pending := s.deleteBlobs(ctx, refs)
	outcome := DeleteResidentOutcome{ResidentID: id, Status: OutcomeSuccess, RemovedBlobs: removed, PendingBlobURLs: pending}
	if len(pending) > 0 {
		outcome.Status = OutcomePartial
		s.logger.Warn("resident deleted with pending media cleanup", "resident_id", id, "pending", len(pending))
	}
	return outcome, res, nil
}

// UpdateResidentMedia rewrites one media slot of a resident. The record
// update commits first; blobs referenced before but not after are then
// removed best-effort and reported through the outcome.
func (s *Service) UpdateResidentMedia(ctx context.Context, id string, field MediaField, urls []string) (Resident, MediaUpdateOutcome, Result, error) {
	var updated Resident
	var removedRefs []string
	var res Result
	err := s.run(ctx, "update_resident_media", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			before, ok := tx.FindResident(id)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityResident, ID: id}
			}
			var txErr error
			updated, txErr = tx.UpdateResident(id, func(r *Resident) error {
				switch field {
				case MediaFieldPhoto:
					switch len(urls) {
					case 0:
						r.PhotoURL = nil
					case 1:
						u := urls[0]
						r.PhotoURL = &u
					default:
						return fmt.Errorf("photo accepts at most one url, got %d", len(urls))
					}
				case MediaFieldDocuments:
					r.DocumentURLs = append([]string(nil), urls...)
				default:
					return fmt.Errorf("unknown media field %q", field)
				}
				return nil
			})
			if txErr != nil {
				return txErr
			}
			removedRefs = diffRefs(before.MediaRefs(), updated.MediaRefs())
			return nil
		})
		return err
	}, func() string { return id })
	if err != nil {
		return Resident{}, MediaUpdateOutcome{}, res, err
	}
	removed, pending := s.deleteBlobs(ctx, removedRefs)
	outcome := MediaUpdateOutcome{Status: OutcomeSuccess, RemovedBlobs: removed, PendingBlobURLs: pending}
	if len(pending) > 0 {
		outcome.Status = OutcomePartial
	}
	return updated, outcome, res, nil
}

// GetResident fetches a resident by id.
func (s *Service) GetResident(_ context.Context, id string) (Resident, error) {
	resident, ok := s.store.GetResident(id)
	if !ok {
		return Resident{}, domain.NotFoundError{Entity: domain.EntityResident, ID: id}
	}
	return resident, nil
}

// ListResidents returns all residents ordered by id.
func (s *Service) ListResidents(_ context.Context) []Resident {
	out := s.store.ListResidents()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Caregivers ----------------------------------------------------------------

// CreateCaregiver persists a new caregiver.
func (s *Service) CreateCaregiver(ctx context.Context, caregiver Caregiver) (Caregiver, Result, error) {
	var created Caregiver
	var res Result
	err := s.run(ctx, "create_caregiver", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			created, txErr = tx.CreateCaregiver(caregiver)
			return txErr
		})
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateCaregiver mutates a caregiver using the provided mutator.
func (s *Service) UpdateCaregiver(ctx context.Context, id string, mutator func(*Caregiver) error) (Caregiver, Result, error) {
	var updated Caregiver
	var res Result
	err := s.run(ctx, "update_caregiver", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			updated, txErr = tx.UpdateCaregiver(id, mutator)
			return txErr
		})
		return err
	}, func() string { return id })
	return updated, res, err
}

// DeleteCaregiver removes a caregiver after unlinking every resident that
// references it, all within one transaction.
func (s *Service) DeleteCaregiver(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.run(ctx, "delete_caregiver", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			caregiver, ok := tx.FindCaregiver(id)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityCaregiver, ID: id}
			}
			for _, resID := range caregiver.AssignedResidentIDs {
				if _, txErr := tx.UpdateResident(resID, func(r *Resident) error {
					r.AssignedCaregiverIDs = withoutID(r.AssignedCaregiverIDs, id)
					return nil
				}); txErr != nil {
					return txErr
				}
			}
			return tx.DeleteCaregiver(id)
		})
		return err
	}, func() string { return id })
	return res, err
}

// AssignCaregiver links a caregiver to a resident, writing both mirrored
// reference sets in a single transaction. Capacity is checked before the
// duplicate-pair check, but an existing pair never counts against capacity.
func (s *Service) AssignCaregiver(ctx context.Context, residentID, caregiverID string) (Resident, Caregiver, Result, error) {
	var resident Resident
	var caregiver Caregiver
	var res Result
	err := s.run(ctx, "assign_caregiver", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			r, ok := tx.FindResident(residentID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityResident, ID: residentID}
			}
			c, ok := tx.FindCaregiver(caregiverID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityCaregiver, ID: caregiverID}
			}
			already := containsID(c.AssignedResidentIDs, residentID)
			if !already && len(c.AssignedResidentIDs) >= s.capacity {
				return domain.CapacityExceededError{CaregiverID: caregiverID, Capacity: s.capacity}
			}
			if already || containsID(r.AssignedCaregiverIDs, caregiverID) {
				return domain.AlreadyAssignedError{ResidentID: residentID, CaregiverID: caregiverID}
			}
			var txErr error
			resident, txErr = tx.UpdateResident(residentID, func(r *Resident) error {
				r.AssignedCaregiverIDs = append(r.AssignedCaregiverIDs, caregiverID)
				return nil
			})
			if txErr != nil {
				return txErr
			}
			caregiver, txErr = tx.UpdateCaregiver(caregiverID, func(c *Caregiver) error {
				c.AssignedResidentIDs = append(c.AssignedResidentIDs, residentID)
				return nil
			})
			return txErr
		})
		return err
	}, func() string { return residentID })
	return resident, caregiver, res, err
}

// UnassignCaregiver removes an existing resident-caregiver link from both
// mirrored sets in a single transaction.
func (s *Service) UnassignCaregiver(ctx context.Context, residentID, caregiverID string) (Resident, Caregiver, Result, error) {
	var resident Resident
	var caregiver Caregiver
	var res Result
	err := s.run(ctx, "unassign_caregiver", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			r, ok := tx.FindResident(residentID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityResident, ID: residentID}
			}
			if _, ok := tx.FindCaregiver(caregiverID); !ok {
				return domain.NotFoundError{Entity: domain.EntityCaregiver, ID: caregiverID}
			}
			if !containsID(r.AssignedCaregiverIDs, caregiverID) {
				return domain.NotFoundError{Entity: "assignment", ID: residentID + "/" + caregiverID}
			}
			var txErr error
			resident, txErr = tx.UpdateResident(residentID, func(r *Resident) error {
				r.AssignedCaregiverIDs = withoutID(r.AssignedCaregiverIDs, caregiverID)
				return nil
			})
			if txErr != nil {
				return txErr
			}
			caregiver, txErr = tx.UpdateCaregiver(caregiverID, func(c *Caregiver) error {
				c.AssignedResidentIDs = withoutID(c.AssignedResidentIDs, residentID)
				return nil
			})
			return txErr
		})
		return err
	}, func() string { return residentID })
	return resident, caregiver, res, err
}

// GetCaregiver fetches a caregiver by id.
func (s *Service) GetCaregiver(_ context.Context, id string) (Caregiver, error) {
	caregiver, ok := s.store.GetCaregiver(id)
	if !ok {
		return Caregiver{}, domain.NotFoundError{Entity: domain.EntityCaregiver, ID: id}
	}
	return caregiver, nil
}

// ListCaregivers returns all caregivers ordered by id.
func (s *Service) ListCaregivers(_ context.Context) []Caregiver {
	out := s.store.ListCaregivers()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Health logs ---------------------------------------------------------------

// CreateHealthLog persists a health observation.
func (s *Service) CreateHealthLog(ctx context.Context, log HealthLog) (HealthLog, Result, error) {
	var created HealthLog
	var res Result
	err := s.run(ctx, "create_health_log", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			created, txErr = tx.CreateHealthLog(log)
			return txErr
		})
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateHealthLog mutates a health log.
func (s *Service) UpdateHealthLog(ctx context.Context, id string, mutator func(*HealthLog) error) (HealthLog, Result, error) {
	var updated HealthLog
	var res Result
	err := s.run(ctx, "update_health_log", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			updated, txErr = tx.UpdateHealthLog(id, mutator)
			return txErr
		})
		return err
	}, func() string { return id })
	return updated, res, err
}

// DeleteHealthLog removes a health log.
func (s *Service) DeleteHealthLog(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.run(ctx, "delete_health_log", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteHealthLog(id)
		})
		return err
	}, func() string { return id })
	return res, err
}

// ListHealthLogs returns health logs, optionally filtered by resident.
func (s *Service) ListHealthLogs(_ context.Context, residentID string) []HealthLog {
	all := s.store.ListHealthLogs()
	out := all[:0:0]
	for _, log := range all {
		if residentID == "" || log.ResidentID == residentID {
			out = append(out, log)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Medications ---------------------------------------------------------------

// CreateMedication persists a medication.
func (s *Service) CreateMedication(ctx context.Context, medication Medication) (Medication, Result, error) {
	var created Medication
	var res Result
	err := s.run(ctx, "create_medication", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			created, txErr = tx.CreateMedication(medication)
			return txErr
		})
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateMedication mutates a medication.
func (s *Service) UpdateMedication(ctx context.Context, id string, mutator func(*Medication) error) (Medication, Result, error) {
	var updated Medication
	var res Result
	err := s.run(ctx, "update_medication", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			updated, txErr = tx.UpdateMedication(id, mutator)
			return txErr
		})
		return err
	}, func() string { return id })
	return updated, res, err
}

// DeleteMedication removes a medication unless a health log still records it.
func (s *Service) DeleteMedication(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.run(ctx, "delete_medication", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteMedication(id)
		})
		return err
	}, func() string { return id })
	return res, err
}

// ListMedications returns medications, optionally filtered by resident.
func (s *Service) ListMedications(_ context.Context, residentID string) []Medication {
	all := s.store.ListMedications()
	out := all[:0:0]
	for _, medication := range all {
		if residentID == "" || medication.ResidentID == residentID {
			out = append(out, medication)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Events --------------------------------------------------------------------

// CreateEvent persists a scheduled event.
func (s *Service) CreateEvent(ctx context.Context, event Event) (Event, Result, error) {
	var created Event
	var res Result
	err := s.run(ctx, "create_event", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			created, txErr = tx.CreateEvent(event)
			return txErr
		})
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateEvent mutates an event.
func (s *Service) UpdateEvent(ctx context.Context, id string, mutator func(*Event) error) (Event, Result, error) {
	var updated Event
	var res Result
	err := s.run(ctx, "update_event", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			updated, txErr = tx.UpdateEvent(id, mutator)
			return txErr
		})
		return err
	}, func() string { return id })
	return updated, res, err
}

// DeleteEvent removes an event.
func (s *Service) DeleteEvent(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.run(ctx, "delete_event", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteEvent(id)
		})
		return err
	}, func() string { return id })
	return res, err
}

// ListEvents returns events, optionally filtered to those including a resident.
func (s *Service) ListEvents(_ context.Context, residentID string) []Event {
	all := s.store.ListEvents()
	out := all[:0:0]
	for _, event := range all {
		if residentID == "" || containsID(event.ResidentIDs, residentID) {
			out = append(out, event)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Notes ---------------------------------------------------------------------

// CreateNote persists a note.
func (s *Service) CreateNote(ctx context.Context, note Note) (Note, Result, error) {
	var created Note
	var res Result
	err := s.run(ctx, "create_note", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			created, txErr = tx.CreateNote(note)
			return txErr
		})
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateNote mutates a note.
func (s *Service) UpdateNote(ctx context.Context, id string, mutator func(*Note) error) (Note, Result, error) {
	var updated Note
	var res Result
	err := s.run(ctx, "update_note", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			updated, txErr = tx.UpdateNote(id, mutator)
			return txErr
		})
		return err
	}, func() string { return id })
	return updated, res, err
}

// DeleteNote removes a note.
func (s *Service) DeleteNote(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.run(ctx, "delete_note", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteNote(id)
		})
		return err
	}, func() string { return id })
	return res, err
}

// ListNotes returns notes, optionally filtered by resident.
func (s *Service) ListNotes(_ context.Context, residentID string) []Note {
	all := s.store.ListNotes()
	out := all[:0:0]
	for _, note := range all {
		if residentID == "" || note.ResidentID == residentID {
			out = append(out, note)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
