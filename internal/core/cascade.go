package core

import (
	"carecore/pkg/domain"
)

// CascadeStep removes or unlinks one class of records that depend on a
// resident. Steps run in order inside the deleting transaction; every step
// must leave the state free of references to the resident it was given.
type CascadeStep struct {
	Name string
	Run  func(tx Transaction, residentID string) error
}

// ResidentCascade is the ordered dependency teardown executed before a
// resident record is deleted. Health logs go before medications because logs
// hold medication references that would otherwise block medication deletes.
var ResidentCascade = []CascadeStep{
	{Name: "health_logs", Run: cascadeHealthLogs},
	{Name: "medications", Run: cascadeMedications},
	{Name: "notes", Run: cascadeNotes},
	{Name: "events", Run: cascadeEvents},
	{Name: "caregiver_links", Run: cascadeCaregiverLinks},
}

func cascadeHealthLogs(tx Transaction, residentID string) error {
	for _, log := range tx.Snapshot().ListHealthLogs() {
		if log.ResidentID != residentID {
			continue
		}
		if err := tx.DeleteHealthLog(log.ID); err != nil {
			return err
		}
	}
	return nil
}

func cascadeMedications(tx Transaction, residentID string) error {
	view := tx.Snapshot()
	for _, medication := range view.ListMedications() {
		if medication.ResidentID != residentID {
			continue
		}
		// Strip the reference from surviving logs of other residents first.
		for _, log := range tx.Snapshot().ListHealthLogs() {
			if !containsID(log.MedicationIDs, medication.ID) {
				continue
			}
			medID := medication.ID
			if _, err := tx.UpdateHealthLog(log.ID, func(h *HealthLog) error {
				h.MedicationIDs = withoutID(h.MedicationIDs, medID)
				return nil
			}); err != nil {
				return err
			}
		}
		if err := tx.DeleteMedication(medication.ID); err != nil {
			return err
		}
	}
	return nil
}

func cascadeNotes(tx Transaction, residentID string) error {
	for _, note := range tx.Snapshot().ListNotes() {
		if note.ResidentID != residentID {
			continue
		}
		if err := tx.DeleteNote(note.ID); err != nil {
			return err
		}
	}
	return nil
}

// cascadeEvents removes the resident from shared events and deletes events
// that would be left with no residents.
func cascadeEvents(tx Transaction, residentID string) error {
	for _, event := range tx.Snapshot().ListEvents() {
		if !containsID(event.ResidentIDs, residentID) {
			continue
		}
		if len(event.ResidentIDs) <= 1 {
			if err := tx.DeleteEvent(event.ID); err != nil {
				return err
			}
			continue
		}
		if _, err := tx.UpdateEvent(event.ID, func(e *Event) error {
			e.ResidentIDs = withoutID(e.ResidentIDs, residentID)
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func cascadeCaregiverLinks(tx Transaction, residentID string) error {
	resident, ok := tx.FindResident(residentID)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityResident, ID: residentID}
	}
	for _, cgID := range resident.AssignedCaregiverIDs {
		if _, err := tx.UpdateCaregiver(cgID, func(c *Caregiver) error {
			c.AssignedResidentIDs = withoutID(c.AssignedResidentIDs, residentID)
			return nil
		}); err != nil {
			return err
		}
	}
	if len(resident.AssignedCaregiverIDs) > 0 {
		if _, err := tx.UpdateResident(residentID, func(r *Resident) error {
			r.AssignedCaregiverIDs = nil
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func withoutID(ids []string, id string) []string {
	out := ids[:0:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
