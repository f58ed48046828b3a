package core

import (
	"context"
	"fmt"

	"carecore/pkg/domain"
)

// NewReferenceIntegrityRule returns the commit-time rule rejecting dangling
// resident references from dependent records.
func NewReferenceIntegrityRule() domain.Rule {
	return referenceIntegrityRule{}
}

type referenceIntegrityRule struct{}

func (referenceIntegrityRule) Name() string { return "reference_integrity" }

func (referenceIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	dangling := func(entity domain.EntityType, id, residentID string) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "reference_integrity",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("%s %s references missing resident %s", entity, id, residentID),
			Entity:   entity,
			EntityID: id,
		})
	}
	medications := make(map[string]struct{})
	for _, medication := range view.ListMedications() {
		medications[medication.ID] = struct{}{}
		if _, ok := view.FindResident(medication.ResidentID); !ok {
			dangling(domain.EntityMedication, medication.ID, medication.ResidentID)
		}
	}
	for _, log := range view.ListHealthLogs() {
		if _, ok := view.FindResident(log.ResidentID); !ok {
			dangling(domain.EntityHealthLog, log.ID, log.ResidentID)
		}
		for _, medID := range log.MedicationIDs {
			if _, ok := medications[medID]; !ok {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "reference_integrity",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("health_log %s references missing medication %s", log.ID, medID),
					Entity:   domain.EntityHealthLog,
					EntityID: log.ID,
				})
			}
		}
	}
	for _, note := range view.ListNotes() {
		if _, ok := view.FindResident(note.ResidentID); !ok {
			dangling(domain.EntityNote, note.ID, note.ResidentID)
		}
	}
	for _, event := range view.ListEvents() {
		if len(event.ResidentIDs) == 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "reference_integrity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("event %s has no residents", event.ID),
				Entity:   domain.EntityEvent,
				EntityID: event.ID,
			})
		}
		for _, resID := range event.ResidentIDs {
			if _, ok := view.FindResident(resID); !ok {
				dangling(domain.EntityEvent, event.ID, resID)
			}
		}
	}
	return res, nil
}
