package core

import (
	"context"
	"fmt"

	"carecore/pkg/domain"
)

// NewAssignmentSymmetryRule returns the commit-time rule requiring the
// resident and caregiver assignment sets to mirror each other exactly.
func NewAssignmentSymmetryRule() domain.Rule {
	return assignmentSymmetryRule{}
}

type assignmentSymmetryRule struct{}

func (assignmentSymmetryRule) Name() string { return "assignment_symmetry" }

func (assignmentSymmetryRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, resident := range view.ListResidents() {
		for _, cgID := range resident.AssignedCaregiverIDs {
			caregiver, ok := view.FindCaregiver(cgID)
			if !ok {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "assignment_symmetry",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("resident %s references missing caregiver %s", resident.ID, cgID),
					Entity:   domain.EntityResident,
					EntityID: resident.ID,
				})
				continue
			}
			if !containsID(caregiver.AssignedResidentIDs, resident.ID) {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "assignment_symmetry",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("caregiver %s missing back-reference to resident %s", cgID, resident.ID),
					Entity:   domain.EntityCaregiver,
					EntityID: cgID,
				})
			}
		}
	}
	for _, caregiver := range view.ListCaregivers() {
		for _, resID := range caregiver.AssignedResidentIDs {
			resident, ok := view.FindResident(resID)
			if !ok {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "assignment_symmetry",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("caregiver %s references missing resident %s", caregiver.ID, resID),
					Entity:   domain.EntityCaregiver,
					EntityID: caregiver.ID,
				})
				continue
			}
			if !containsID(resident.AssignedCaregiverIDs, caregiver.ID) {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "assignment_symmetry",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("resident %s missing back-reference to caregiver %s", resID, caregiver.ID),
					Entity:   domain.EntityResident,
					EntityID: resID,
				})
			}
		}
	}
	return res, nil
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
