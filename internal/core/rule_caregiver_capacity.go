package core

import (
	"context"
	"fmt"

	"carecore/pkg/domain"
)

// NewCaregiverCapacityRule returns the commit-time rule enforcing the
// per-caregiver resident limit. A non-positive limit falls back to the default.
func NewCaregiverCapacityRule(limit int) domain.Rule {
	if limit <= 0 {
		limit = DefaultCaregiverCapacity
	}
	return caregiverCapacityRule{limit: limit}
}

type caregiverCapacityRule struct {
	limit int
}

func (caregiverCapacityRule) Name() string { return "caregiver_capacity" }

func (r caregiverCapacityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, caregiver := range view.ListCaregivers() {
		count := len(caregiver.AssignedResidentIDs)
		if count > r.limit {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "caregiver_capacity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("caregiver %s (%s) over capacity: %d/%d residents", caregiver.Name, caregiver.ID, count, r.limit),
				Entity:   domain.EntityCaregiver,
				EntityID: caregiver.ID,
			})
		}
	}
	return res, nil
}
