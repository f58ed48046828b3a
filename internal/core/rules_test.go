package core

import (
	"context"
	"testing"

	"carecore/pkg/domain"
)

type stubView struct {
	residents   []Resident
	caregivers  []Caregiver
	healthLogs  []HealthLog
	medications []Medication
	events      []Event
	notes       []Note
}

func (v stubView) ListResidents() []Resident     { return v.residents }
func (v stubView) ListCaregivers() []Caregiver   { return v.caregivers }
func (v stubView) ListHealthLogs() []HealthLog   { return v.healthLogs }
func (v stubView) ListMedications() []Medication { return v.medications }
func (v stubView) ListEvents() []Event           { return v.events }
func (v stubView) ListNotes() []Note             { return v.notes }

func (v stubView) FindResident(id string) (Resident, bool) {
	for _, r := range v.residents {
		if r.ID == id {
			return r, true
		}
	}
	return Resident{}, false
}

func (v stubView) FindCaregiver(id string) (Caregiver, bool) {
	for _, c := range v.caregivers {
		if c.ID == id {
			return c, true
		}
	}
	return Caregiver{}, false
}

func violationsFor(t *testing.T, rule domain.Rule, view stubView) []domain.Violation {
	t.Helper()
	res, err := rule.Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate %s: %v", rule.Name(), err)
	}
	return res.Violations
}

func TestCaregiverCapacityRule(t *testing.T) {
	rule := NewCaregiverCapacityRule(2)
	within := stubView{caregivers: []Caregiver{
		{Base: domain.Base{ID: "c1"}, AssignedResidentIDs: []string{"r1", "r2"}},
	}}
	if got := violationsFor(t, rule, within); len(got) != 0 {
		t.Fatalf("at-limit caregiver must pass, got %v", got)
	}

	over := stubView{caregivers: []Caregiver{
		{Base: domain.Base{ID: "c1"}, Name: "Grace", AssignedResidentIDs: []string{"r1", "r2", "r3"}},
	}}
	got := violationsFor(t, rule, over)
	if len(got) != 1 || got[0].Severity != domain.SeverityBlock || got[0].EntityID != "c1" {
		t.Fatalf("expected one blocking violation for c1, got %v", got)
	}
}

func TestCaregiverCapacityRuleDefaultsLimit(t *testing.T) {
	rule := NewCaregiverCapacityRule(0)
	view := stubView{caregivers: []Caregiver{
		{Base: domain.Base{ID: "c1"}, AssignedResidentIDs: []string{"r1", "r2", "r3", "r4", "r5"}},
	}}
	if got := violationsFor(t, rule, view); len(got) != 0 {
		t.Fatalf("five residents fit the default limit, got %v", got)
	}
}

func TestAssignmentSymmetryRule(t *testing.T) {
	rule := NewAssignmentSymmetryRule()

	mutual := stubView{
		residents:  []Resident{{Base: domain.Base{ID: "r1"}, AssignedCaregiverIDs: []string{"c1"}}},
		caregivers: []Caregiver{{Base: domain.Base{ID: "c1"}, AssignedResidentIDs: []string{"r1"}}},
	}
	if got := violationsFor(t, rule, mutual); len(got) != 0 {
		t.Fatalf("mutual pair must pass, got %v", got)
	}

	oneSided := stubView{
		residents:  []Resident{{Base: domain.Base{ID: "r1"}, AssignedCaregiverIDs: []string{"c1"}}},
		caregivers: []Caregiver{{Base: domain.Base{ID: "c1"}}},
	}
	if got := violationsFor(t, rule, oneSided); len(got) != 1 {
		t.Fatalf("expected one violation for missing back-reference, got %v", got)
	}

	danglingCaregiver := stubView{
		residents: []Resident{{Base: domain.Base{ID: "r1"}, AssignedCaregiverIDs: []string{"ghost"}}},
	}
	if got := violationsFor(t, rule, danglingCaregiver); len(got) != 1 {
		t.Fatalf("expected one violation for missing caregiver, got %v", got)
	}

	danglingResident := stubView{
		caregivers: []Caregiver{{Base: domain.Base{ID: "c1"}, AssignedResidentIDs: []string{"ghost"}}},
	}
	if got := violationsFor(t, rule, danglingResident); len(got) != 1 {
		t.Fatalf("expected one violation for missing resident, got %v", got)
	}
}

func TestReferenceIntegrityRule(t *testing.T) {
	rule := NewReferenceIntegrityRule()
	resident := Resident{Base: domain.Base{ID: "r1"}}

	clean := stubView{
		residents:   []Resident{resident},
		medications: []Medication{{Base: domain.Base{ID: "m1"}, ResidentID: "r1"}},
		healthLogs:  []HealthLog{{Base: domain.Base{ID: "h1"}, ResidentID: "r1", MedicationIDs: []string{"m1"}}},
		notes:       []Note{{Base: domain.Base{ID: "n1"}, ResidentID: "r1"}},
		events:      []Event{{Base: domain.Base{ID: "e1"}, ResidentIDs: []string{"r1"}}},
	}
	if got := violationsFor(t, rule, clean); len(got) != 0 {
		t.Fatalf("consistent graph must pass, got %v", got)
	}

	broken := stubView{
		residents:   []Resident{resident},
		medications: []Medication{{Base: domain.Base{ID: "m1"}, ResidentID: "ghost"}},
		healthLogs:  []HealthLog{{Base: domain.Base{ID: "h1"}, ResidentID: "r1", MedicationIDs: []string{"m-gone"}}},
		notes:       []Note{{Base: domain.Base{ID: "n1"}, ResidentID: "ghost"}},
		events: []Event{
			{Base: domain.Base{ID: "e1"}, ResidentIDs: []string{"ghost"}},
			{Base: domain.Base{ID: "e2"}},
		},
	}
	got := violationsFor(t, rule, broken)
	if len(got) != 5 {
		t.Fatalf("expected 5 violations (med, log med ref, note, event resident, empty event), got %d: %v", len(got), got)
	}
	for _, v := range got {
		if v.Severity != domain.SeverityBlock {
			t.Fatalf("all integrity violations block, got %v", v)
		}
	}
}

func TestDefaultRulesEngineBlocksInconsistentState(t *testing.T) {
	engine := NewDefaultRulesEngineWithCapacity(1)
	view := stubView{
		residents: []Resident{{Base: domain.Base{ID: "r1"}, AssignedCaregiverIDs: []string{"ghost"}}},
		caregivers: []Caregiver{
			{Base: domain.Base{ID: "c1"}, AssignedResidentIDs: []string{"r1", "r2"}},
		},
	}
	res, err := engine.Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatal("expected blocking result from combined rule set")
	}
	rules := make(map[string]bool)
	for _, v := range res.Violations {
		rules[v.Rule] = true
	}
	if !rules["caregiver_capacity"] || !rules["assignment_symmetry"] {
		t.Fatalf("expected violations from both rules, got %v", res.Violations)
	}
}
