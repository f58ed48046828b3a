package core

// NewDefaultRulesEngine returns an engine loaded with the standard rule set:
// caregiver capacity, assignment symmetry, and reference integrity.
func NewDefaultRulesEngine() *RulesEngine {
	return NewDefaultRulesEngineWithCapacity(CaregiverCapacityFromEnv())
}

// NewDefaultRulesEngineWithCapacity builds the standard rule set with an
// explicit caregiver capacity limit.
func NewDefaultRulesEngineWithCapacity(capacity int) *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewCaregiverCapacityRule(capacity))
	engine.Register(NewAssignmentSymmetryRule())
	engine.Register(NewReferenceIntegrityRule())
	return engine
}
