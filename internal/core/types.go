// Package core implements the transactional service layer coordinating
// resident records, caregiver assignments, and media cleanup.
package core

import (
	"carecore/pkg/domain"
)

type (
	// Resident aliases the domain resident record.
	Resident = domain.Resident
	// Caregiver aliases the domain caregiver record.
	Caregiver = domain.Caregiver
	// HealthLog aliases the domain health log record.
	HealthLog = domain.HealthLog
	// Medication aliases the domain medication record.
	Medication = domain.Medication
	// Event aliases the domain event record.
	Event = domain.Event
	// Note aliases the domain note record.
	Note = domain.Note
	// Change aliases the domain change record.
	Change = domain.Change
	// Result aliases the rule evaluation result.
	Result = domain.Result
	// Rule aliases the domain rule interface.
	Rule = domain.Rule
	// RulesEngine aliases the domain rules engine.
	RulesEngine = domain.RulesEngine
	// Transaction aliases the domain transaction interface.
	Transaction = domain.Transaction
	// TransactionView aliases the read-only transaction view.
	TransactionView = domain.TransactionView
	// PersistentStore aliases the persistence abstraction consumed by the service.
	PersistentStore = domain.PersistentStore
)

// NewRulesEngine constructs an empty rules engine.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }
