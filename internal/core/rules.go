package core

import "theatrecore/pkg/domain"

// NewDefaultRulesEngine builds a rules engine carrying the built-in conflict
// rule set, registered in report-priority order.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewSurgeonDoubleBookingRule())
	engine.Register(NewTheatreDoubleBookingRule())
	engine.Register(NewPatientDoubleBookingRule())
	engine.Register(NewEquipmentConflictRule())
	engine.Register(NewSpecializationMismatchRule())
	return engine
}
