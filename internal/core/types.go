package core

import "theatrecore/pkg/domain"

type (
	EntityType      = domain.EntityType
	ResourceKind    = domain.ResourceKind
	Specialty       = domain.Specialty
	Severity        = domain.Severity
	TimeOfDay       = domain.TimeOfDay
	Interval        = domain.Interval
	Base            = domain.Base
	Surgeon         = domain.Surgeon
	Theatre         = domain.Theatre
	Timeslot        = domain.Timeslot
	Equipment       = domain.Equipment
	Patient         = domain.Patient
	Surgery         = domain.Surgery
	Snapshot        = domain.Snapshot
	Summary         = domain.Summary
	Booking         = domain.Booking
	Change          = domain.Change
	Action          = domain.Action
	Conflict        = domain.Conflict
	Result          = domain.Result
	Rule            = domain.Rule
	RuleView        = domain.RuleView
	RulesEngine     = domain.RulesEngine
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
)

const (
	EntitySurgeon   = domain.EntitySurgeon
	EntityTheatre   = domain.EntityTheatre
	EntityTimeslot  = domain.EntityTimeslot
	EntityEquipment = domain.EntityEquipment
	EntityPatient   = domain.EntityPatient
	EntitySurgery   = domain.EntitySurgery
)

const (
	SpecialtyCardio  = domain.SpecialtyCardio
	SpecialtyNeuro   = domain.SpecialtyNeuro
	SpecialtyOrtho   = domain.SpecialtyOrtho
	SpecialtyGeneral = domain.SpecialtyGeneral
)

const (
	ResourceSurgeon   = domain.ResourceSurgeon
	ResourceTheatre   = domain.ResourceTheatre
	ResourceEquipment = domain.ResourceEquipment
	ResourcePatient   = domain.ResourcePatient
)

const (
	SeverityCritical = domain.SeverityCritical
	SeverityHigh     = domain.SeverityHigh
	SeverityMedium   = domain.SeverityMedium
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
