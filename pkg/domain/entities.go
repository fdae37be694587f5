// Package domain defines the core scheduling entities, value types, and
// rule evaluation primitives used by theatrecore.
package domain

import "time"

// EntityType identifies the kind of record stored in the scheduling graph.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntitySurgeon identifies a surgeon record.
	EntitySurgeon EntityType = "surgeon"
	// EntityTheatre identifies an operating theatre record.
	EntityTheatre EntityType = "theatre"
	// EntityTimeslot identifies a timeslot record.
	EntityTimeslot EntityType = "timeslot"
	// EntityEquipment identifies an equipment record.
	EntityEquipment EntityType = "equipment"
	// EntityPatient identifies a patient record.
	EntityPatient EntityType = "patient"
	// EntitySurgery identifies a surgery record.
	EntitySurgery EntityType = "surgery"
)

// Specialty is an enumerated surgical specialization tag carried by surgeons
// (capability) and theatres (requirement).
type Specialty string

// Canonical specialization tags used by the sample hospital dataset. The set
// is open: any non-empty tag is accepted as long as surgeon and theatre agree.
const (
	SpecialtyCardio  Specialty = "Cardio"
	SpecialtyNeuro   Specialty = "Neuro"
	SpecialtyOrtho   Specialty = "Ortho"
	SpecialtyGeneral Specialty = "General"
)

// ResourceKind identifies a bookable resource subject to contention checks.
type ResourceKind string

// Resource kinds tracked by the booking index.
const (
	ResourceSurgeon   ResourceKind = "surgeon"
	ResourceTheatre   ResourceKind = "theatre"
	ResourceEquipment ResourceKind = "equipment"
	ResourcePatient   ResourceKind = "patient"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Surgeon represents a licensed surgeon and their specializations.
type Surgeon struct {
	Base
	Name          string      `json:"name"`
	LicenseNumber string      `json:"license_number"`
	Specialties   []Specialty `json:"specialties"`
}

// HasSpecialty reports whether the surgeon carries the given tag.
func (s Surgeon) HasSpecialty(tag Specialty) bool {
	for _, sp := range s.Specialties {
		if sp == tag {
			return true
		}
	}
	return false
}

// Theatre represents an operating theatre and its required specialization.
type Theatre struct {
	Base
	Name              string    `json:"name"`
	RequiredSpecialty Specialty `json:"required_specialty"`
	EquipmentIDs      []string  `json:"equipment_ids"`
}

// Timeslot represents a bookable window of the operating day. Its interval
// is half-open: [Start, End).
type Timeslot struct {
	Base
	Name  string    `json:"name"`
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Interval returns the half-open interval covered by the timeslot.
func (t Timeslot) Interval() Interval {
	return Interval{Start: t.Start, End: t.End}
}

// DurationMinutes returns the slot length in minutes.
func (t Timeslot) DurationMinutes() int {
	return int(t.End - t.Start)
}

// Equipment represents a piece of surgical equipment. Equipment may be
// shared across theatres but not across overlapping surgeries.
type Equipment struct {
	Base
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Patient represents an admitted patient awaiting or undergoing surgery.
type Patient struct {
	Base
	Name         string  `json:"name"`
	Ward         string  `json:"ward"`
	RecoveryRoom *string `json:"recovery_room,omitempty"`
}

// Surgery is the scheduling fact: it references exactly one surgeon, theatre,
// timeslot, and patient, plus zero or more pieces of equipment. The reverse
// directions (a surgeon's surgeries, a theatre's bookings) are derived from
// the booking index, never stored.
type Surgery struct {
	Base
	Name                     string   `json:"name"`
	SurgeonID                string   `json:"surgeon_id"`
	TheatreID                string   `json:"theatre_id"`
	TimeslotID               string   `json:"timeslot_id"`
	PatientID                string   `json:"patient_id"`
	EquipmentIDs             []string `json:"equipment_ids"`
	EstimatedDurationMinutes int      `json:"estimated_duration_minutes"`
	Emergency                bool     `json:"emergency"`
}

// Snapshot is the full-graph exchange format of the persistence boundary.
// Slice order is insertion order and survives an export/import round trip.
type Snapshot struct {
	Surgeons  []Surgeon   `json:"surgeons"`
	Theatres  []Theatre   `json:"theatres"`
	Timeslots []Timeslot  `json:"timeslots"`
	Equipment []Equipment `json:"equipment"`
	Patients  []Patient   `json:"patients"`
	Surgeries []Surgery   `json:"surgeries"`
}

// Summary holds per-kind entity counts.
type Summary struct {
	Surgeons  int `json:"surgeons"`
	Theatres  int `json:"theatres"`
	Timeslots int `json:"timeslots"`
	Equipment int `json:"equipment"`
	Patients  int `json:"patients"`
	Surgeries int `json:"surgeries"`
	Total     int `json:"total"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured per transaction.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)
