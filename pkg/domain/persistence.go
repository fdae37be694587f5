package domain

import "context"

// Transaction exposes the mutations a persistence implementation must
// support within an atomic scope. Every create validates identifiers,
// references, and intervals before touching state; every delete enforces
// referential integrity instead of cascading.
type Transaction interface {
	CreateSurgeon(Surgeon) (Surgeon, error)
	UpdateSurgeon(id string, mutator func(*Surgeon) error) (Surgeon, error)
	DeleteSurgeon(id string) error
	CreateTheatre(Theatre) (Theatre, error)
	UpdateTheatre(id string, mutator func(*Theatre) error) (Theatre, error)
	DeleteTheatre(id string) error
	CreateTimeslot(Timeslot) (Timeslot, error)
	UpdateTimeslot(id string, mutator func(*Timeslot) error) (Timeslot, error)
	DeleteTimeslot(id string) error
	CreateEquipment(Equipment) (Equipment, error)
	UpdateEquipment(id string, mutator func(*Equipment) error) (Equipment, error)
	DeleteEquipment(id string) error
	CreatePatient(Patient) (Patient, error)
	UpdatePatient(id string, mutator func(*Patient) error) (Patient, error)
	DeletePatient(id string) error
	CreateSurgery(Surgery) (Surgery, error)
	UpdateSurgery(id string, mutator func(*Surgery) error) (Surgery, error)
	DeleteSurgery(id string) error
	Snapshot() RuleView
}

// TransactionView exposes a read-only consistent snapshot of graph state.
type TransactionView = RuleView

// PersistentStore is the storage abstraction consumed by higher layers. It
// pairs transactional mutation with snapshot import/export so a collaborator
// can serialize the graph to any on-disk format.
type PersistentStore interface {
	// RunInTransaction executes fn against a cloned state and commits it
	// atomically on success. The returned Result carries the conflicts
	// found by the rules engine; conflicts never block the commit.
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	// DryRun executes fn against a cloned state, evaluates the rules, and
	// discards the clone. Used for pre-checking candidate surgeries.
	DryRun(ctx context.Context, fn func(Transaction) error) (Result, error)
	// View executes fn against a read-only snapshot.
	View(ctx context.Context, fn func(TransactionView) error) error

	GetSurgeon(id string) (Surgeon, bool)
	GetTheatre(id string) (Theatre, bool)
	GetTimeslot(id string) (Timeslot, bool)
	GetEquipment(id string) (Equipment, bool)
	GetPatient(id string) (Patient, bool)
	GetSurgery(id string) (Surgery, bool)
	ListSurgeons() []Surgeon
	ListTheatres() []Theatre
	ListTimeslots() []Timeslot
	ListEquipment() []Equipment
	ListPatients() []Patient
	ListSurgeries() []Surgery

	// Export returns the full graph in insertion order.
	Export() Snapshot
	// Import validates and atomically replaces the graph with the snapshot.
	Import(ctx context.Context, snapshot Snapshot) error
}
