package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"theatrecore/pkg/domain"
)

// Surgery duration estimates accepted by the store, in minutes.
const (
	minSurgeryDuration = 30
	maxSurgeryDuration = 600
)

type memoryState struct {
	surgeons  map[string]Surgeon
	theatres  map[string]Theatre
	timeslots map[string]Timeslot
	equipment map[string]Equipment
	patients  map[string]Patient
	surgeries map[string]Surgery

	// order preserves per-kind insertion order for stable listings.
	order map[EntityType][]string
	// bookings is the interval index: resource kind -> resource id ->
	// occupied intervals sorted by (start, surgery id). Maintained
	// incrementally on every surgery mutation, part of the same committed
	// state as the entity maps.
	bookings map[ResourceKind]map[string][]Booking
}

func newMemoryState() memoryState {
	return memoryState{
		surgeons:  make(map[string]Surgeon),
		theatres:  make(map[string]Theatre),
		timeslots: make(map[string]Timeslot),
		equipment: make(map[string]Equipment),
		patients:  make(map[string]Patient),
		surgeries: make(map[string]Surgery),
		order: map[EntityType][]string{
			EntitySurgeon:   {},
			EntityTheatre:   {},
			EntityTimeslot:  {},
			EntityEquipment: {},
			EntityPatient:   {},
			EntitySurgery:   {},
		},
		bookings: map[ResourceKind]map[string][]Booking{
			ResourceSurgeon:   {},
			ResourceTheatre:   {},
			ResourceEquipment: {},
			ResourcePatient:   {},
		},
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.surgeons {
		cloned.surgeons[k] = cloneSurgeon(v)
	}
	for k, v := range s.theatres {
		cloned.theatres[k] = cloneTheatre(v)
	}
	for k, v := range s.timeslots {
		cloned.timeslots[k] = v
	}
	for k, v := range s.equipment {
		cloned.equipment[k] = v
	}
	for k, v := range s.patients {
		cloned.patients[k] = clonePatient(v)
	}
	for k, v := range s.surgeries {
		cloned.surgeries[k] = cloneSurgery(v)
	}
	for kind, ids := range s.order {
		cloned.order[kind] = append([]string(nil), ids...)
	}
	for kind, byID := range s.bookings {
		dst := make(map[string][]Booking, len(byID))
		for id, bs := range byID {
			dst[id] = append([]Booking(nil), bs...)
		}
		cloned.bookings[kind] = dst
	}
	return cloned
}

func cloneSurgeon(s Surgeon) Surgeon {
	cp := s
	cp.Specialties = append([]Specialty(nil), s.Specialties...)
	return cp
}

func cloneTheatre(t Theatre) Theatre {
	cp := t
	cp.EquipmentIDs = append([]string(nil), t.EquipmentIDs...)
	return cp
}

func clonePatient(p Patient) Patient {
	cp := p
	if p.RecoveryRoom != nil {
		room := *p.RecoveryRoom
		cp.RecoveryRoom = &room
	}
	return cp
}

func cloneSurgery(s Surgery) Surgery {
	cp := s
	cp.EquipmentIDs = append([]string(nil), s.EquipmentIDs...)
	return cp
}

// MemoryStore provides the in-memory transactional store for the scheduling
// graph. A single RWMutex serializes writers while readers run in parallel
// against cloned snapshots; the booking index lives inside the same state
// value as the entity maps, so readers never observe a surgery whose store
// entry and index entry disagree.
type MemoryStore struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

var _ domain.PersistentStore = (*MemoryStore)(nil)

// NewMemoryStore constructs an in-memory store backed by the provided rules
// engine. A nil engine gets the default conflict rule set.
func NewMemoryStore(engine *RulesEngine) *MemoryStore {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return &MemoryStore{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// Engine returns the rules engine evaluating commits.
func (s *MemoryStore) Engine() *RulesEngine {
	return s.engine
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// transaction is the mutation scope applied to a cloned state.
type transaction struct {
	state   *memoryState
	changes []Change
	now     time.Time
}

var _ domain.Transaction = (*transaction)(nil)

// stateView exposes read-only snapshot access for rules and queries.
type stateView struct {
	state *memoryState
}

var _ domain.RuleView = stateView{}

func (v stateView) ListSurgeons() []Surgeon {
	out := make([]Surgeon, 0, len(v.state.surgeons))
	for _, id := range v.state.order[EntitySurgeon] {
		out = append(out, cloneSurgeon(v.state.surgeons[id]))
	}
	return out
}

func (v stateView) ListTheatres() []Theatre {
	out := make([]Theatre, 0, len(v.state.theatres))
	for _, id := range v.state.order[EntityTheatre] {
		out = append(out, cloneTheatre(v.state.theatres[id]))
	}
	return out
}

func (v stateView) ListTimeslots() []Timeslot {
	out := make([]Timeslot, 0, len(v.state.timeslots))
	for _, id := range v.state.order[EntityTimeslot] {
		out = append(out, v.state.timeslots[id])
	}
	return out
}

func (v stateView) ListEquipment() []Equipment {
	out := make([]Equipment, 0, len(v.state.equipment))
	for _, id := range v.state.order[EntityEquipment] {
		out = append(out, v.state.equipment[id])
	}
	return out
}

func (v stateView) ListPatients() []Patient {
	out := make([]Patient, 0, len(v.state.patients))
	for _, id := range v.state.order[EntityPatient] {
		out = append(out, clonePatient(v.state.patients[id]))
	}
	return out
}

func (v stateView) ListSurgeries() []Surgery {
	out := make([]Surgery, 0, len(v.state.surgeries))
	for _, id := range v.state.order[EntitySurgery] {
		out = append(out, cloneSurgery(v.state.surgeries[id]))
	}
	return out
}

func (v stateView) FindSurgeon(id string) (Surgeon, bool) {
	s, ok := v.state.surgeons[id]
	if !ok {
		return Surgeon{}, false
	}
	return cloneSurgeon(s), true
}

func (v stateView) FindTheatre(id string) (Theatre, bool) {
	t, ok := v.state.theatres[id]
	if !ok {
		return Theatre{}, false
	}
	return cloneTheatre(t), true
}

func (v stateView) FindTimeslot(id string) (Timeslot, bool) {
	t, ok := v.state.timeslots[id]
	return t, ok
}

func (v stateView) FindEquipment(id string) (Equipment, bool) {
	e, ok := v.state.equipment[id]
	return e, ok
}

func (v stateView) FindPatient(id string) (Patient, bool) {
	p, ok := v.state.patients[id]
	if !ok {
		return Patient{}, false
	}
	return clonePatient(p), true
}

func (v stateView) FindSurgery(id string) (Surgery, bool) {
	s, ok := v.state.surgeries[id]
	if !ok {
		return Surgery{}, false
	}
	return cloneSurgery(s), true
}

func (v stateView) Bookings(kind ResourceKind, id string) []Booking {
	return append([]Booking(nil), v.state.bookings[kind][id]...)
}

// RunInTransaction executes fn within a transactional copy of the store
// state. The clone is committed in a single assignment after fn succeeds, so
// a failed mutation leaves store and index untouched. Rule findings are
// returned to the caller and never block the commit.
func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{state: cloneInto(s.state), now: s.nowFn()}
	if err := fn(tx); err != nil {
		return Result{}, err
	}

	result, err := s.evaluate(ctx, tx)
	if err != nil {
		return Result{}, err
	}
	s.state = *tx.state
	return result, nil
}

// DryRun executes fn against a transactional copy, evaluates the rules, and
// discards the copy. This is the pre-check path for candidate surgeries.
func (s *MemoryStore) DryRun(ctx context.Context, fn func(domain.Transaction) error) (Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx := &transaction{state: cloneInto(s.state), now: s.nowFn()}
	if err := fn(tx); err != nil {
		return Result{}, err
	}
	return s.evaluate(ctx, tx)
}

func cloneInto(st memoryState) *memoryState {
	cloned := st.clone()
	return &cloned
}

func (s *MemoryStore) evaluate(ctx context.Context, tx *transaction) (Result, error) {
	if s.engine == nil {
		return Result{}, nil
	}
	return s.engine.Evaluate(ctx, stateView{state: tx.state}, tx.changes)
}

// View executes fn against a read-only snapshot of the store state.
func (s *MemoryStore) View(_ context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(stateView{state: &snapshot})
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot exposes the transactional state to callers needing reads within
// the mutation scope.
func (tx *transaction) Snapshot() RuleView {
	return stateView{state: tx.state}
}

// Index maintenance ----------------------------------------------------------

func insertBooking(bookings []Booking, b Booking) []Booking {
	at := sort.Search(len(bookings), func(i int) bool {
		if bookings[i].Interval.Start != b.Interval.Start {
			return bookings[i].Interval.Start > b.Interval.Start
		}
		return bookings[i].SurgeryID > b.SurgeryID
	})
	bookings = append(bookings, Booking{})
	copy(bookings[at+1:], bookings[at:])
	bookings[at] = b
	return bookings
}

func removeBooking(bookings []Booking, surgeryID string) []Booking {
	out := bookings[:0]
	for _, b := range bookings {
		if b.SurgeryID != surgeryID {
			out = append(out, b)
		}
	}
	return out
}

func (st *memoryState) surgeryResources(s Surgery) map[ResourceKind][]string {
	resources := map[ResourceKind][]string{
		ResourceSurgeon: {s.SurgeonID},
		ResourceTheatre: {s.TheatreID},
		ResourcePatient: {s.PatientID},
	}
	if len(s.EquipmentIDs) > 0 {
		resources[ResourceEquipment] = append([]string(nil), s.EquipmentIDs...)
	}
	return resources
}

func (st *memoryState) indexSurgery(s Surgery) {
	slot, ok := st.timeslots[s.TimeslotID]
	if !ok {
		return
	}
	b := Booking{SurgeryID: s.ID, Interval: slot.Interval()}
	for kind, ids := range st.surgeryResources(s) {
		for _, id := range ids {
			st.bookings[kind][id] = insertBooking(st.bookings[kind][id], b)
		}
	}
}

func (st *memoryState) unindexSurgery(s Surgery) {
	for kind, ids := range st.surgeryResources(s) {
		for _, id := range ids {
			remaining := removeBooking(st.bookings[kind][id], s.ID)
			if len(remaining) == 0 {
				delete(st.bookings[kind], id)
			} else {
				st.bookings[kind][id] = remaining
			}
		}
	}
}

// reindexTimeslot refreshes the bookings of every surgery occupying the slot
// after its interval changed.
func (st *memoryState) reindexTimeslot(timeslotID string) {
	for _, id := range st.order[EntitySurgery] {
		surgery := st.surgeries[id]
		if surgery.TimeslotID != timeslotID {
			continue
		}
		st.unindexSurgery(surgery)
		st.indexSurgery(surgery)
	}
}

func (st *memoryState) appendOrder(kind EntityType, id string) {
	st.order[kind] = append(st.order[kind], id)
}

func (st *memoryState) removeOrder(kind EntityType, id string) {
	ids := st.order[kind]
	for i, existing := range ids {
		if existing == id {
			st.order[kind] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

// Validation -----------------------------------------------------------------

func validateName(kind EntityType, name string) error {
	if name == "" {
		return fmt.Errorf("%s name must not be empty", kind)
	}
	if len(name) > 100 {
		return fmt.Errorf("%s name exceeds 100 characters", kind)
	}
	return nil
}

func (st *memoryState) validateSurgeon(s Surgeon) error {
	if err := validateName(EntitySurgeon, s.Name); err != nil {
		return err
	}
	if len(s.Specialties) == 0 {
		return fmt.Errorf("surgeon %q must carry at least one specialty", s.Name)
	}
	for _, sp := range s.Specialties {
		if sp == "" {
			return fmt.Errorf("surgeon %q carries an empty specialty tag", s.Name)
		}
	}
	return nil
}

func (st *memoryState) validateTheatre(t Theatre) error {
	if err := validateName(EntityTheatre, t.Name); err != nil {
		return err
	}
	if t.RequiredSpecialty == "" {
		return fmt.Errorf("theatre %q must declare a required specialty", t.Name)
	}
	for _, eqID := range t.EquipmentIDs {
		if _, ok := st.equipment[eqID]; !ok {
			return domain.InvalidReferenceError{Entity: EntityTheatre, ID: t.ID, Ref: EntityEquipment, RefID: eqID}
		}
	}
	return nil
}

func validateTimeslot(t Timeslot) error {
	if err := validateName(EntityTimeslot, t.Name); err != nil {
		return err
	}
	if !t.Interval().Valid() {
		return domain.MalformedIntervalError{Start: t.Start, End: t.End}
	}
	return nil
}

func (st *memoryState) validateSurgery(s Surgery) error {
	if err := validateName(EntitySurgery, s.Name); err != nil {
		return err
	}
	if _, ok := st.surgeons[s.SurgeonID]; !ok {
		return domain.InvalidReferenceError{Entity: EntitySurgery, ID: s.ID, Ref: EntitySurgeon, RefID: s.SurgeonID}
	}
	if _, ok := st.theatres[s.TheatreID]; !ok {
		return domain.InvalidReferenceError{Entity: EntitySurgery, ID: s.ID, Ref: EntityTheatre, RefID: s.TheatreID}
	}
	if _, ok := st.timeslots[s.TimeslotID]; !ok {
		return domain.InvalidReferenceError{Entity: EntitySurgery, ID: s.ID, Ref: EntityTimeslot, RefID: s.TimeslotID}
	}
	if _, ok := st.patients[s.PatientID]; !ok {
		return domain.InvalidReferenceError{Entity: EntitySurgery, ID: s.ID, Ref: EntityPatient, RefID: s.PatientID}
	}
	for _, eqID := range s.EquipmentIDs {
		if _, ok := st.equipment[eqID]; !ok {
			return domain.InvalidReferenceError{Entity: EntitySurgery, ID: s.ID, Ref: EntityEquipment, RefID: eqID}
		}
	}
	if s.EstimatedDurationMinutes < minSurgeryDuration || s.EstimatedDurationMinutes > maxSurgeryDuration {
		return fmt.Errorf("surgery %q duration estimate %d outside %d..%d minutes",
			s.Name, s.EstimatedDurationMinutes, minSurgeryDuration, maxSurgeryDuration)
	}
	return nil
}

// Surgeon CRUD ---------------------------------------------------------------

// CreateSurgeon stores a new surgeon within the transaction.
func (tx *transaction) CreateSurgeon(s Surgeon) (Surgeon, error) {
	if s.ID == "" {
		s.ID = newID()
	}
	if _, exists := tx.state.surgeons[s.ID]; exists {
		return Surgeon{}, domain.DuplicateIDError{Entity: EntitySurgeon, ID: s.ID}
	}
	if err := tx.state.validateSurgeon(s); err != nil {
		return Surgeon{}, err
	}
	s.CreatedAt = tx.now
	s.UpdatedAt = tx.now
	tx.state.surgeons[s.ID] = cloneSurgeon(s)
	tx.state.appendOrder(EntitySurgeon, s.ID)
	tx.recordChange(Change{Entity: EntitySurgeon, Action: ActionCreate, After: cloneSurgeon(s)})
	return cloneSurgeon(s), nil
}

// UpdateSurgeon mutates a surgeon using the provided mutator function.
func (tx *transaction) UpdateSurgeon(id string, mutator func(*Surgeon) error) (Surgeon, error) {
	current, ok := tx.state.surgeons[id]
	if !ok {
		return Surgeon{}, domain.NotFoundError{Entity: EntitySurgeon, ID: id}
	}
	before := cloneSurgeon(current)
	if err := mutator(&current); err != nil {
		return Surgeon{}, err
	}
	current.ID = id
	if err := tx.state.validateSurgeon(current); err != nil {
		return Surgeon{}, err
	}
	current.UpdatedAt = tx.now
	tx.state.surgeons[id] = cloneSurgeon(current)
	tx.recordChange(Change{Entity: EntitySurgeon, Action: ActionUpdate, Before: before, After: cloneSurgeon(current)})
	return cloneSurgeon(current), nil
}

// DeleteSurgeon removes a surgeon unless surgeries still reference them.
func (tx *transaction) DeleteSurgeon(id string) error {
	current, ok := tx.state.surgeons[id]
	if !ok {
		return domain.NotFoundError{Entity: EntitySurgeon, ID: id}
	}
	if deps := tx.state.surgeryDependents(func(s Surgery) bool { return s.SurgeonID == id }); len(deps) > 0 {
		return domain.ReferencedError{Entity: EntitySurgeon, ID: id, DependentIDs: deps}
	}
	delete(tx.state.surgeons, id)
	tx.state.removeOrder(EntitySurgeon, id)
	tx.recordChange(Change{Entity: EntitySurgeon, Action: ActionDelete, Before: cloneSurgeon(current)})
	return nil
}

// Theatre CRUD ---------------------------------------------------------------

// CreateTheatre stores a new theatre within the transaction.
func (tx *transaction) CreateTheatre(t Theatre) (Theatre, error) {
	if t.ID == "" {
		t.ID = newID()
	}
	if _, exists := tx.state.theatres[t.ID]; exists {
		return Theatre{}, domain.DuplicateIDError{Entity: EntityTheatre, ID: t.ID}
	}
	if err := tx.state.validateTheatre(t); err != nil {
		return Theatre{}, err
	}
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	tx.state.theatres[t.ID] = cloneTheatre(t)
	tx.state.appendOrder(EntityTheatre, t.ID)
	tx.recordChange(Change{Entity: EntityTheatre, Action: ActionCreate, After: cloneTheatre(t)})
	return cloneTheatre(t), nil
}

// UpdateTheatre mutates an existing theatre.
func (tx *transaction) UpdateTheatre(id string, mutator func(*Theatre) error) (Theatre, error) {
	current, ok := tx.state.theatres[id]
	if !ok {
		return Theatre{}, domain.NotFoundError{Entity: EntityTheatre, ID: id}
	}
	before := cloneTheatre(current)
	if err := mutator(&current); err != nil {
		return Theatre{}, err
	}
	current.ID = id
	if err := tx.state.validateTheatre(current); err != nil {
		return Theatre{}, err
	}
	current.UpdatedAt = tx.now
	tx.state.theatres[id] = cloneTheatre(current)
	tx.recordChange(Change{Entity: EntityTheatre, Action: ActionUpdate, Before: before, After: cloneTheatre(current)})
	return cloneTheatre(current), nil
}

// DeleteTheatre removes a theatre unless surgeries still reference it.
func (tx *transaction) DeleteTheatre(id string) error {
	current, ok := tx.state.theatres[id]
	if !ok {
		return domain.NotFoundError{Entity: EntityTheatre, ID: id}
	}
	if deps := tx.state.surgeryDependents(func(s Surgery) bool { return s.TheatreID == id }); len(deps) > 0 {
		return domain.ReferencedError{Entity: EntityTheatre, ID: id, DependentIDs: deps}
	}
	delete(tx.state.theatres, id)
	tx.state.removeOrder(EntityTheatre, id)
	tx.recordChange(Change{Entity: EntityTheatre, Action: ActionDelete, Before: cloneTheatre(current)})
	return nil
}

// Timeslot CRUD --------------------------------------------------------------

// CreateTimeslot stores a new timeslot within the transaction.
func (tx *transaction) CreateTimeslot(t Timeslot) (Timeslot, error) {
	if t.ID == "" {
		t.ID = newID()
	}
	if _, exists := tx.state.timeslots[t.ID]; exists {
		return Timeslot{}, domain.DuplicateIDError{Entity: EntityTimeslot, ID: t.ID}
	}
	if err := validateTimeslot(t); err != nil {
		return Timeslot{}, err
	}
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	tx.state.timeslots[t.ID] = t
	tx.state.appendOrder(EntityTimeslot, t.ID)
	tx.recordChange(Change{Entity: EntityTimeslot, Action: ActionCreate, After: t})
	return t, nil
}

// UpdateTimeslot mutates a timeslot and refreshes the bookings of every
// surgery occupying it.
func (tx *transaction) UpdateTimeslot(id string, mutator func(*Timeslot) error) (Timeslot, error) {
	current, ok := tx.state.timeslots[id]
	if !ok {
		return Timeslot{}, domain.NotFoundError{Entity: EntityTimeslot, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Timeslot{}, err
	}
	current.ID = id
	if err := validateTimeslot(current); err != nil {
		return Timeslot{}, err
	}
	current.UpdatedAt = tx.now
	tx.state.timeslots[id] = current
	if before.Interval() != current.Interval() {
		tx.state.reindexTimeslot(id)
	}
	tx.recordChange(Change{Entity: EntityTimeslot, Action: ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteTimeslot removes a timeslot unless surgeries still reference it.
func (tx *transaction) DeleteTimeslot(id string) error {
	current, ok := tx.state.timeslots[id]
	if !ok {
		return domain.NotFoundError{Entity: EntityTimeslot, ID: id}
	}
	if deps := tx.state.surgeryDependents(func(s Surgery) bool { return s.TimeslotID == id }); len(deps) > 0 {
		return domain.ReferencedError{Entity: EntityTimeslot, ID: id, DependentIDs: deps}
	}
	delete(tx.state.timeslots, id)
	tx.state.removeOrder(EntityTimeslot, id)
	tx.recordChange(Change{Entity: EntityTimeslot, Action: ActionDelete, Before: current})
	return nil
}

// Equipment CRUD -------------------------------------------------------------

// CreateEquipment stores a new equipment record within the transaction.
func (tx *transaction) CreateEquipment(e Equipment) (Equipment, error) {
	if e.ID == "" {
		e.ID = newID()
	}
	if _, exists := tx.state.equipment[e.ID]; exists {
		return Equipment{}, domain.DuplicateIDError{Entity: EntityEquipment, ID: e.ID}
	}
	if err := validateName(EntityEquipment, e.Name); err != nil {
		return Equipment{}, err
	}
	e.CreatedAt = tx.now
	e.UpdatedAt = tx.now
	tx.state.equipment[e.ID] = e
	tx.state.appendOrder(EntityEquipment, e.ID)
	tx.recordChange(Change{Entity: EntityEquipment, Action: ActionCreate, After: e})
	return e, nil
}

// UpdateEquipment mutates an existing equipment record.
func (tx *transaction) UpdateEquipment(id string, mutator func(*Equipment) error) (Equipment, error) {
	current, ok := tx.state.equipment[id]
	if !ok {
		return Equipment{}, domain.NotFoundError{Entity: EntityEquipment, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Equipment{}, err
	}
	current.ID = id
	if err := validateName(EntityEquipment, current.Name); err != nil {
		return Equipment{}, err
	}
	current.UpdatedAt = tx.now
	tx.state.equipment[id] = current
	tx.recordChange(Change{Entity: EntityEquipment, Action: ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteEquipment removes equipment unless surgeries or theatres still
// reference it.
func (tx *transaction) DeleteEquipment(id string) error {
	current, ok := tx.state.equipment[id]
	if !ok {
		return domain.NotFoundError{Entity: EntityEquipment, ID: id}
	}
	deps := tx.state.surgeryDependents(func(s Surgery) bool {
		for _, eqID := range s.EquipmentIDs {
			if eqID == id {
				return true
			}
		}
		return false
	})
	for _, theatreID := range tx.state.order[EntityTheatre] {
		for _, eqID := range tx.state.theatres[theatreID].EquipmentIDs {
			if eqID == id {
				deps = append(deps, theatreID)
				break
			}
		}
	}
	if len(deps) > 0 {
		return domain.ReferencedError{Entity: EntityEquipment, ID: id, DependentIDs: deps}
	}
	delete(tx.state.equipment, id)
	tx.state.removeOrder(EntityEquipment, id)
	tx.recordChange(Change{Entity: EntityEquipment, Action: ActionDelete, Before: current})
	return nil
}

// Patient CRUD ---------------------------------------------------------------

// CreatePatient stores a new patient within the transaction.
func (tx *transaction) CreatePatient(p Patient) (Patient, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	if _, exists := tx.state.patients[p.ID]; exists {
		return Patient{}, domain.DuplicateIDError{Entity: EntityPatient, ID: p.ID}
	}
	if err := validateName(EntityPatient, p.Name); err != nil {
		return Patient{}, err
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.patients[p.ID] = clonePatient(p)
	tx.state.appendOrder(EntityPatient, p.ID)
	tx.recordChange(Change{Entity: EntityPatient, Action: ActionCreate, After: clonePatient(p)})
	return clonePatient(p), nil
}

// UpdatePatient mutates an existing patient.
func (tx *transaction) UpdatePatient(id string, mutator func(*Patient) error) (Patient, error) {
	current, ok := tx.state.patients[id]
	if !ok {
		return Patient{}, domain.NotFoundError{Entity: EntityPatient, ID: id}
	}
	before := clonePatient(current)
	if err := mutator(&current); err != nil {
		return Patient{}, err
	}
	current.ID = id
	if err := validateName(EntityPatient, current.Name); err != nil {
		return Patient{}, err
	}
	current.UpdatedAt = tx.now
	tx.state.patients[id] = clonePatient(current)
	tx.recordChange(Change{Entity: EntityPatient, Action: ActionUpdate, Before: before, After: clonePatient(current)})
	return clonePatient(current), nil
}

// DeletePatient removes a patient unless surgeries still reference them.
func (tx *transaction) DeletePatient(id string) error {
	current, ok := tx.state.patients[id]
	if !ok {
		return domain.NotFoundError{Entity: EntityPatient, ID: id}
	}
	if deps := tx.state.surgeryDependents(func(s Surgery) bool { return s.PatientID == id }); len(deps) > 0 {
		return domain.ReferencedError{Entity: EntityPatient, ID: id, DependentIDs: deps}
	}
	delete(tx.state.patients, id)
	tx.state.removeOrder(EntityPatient, id)
	tx.recordChange(Change{Entity: EntityPatient, Action: ActionDelete, Before: clonePatient(current)})
	return nil
}

// Surgery CRUD ---------------------------------------------------------------

// CreateSurgery stores a new surgery and indexes its bookings.
func (tx *transaction) CreateSurgery(s Surgery) (Surgery, error) {
	if s.ID == "" {
		s.ID = newID()
	}
	if _, exists := tx.state.surgeries[s.ID]; exists {
		return Surgery{}, domain.DuplicateIDError{Entity: EntitySurgery, ID: s.ID}
	}
	if s.EstimatedDurationMinutes == 0 {
		if slot, ok := tx.state.timeslots[s.TimeslotID]; ok {
			s.EstimatedDurationMinutes = slot.DurationMinutes()
		}
	}
	if err := tx.state.validateSurgery(s); err != nil {
		return Surgery{}, err
	}
	s.CreatedAt = tx.now
	s.UpdatedAt = tx.now
	tx.state.surgeries[s.ID] = cloneSurgery(s)
	tx.state.appendOrder(EntitySurgery, s.ID)
	tx.state.indexSurgery(s)
	tx.recordChange(Change{Entity: EntitySurgery, Action: ActionCreate, After: cloneSurgery(s)})
	return cloneSurgery(s), nil
}

// UpdateSurgery mutates a surgery and refreshes its index entries.
func (tx *transaction) UpdateSurgery(id string, mutator func(*Surgery) error) (Surgery, error) {
	current, ok := tx.state.surgeries[id]
	if !ok {
		return Surgery{}, domain.NotFoundError{Entity: EntitySurgery, ID: id}
	}
	before := cloneSurgery(current)
	if err := mutator(&current); err != nil {
		return Surgery{}, err
	}
	current.ID = id
	if err := tx.state.validateSurgery(current); err != nil {
		return Surgery{}, err
	}
	current.UpdatedAt = tx.now
	tx.state.unindexSurgery(before)
	tx.state.surgeries[id] = cloneSurgery(current)
	tx.state.indexSurgery(current)
	tx.recordChange(Change{Entity: EntitySurgery, Action: ActionUpdate, Before: before, After: cloneSurgery(current)})
	return cloneSurgery(current), nil
}

// DeleteSurgery removes a surgery and its index entries.
func (tx *transaction) DeleteSurgery(id string) error {
	current, ok := tx.state.surgeries[id]
	if !ok {
		return domain.NotFoundError{Entity: EntitySurgery, ID: id}
	}
	tx.state.unindexSurgery(current)
	delete(tx.state.surgeries, id)
	tx.state.removeOrder(EntitySurgery, id)
	tx.recordChange(Change{Entity: EntitySurgery, Action: ActionDelete, Before: cloneSurgery(current)})
	return nil
}

// surgeryDependents returns, in insertion order, the surgery ids matching
// the predicate.
func (st *memoryState) surgeryDependents(match func(Surgery) bool) []string {
	var deps []string
	for _, id := range st.order[EntitySurgery] {
		if match(st.surgeries[id]) {
			deps = append(deps, id)
		}
	}
	return deps
}

// Read helpers ---------------------------------------------------------------

// GetSurgeon retrieves a surgeon by ID from committed state.
func (s *MemoryStore) GetSurgeon(id string) (Surgeon, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stateView{state: &s.state}.FindSurgeon(id)
}

// GetTheatre retrieves a theatre by ID from committed state.
func (s *MemoryStore) GetTheatre(id string) (Theatre, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stateView{state: &s.state}.FindTheatre(id)
}

// GetTimeslot retrieves a timeslot by ID from committed state.
func (s *MemoryStore) GetTimeslot(id string) (Timeslot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stateView{state: &s.state}.FindTimeslot(id)
}

// GetEquipment retrieves an equipment record by ID from committed state.
func (s *MemoryStore) GetEquipment(id string) (Equipment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stateView{state: &s.state}.FindEquipment(id)
}

// GetPatient retrieves a patient by ID from committed state.
func (s *MemoryStore) GetPatient(id string) (Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stateView{state: &s.state}.FindPatient(id)
}

// GetSurgery retrieves a surgery by ID from committed state.
func (s *MemoryStore) GetSurgery(id string) (Surgery, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stateView{state: &s.state}.FindSurgery(id)
}

// ListSurgeons returns all surgeons in insertion order.
func (s *MemoryStore) ListSurgeons() []Surgeon {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stateView{state: &s.state}.ListSurgeons()
}

// ListTheatres returns all theatres in insertion order.
func (s *MemoryStore) ListTheatres() []Theatre {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stateView{state: &s.state}.ListTheatres()
}

// ListTimeslots returns all timeslots in insertion order.
func (s *MemoryStore) ListTimeslots() []Timeslot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stateView{state: &s.state}.ListTimeslots()
}

// ListEquipment returns all equipment in insertion order.
func (s *MemoryStore) ListEquipment() []Equipment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stateView{state: &s.state}.ListEquipment()
}

// ListPatients returns all patients in insertion order.
func (s *MemoryStore) ListPatients() []Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stateView{state: &s.state}.ListPatients()
}

// ListSurgeries returns all surgeries in insertion order.
func (s *MemoryStore) ListSurgeries() []Surgery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stateView{state: &s.state}.ListSurgeries()
}

// Export / Import ------------------------------------------------------------

// Export returns the full graph in insertion order.
func (s *MemoryStore) Export() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := stateView{state: &s.state}
	return Snapshot{
		Surgeons:  view.ListSurgeons(),
		Theatres:  view.ListTheatres(),
		Timeslots: view.ListTimeslots(),
		Equipment: view.ListEquipment(),
		Patients:  view.ListPatients(),
		Surgeries: view.ListSurgeries(),
	}
}

// Import validates the snapshot and atomically replaces the store state,
// rebuilding the booking index. Timestamps and identifiers are preserved so
// an export/import round trip is observably identical.
func (s *MemoryStore) Import(_ context.Context, snapshot Snapshot) error {
	state, err := buildState(snapshot, s.nowFn())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

func buildState(snapshot Snapshot, now time.Time) (memoryState, error) {
	st := newMemoryState()

	stamp := func(b *Base) {
		if b.ID == "" {
			b.ID = newID()
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = b.CreatedAt
		}
	}

	for _, surgeon := range snapshot.Surgeons {
		stamp(&surgeon.Base)
		if _, exists := st.surgeons[surgeon.ID]; exists {
			return memoryState{}, domain.DuplicateIDError{Entity: EntitySurgeon, ID: surgeon.ID}
		}
		if err := st.validateSurgeon(surgeon); err != nil {
			return memoryState{}, err
		}
		st.surgeons[surgeon.ID] = cloneSurgeon(surgeon)
		st.appendOrder(EntitySurgeon, surgeon.ID)
	}
	for _, equipment := range snapshot.Equipment {
		stamp(&equipment.Base)
		if _, exists := st.equipment[equipment.ID]; exists {
			return memoryState{}, domain.DuplicateIDError{Entity: EntityEquipment, ID: equipment.ID}
		}
		if err := validateName(EntityEquipment, equipment.Name); err != nil {
			return memoryState{}, err
		}
		st.equipment[equipment.ID] = equipment
		st.appendOrder(EntityEquipment, equipment.ID)
	}
	for _, theatre := range snapshot.Theatres {
		stamp(&theatre.Base)
		if _, exists := st.theatres[theatre.ID]; exists {
			return memoryState{}, domain.DuplicateIDError{Entity: EntityTheatre, ID: theatre.ID}
		}
		if err := st.validateTheatre(theatre); err != nil {
			return memoryState{}, err
		}
		st.theatres[theatre.ID] = cloneTheatre(theatre)
		st.appendOrder(EntityTheatre, theatre.ID)
	}
	for _, slot := range snapshot.Timeslots {
		stamp(&slot.Base)
		if _, exists := st.timeslots[slot.ID]; exists {
			return memoryState{}, domain.DuplicateIDError{Entity: EntityTimeslot, ID: slot.ID}
		}
		if err := validateTimeslot(slot); err != nil {
			return memoryState{}, err
		}
		st.timeslots[slot.ID] = slot
		st.appendOrder(EntityTimeslot, slot.ID)
	}
	for _, patient := range snapshot.Patients {
		stamp(&patient.Base)
		if _, exists := st.patients[patient.ID]; exists {
			return memoryState{}, domain.DuplicateIDError{Entity: EntityPatient, ID: patient.ID}
		}
		if err := validateName(EntityPatient, patient.Name); err != nil {
			return memoryState{}, err
		}
		st.patients[patient.ID] = clonePatient(patient)
		st.appendOrder(EntityPatient, patient.ID)
	}
	for _, surgery := range snapshot.Surgeries {
		stamp(&surgery.Base)
		if _, exists := st.surgeries[surgery.ID]; exists {
			return memoryState{}, domain.DuplicateIDError{Entity: EntitySurgery, ID: surgery.ID}
		}
		if surgery.EstimatedDurationMinutes == 0 {
			if slot, ok := st.timeslots[surgery.TimeslotID]; ok {
				surgery.EstimatedDurationMinutes = slot.DurationMinutes()
			}
		}
		if err := st.validateSurgery(surgery); err != nil {
			return memoryState{}, err
		}
		st.surgeries[surgery.ID] = cloneSurgery(surgery)
		st.appendOrder(EntitySurgery, surgery.ID)
		st.indexSurgery(surgery)
	}
	return st, nil
}

// Summarize returns per-kind entity counts.
func (s *MemoryStore) Summarize() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := Summary{
		Surgeons:  len(s.state.surgeons),
		Theatres:  len(s.state.theatres),
		Timeslots: len(s.state.timeslots),
		Equipment: len(s.state.equipment),
		Patients:  len(s.state.patients),
		Surgeries: len(s.state.surgeries),
	}
	sum.Total = sum.Surgeons + sum.Theatres + sum.Timeslots + sum.Equipment + sum.Patients + sum.Surgeries
	return sum
}
