package core

import (
	"context"
	"sort"

	"theatrecore/pkg/domain"
)

// QueryService answers read-only structured queries against a consistent
// snapshot of the store. Empty result sets are empty slices; a missing
// resource is a NotFoundError value, never a panic.
type QueryService struct {
	store PersistentStore
}

// NewQueryService constructs a query service over the store.
func NewQueryService(store PersistentStore) *QueryService {
	return &QueryService{store: store}
}

// RecoverySchedule is the derived recovery view: one entry per patient with
// both a scheduled surgery and an assigned recovery room.
type RecoverySchedule struct {
	PatientID    string `json:"patient_id"`
	SurgeryID    string `json:"surgery_id"`
	RecoveryRoom string `json:"recovery_room"`
}

// ScheduleInfo is the denormalized record describing one surgery booking.
type ScheduleInfo struct {
	Surgery      Surgery  `json:"surgery"`
	Surgeon      Surgeon  `json:"surgeon"`
	Theatre      Theatre  `json:"theatre"`
	Timeslot     Timeslot `json:"timeslot"`
	Patient      Patient  `json:"patient"`
	RecoveryRoom string   `json:"recovery_room,omitempty"`
}

func resourceExists(view TransactionView, kind ResourceKind, id string) error {
	var ok bool
	switch kind {
	case ResourceSurgeon:
		_, ok = view.FindSurgeon(id)
	case ResourceTheatre:
		_, ok = view.FindTheatre(id)
	case ResourceEquipment:
		_, ok = view.FindEquipment(id)
	case ResourcePatient:
		_, ok = view.FindPatient(id)
	}
	if !ok {
		return domain.NotFoundError{Entity: EntityType(kind), ID: id}
	}
	return nil
}

// ScheduleFor returns the surgeries booked on a resource, sorted by timeslot
// start then surgery id.
func (q *QueryService) ScheduleFor(ctx context.Context, kind ResourceKind, id string) ([]Surgery, error) {
	out := []Surgery{}
	err := q.store.View(ctx, func(view TransactionView) error {
		if err := resourceExists(view, kind, id); err != nil {
			return err
		}
		for _, booking := range view.Bookings(kind, id) {
			if surgery, ok := view.FindSurgery(booking.SurgeryID); ok {
				out = append(out, surgery)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ScheduleAt returns the surgeries active in the given window, sorted by
// timeslot start then surgery id.
func (q *QueryService) ScheduleAt(ctx context.Context, interval Interval) ([]Surgery, error) {
	type entry struct {
		surgery Surgery
		start   TimeOfDay
	}
	var entries []entry
	err := q.store.View(ctx, func(view TransactionView) error {
		for _, surgery := range view.ListSurgeries() {
			slot, ok := view.FindTimeslot(surgery.TimeslotID)
			if !ok {
				continue
			}
			if slot.Interval().Overlaps(interval) {
				entries = append(entries, entry{surgery: surgery, start: slot.Start})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].start != entries[j].start {
			return entries[i].start < entries[j].start
		}
		return entries[i].surgery.ID < entries[j].surgery.ID
	})
	out := make([]Surgery, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.surgery)
	}
	return out, nil
}

// ScheduleAtTime returns the surgeries active at a single point in time.
func (q *QueryService) ScheduleAtTime(ctx context.Context, at TimeOfDay) ([]Surgery, error) {
	return q.ScheduleAt(ctx, Interval{Start: at, End: at + 1})
}

// IsAvailable reports whether the resource has no booking overlapping the
// interval.
func (q *QueryService) IsAvailable(ctx context.Context, kind ResourceKind, id string, interval Interval) (bool, error) {
	available := false
	err := q.store.View(ctx, func(view TransactionView) error {
		if err := resourceExists(view, kind, id); err != nil {
			return err
		}
		available = len(Overlapping(view, kind, id, interval)) == 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return available, nil
}

// SurgeonsBySpecialization returns, in insertion order, the surgeons
// carrying the given tag.
func (q *QueryService) SurgeonsBySpecialization(ctx context.Context, tag Specialty) ([]Surgeon, error) {
	out := []Surgeon{}
	err := q.store.View(ctx, func(view TransactionView) error {
		for _, surgeon := range view.ListSurgeons() {
			if surgeon.HasSpecialty(tag) {
				out = append(out, surgeon)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SuggestSlot returns the first candidate timeslot that is free on the
// resource and long enough for the requested duration. Candidates are tried
// in caller-supplied order; first fit wins, no backtracking.
func (q *QueryService) SuggestSlot(ctx context.Context, kind ResourceKind, id string, durationMinutes int, candidates []Timeslot) (Timeslot, error) {
	var found *Timeslot
	err := q.store.View(ctx, func(view TransactionView) error {
		if err := resourceExists(view, kind, id); err != nil {
			return err
		}
		for _, slot := range candidates {
			if slot.DurationMinutes() < durationMinutes {
				continue
			}
			if len(Overlapping(view, kind, id, slot.Interval())) == 0 {
				chosen := slot
				found = &chosen
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return Timeslot{}, err
	}
	if found == nil {
		return Timeslot{}, domain.ErrNoneAvailable
	}
	return *found, nil
}

// RecoverySchedules derives the recovery view from patients and their
// surgeries. Patients without a recovery room or without a surgery are
// skipped.
func (q *QueryService) RecoverySchedules(ctx context.Context) ([]RecoverySchedule, error) {
	out := []RecoverySchedule{}
	err := q.store.View(ctx, func(view TransactionView) error {
		for _, patient := range view.ListPatients() {
			if patient.RecoveryRoom == nil {
				continue
			}
			bookings := view.Bookings(ResourcePatient, patient.ID)
			if len(bookings) == 0 {
				continue
			}
			out = append(out, RecoverySchedule{
				PatientID:    patient.ID,
				SurgeryID:    bookings[0].SurgeryID,
				RecoveryRoom: *patient.RecoveryRoom,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ScheduleInfo returns the denormalized booking record for one surgery.
func (q *QueryService) ScheduleInfo(ctx context.Context, surgeryID string) (ScheduleInfo, error) {
	var info ScheduleInfo
	err := q.store.View(ctx, func(view TransactionView) error {
		surgery, ok := view.FindSurgery(surgeryID)
		if !ok {
			return domain.NotFoundError{Entity: EntitySurgery, ID: surgeryID}
		}
		info.Surgery = surgery
		info.Surgeon, _ = view.FindSurgeon(surgery.SurgeonID)
		info.Theatre, _ = view.FindTheatre(surgery.TheatreID)
		info.Timeslot, _ = view.FindTimeslot(surgery.TimeslotID)
		info.Patient, _ = view.FindPatient(surgery.PatientID)
		if info.Patient.RecoveryRoom != nil {
			info.RecoveryRoom = *info.Patient.RecoveryRoom
		}
		return nil
	})
	if err != nil {
		return ScheduleInfo{}, err
	}
	return info, nil
}
