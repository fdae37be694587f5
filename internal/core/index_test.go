package core

import (
	"context"
	"reflect"
	"testing"

	"theatrecore/pkg/domain"
)

func viewOf(t *testing.T, store *MemoryStore) TransactionView {
	t.Helper()
	var captured TransactionView
	if err := store.View(context.Background(), func(view TransactionView) error {
		captured = view
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	return captured
}

func TestBookingsAreSortedByStart(t *testing.T) {
	store := newSeededStore(t)
	// Book the same surgeon into a later slot first, then an earlier one.
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if err := tx.DeleteSurgery("surgery_brain"); err != nil {
			return err
		}
		for _, s := range []Surgery{
			{Base: Base{ID: "surgery_late"}, Name: "Late_Surgery", SurgeonID: "surgeon_smith", TheatreID: "theatre_neuro", TimeslotID: "slot_14_00", PatientID: "patient_davis", EstimatedDurationMinutes: 60},
			{Base: Base{ID: "surgery_early"}, Name: "Early_Surgery", SurgeonID: "surgeon_smith", TheatreID: "theatre_neuro", TimeslotID: "slot_08_00", PatientID: "patient_davis", EstimatedDurationMinutes: 60},
		} {
			if _, err := tx.CreateSurgery(s); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	view := viewOf(t, store)
	bookings := view.Bookings(ResourceSurgeon, "surgeon_smith")
	var got []string
	for _, b := range bookings {
		got = append(got, b.SurgeryID)
	}
	want := []string{"surgery_early", "surgery_late"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected booking order: got %v want %v", got, want)
	}
}

func TestOverlapping(t *testing.T) {
	store := newSeededStore(t)
	view := viewOf(t, store)

	// surgeon_smith holds slot_08_00 (08:00-10:30).
	hits := Overlapping(view, ResourceSurgeon, "surgeon_smith", Interval{
		Start: domain.MustTimeOfDay("09:00"),
		End:   domain.MustTimeOfDay("11:00"),
	})
	if len(hits) != 1 || hits[0].SurgeryID != "surgery_brain" {
		t.Fatalf("expected surgery_brain, got %v", hits)
	}

	// An adjacent window starting exactly at the slot end must not hit.
	hits = Overlapping(view, ResourceSurgeon, "surgeon_smith", Interval{
		Start: domain.MustTimeOfDay("10:30"),
		End:   domain.MustTimeOfDay("12:00"),
	})
	if len(hits) != 0 {
		t.Fatalf("expected no overlap at the boundary, got %v", hits)
	}

	// Unknown resource id has no bookings.
	if hits = Overlapping(view, ResourceSurgeon, "surgeon_nobody", Interval{Start: 0, End: 1440}); len(hits) != 0 {
		t.Fatalf("expected no bookings, got %v", hits)
	}
}

func TestFreeSlotsPreservesCandidateOrder(t *testing.T) {
	store := newSeededStore(t)
	view := viewOf(t, store)

	slots := view.ListTimeslots()
	// Reverse the candidate order; surgeon_smith occupies slot_08_00 only.
	candidates := make([]Timeslot, 0, len(slots))
	for i := len(slots) - 1; i >= 0; i-- {
		candidates = append(candidates, slots[i])
	}
	free := FreeSlots(view, ResourceSurgeon, "surgeon_smith", candidates)
	var got []string
	for _, slot := range free {
		got = append(got, slot.ID)
	}
	want := []string{"slot_16_45", "slot_14_00", "slot_10_45"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected free slots: got %v want %v", got, want)
	}
}
