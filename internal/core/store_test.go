package core

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"theatrecore/pkg/domain"
)

func newSeededStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore(NewDefaultRulesEngine())
	if err := SeedSampleData(context.Background(), store); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func TestSeedSampleData(t *testing.T) {
	store := newSeededStore(t)
	summary := store.Summarize()
	if summary.Surgeons != 4 || summary.Theatres != 4 || summary.Timeslots != 4 ||
		summary.Equipment != 4 || summary.Patients != 4 || summary.Surgeries != 4 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	result, err := NewDetector(store, nil).DetectAll(context.Background())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !result.Empty() {
		t.Fatalf("seed data must be conflict free, got %v", result.Conflicts)
	}
}

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	store := NewMemoryStore(NewDefaultRulesEngine())
	var created Surgeon
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateSurgeon(Surgeon{Name: "Dr_Adams", Specialties: []Specialty{SpecialtyGeneral}})
		return err
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a generated id")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps on create")
	}
	stored, ok := store.GetSurgeon(created.ID)
	if !ok {
		t.Fatalf("surgeon %s not visible after commit", created.ID)
	}
	if stored.Name != "Dr_Adams" {
		t.Fatalf("unexpected name %q", stored.Name)
	}
}

func TestCreateDuplicateID(t *testing.T) {
	store := newSeededStore(t)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateSurgeon(Surgeon{Base: Base{ID: "surgeon_smith"}, Name: "Imposter", Specialties: []Specialty{SpecialtyNeuro}})
		return err
	})
	var dup domain.DuplicateIDError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateIDError, got %v", err)
	}
	if dup.Entity != EntitySurgeon || dup.ID != "surgeon_smith" {
		t.Fatalf("unexpected error details: %+v", dup)
	}
}

func TestCreateSurgeryValidatesReferences(t *testing.T) {
	store := newSeededStore(t)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateSurgery(Surgery{
			Name:       "Ghost_Surgery",
			SurgeonID:  "surgeon_nobody",
			TheatreID:  "theatre_neuro",
			TimeslotID: "slot_08_00",
			PatientID:  "patient_davis",
		})
		return err
	})
	var ref domain.InvalidReferenceError
	if !errors.As(err, &ref) {
		t.Fatalf("expected InvalidReferenceError, got %v", err)
	}
	if ref.Ref != EntitySurgeon || ref.RefID != "surgeon_nobody" {
		t.Fatalf("unexpected reference details: %+v", ref)
	}
}

func TestCreateTimeslotRejectsMalformedInterval(t *testing.T) {
	store := NewMemoryStore(NewDefaultRulesEngine())
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateTimeslot(Timeslot{
			Name:  "Backwards",
			Start: domain.MustTimeOfDay("12:00"),
			End:   domain.MustTimeOfDay("09:00"),
		})
		return err
	})
	var malformed domain.MalformedIntervalError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedIntervalError, got %v", err)
	}
}

func TestCreateSurgeryDurationDefaultsToSlotLength(t *testing.T) {
	store := newSeededStore(t)
	var created Surgery
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if err := tx.DeleteSurgery("surgery_brain"); err != nil {
			return err
		}
		var err error
		created, err = tx.CreateSurgery(Surgery{
			Name:       "Craniotomy",
			SurgeonID:  "surgeon_smith",
			TheatreID:  "theatre_neuro",
			TimeslotID: "slot_08_00",
			PatientID:  "patient_davis",
		})
		return err
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.EstimatedDurationMinutes != 150 {
		t.Fatalf("expected slot length 150, got %d", created.EstimatedDurationMinutes)
	}
}

func TestCreateSurgeryDurationBounds(t *testing.T) {
	store := newSeededStore(t)
	for _, duration := range []int{29, 601} {
		_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
			_, err := tx.CreateSurgery(Surgery{
				Name:                     "Out_Of_Bounds",
				SurgeonID:                "surgeon_brown",
				TheatreID:                "theatre_general",
				TimeslotID:               "slot_08_00",
				PatientID:                "patient_moore",
				EstimatedDurationMinutes: duration,
			})
			return err
		})
		if err == nil {
			t.Fatalf("duration %d: expected validation error", duration)
		}
	}
}

func TestUpdateSurgeonRevalidates(t *testing.T) {
	store := newSeededStore(t)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateSurgeon("surgeon_smith", func(s *Surgeon) error {
			s.Specialties = nil
			return nil
		})
		return err
	})
	if err == nil {
		t.Fatal("expected validation error for empty specialty list")
	}
	surgeon, _ := store.GetSurgeon("surgeon_smith")
	if len(surgeon.Specialties) == 0 {
		t.Fatal("failed update must not leak into committed state")
	}
}

func TestUpdateMissingEntity(t *testing.T) {
	store := newSeededStore(t)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdatePatient("patient_ghost", func(*Patient) error { return nil })
		return err
	})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDeleteBlockedByDependents(t *testing.T) {
	store := newSeededStore(t)
	cases := []struct {
		name string
		fn   func(domain.Transaction) error
	}{
		{"surgeon", func(tx domain.Transaction) error { return tx.DeleteSurgeon("surgeon_smith") }},
		{"theatre", func(tx domain.Transaction) error { return tx.DeleteTheatre("theatre_neuro") }},
		{"timeslot", func(tx domain.Transaction) error { return tx.DeleteTimeslot("slot_08_00") }},
		{"patient", func(tx domain.Transaction) error { return tx.DeletePatient("patient_davis") }},
		{"equipment", func(tx domain.Transaction) error { return tx.DeleteEquipment("equip_microscope") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
				return tc.fn(tx)
			})
			var referenced domain.ReferencedError
			if !errors.As(err, &referenced) {
				t.Fatalf("expected ReferencedError, got %v", err)
			}
			if len(referenced.DependentIDs) == 0 {
				t.Fatal("expected dependent ids in the error")
			}
		})
	}
}

func TestDeleteEquipmentBlockedByTheatre(t *testing.T) {
	store := newSeededStore(t)
	// Free the equipment from its surgery first; the theatre still lists it.
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.UpdateSurgery("surgery_brain", func(s *Surgery) error {
			s.EquipmentIDs = nil
			return nil
		}); err != nil {
			return err
		}
		return tx.DeleteEquipment("equip_microscope")
	})
	var referenced domain.ReferencedError
	if !errors.As(err, &referenced) {
		t.Fatalf("expected ReferencedError from theatre reference, got %v", err)
	}
}

func TestDeleteSucceedsAfterDependentsRemoved(t *testing.T) {
	store := newSeededStore(t)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if err := tx.DeleteSurgery("surgery_brain"); err != nil {
			return err
		}
		return tx.DeletePatient("patient_davis")
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := store.GetPatient("patient_davis"); ok {
		t.Fatal("patient still present after delete")
	}
}

func TestTransactionAtomicity(t *testing.T) {
	store := newSeededStore(t)
	boom := fmt.Errorf("boom")
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateSurgeon(Surgeon{Base: Base{ID: "surgeon_new"}, Name: "Dr_New", Specialties: []Specialty{SpecialtyGeneral}}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped callback error, got %v", err)
	}
	if _, ok := store.GetSurgeon("surgeon_new"); ok {
		t.Fatal("failed transaction must not commit")
	}
}

func TestDryRunDiscardsChanges(t *testing.T) {
	store := newSeededStore(t)
	_, err := store.DryRun(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateEquipment(Equipment{Base: Base{ID: "equip_endoscope"}, Name: "Endoscope", Category: "optics"})
		return err
	})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if _, ok := store.GetEquipment("equip_endoscope"); ok {
		t.Fatal("dry run must not commit")
	}
}

func TestListOrderIsInsertionOrder(t *testing.T) {
	store := newSeededStore(t)
	var got []string
	for _, s := range store.ListSurgeries() {
		got = append(got, s.ID)
	}
	want := []string{"surgery_brain", "surgery_bypass", "surgery_hip", "surgery_appendix"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order: got %v want %v", got, want)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	store := newSeededStore(t)
	snapshot := store.Export()

	restored := NewMemoryStore(NewDefaultRulesEngine())
	if err := restored.Import(context.Background(), snapshot); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !reflect.DeepEqual(restored.Export(), snapshot) {
		t.Fatal("round trip changed the snapshot")
	}
	original, _ := store.GetSurgery("surgery_brain")
	copied, _ := restored.GetSurgery("surgery_brain")
	if !original.CreatedAt.Equal(copied.CreatedAt) {
		t.Fatal("import must preserve timestamps")
	}
}

func TestImportRejectsInvalidSnapshot(t *testing.T) {
	snapshot := newSeededStore(t).Export()
	snapshot.Surgeries[0].SurgeonID = "surgeon_nobody"

	target := newSeededStore(t)
	if err := target.Import(context.Background(), snapshot); err == nil {
		t.Fatal("expected import to reject a dangling reference")
	}
	if _, ok := target.GetSurgery("surgery_brain"); !ok {
		t.Fatal("failed import must leave existing state intact")
	}
}

func TestUpdateTimeslotReindexesBookings(t *testing.T) {
	store := newSeededStore(t)
	// Move the first slot onto the second; the two surgeries now collide on
	// nothing shared except time, which the rules must notice.
	result, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateTimeslot("slot_08_00", func(ts *Timeslot) error {
			ts.Start = domain.MustTimeOfDay("10:45")
			ts.End = domain.MustTimeOfDay("13:15")
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	// surgery_brain and surgery_bypass share no surgeon, theatre, patient,
	// or equipment, so the overlap alone yields no conflict. The index must
	// still reflect the move.
	if !result.Empty() {
		t.Fatalf("unexpected conflicts: %v", result.Conflicts)
	}
	err = store.View(context.Background(), func(view TransactionView) error {
		bookings := view.Bookings(ResourceSurgeon, "surgeon_smith")
		if len(bookings) != 1 {
			return fmt.Errorf("expected 1 booking, got %d", len(bookings))
		}
		if bookings[0].Interval.Start != domain.MustTimeOfDay("10:45") {
			return fmt.Errorf("booking not reindexed: %v", bookings[0].Interval)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
