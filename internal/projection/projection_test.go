package projection

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"theatrecore/internal/core"
	"theatrecore/pkg/domain"
)

func seededSnapshot(t *testing.T) domain.Snapshot {
	t.Helper()
	store := core.NewMemoryStore(core.NewDefaultRulesEngine())
	if err := core.SeedSampleData(context.Background(), store); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store.Export()
}

func TestDocumentsAreDeterministic(t *testing.T) {
	snapshot := seededSnapshot(t)
	first := NewProjector(snapshot).Documents()
	second := NewProjector(snapshot).Documents()
	if !reflect.DeepEqual(first, second) {
		t.Fatal("projection must be deterministic")
	}
	// 24 entities plus the rules document.
	if len(first) != 25 {
		t.Fatalf("expected 25 documents, got %d", len(first))
	}
	last := first[len(first)-1]
	if last.Kind != "rules" || last.EntityID != RulesDocumentID {
		t.Fatalf("rules document must come last, got %+v", last)
	}
}

func TestDocumentKindOrder(t *testing.T) {
	docs := NewProjector(seededSnapshot(t)).Documents()
	var kinds []string
	for _, d := range docs {
		if len(kinds) == 0 || kinds[len(kinds)-1] != d.Kind {
			kinds = append(kinds, d.Kind)
		}
	}
	want := []string{"surgeon", "theatre", "surgery", "patient", "timeslot", "equipment", "rules"}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("unexpected kind order: got %v want %v", kinds, want)
	}
}

func TestSurgeonText(t *testing.T) {
	p := NewProjector(seededSnapshot(t))
	surgeon := p.snapshot.Surgeons[0]
	text := p.SurgeonText(surgeon)
	for _, want := range []string{
		"Surgeon: Dr_Smith",
		"License Number: NS12345",
		"Specialization: Neuro",
		"Brain_Surgery (08:00 - 10:30)",
		"qualified to perform surgeries requiring Neuro expertise",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}

func TestSurgeonTextWithoutSurgeries(t *testing.T) {
	p := NewProjector(domain.Snapshot{})
	text := p.SurgeonText(domain.Surgeon{
		Base: domain.Base{ID: "s1"}, Name: "Dr_Free", LicenseNumber: "X1",
		Specialties: []domain.Specialty{domain.SpecialtyOrtho},
	})
	if !strings.Contains(text, "Current Surgeries: No surgeries scheduled") {
		t.Fatalf("unexpected text:\n%s", text)
	}
}

func TestTheatreText(t *testing.T) {
	p := NewProjector(seededSnapshot(t))
	text := p.TheatreText(p.snapshot.Theatres[0])
	for _, want := range []string{
		"Theatre: Neuro_Theatre",
		"Specialization: Neuro surgeries",
		"Brain_Surgery at 08:00 with Dr_Smith",
		"equipped for Neuro surgical procedures",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}

func TestSurgeryTextEmergency(t *testing.T) {
	p := NewProjector(seededSnapshot(t))
	text := p.SurgeryText(p.snapshot.Surgeries[0])
	for _, want := range []string{
		"Surgery: Brain_Surgery",
		"Surgeon: Dr_Smith",
		"Theatre: Neuro_Theatre",
		"Scheduled Time: 08:00 to 10:30",
		"Duration: 180 minutes",
		"Emergency Status: EMERGENCY",
		"EMERGENCY surgery requiring immediate attention",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}

func TestSurgeryTextRoutine(t *testing.T) {
	p := NewProjector(seededSnapshot(t))
	text := p.SurgeryText(p.snapshot.Surgeries[2])
	if !strings.Contains(text, "Emergency Status: Routine") {
		t.Fatalf("unexpected text:\n%s", text)
	}
	if strings.Contains(text, "immediate attention") {
		t.Fatalf("routine surgery must not carry the emergency line:\n%s", text)
	}
}

func TestPatientText(t *testing.T) {
	p := NewProjector(seededSnapshot(t))
	text := p.PatientText(p.snapshot.Patients[0])
	for _, want := range []string{
		"Patient: Patient_Davis",
		"Surgery Timeslot: 08:00 to 10:30",
		"Admitted to Ward: Ward_3",
		"Recovery Room: Recovery_1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
	// patient_moore has no recovery room.
	text = p.PatientText(p.snapshot.Patients[3])
	if !strings.Contains(text, "Recovery Room: N/A") {
		t.Fatalf("unexpected text:\n%s", text)
	}
}

func TestTimeslotText(t *testing.T) {
	p := NewProjector(seededSnapshot(t))
	text := p.TimeslotText(p.snapshot.Timeslots[0])
	for _, want := range []string{
		"Timeslot: TimeSlot_08_00",
		"Start Time: 08:00",
		"End Time: 10:30",
		"Duration: 150 minutes",
		"Brain_Surgery (Surgeon: Dr_Smith)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}

func TestEquipmentText(t *testing.T) {
	p := NewProjector(seededSnapshot(t))
	text := p.EquipmentText(p.snapshot.Equipment[0])
	for _, want := range []string{
		"Equipment: Surgical_Microscope",
		"Category: optics",
		"Brain_Surgery (08:00 - 10:30)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
	idle := p.EquipmentText(domain.Equipment{Base: domain.Base{ID: "equip_idle"}, Name: "Spare", Category: "misc"})
	if !strings.Contains(idle, "Not reserved by any surgery") {
		t.Fatalf("unexpected text:\n%s", idle)
	}
}

func TestRulesText(t *testing.T) {
	text := RulesText()
	for _, want := range []string{
		"one surgery at a time",
		"specialization theatre",
		"Emergency surgeries have higher priority",
		"Shared equipment",
		"recovery rooms",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in rules text", want)
		}
	}
}
