package domain

import (
	"reflect"
	"testing"
)

func TestResultMerge(t *testing.T) {
	var r Result
	r.Merge(Result{})
	if !r.Empty() {
		t.Fatal("merging an empty result must keep the result empty")
	}
	r.Merge(Result{Conflicts: []Conflict{{Rule: "equipment_conflict"}}})
	r.Merge(Result{Conflicts: []Conflict{{Rule: "surgeon_double_booking"}}})
	if len(r.Conflicts) != 2 {
		t.Fatalf("expected 2 conflicts, got %d", len(r.Conflicts))
	}
}

func TestResultSortCanonicalOrder(t *testing.T) {
	r := Result{Conflicts: []Conflict{
		{Rule: "specialization_mismatch", SurgeryIDs: []string{"s1"}},
		{Rule: "equipment_conflict", SurgeryIDs: []string{"s2", "s3"}, ResourceID: "equip_b"},
		{Rule: "equipment_conflict", SurgeryIDs: []string{"s2", "s3"}, ResourceID: "equip_a"},
		{Rule: "theatre_double_booking", SurgeryIDs: []string{"s1", "s4"}},
		{Rule: "surgeon_double_booking", SurgeryIDs: []string{"s5", "s6"}},
		{Rule: "surgeon_double_booking", SurgeryIDs: []string{"s1", "s2"}},
		{Rule: "patient_double_booking", SurgeryIDs: []string{"s2", "s3"}},
	}}
	r.Sort()

	type key struct {
		rule     string
		first    string
		resource string
	}
	var got []key
	for _, c := range r.Conflicts {
		got = append(got, key{c.Rule, c.SurgeryIDs[0], c.ResourceID})
	}
	want := []key{
		{"surgeon_double_booking", "s1", ""},
		{"surgeon_double_booking", "s5", ""},
		{"theatre_double_booking", "s1", ""},
		{"patient_double_booking", "s2", ""},
		{"equipment_conflict", "s2", "equip_a"},
		{"equipment_conflict", "s2", "equip_b"},
		{"specialization_mismatch", "s1", ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order:\n got %v\nwant %v", got, want)
	}
}

func TestResultSortIsIdempotent(t *testing.T) {
	r := Result{Conflicts: []Conflict{
		{Rule: "equipment_conflict", SurgeryIDs: []string{"s2", "s9"}, ResourceID: "equip_a"},
		{Rule: "surgeon_double_booking", SurgeryIDs: []string{"s3", "s4"}},
		{Rule: "surgeon_double_booking", SurgeryIDs: []string{"s3", "s4"}},
	}}
	r.Sort()
	first := append([]Conflict(nil), r.Conflicts...)
	r.Sort()
	if !reflect.DeepEqual(first, r.Conflicts) {
		t.Fatal("sorting twice changed the order")
	}
}

func TestSurgeonHasSpecialty(t *testing.T) {
	s := Surgeon{Specialties: []Specialty{SpecialtyNeuro, SpecialtyGeneral}}
	if !s.HasSpecialty(SpecialtyNeuro) {
		t.Fatal("expected Neuro specialty")
	}
	if s.HasSpecialty(SpecialtyCardio) {
		t.Fatal("did not expect Cardio specialty")
	}
}
