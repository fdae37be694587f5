package core

import (
	"context"
	"fmt"

	"theatrecore/pkg/domain"
)

func strptr(s string) *string { return &s }

// SeedSampleData loads a small conflict-free hospital schedule: four
// surgeons, four theatres, four timeslots and four booked surgeries. It is
// used by the demo binary and by tests that need a realistic populated
// graph.
func SeedSampleData(ctx context.Context, store PersistentStore) error {
	surgeons := []Surgeon{
		{Base: Base{ID: "surgeon_smith"}, Name: "Dr_Smith", LicenseNumber: "NS12345", Specialties: []Specialty{domain.SpecialtyNeuro}},
		{Base: Base{ID: "surgeon_johnson"}, Name: "Dr_Johnson", LicenseNumber: "OS67890", Specialties: []Specialty{domain.SpecialtyOrtho}},
		{Base: Base{ID: "surgeon_williams"}, Name: "Dr_Williams", LicenseNumber: "CS78901", Specialties: []Specialty{domain.SpecialtyCardio}},
		{Base: Base{ID: "surgeon_brown"}, Name: "Dr_Brown", LicenseNumber: "GS34567", Specialties: []Specialty{domain.SpecialtyGeneral}},
	}
	theatres := []Theatre{
		{Base: Base{ID: "theatre_neuro"}, Name: "Neuro_Theatre", RequiredSpecialty: domain.SpecialtyNeuro, EquipmentIDs: []string{"equip_microscope"}},
		{Base: Base{ID: "theatre_ortho"}, Name: "Ortho_Theatre", RequiredSpecialty: domain.SpecialtyOrtho, EquipmentIDs: []string{"equip_drill"}},
		{Base: Base{ID: "theatre_cardio"}, Name: "Cardio_Theatre", RequiredSpecialty: domain.SpecialtyCardio, EquipmentIDs: []string{"equip_bypass"}},
		{Base: Base{ID: "theatre_general"}, Name: "General_Theatre", RequiredSpecialty: domain.SpecialtyGeneral, EquipmentIDs: []string{"equip_laparoscope"}},
	}
	timeslots := []Timeslot{
		{Base: Base{ID: "slot_08_00"}, Name: "TimeSlot_08_00", Start: domain.MustTimeOfDay("08:00"), End: domain.MustTimeOfDay("10:30")},
		{Base: Base{ID: "slot_10_45"}, Name: "TimeSlot_10_45", Start: domain.MustTimeOfDay("10:45"), End: domain.MustTimeOfDay("13:15")},
		{Base: Base{ID: "slot_14_00"}, Name: "TimeSlot_14_00", Start: domain.MustTimeOfDay("14:00"), End: domain.MustTimeOfDay("16:30")},
		{Base: Base{ID: "slot_16_45"}, Name: "TimeSlot_16_45", Start: domain.MustTimeOfDay("16:45"), End: domain.MustTimeOfDay("19:15")},
	}
	equipment := []Equipment{
		{Base: Base{ID: "equip_microscope"}, Name: "Surgical_Microscope", Category: "optics"},
		{Base: Base{ID: "equip_drill"}, Name: "Orthopedic_Drill", Category: "power_tools"},
		{Base: Base{ID: "equip_bypass"}, Name: "Heart_Lung_Machine", Category: "perfusion"},
		{Base: Base{ID: "equip_laparoscope"}, Name: "Laparoscope", Category: "endoscopy"},
	}
	patients := []Patient{
		{Base: Base{ID: "patient_davis"}, Name: "Patient_Davis", Ward: "Ward_3", RecoveryRoom: strptr("Recovery_1")},
		{Base: Base{ID: "patient_miller"}, Name: "Patient_Miller", Ward: "Ward_2", RecoveryRoom: strptr("Recovery_2")},
		{Base: Base{ID: "patient_wilson"}, Name: "Patient_Wilson", Ward: "Ward_1", RecoveryRoom: strptr("Recovery_1")},
		{Base: Base{ID: "patient_moore"}, Name: "Patient_Moore", Ward: "Ward_4"},
	}
	surgeries := []Surgery{
		{Base: Base{ID: "surgery_brain"}, Name: "Brain_Surgery", SurgeonID: "surgeon_smith", TheatreID: "theatre_neuro", TimeslotID: "slot_08_00", PatientID: "patient_davis", EquipmentIDs: []string{"equip_microscope"}, EstimatedDurationMinutes: 180, Emergency: true},
		{Base: Base{ID: "surgery_bypass"}, Name: "Cardiac_Bypass_Surgery", SurgeonID: "surgeon_williams", TheatreID: "theatre_cardio", TimeslotID: "slot_10_45", PatientID: "patient_miller", EquipmentIDs: []string{"equip_bypass"}, EstimatedDurationMinutes: 240},
		{Base: Base{ID: "surgery_hip"}, Name: "Hip_Replacement_Surgery", SurgeonID: "surgeon_johnson", TheatreID: "theatre_ortho", TimeslotID: "slot_14_00", PatientID: "patient_wilson", EquipmentIDs: []string{"equip_drill"}, EstimatedDurationMinutes: 120},
		{Base: Base{ID: "surgery_appendix"}, Name: "Appendectomy", SurgeonID: "surgeon_brown", TheatreID: "theatre_general", TimeslotID: "slot_16_45", PatientID: "patient_moore", EquipmentIDs: []string{"equip_laparoscope"}, EstimatedDurationMinutes: 90, Emergency: true},
	}

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		for _, e := range equipment {
			if _, err := tx.CreateEquipment(e); err != nil {
				return fmt.Errorf("seed equipment %s: %w", e.ID, err)
			}
		}
		for _, s := range surgeons {
			if _, err := tx.CreateSurgeon(s); err != nil {
				return fmt.Errorf("seed surgeon %s: %w", s.ID, err)
			}
		}
		for _, t := range theatres {
			if _, err := tx.CreateTheatre(t); err != nil {
				return fmt.Errorf("seed theatre %s: %w", t.ID, err)
			}
		}
		for _, t := range timeslots {
			if _, err := tx.CreateTimeslot(t); err != nil {
				return fmt.Errorf("seed timeslot %s: %w", t.ID, err)
			}
		}
		for _, p := range patients {
			if _, err := tx.CreatePatient(p); err != nil {
				return fmt.Errorf("seed patient %s: %w", p.ID, err)
			}
		}
		for _, s := range surgeries {
			if _, err := tx.CreateSurgery(s); err != nil {
				return fmt.Errorf("seed surgery %s: %w", s.ID, err)
			}
		}
		return nil
	})
	return err
}
