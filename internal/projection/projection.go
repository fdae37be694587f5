// Package projection renders the schedule graph into natural-language
// documents for text search. Projection is pure and deterministic: the same
// snapshot always yields the same documents in the same order.
package projection

import (
	"fmt"
	"strings"

	"theatrecore/pkg/domain"
)

// Document is one rendered text chunk tied back to its source entity.
type Document struct {
	Text     string `json:"text"`
	Kind     string `json:"kind"`
	EntityID string `json:"entity_id"`
}

// RulesDocumentID identifies the static scheduling-rules document.
const RulesDocumentID = "scheduling_rules"

// Projector renders documents from a graph snapshot.
type Projector struct {
	snapshot domain.Snapshot

	surgeons  map[string]domain.Surgeon
	theatres  map[string]domain.Theatre
	timeslots map[string]domain.Timeslot
	patients  map[string]domain.Patient
}

// NewProjector constructs a projector over the snapshot.
func NewProjector(snapshot domain.Snapshot) *Projector {
	p := &Projector{
		snapshot:  snapshot,
		surgeons:  make(map[string]domain.Surgeon, len(snapshot.Surgeons)),
		theatres:  make(map[string]domain.Theatre, len(snapshot.Theatres)),
		timeslots: make(map[string]domain.Timeslot, len(snapshot.Timeslots)),
		patients:  make(map[string]domain.Patient, len(snapshot.Patients)),
	}
	for _, s := range snapshot.Surgeons {
		p.surgeons[s.ID] = s
	}
	for _, t := range snapshot.Theatres {
		p.theatres[t.ID] = t
	}
	for _, t := range snapshot.Timeslots {
		p.timeslots[t.ID] = t
	}
	for _, pt := range snapshot.Patients {
		p.patients[pt.ID] = pt
	}
	return p
}

func (p *Projector) surgeriesBySurgeon(id string) []domain.Surgery {
	var out []domain.Surgery
	for _, s := range p.snapshot.Surgeries {
		if s.SurgeonID == id {
			out = append(out, s)
		}
	}
	return out
}

func (p *Projector) surgeriesByTheatre(id string) []domain.Surgery {
	var out []domain.Surgery
	for _, s := range p.snapshot.Surgeries {
		if s.TheatreID == id {
			out = append(out, s)
		}
	}
	return out
}

func (p *Projector) surgeriesByTimeslot(id string) []domain.Surgery {
	var out []domain.Surgery
	for _, s := range p.snapshot.Surgeries {
		if s.TimeslotID == id {
			out = append(out, s)
		}
	}
	return out
}

func (p *Projector) slotWindow(id string) string {
	slot, ok := p.timeslots[id]
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%s - %s", slot.Start, slot.End)
}

func specialtiesText(tags []domain.Specialty) string {
	if len(tags) == 0 {
		return "N/A"
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

// SurgeonText renders one surgeon.
func (p *Projector) SurgeonText(surgeon domain.Surgeon) string {
	var booked []string
	for _, surgery := range p.surgeriesBySurgeon(surgeon.ID) {
		booked = append(booked, fmt.Sprintf("%s (%s)", surgery.Name, p.slotWindow(surgery.TimeslotID)))
	}
	surgeries := "No surgeries scheduled"
	if len(booked) > 0 {
		surgeries = strings.Join(booked, ", ")
	}
	specs := specialtiesText(surgeon.Specialties)
	return fmt.Sprintf(`Surgeon: %s
License Number: %s
Specialization: %s
Current Surgeries: %s
This surgeon is qualified to perform surgeries requiring %s expertise.`,
		surgeon.Name, surgeon.LicenseNumber, specs, surgeries, specs)
}

// TheatreText renders one theatre.
func (p *Projector) TheatreText(theatre domain.Theatre) string {
	var booked []string
	for _, surgery := range p.surgeriesByTheatre(theatre.ID) {
		surgeonName := "N/A"
		if s, ok := p.surgeons[surgery.SurgeonID]; ok {
			surgeonName = s.Name
		}
		start := "N/A"
		if slot, ok := p.timeslots[surgery.TimeslotID]; ok {
			start = slot.Start.String()
		}
		booked = append(booked, fmt.Sprintf("%s at %s with %s", surgery.Name, start, surgeonName))
	}
	schedule := "No surgeries scheduled"
	if len(booked) > 0 {
		schedule = strings.Join(booked, ", ")
	}
	return fmt.Sprintf(`Theatre: %s
Specialization: %s surgeries
Current Schedule: %s
This theatre is equipped for %s surgical procedures.`,
		theatre.Name, theatre.RequiredSpecialty, schedule, theatre.RequiredSpecialty)
}

// SurgeryText renders one surgery.
func (p *Projector) SurgeryText(surgery domain.Surgery) string {
	surgeonName := "N/A"
	if s, ok := p.surgeons[surgery.SurgeonID]; ok {
		surgeonName = s.Name
	}
	theatreName := "N/A"
	if t, ok := p.theatres[surgery.TheatreID]; ok {
		theatreName = t.Name
	}
	window := "Not scheduled"
	if slot, ok := p.timeslots[surgery.TimeslotID]; ok {
		window = fmt.Sprintf("%s to %s", slot.Start, slot.End)
	}
	status := "Routine"
	emergencyLine := ""
	if surgery.Emergency {
		status = "EMERGENCY"
		emergencyLine = "\nThis is an EMERGENCY surgery requiring immediate attention."
	}
	return fmt.Sprintf(`Surgery: %s
Surgeon: %s
Theatre: %s
Scheduled Time: %s
Duration: %d minutes
Emergency Status: %s%s`,
		surgery.Name, surgeonName, theatreName, window, surgery.EstimatedDurationMinutes, status, emergencyLine)
}

// PatientText renders one patient.
func (p *Projector) PatientText(patient domain.Patient) string {
	window := "Not assigned"
	for _, surgery := range p.snapshot.Surgeries {
		if surgery.PatientID == patient.ID {
			if slot, ok := p.timeslots[surgery.TimeslotID]; ok {
				window = fmt.Sprintf("%s to %s", slot.Start, slot.End)
			}
			break
		}
	}
	recovery := "N/A"
	if patient.RecoveryRoom != nil {
		recovery = *patient.RecoveryRoom
	}
	return fmt.Sprintf(`Patient: %s
Surgery Timeslot: %s
Admitted to Ward: %s
Recovery Room: %s
This patient has a scheduled surgery and post-operative recovery plan.`,
		patient.Name, window, patient.Ward, recovery)
}

// TimeslotText renders one timeslot.
func (p *Projector) TimeslotText(slot domain.Timeslot) string {
	var booked []string
	for _, surgery := range p.surgeriesByTimeslot(slot.ID) {
		surgeonName := "Unknown"
		if s, ok := p.surgeons[surgery.SurgeonID]; ok {
			surgeonName = s.Name
		}
		booked = append(booked, fmt.Sprintf("%s (Surgeon: %s)", surgery.Name, surgeonName))
	}
	surgeries := "Available - no surgeries scheduled"
	if len(booked) > 0 {
		surgeries = strings.Join(booked, ", ")
	}
	return fmt.Sprintf(`Timeslot: %s
Start Time: %s
End Time: %s
Duration: %d minutes
Scheduled Surgeries: %s`,
		slot.Name, slot.Start, slot.End, slot.DurationMinutes(), surgeries)
}

// EquipmentText renders one equipment record.
func (p *Projector) EquipmentText(equipment domain.Equipment) string {
	var users []string
	for _, surgery := range p.snapshot.Surgeries {
		for _, id := range surgery.EquipmentIDs {
			if id == equipment.ID {
				users = append(users, fmt.Sprintf("%s (%s)", surgery.Name, p.slotWindow(surgery.TimeslotID)))
				break
			}
		}
	}
	usage := "Not reserved by any surgery"
	if len(users) > 0 {
		usage = strings.Join(users, ", ")
	}
	return fmt.Sprintf(`Equipment: %s
Category: %s
Reserved By: %s`,
		equipment.Name, equipment.Category, usage)
}

// RulesText is the static scheduling-rules knowledge document.
func RulesText() string {
	return `Hospital Scheduling Rules:
1. Each surgeon can only perform one surgery at a time
2. Each theatre can only host one surgery at a time
3. A patient cannot undergo two surgeries at once
4. Surgeons should operate in their specialization theatre
5. Emergency surgeries have higher priority than routine surgeries
6. Shared equipment cannot serve two overlapping surgeries
7. Post-operative recovery rooms must be available`
}

// Documents renders the whole snapshot: entity documents per kind in
// insertion order, followed by the static rules document.
func (p *Projector) Documents() []Document {
	var docs []Document
	for _, s := range p.snapshot.Surgeons {
		docs = append(docs, Document{Text: p.SurgeonText(s), Kind: "surgeon", EntityID: s.ID})
	}
	for _, t := range p.snapshot.Theatres {
		docs = append(docs, Document{Text: p.TheatreText(t), Kind: "theatre", EntityID: t.ID})
	}
	for _, s := range p.snapshot.Surgeries {
		docs = append(docs, Document{Text: p.SurgeryText(s), Kind: "surgery", EntityID: s.ID})
	}
	for _, pt := range p.snapshot.Patients {
		docs = append(docs, Document{Text: p.PatientText(pt), Kind: "patient", EntityID: pt.ID})
	}
	for _, t := range p.snapshot.Timeslots {
		docs = append(docs, Document{Text: p.TimeslotText(t), Kind: "timeslot", EntityID: t.ID})
	}
	for _, e := range p.snapshot.Equipment {
		docs = append(docs, Document{Text: p.EquipmentText(e), Kind: "equipment", EntityID: e.ID})
	}
	docs = append(docs, Document{Text: RulesText(), Kind: "rules", EntityID: RulesDocumentID})
	return docs
}
