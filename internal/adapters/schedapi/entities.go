package schedapi

import (
	"net/http"
	"strings"

	"theatrecore/pkg/domain"
)

type conflictPayload struct {
	Conflicts []domain.Conflict `json:"conflicts"`
}

// handleEntity dispatches collection and item routes for the six entity
// kinds. Mutation responses carry the conflicts the change introduced.
func (h *Handler) handleEntity(w http.ResponseWriter, r *http.Request, segments []string) {
	collection := segments[0]
	switch len(segments) {
	case 1:
		switch r.Method {
		case http.MethodGet:
			if collection == "surgeons" {
				if tag := r.URL.Query().Get("specialization"); tag != "" {
					surgeons, err := h.Service.Queries().SurgeonsBySpecialization(r.Context(), domain.Specialty(tag))
					if err != nil {
						writeServiceError(w, err)
						return
					}
					writeJSON(w, http.StatusOK, map[string]any{"surgeons": surgeons})
					return
				}
			}
			h.listEntities(w, collection)
		case http.MethodPost:
			h.createEntity(w, r, collection)
		case http.MethodDelete:
			if collection != "surgeries" {
				writeError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			h.deleteSurgeries(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case 2:
		id := segments[1]
		switch r.Method {
		case http.MethodGet:
			h.getEntity(w, collection, id)
		case http.MethodPut:
			h.updateEntity(w, r, collection, id)
		case http.MethodDelete:
			h.deleteEntity(w, r, collection, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) listEntities(w http.ResponseWriter, collection string) {
	store := h.Service.Store()
	switch collection {
	case "surgeons":
		writeJSON(w, http.StatusOK, map[string]any{"surgeons": store.ListSurgeons()})
	case "theatres":
		writeJSON(w, http.StatusOK, map[string]any{"theatres": store.ListTheatres()})
	case "timeslots":
		writeJSON(w, http.StatusOK, map[string]any{"timeslots": store.ListTimeslots()})
	case "equipment":
		writeJSON(w, http.StatusOK, map[string]any{"equipment": store.ListEquipment()})
	case "patients":
		writeJSON(w, http.StatusOK, map[string]any{"patients": store.ListPatients()})
	case "surgeries":
		writeJSON(w, http.StatusOK, map[string]any{"surgeries": store.ListSurgeries()})
	}
}

func (h *Handler) getEntity(w http.ResponseWriter, collection, id string) {
	store := h.Service.Store()
	var payload any
	var ok bool
	switch collection {
	case "surgeons":
		payload, ok = store.GetSurgeon(id)
	case "theatres":
		payload, ok = store.GetTheatre(id)
	case "timeslots":
		payload, ok = store.GetTimeslot(id)
	case "equipment":
		payload, ok = store.GetEquipment(id)
	case "patients":
		payload, ok = store.GetPatient(id)
	case "surgeries":
		payload, ok = store.GetSurgery(id)
	}
	if !ok {
		writeError(w, http.StatusNotFound, strings.TrimSuffix(collection, "s")+" not found")
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) createEntity(w http.ResponseWriter, r *http.Request, collection string) {
	ctx := r.Context()
	switch collection {
	case "surgeons":
		var in domain.Surgeon
		if !decodeBody(w, r, &in) {
			return
		}
		created, res, err := h.Service.CreateSurgeon(ctx, in)
		writeMutation(w, created, res, err)
	case "theatres":
		var in domain.Theatre
		if !decodeBody(w, r, &in) {
			return
		}
		created, res, err := h.Service.CreateTheatre(ctx, in)
		writeMutation(w, created, res, err)
	case "timeslots":
		var in domain.Timeslot
		if !decodeBody(w, r, &in) {
			return
		}
		created, res, err := h.Service.CreateTimeslot(ctx, in)
		writeMutation(w, created, res, err)
	case "equipment":
		var in domain.Equipment
		if !decodeBody(w, r, &in) {
			return
		}
		created, res, err := h.Service.CreateEquipment(ctx, in)
		writeMutation(w, created, res, err)
	case "patients":
		var in domain.Patient
		if !decodeBody(w, r, &in) {
			return
		}
		created, res, err := h.Service.CreatePatient(ctx, in)
		writeMutation(w, created, res, err)
	case "surgeries":
		var in domain.Surgery
		if !decodeBody(w, r, &in) {
			return
		}
		if isTruthy(r.URL.Query().Get("precheck")) {
			res, err := h.Service.PreCheckSurgery(ctx, in)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, conflictPayload{Conflicts: res.Conflicts})
			return
		}
		created, res, err := h.Service.CreateSurgery(ctx, in)
		writeMutation(w, created, res, err)
	}
}

func (h *Handler) updateEntity(w http.ResponseWriter, r *http.Request, collection, id string) {
	ctx := r.Context()
	switch collection {
	case "surgeons":
		var in domain.Surgeon
		if !decodeBody(w, r, &in) {
			return
		}
		updated, res, err := h.Service.UpdateSurgeon(ctx, id, func(s *domain.Surgeon) error {
			s.Name = in.Name
			s.LicenseNumber = in.LicenseNumber
			s.Specialties = in.Specialties
			return nil
		})
		writeUpdated(w, updated, res, err)
	case "theatres":
		var in domain.Theatre
		if !decodeBody(w, r, &in) {
			return
		}
		updated, res, err := h.Service.UpdateTheatre(ctx, id, func(t *domain.Theatre) error {
			t.Name = in.Name
			t.RequiredSpecialty = in.RequiredSpecialty
			t.EquipmentIDs = in.EquipmentIDs
			return nil
		})
		writeUpdated(w, updated, res, err)
	case "timeslots":
		var in domain.Timeslot
		if !decodeBody(w, r, &in) {
			return
		}
		updated, res, err := h.Service.UpdateTimeslot(ctx, id, func(t *domain.Timeslot) error {
			t.Name = in.Name
			t.Start = in.Start
			t.End = in.End
			return nil
		})
		writeUpdated(w, updated, res, err)
	case "equipment":
		var in domain.Equipment
		if !decodeBody(w, r, &in) {
			return
		}
		updated, res, err := h.Service.UpdateEquipment(ctx, id, func(e *domain.Equipment) error {
			e.Name = in.Name
			e.Category = in.Category
			return nil
		})
		writeUpdated(w, updated, res, err)
	case "patients":
		var in domain.Patient
		if !decodeBody(w, r, &in) {
			return
		}
		updated, res, err := h.Service.UpdatePatient(ctx, id, func(p *domain.Patient) error {
			p.Name = in.Name
			p.Ward = in.Ward
			p.RecoveryRoom = in.RecoveryRoom
			return nil
		})
		writeUpdated(w, updated, res, err)
	case "surgeries":
		var in domain.Surgery
		if !decodeBody(w, r, &in) {
			return
		}
		updated, res, err := h.Service.UpdateSurgery(ctx, id, func(s *domain.Surgery) error {
			s.Name = in.Name
			s.SurgeonID = in.SurgeonID
			s.TheatreID = in.TheatreID
			s.TimeslotID = in.TimeslotID
			s.PatientID = in.PatientID
			s.EquipmentIDs = in.EquipmentIDs
			s.EstimatedDurationMinutes = in.EstimatedDurationMinutes
			s.Emergency = in.Emergency
			return nil
		})
		writeUpdated(w, updated, res, err)
	}
}

func (h *Handler) deleteEntity(w http.ResponseWriter, r *http.Request, collection, id string) {
	ctx := r.Context()
	var err error
	switch collection {
	case "surgeons":
		_, err = h.Service.DeleteSurgeon(ctx, id)
	case "theatres":
		_, err = h.Service.DeleteTheatre(ctx, id)
	case "timeslots":
		_, err = h.Service.DeleteTimeslot(ctx, id)
	case "equipment":
		_, err = h.Service.DeleteEquipment(ctx, id)
	case "patients":
		_, err = h.Service.DeletePatient(ctx, id)
	case "surgeries":
		_, err = h.Service.DeleteSurgery(ctx, id)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteSurgeries clears surgeries in bulk. Exactly one selector is
// accepted: surgeon_id, timeslot_id, or all=true. Patients left without
// any surgery are removed in the same transaction.
func (h *Handler) deleteSurgeries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	surgeonID := q.Get("surgeon_id")
	timeslotID := q.Get("timeslot_id")
	all := isTruthy(q.Get("all"))

	selectors := 0
	for _, set := range []bool{surgeonID != "", timeslotID != "", all} {
		if set {
			selectors++
		}
	}
	if selectors != 1 {
		writeError(w, http.StatusBadRequest, "exactly one of surgeon_id, timeslot_id, or all=true required")
		return
	}

	var (
		removed int
		err     error
	)
	switch {
	case surgeonID != "":
		removed, _, err = h.Service.DeleteSurgeriesBySurgeon(ctx, surgeonID)
	case timeslotID != "":
		removed, _, err = h.Service.DeleteSurgeriesByTimeslot(ctx, timeslotID)
	default:
		removed, _, err = h.Service.DeleteAllSurgeries(ctx)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func writeMutation(w http.ResponseWriter, entity any, res domain.Result, err error) {
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entity": entity, "conflicts": res.Conflicts})
}

func writeUpdated(w http.ResponseWriter, entity any, res domain.Result, err error) {
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entity": entity, "conflicts": res.Conflicts})
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	}
	return false
}
