// Package schedapi exposes the scheduling service over HTTP. It is an
// adapter only: all semantics live in the core service and query layers.
package schedapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"theatrecore/internal/archive"
	"theatrecore/internal/core"
	"theatrecore/internal/retrieval"
	"theatrecore/pkg/domain"
)

// Handler provides HTTP access to the scheduling service.
type Handler struct {
	Service  *core.Service
	Search   *retrieval.Index
	Archiver *archive.Archiver
}

// NewHandler constructs an API handler over the service.
func NewHandler(service *core.Service) *Handler {
	return &Handler{Service: service}
}

const apiPrefix = "/api/v1/"

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "service not configured")
		return
	}
	path := strings.TrimSuffix(r.URL.Path, "/")
	if !strings.HasPrefix(path, apiPrefix) {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(path, apiPrefix)
	segments := strings.Split(rest, "/")

	switch segments[0] {
	case "surgeons", "theatres", "timeslots", "equipment", "patients", "surgeries":
		h.handleEntity(w, r, segments)
	case "conflicts":
		h.handleConflicts(w, r)
	case "schedules":
		h.handleSchedules(w, r, segments)
	case "availability":
		h.handleAvailability(w, r, segments)
	case "suggest-slot":
		h.handleSuggestSlot(w, r)
	case "recovery-schedules":
		h.handleRecoverySchedules(w, r)
	case "search":
		h.handleSearch(w, r)
	case "summary":
		h.handleSummary(w, r)
	case "export":
		h.handleExport(w, r)
	case "import":
		h.handleImport(w, r)
	case "archives":
		h.handleArchives(w, r, segments)
	default:
		http.NotFound(w, r)
	}
}

func statusForError(err error) int {
	var notFound domain.NotFoundError
	var dup domain.DuplicateIDError
	var ref domain.InvalidReferenceError
	var malformed domain.MalformedIntervalError
	var referenced domain.ReferencedError
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &dup), errors.As(err, &referenced):
		return http.StatusConflict
	case errors.As(err, &ref), errors.As(err, &malformed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoneAvailable):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

func parseWindow(r *http.Request) (domain.Interval, error) {
	q := r.URL.Query()
	if at := q.Get("at"); at != "" {
		t, err := domain.ParseTimeOfDay(at)
		if err != nil {
			return domain.Interval{}, err
		}
		return domain.Interval{Start: t, End: t + 1}, nil
	}
	start, err := domain.ParseTimeOfDay(q.Get("start"))
	if err != nil {
		return domain.Interval{}, fmt.Errorf("start: %w", err)
	}
	end, err := domain.ParseTimeOfDay(q.Get("end"))
	if err != nil {
		return domain.Interval{}, fmt.Errorf("end: %w", err)
	}
	return domain.Interval{Start: start, End: end}, nil
}

func resourceKind(raw string) (domain.ResourceKind, bool) {
	switch domain.ResourceKind(raw) {
	case domain.ResourceSurgeon, domain.ResourceTheatre, domain.ResourceEquipment, domain.ResourcePatient:
		return domain.ResourceKind(raw), true
	}
	return "", false
}

func (h *Handler) handleConflicts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	res, err := h.Service.DetectConflicts(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conflicts": res.Conflicts})
}

func (h *Handler) handleSchedules(w http.ResponseWriter, r *http.Request, segments []string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	queries := h.Service.Queries()
	switch len(segments) {
	case 1:
		window, err := parseWindow(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		surgeries, err := queries.ScheduleAt(r.Context(), window)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"surgeries": surgeries})
	case 3:
		kind, ok := resourceKind(segments[1])
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown resource kind")
			return
		}
		surgeries, err := queries.ScheduleFor(r.Context(), kind, segments[2])
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"surgeries": surgeries})
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request, segments []string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if len(segments) != 3 {
		http.NotFound(w, r)
		return
	}
	kind, ok := resourceKind(segments[1])
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown resource kind")
		return
	}
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	available, err := h.Service.Queries().IsAvailable(r.Context(), kind, segments[2], window)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": available})
}

type suggestSlotRequest struct {
	ResourceKind    string   `json:"resource_kind"`
	ResourceID      string   `json:"resource_id"`
	DurationMinutes int      `json:"duration_minutes"`
	CandidateIDs    []string `json:"candidate_timeslot_ids"`
}

func (h *Handler) handleSuggestSlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req suggestSlotRequest
	if !decodeBody(w, r, &req) {
		return
	}
	kind, ok := resourceKind(req.ResourceKind)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown resource kind")
		return
	}
	store := h.Service.Store()
	candidates := make([]domain.Timeslot, 0, len(req.CandidateIDs))
	for _, id := range req.CandidateIDs {
		slot, found := store.GetTimeslot(id)
		if !found {
			writeError(w, http.StatusNotFound, fmt.Sprintf("timeslot %s not found", id))
			return
		}
		candidates = append(candidates, slot)
	}
	slot, err := h.Service.Queries().SuggestSlot(r.Context(), kind, req.ResourceID, req.DurationMinutes, candidates)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"timeslot": slot})
}

func (h *Handler) handleRecoverySchedules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	schedules, err := h.Service.Queries().RecoverySchedules(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recovery_schedules": schedules})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.Search == nil {
		writeError(w, http.StatusNotImplemented, "search index not configured")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q required")
		return
	}
	topK := 5
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		topK = parsed
	}
	matches, err := h.Search.Search(r.Context(), query, topK)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	summary, err := h.Service.Summary(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	snapshot, err := h.Service.Export(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var snapshot domain.Snapshot
	if !decodeBody(w, r, &snapshot) {
		return
	}
	if err := h.Service.Import(r.Context(), snapshot); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "imported"})
}

type restoreRequest struct {
	Key string `json:"key"`
}

func (h *Handler) handleArchives(w http.ResponseWriter, r *http.Request, segments []string) {
	if h.Archiver == nil {
		writeError(w, http.StatusNotImplemented, "archive storage not configured")
		return
	}
	switch {
	case len(segments) == 1 && r.Method == http.MethodPost:
		entry, err := h.Archiver.Archive(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "archive failed")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"archive": entry})
	case len(segments) == 1 && r.Method == http.MethodGet:
		entries, err := h.Archiver.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list archives failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"archives": entries})
	case len(segments) == 2 && segments[1] == "restore" && r.Method == http.MethodPost:
		var req restoreRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Key) == "" {
			writeError(w, http.StatusBadRequest, "archive key required")
			return
		}
		if err := h.Archiver.Restore(r.Context(), req.Key); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "restored"})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
