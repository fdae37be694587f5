package core

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"theatrecore/pkg/domain"
)

type captureSink struct {
	mu        sync.Mutex
	snapshots []Snapshot
	synced    chan struct{}
}

func newCaptureSink() *captureSink {
	return &captureSink{synced: make(chan struct{}, 16)}
}

func (s *captureSink) SyncSnapshot(_ context.Context, snapshot Snapshot) error {
	s.mu.Lock()
	s.snapshots = append(s.snapshots, snapshot)
	s.mu.Unlock()
	s.synced <- struct{}{}
	return nil
}

func (s *captureSink) last(t *testing.T) Snapshot {
	t.Helper()
	<-s.synced
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots[len(s.snapshots)-1]
}

func newSeededService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	service := NewInMemoryService(opts...)
	if err := SeedSampleData(context.Background(), service.Store()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return service
}

func TestServiceCreateSurgeryReportsConflicts(t *testing.T) {
	service := newSeededService(t)
	addNeuroAnnex(t, service.Store())
	created, result, err := service.CreateSurgery(context.Background(), Surgery{
		Base: Base{ID: "surgery_second"}, Name: "Second_Craniotomy",
		SurgeonID: "surgeon_smith", TheatreID: "theatre_neuro_annex",
		TimeslotID: "slot_08_00", PatientID: "patient_moore",
		EstimatedDurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != "surgery_second" {
		t.Fatalf("unexpected id %s", created.ID)
	}
	singleConflict(t, result, "surgeon_double_booking")
}

func TestServicePropagatesStoreErrors(t *testing.T) {
	service := newSeededService(t)
	_, _, err := service.CreateSurgeon(context.Background(), Surgeon{
		Base: Base{ID: "surgeon_smith"}, Name: "Imposter", Specialties: []Specialty{SpecialtyNeuro},
	})
	var dup domain.DuplicateIDError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateIDError, got %v", err)
	}
}

func TestServiceProjectionSink(t *testing.T) {
	sink := newCaptureSink()
	service := NewInMemoryService(WithProjectionSink(sink))
	_, _, err := service.CreateEquipment(context.Background(), Equipment{
		Base: Base{ID: "equip_endoscope"}, Name: "Endoscope", Category: "optics",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	snapshot := sink.last(t)
	if len(snapshot.Equipment) != 1 || snapshot.Equipment[0].ID != "equip_endoscope" {
		t.Fatalf("sink got stale snapshot: %+v", snapshot)
	}
}

func TestServiceSinkNotCalledOnFailure(t *testing.T) {
	sink := newCaptureSink()
	service := NewInMemoryService(WithProjectionSink(sink))
	_, _, err := service.CreateSurgeon(context.Background(), Surgeon{Name: "Dr_Invalid"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	select {
	case <-sink.synced:
		t.Fatal("sink must not run after a failed mutation")
	default:
	}
}

func TestServiceMetricsRecorder(t *testing.T) {
	recorder := NewExpvarMetricsRecorder("")
	service := newSeededService(t, WithMetricsRecorder(recorder))
	ctx := context.Background()

	if _, err := service.DetectConflicts(ctx); err != nil {
		t.Fatalf("detect: %v", err)
	}
	if _, err := service.DeleteSurgeon(ctx, "surgeon_nobody"); err == nil {
		t.Fatal("expected delete failure")
	}

	snapshot := recorder.Snapshot()
	if snapshot.Results["detect_conflicts"]["success"] != 1 {
		t.Fatalf("expected one detect_conflicts success, got %+v", snapshot.Results)
	}
	if snapshot.Results["delete_surgeon"]["error"] != 1 {
		t.Fatalf("expected one delete_surgeon error, got %+v", snapshot.Results)
	}
}

func TestServiceTracerSpans(t *testing.T) {
	tracer := NewJSONTracer(nil)
	service := newSeededService(t, WithTracer(tracer))
	if _, err := service.Summary(context.Background()); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if _, _, err := service.CreatePatient(context.Background(), Patient{Name: "Patient_New", Ward: "Ward_9"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	entries := tracer.Entries()
	var found bool
	for _, e := range entries {
		if e.Operation == "create_patient" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected create_patient span, got %+v", entries)
	}
}

func TestDeleteSurgeriesBySurgeon(t *testing.T) {
	service := newSeededService(t)
	ctx := context.Background()

	removed, _, err := service.DeleteSurgeriesBySurgeon(ctx, "surgeon_smith")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	store := service.Store()
	if _, ok := store.GetSurgery("surgery_brain"); ok {
		t.Fatal("surgery_brain still present")
	}
	// patient_davis had only that one surgery and goes with it.
	if _, ok := store.GetPatient("patient_davis"); ok {
		t.Fatal("orphaned patient must be removed")
	}
	// The surgeon record itself stays.
	if _, ok := store.GetSurgeon("surgeon_smith"); !ok {
		t.Fatal("surgeon must survive a schedule wipe")
	}
}

func TestDeleteSurgeriesBySurgeonKeepsBookedPatients(t *testing.T) {
	service := newSeededService(t)
	ctx := context.Background()

	// Give patient_davis a second surgery with a different surgeon.
	_, _, err := service.CreateSurgery(ctx, Surgery{
		Base: Base{ID: "surgery_followup"}, Name: "Followup_Procedure",
		SurgeonID: "surgeon_brown", TheatreID: "theatre_general",
		TimeslotID: "slot_14_00", PatientID: "patient_davis",
		EstimatedDurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, _, err := service.DeleteSurgeriesBySurgeon(ctx, "surgeon_smith"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := service.Store().GetPatient("patient_davis"); !ok {
		t.Fatal("patient with a remaining surgery must be kept")
	}
}

func TestDeleteSurgeriesByTimeslot(t *testing.T) {
	service := newSeededService(t)
	removed, _, err := service.DeleteSurgeriesByTimeslot(context.Background(), "slot_10_45")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok := service.Store().GetSurgery("surgery_bypass"); ok {
		t.Fatal("surgery_bypass still present")
	}
}

func TestDeleteAllSurgeries(t *testing.T) {
	service := newSeededService(t)
	removed, _, err := service.DeleteAllSurgeries(context.Background())
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 4 {
		t.Fatalf("expected 4 removed, got %d", removed)
	}
	summary, err := service.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Surgeries != 0 {
		t.Fatalf("expected no surgeries, got %d", summary.Surgeries)
	}
	if summary.Patients != 0 {
		t.Fatalf("expected every patient removed with their only surgery, got %d", summary.Patients)
	}
	if summary.Surgeons != 4 || summary.Theatres != 4 {
		t.Fatalf("resources must survive: %+v", summary)
	}
}

func TestServicePreCheckSurgery(t *testing.T) {
	service := newSeededService(t)
	addNeuroAnnex(t, service.Store())
	result, err := service.PreCheckSurgery(context.Background(), Surgery{
		Name:      "Candidate",
		SurgeonID: "surgeon_smith", TheatreID: "theatre_neuro_annex",
		TimeslotID: "slot_08_00", PatientID: "patient_moore",
		EstimatedDurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("precheck: %v", err)
	}
	singleConflict(t, result, "surgeon_double_booking")
	summary, _ := service.Summary(context.Background())
	if summary.Surgeries != 4 {
		t.Fatal("precheck must not commit")
	}
}

func TestServicePreCheckReportsEveryRule(t *testing.T) {
	service := newSeededService(t)
	// Smith is Neuro-qualified, so putting him in the general theatre while
	// his own slot is busy trips two independent rules on one candidate.
	result, err := service.PreCheckSurgery(context.Background(), Surgery{
		Name:      "Candidate",
		SurgeonID: "surgeon_smith", TheatreID: "theatre_general",
		TimeslotID: "slot_08_00", PatientID: "patient_moore",
		EstimatedDurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("precheck: %v", err)
	}
	var rules []string
	for _, c := range result.Conflicts {
		rules = append(rules, c.Rule)
	}
	want := []string{"surgeon_double_booking", "specialization_mismatch"}
	if !reflect.DeepEqual(rules, want) {
		t.Fatalf("expected %v, got %v", want, rules)
	}
}

func TestServiceExportImport(t *testing.T) {
	service := newSeededService(t)
	ctx := context.Background()
	snapshot, err := service.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	sink := newCaptureSink()
	target := NewInMemoryService(WithProjectionSink(sink))
	if err := target.Import(ctx, snapshot); err != nil {
		t.Fatalf("import: %v", err)
	}
	synced := sink.last(t)
	if len(synced.Surgeries) != 4 {
		t.Fatalf("sink got wrong snapshot: %+v", synced)
	}
	summary, _ := target.Summary(ctx)
	if summary.Total != 24 {
		t.Fatalf("expected 24 entities, got %d", summary.Total)
	}
}
