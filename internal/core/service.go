package core

import (
	"context"
	"time"

	"theatrecore/pkg/domain"
)

// ProjectionSink receives the committed graph after every successful mutation
// so downstream read models (text search, archives) can stay current.
// Implementations must tolerate being called concurrently.
type ProjectionSink interface {
	SyncSnapshot(ctx context.Context, snapshot Snapshot) error
}

// Service exposes higher-level transactional operations over a persistent
// store, adding instrumentation and projection fan-out on top of the raw
// storage contract.
type Service struct {
	store    PersistentStore
	detector *Detector
	queries  *QueryService
	logger   Logger
	metrics  MetricsRecorder
	tracer   Tracer
	sink     ProjectionSink
}

// ServiceOption customizes service construction.
type ServiceOption func(*Service)

// WithLogger attaches a structured logger to the service.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder attaches a metrics recorder to the service.
func WithMetricsRecorder(metrics MetricsRecorder) ServiceOption {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// WithTracer attaches a tracer to the service.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithProjectionSink attaches a sink that receives the committed graph after
// each successful mutation.
func WithProjectionSink(sink ProjectionSink) ServiceOption {
	return func(s *Service) {
		s.sink = sink
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:    store,
		detector: NewDetector(store, nil),
		queries:  NewQueryService(store),
		logger:   noopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service over a fresh in-memory store with the
// default rules.
func NewInMemoryService(opts ...ServiceOption) *Service {
	return NewService(NewMemoryStore(NewDefaultRulesEngine()), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// Queries returns the read-side query service sharing the store.
func (s *Service) Queries() *QueryService {
	return s.queries
}

func (s *Service) instrument(ctx context.Context, operation string, fn func(context.Context) error) error {
	var span TraceSpan
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operation)
	}
	started := time.Now()
	err := fn(ctx)
	if s.metrics != nil {
		s.metrics.Observe(ctx, operation, err == nil, time.Since(started))
	}
	if span != nil {
		span.End(err)
	}
	if err != nil {
		s.logger.Error("operation failed", "operation", operation, "error", err)
	} else {
		s.logger.Debug("operation completed", "operation", operation)
	}
	return err
}

func (s *Service) afterCommit(ctx context.Context, operation string, res Result) {
	if !res.Empty() {
		s.logger.Warn("schedule conflicts present after commit",
			"operation", operation, "conflicts", len(res.Conflicts))
	}
	if s.sink == nil {
		return
	}
	snapshot := s.store.Export()
	go func() {
		if err := s.sink.SyncSnapshot(context.WithoutCancel(ctx), snapshot); err != nil {
			s.logger.Error("projection sync failed", "operation", operation, "error", err)
		}
	}()
}

func (s *Service) run(ctx context.Context, operation string, fn func(domain.Transaction) error) (Result, error) {
	var res Result
	err := s.instrument(ctx, operation, func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, fn)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	s.afterCommit(ctx, operation, res)
	return res, nil
}

// CreateSurgeon persists a new surgeon.
func (s *Service) CreateSurgeon(ctx context.Context, surgeon Surgeon) (Surgeon, Result, error) {
	var created Surgeon
	res, err := s.run(ctx, "create_surgeon", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateSurgeon(surgeon)
		return err
	})
	return created, res, err
}

// UpdateSurgeon mutates a surgeon using the provided mutator.
func (s *Service) UpdateSurgeon(ctx context.Context, id string, mutator func(*Surgeon) error) (Surgeon, Result, error) {
	var updated Surgeon
	res, err := s.run(ctx, "update_surgeon", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateSurgeon(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteSurgeon removes a surgeon record.
func (s *Service) DeleteSurgeon(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_surgeon", func(tx domain.Transaction) error {
		return tx.DeleteSurgeon(id)
	})
}

// CreateTheatre persists a new operating theatre.
func (s *Service) CreateTheatre(ctx context.Context, theatre Theatre) (Theatre, Result, error) {
	var created Theatre
	res, err := s.run(ctx, "create_theatre", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateTheatre(theatre)
		return err
	})
	return created, res, err
}

// UpdateTheatre mutates a theatre using the provided mutator.
func (s *Service) UpdateTheatre(ctx context.Context, id string, mutator func(*Theatre) error) (Theatre, Result, error) {
	var updated Theatre
	res, err := s.run(ctx, "update_theatre", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateTheatre(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteTheatre removes a theatre record.
func (s *Service) DeleteTheatre(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_theatre", func(tx domain.Transaction) error {
		return tx.DeleteTheatre(id)
	})
}

// CreateTimeslot persists a new timeslot.
func (s *Service) CreateTimeslot(ctx context.Context, slot Timeslot) (Timeslot, Result, error) {
	var created Timeslot
	res, err := s.run(ctx, "create_timeslot", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateTimeslot(slot)
		return err
	})
	return created, res, err
}

// UpdateTimeslot mutates a timeslot using the provided mutator.
func (s *Service) UpdateTimeslot(ctx context.Context, id string, mutator func(*Timeslot) error) (Timeslot, Result, error) {
	var updated Timeslot
	res, err := s.run(ctx, "update_timeslot", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateTimeslot(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteTimeslot removes a timeslot record.
func (s *Service) DeleteTimeslot(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_timeslot", func(tx domain.Transaction) error {
		return tx.DeleteTimeslot(id)
	})
}

// CreateEquipment persists a new equipment record.
func (s *Service) CreateEquipment(ctx context.Context, equipment Equipment) (Equipment, Result, error) {
	var created Equipment
	res, err := s.run(ctx, "create_equipment", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateEquipment(equipment)
		return err
	})
	return created, res, err
}

// UpdateEquipment mutates an equipment record using the provided mutator.
func (s *Service) UpdateEquipment(ctx context.Context, id string, mutator func(*Equipment) error) (Equipment, Result, error) {
	var updated Equipment
	res, err := s.run(ctx, "update_equipment", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateEquipment(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteEquipment removes an equipment record.
func (s *Service) DeleteEquipment(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_equipment", func(tx domain.Transaction) error {
		return tx.DeleteEquipment(id)
	})
}

// CreatePatient persists a new patient.
func (s *Service) CreatePatient(ctx context.Context, patient Patient) (Patient, Result, error) {
	var created Patient
	res, err := s.run(ctx, "create_patient", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreatePatient(patient)
		return err
	})
	return created, res, err
}

// UpdatePatient mutates a patient using the provided mutator.
func (s *Service) UpdatePatient(ctx context.Context, id string, mutator func(*Patient) error) (Patient, Result, error) {
	var updated Patient
	res, err := s.run(ctx, "update_patient", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdatePatient(id, mutator)
		return err
	})
	return updated, res, err
}

// DeletePatient removes a patient record.
func (s *Service) DeletePatient(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_patient", func(tx domain.Transaction) error {
		return tx.DeletePatient(id)
	})
}

// CreateSurgery books a surgery. The returned Result carries any conflicts
// the booking introduced; the booking commits regardless.
func (s *Service) CreateSurgery(ctx context.Context, surgery Surgery) (Surgery, Result, error) {
	var created Surgery
	res, err := s.run(ctx, "create_surgery", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateSurgery(surgery)
		return err
	})
	return created, res, err
}

// UpdateSurgery mutates a surgery using the provided mutator.
func (s *Service) UpdateSurgery(ctx context.Context, id string, mutator func(*Surgery) error) (Surgery, Result, error) {
	var updated Surgery
	res, err := s.run(ctx, "update_surgery", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateSurgery(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteSurgery removes a surgery booking.
func (s *Service) DeleteSurgery(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_surgery", func(tx domain.Transaction) error {
		return tx.DeleteSurgery(id)
	})
}

// deleteSurgeriesWhere removes every surgery matching the predicate plus the
// patients left without any surgery afterwards, all in one transaction.
func (s *Service) deleteSurgeriesWhere(ctx context.Context, operation string, match func(Surgery) bool) (int, Result, error) {
	removed := 0
	res, err := s.run(ctx, operation, func(tx domain.Transaction) error {
		removed = 0
		view := tx.Snapshot()
		patients := map[string]struct{}{}
		for _, surgery := range view.ListSurgeries() {
			if !match(surgery) {
				continue
			}
			patients[surgery.PatientID] = struct{}{}
			if err := tx.DeleteSurgery(surgery.ID); err != nil {
				return err
			}
			removed++
		}
		after := tx.Snapshot()
		for _, patient := range after.ListPatients() {
			if _, ok := patients[patient.ID]; !ok {
				continue
			}
			if len(after.Bookings(ResourcePatient, patient.ID)) == 0 {
				if err := tx.DeletePatient(patient.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, Result{}, err
	}
	return removed, res, nil
}

// DeleteSurgeriesBySurgeon removes every surgery assigned to the surgeon,
// together with patients left without any remaining surgery.
func (s *Service) DeleteSurgeriesBySurgeon(ctx context.Context, surgeonID string) (int, Result, error) {
	return s.deleteSurgeriesWhere(ctx, "delete_surgeries_by_surgeon", func(surgery Surgery) bool {
		return surgery.SurgeonID == surgeonID
	})
}

// DeleteSurgeriesByTimeslot removes every surgery booked in the timeslot,
// together with patients left without any remaining surgery.
func (s *Service) DeleteSurgeriesByTimeslot(ctx context.Context, timeslotID string) (int, Result, error) {
	return s.deleteSurgeriesWhere(ctx, "delete_surgeries_by_timeslot", func(surgery Surgery) bool {
		return surgery.TimeslotID == timeslotID
	})
}

// DeleteAllSurgeries clears the whole schedule, together with patients left
// without any remaining surgery.
func (s *Service) DeleteAllSurgeries(ctx context.Context) (int, Result, error) {
	return s.deleteSurgeriesWhere(ctx, "delete_all_surgeries", func(Surgery) bool {
		return true
	})
}

// PreCheckSurgery reports the conflicts a candidate booking would introduce
// without committing anything.
func (s *Service) PreCheckSurgery(ctx context.Context, candidate Surgery) (Result, error) {
	var res Result
	err := s.instrument(ctx, "precheck_surgery", func(ctx context.Context) error {
		var err error
		res, err = s.detector.PreCheck(ctx, candidate)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// DetectConflicts runs the full rule scan over the committed schedule.
func (s *Service) DetectConflicts(ctx context.Context) (Result, error) {
	var res Result
	err := s.instrument(ctx, "detect_conflicts", func(ctx context.Context) error {
		var err error
		res, err = s.detector.DetectAll(ctx)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// Export returns the full graph snapshot in insertion order.
func (s *Service) Export(ctx context.Context) (Snapshot, error) {
	var snapshot Snapshot
	err := s.instrument(ctx, "export", func(context.Context) error {
		snapshot = s.store.Export()
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

// Import validates and atomically replaces the graph with the snapshot.
func (s *Service) Import(ctx context.Context, snapshot Snapshot) error {
	err := s.instrument(ctx, "import", func(ctx context.Context) error {
		return s.store.Import(ctx, snapshot)
	})
	if err != nil {
		return err
	}
	s.afterCommit(ctx, "import", Result{})
	return nil
}

// Summary reports entity counts for the committed graph.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var summary Summary
	err := s.store.View(ctx, func(view TransactionView) error {
		summary = Summary{
			Surgeons:  len(view.ListSurgeons()),
			Theatres:  len(view.ListTheatres()),
			Timeslots: len(view.ListTimeslots()),
			Equipment: len(view.ListEquipment()),
			Patients:  len(view.ListPatients()),
			Surgeries: len(view.ListSurgeries()),
		}
		summary.Total = summary.Surgeons + summary.Theatres + summary.Timeslots +
			summary.Equipment + summary.Patients + summary.Surgeries
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	return summary, nil
}
