package domain

import (
	"context"
	"sort"
)

// Severity grades a detected conflict. Conflicts are findings, not errors:
// no severity blocks a commit, emergency flags never suppress a finding.
type Severity string

// Conflict severities, highest first.
const (
	// SeverityCritical marks patient double-bookings.
	SeverityCritical Severity = "critical"
	// SeverityHigh marks surgeon and theatre double-bookings.
	SeverityHigh Severity = "high"
	// SeverityMedium marks equipment contention and specialization mismatches.
	SeverityMedium Severity = "medium"
)

// Booking ties a surgery to the interval it occupies on a resource.
type Booking struct {
	SurgeryID string   `json:"surgery_id"`
	Interval  Interval `json:"interval"`
}

// Conflict reports one violation of a scheduling rule.
type Conflict struct {
	Rule       string       `json:"rule"`
	Severity   Severity     `json:"severity"`
	SurgeryIDs []string     `json:"surgery_ids"`
	Resource   ResourceKind `json:"resource,omitempty"`
	ResourceID string       `json:"resource_id,omitempty"`
	Message    string       `json:"message"`
	Resolution string       `json:"resolution"`
	// Emergency is true when any involved surgery carries the emergency
	// flag. Surfaced for callers to weigh; never changes detection.
	Emergency bool `json:"emergency"`
}

// Rule priorities drive the deterministic report order. Lower sorts first.
var rulePriority = map[string]int{
	"surgeon_double_booking":  0,
	"theatre_double_booking":  1,
	"patient_double_booking":  2,
	"equipment_conflict":      3,
	"specialization_mismatch": 4,
}

// Result aggregates conflicts found by the rules engine.
type Result struct {
	Conflicts []Conflict `json:"conflicts"`
}

// Merge appends conflicts from another result.
func (r *Result) Merge(other Result) {
	if len(other.Conflicts) == 0 {
		return
	}
	r.Conflicts = append(r.Conflicts, other.Conflicts...)
}

// Empty reports whether the result carries no conflicts.
func (r Result) Empty() bool {
	return len(r.Conflicts) == 0
}

// Sort orders conflicts canonically: rule priority, then the
// lexicographically smaller involved surgery id, then the remaining ids.
func (r *Result) Sort() {
	sort.SliceStable(r.Conflicts, func(i, j int) bool {
		a, b := r.Conflicts[i], r.Conflicts[j]
		if pa, pb := rulePriority[a.Rule], rulePriority[b.Rule]; pa != pb {
			return pa < pb
		}
		for k := 0; k < len(a.SurgeryIDs) && k < len(b.SurgeryIDs); k++ {
			if a.SurgeryIDs[k] != b.SurgeryIDs[k] {
				return a.SurgeryIDs[k] < b.SurgeryIDs[k]
			}
		}
		if len(a.SurgeryIDs) != len(b.SurgeryIDs) {
			return len(a.SurgeryIDs) < len(b.SurgeryIDs)
		}
		return a.ResourceID < b.ResourceID
	})
}

// RuleView provides read-only access to graph state for rule evaluation.
// Bookings returns a resource's occupied intervals sorted by start time.
type RuleView interface {
	ListSurgeons() []Surgeon
	ListTheatres() []Theatre
	ListTimeslots() []Timeslot
	ListEquipment() []Equipment
	ListPatients() []Patient
	ListSurgeries() []Surgery
	FindSurgeon(id string) (Surgeon, bool)
	FindTheatre(id string) (Theatre, bool)
	FindTimeslot(id string) (Timeslot, bool)
	FindEquipment(id string) (Equipment, bool)
	FindPatient(id string) (Patient, bool)
	FindSurgery(id string) (Surgery, bool)
	Bookings(kind ResourceKind, id string) []Booking
}

// Rule defines an evaluation executed against a consistent graph snapshot.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an empty engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Rules returns the registered rule set.
func (e *RulesEngine) Rules() []Rule {
	return e.rules
}

// Evaluate executes all registered rules, aggregates their findings, and
// sorts them into the canonical report order.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	combined.Sort()
	return combined, nil
}
