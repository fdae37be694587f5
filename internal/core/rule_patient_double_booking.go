package core

import (
	"context"
	"fmt"

	"theatrecore/pkg/domain"
)

// NewPatientDoubleBookingRule returns the rule flagging patients scheduled
// for two surgeries at overlapping times.
func NewPatientDoubleBookingRule() domain.Rule {
	return patientDoubleBookingRule{}
}

type patientDoubleBookingRule struct{}

func (patientDoubleBookingRule) Name() string { return "patient_double_booking" }

func (patientDoubleBookingRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, patient := range view.ListPatients() {
		overlappingPairs(view.Bookings(ResourcePatient, patient.ID), func(a, b Booking) {
			first, second := orderedPair(a.SurgeryID, b.SurgeryID)
			res.Conflicts = append(res.Conflicts, domain.Conflict{
				Rule:       "patient_double_booking",
				Severity:   SeverityCritical,
				SurgeryIDs: []string{first, second},
				Resource:   ResourcePatient,
				ResourceID: patient.ID,
				Message: fmt.Sprintf("patient %s is scheduled for %s and %s at overlapping times",
					patient.Name, first, second),
				Resolution: fmt.Sprintf("reschedule one of {%s, %s}; a patient cannot undergo two surgeries at once", first, second),
				Emergency:  anyEmergency(view, first, second),
			})
		})
	}
	return res, nil
}
