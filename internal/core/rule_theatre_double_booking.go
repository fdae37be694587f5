package core

import (
	"context"
	"fmt"

	"theatrecore/pkg/domain"
)

// NewTheatreDoubleBookingRule returns the rule flagging theatres hosting two
// surgeries at overlapping times.
func NewTheatreDoubleBookingRule() domain.Rule {
	return theatreDoubleBookingRule{}
}

type theatreDoubleBookingRule struct{}

func (theatreDoubleBookingRule) Name() string { return "theatre_double_booking" }

func (theatreDoubleBookingRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, theatre := range view.ListTheatres() {
		overlappingPairs(view.Bookings(ResourceTheatre, theatre.ID), func(a, b Booking) {
			first, second := orderedPair(a.SurgeryID, b.SurgeryID)
			res.Conflicts = append(res.Conflicts, domain.Conflict{
				Rule:       "theatre_double_booking",
				Severity:   SeverityHigh,
				SurgeryIDs: []string{first, second},
				Resource:   ResourceTheatre,
				ResourceID: theatre.ID,
				Message: fmt.Sprintf("theatre %s is double-booked: %s and %s occupy overlapping times",
					theatre.Name, first, second),
				Resolution: fmt.Sprintf("reschedule one of {%s, %s} or move one surgery to another theatre", first, second),
				Emergency:  anyEmergency(view, first, second),
			})
		})
	}
	return res, nil
}
