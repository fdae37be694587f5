package core

import (
	"context"
	"fmt"

	"theatrecore/pkg/domain"
)

// NewSurgeonDoubleBookingRule returns the rule flagging surgeons booked for
// two surgeries at overlapping times.
func NewSurgeonDoubleBookingRule() domain.Rule {
	return surgeonDoubleBookingRule{}
}

type surgeonDoubleBookingRule struct{}

func (surgeonDoubleBookingRule) Name() string { return "surgeon_double_booking" }

func (surgeonDoubleBookingRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, surgeon := range view.ListSurgeons() {
		overlappingPairs(view.Bookings(ResourceSurgeon, surgeon.ID), func(a, b Booking) {
			first, second := orderedPair(a.SurgeryID, b.SurgeryID)
			res.Conflicts = append(res.Conflicts, domain.Conflict{
				Rule:       "surgeon_double_booking",
				Severity:   SeverityHigh,
				SurgeryIDs: []string{first, second},
				Resource:   ResourceSurgeon,
				ResourceID: surgeon.ID,
				Message: fmt.Sprintf("surgeon %s is scheduled for %s (%s) and %s (%s) at overlapping times",
					surgeon.Name, first, bookingInterval(view, first), second, bookingInterval(view, second)),
				Resolution: fmt.Sprintf("reschedule one of {%s, %s} or reassign the surgeon", first, second),
				Emergency:  anyEmergency(view, first, second),
			})
		})
	}
	return res, nil
}

func bookingInterval(view domain.RuleView, surgeryID string) Interval {
	surgery, ok := view.FindSurgery(surgeryID)
	if !ok {
		return Interval{}
	}
	slot, ok := view.FindTimeslot(surgery.TimeslotID)
	if !ok {
		return Interval{}
	}
	return slot.Interval()
}

func anyEmergency(view domain.RuleView, surgeryIDs ...string) bool {
	for _, id := range surgeryIDs {
		if surgery, ok := view.FindSurgery(id); ok && surgery.Emergency {
			return true
		}
	}
	return false
}
