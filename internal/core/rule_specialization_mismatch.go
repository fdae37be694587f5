package core

import (
	"context"
	"fmt"

	"theatrecore/pkg/domain"
)

// NewSpecializationMismatchRule returns the rule flagging surgeries whose
// surgeon lacks the theatre's required specialization. Timeslots play no
// part in this rule.
func NewSpecializationMismatchRule() domain.Rule {
	return specializationMismatchRule{}
}

type specializationMismatchRule struct{}

func (specializationMismatchRule) Name() string { return "specialization_mismatch" }

func (specializationMismatchRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, surgery := range view.ListSurgeries() {
		surgeon, ok := view.FindSurgeon(surgery.SurgeonID)
		if !ok {
			continue
		}
		theatre, ok := view.FindTheatre(surgery.TheatreID)
		if !ok {
			continue
		}
		if surgeon.HasSpecialty(theatre.RequiredSpecialty) {
			continue
		}
		res.Conflicts = append(res.Conflicts, domain.Conflict{
			Rule:       "specialization_mismatch",
			Severity:   SeverityMedium,
			SurgeryIDs: []string{surgery.ID},
			Resource:   ResourceTheatre,
			ResourceID: theatre.ID,
			Message: fmt.Sprintf("surgeon %s is qualified for %v but surgery %s requires %s",
				surgeon.Name, surgeon.Specialties, surgery.ID, theatre.RequiredSpecialty),
			Resolution: fmt.Sprintf("assign a %s-qualified surgeon or move %s to a matching theatre",
				theatre.RequiredSpecialty, surgery.ID),
			Emergency: surgery.Emergency,
		})
	}
	return res, nil
}
