package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"theatrecore/pkg/domain"
)

// NewEquipmentConflictRule returns the rule flagging overlapping surgeries
// that share at least one piece of equipment. One conflict is reported per
// surgery pair, listing every shared equipment id.
func NewEquipmentConflictRule() domain.Rule {
	return equipmentConflictRule{}
}

type equipmentConflictRule struct{}

func (equipmentConflictRule) Name() string { return "equipment_conflict" }

func (equipmentConflictRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	type pairKey struct{ first, second string }
	shared := make(map[pairKey][]string)

	for _, equipment := range view.ListEquipment() {
		overlappingPairs(view.Bookings(ResourceEquipment, equipment.ID), func(a, b Booking) {
			first, second := orderedPair(a.SurgeryID, b.SurgeryID)
			key := pairKey{first, second}
			shared[key] = append(shared[key], equipment.ID)
		})
	}

	keys := make([]pairKey, 0, len(shared))
	for key := range shared {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].first != keys[j].first {
			return keys[i].first < keys[j].first
		}
		return keys[i].second < keys[j].second
	})

	res := domain.Result{}
	for _, key := range keys {
		equipmentIDs := shared[key]
		sort.Strings(equipmentIDs)
		res.Conflicts = append(res.Conflicts, domain.Conflict{
			Rule:       "equipment_conflict",
			Severity:   SeverityMedium,
			SurgeryIDs: []string{key.first, key.second},
			Resource:   ResourceEquipment,
			ResourceID: equipmentIDs[0],
			Message: fmt.Sprintf("%s and %s both require %s at overlapping times",
				key.first, key.second, strings.Join(equipmentIDs, ", ")),
			Resolution: fmt.Sprintf("stagger {%s, %s} or allocate separate equipment", key.first, key.second),
			Emergency:  anyEmergency(view, key.first, key.second),
		})
	}
	return res, nil
}
