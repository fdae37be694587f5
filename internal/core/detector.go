package core

import (
	"context"

	"theatrecore/pkg/domain"
)

// Detector runs the conflict rules in two modes: a full scan of the current
// graph, and a pre-check of a candidate surgery evaluated as if it were
// already committed. Findings are data, never errors, and never block.
type Detector struct {
	store  PersistentStore
	engine *RulesEngine
}

// NewDetector constructs a detector over the store. A nil engine gets the
// default conflict rule set.
func NewDetector(store PersistentStore, engine *RulesEngine) *Detector {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return &Detector{store: store, engine: engine}
}

// DetectAll evaluates every rule against the current graph and returns the
// canonically ordered findings.
func (d *Detector) DetectAll(ctx context.Context) (Result, error) {
	var result Result
	err := d.store.View(ctx, func(view TransactionView) error {
		res, err := d.engine.Evaluate(ctx, view, nil)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	return result, err
}

// PreCheck evaluates the candidate surgery against the current graph without
// committing it, returning only the conflicts the candidate participates in.
// Reference and interval validation runs exactly as a create would, so a
// dangling candidate is reported as an error rather than a finding.
func (d *Detector) PreCheck(ctx context.Context, candidate Surgery) (Result, error) {
	var candidateID string
	result, err := d.store.DryRun(ctx, func(tx domain.Transaction) error {
		created, err := tx.CreateSurgery(candidate)
		if err != nil {
			return err
		}
		candidateID = created.ID
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	involved := Result{}
	for _, conflict := range result.Conflicts {
		for _, id := range conflict.SurgeryIDs {
			if id == candidateID {
				involved.Conflicts = append(involved.Conflicts, conflict)
				break
			}
		}
	}
	return involved, nil
}
