package game

import (
	"context"
	"fmt"
)

// Results reads the persisted ResultSet for a stage, if any.
func (e *Engine) Results(ctx context.Context, stageID int) (ResultSet, bool, error) {
	var rs ResultSet
	ok, err := e.store.Get(ctx, ResultPath(stageID), &rs)
	if err != nil {
		return ResultSet{}, false, fmt.Errorf("reading results for stage %d: %w", stageID, err)
	}
	return rs, ok, nil
}

// ComputeResults ranks the stage and persists the outcome, once. An
// existing ResultSet is returned untouched, discarding the freshly
// computed candidate. The persistence itself is a conditional create at
// the store, so two racing masters cannot publish divergent rankings:
// whichever write lands first is the stage's ranking forever.
func (e *Engine) ComputeResults(ctx context.Context, stageID int) (ResultSet, error) {
	stage, ok := e.catalog.ByID(stageID)
	if !ok {
		return ResultSet{}, fmt.Errorf("%w: %d", ErrUnknownStage, stageID)
	}

	if existing, found, err := e.Results(ctx, stageID); err != nil {
		return ResultSet{}, err
	} else if found {
		return existing, nil
	}

	responses, err := e.Responses(ctx, stageID)
	if err != nil {
		return ResultSet{}, err
	}
	roster, err := e.Roster(ctx)
	if err != nil {
		return ResultSet{}, err
	}

	rs := Rank(stage, responses, roster, nowMillis())

	created, err := e.store.SetNX(ctx, ResultPath(stageID), rs)
	if err != nil {
		return ResultSet{}, fmt.Errorf("persisting results for stage %d: %w", stageID, err)
	}
	if !created {
		// Lost the race; the winner's set is authoritative.
		existing, _, err := e.Results(ctx, stageID)
		if err != nil {
			return ResultSet{}, err
		}
		return existing, nil
	}

	e.logger.Info("results computed", "stageId", stageID, "entries", len(rs.Ranked))
	return rs, nil
}
