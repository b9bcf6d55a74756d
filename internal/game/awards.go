package game

import (
	"context"
	"fmt"
)

// AwardIfNeeded applies a stage's points to player scores exactly once.
// The awarded flag gates re-entry, and each score change is an atomic
// store increment rather than a read-then-overwrite, so awards racing in
// from another stage never lose updates.
func (e *Engine) AwardIfNeeded(ctx context.Context, stageID int) error {
	rs, found, err := e.Results(ctx, stageID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no results for stage %d", stageID)
	}
	if rs.Awarded {
		return nil
	}

	for _, entry := range rs.Ranked {
		if entry.Points <= 0 {
			continue
		}
		if _, err := e.store.IncrBy(ctx, PlayerPath(entry.PlayerID), "score", entry.Points); err != nil {
			return fmt.Errorf("awarding %d points to %q: %w", entry.Points, entry.PlayerID, err)
		}
	}

	err = e.store.Merge(ctx, ResultPath(stageID), map[string]any{
		"awarded":   true,
		"updatedAt": nowMillis(),
	})
	if err != nil {
		return fmt.Errorf("marking stage %d awarded: %w", stageID, err)
	}

	e.logger.Info("points awarded", "stageId", stageID)
	return nil
}

// ShowResults publishes the stage ranking and reveals it: compute (or
// reuse) the ResultSet, then flip the shared phase to reveal.
func (e *Engine) ShowResults(ctx context.Context) (ResultSet, error) {
	state, err := e.State(ctx)
	if err != nil {
		return ResultSet{}, err
	}
	rs, err := e.ComputeResults(ctx, state.StageIndex)
	if err != nil {
		return ResultSet{}, err
	}
	if err := e.SetPhase(ctx, PhaseReveal); err != nil {
		return ResultSet{}, err
	}
	return rs, nil
}

// ShowRanking awards the current stage's points (once) and switches to the
// rank phase.
func (e *Engine) ShowRanking(ctx context.Context) (ResultSet, error) {
	state, err := e.State(ctx)
	if err != nil {
		return ResultSet{}, err
	}
	rs, err := e.ComputeResults(ctx, state.StageIndex)
	if err != nil {
		return ResultSet{}, err
	}
	if err := e.AwardIfNeeded(ctx, state.StageIndex); err != nil {
		return ResultSet{}, err
	}
	if err := e.SetPhase(ctx, PhaseRank); err != nil {
		return ResultSet{}, err
	}
	// Re-read so the caller sees the awarded flag.
	rs, _, err = e.Results(ctx, state.StageIndex)
	return rs, err
}
