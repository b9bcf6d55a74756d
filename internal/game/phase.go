package game

import (
	"context"
	"fmt"
)

// The phase controller is a plain settable register, not a guarded
// automaton: no transition is rejected based on the current phase, and the
// master is responsible for sane sequencing. Every mutation is a merge on
// the single state record, so subscribers always observe a full state.

// AdvanceStage moves to the next stage, clamped at the catalog end.
func (e *Engine) AdvanceStage(ctx context.Context) (GameState, error) {
	return e.shiftStage(ctx, +1)
}

// RetreatStage moves to the previous stage, clamped at 1.
func (e *Engine) RetreatStage(ctx context.Context) (GameState, error) {
	return e.shiftStage(ctx, -1)
}

func (e *Engine) shiftStage(ctx context.Context, delta int) (GameState, error) {
	state, err := e.State(ctx)
	if err != nil {
		return GameState{}, err
	}
	next := e.clampStage(state.StageIndex + delta)
	if err := e.store.Merge(ctx, StatePath, map[string]any{"stageIndex": next}); err != nil {
		return GameState{}, fmt.Errorf("setting stage index: %w", err)
	}
	state.StageIndex = next
	e.logger.Info("stage changed", "stageIndex", next)
	return state, nil
}

// SetPhase switches the shared phase register.
func (e *Engine) SetPhase(ctx context.Context, phase Phase) error {
	if !phase.Valid() {
		return fmt.Errorf("invalid phase %q", phase)
	}
	if err := e.store.Merge(ctx, StatePath, map[string]any{"phase": string(phase)}); err != nil {
		return fmt.Errorf("setting phase: %w", err)
	}
	e.logger.Info("phase changed", "phase", phase)
	return nil
}

// SetExplain toggles the explanation overlay, independent of phase.
func (e *Engine) SetExplain(ctx context.Context, visible bool) error {
	if err := e.store.Merge(ctx, StatePath, map[string]any{"explain": visible}); err != nil {
		return fmt.Errorf("setting explain: %w", err)
	}
	return nil
}
