package game

import (
	"context"
	"encoding/json"
	"fmt"
)

// Submit records a player's guess for a stage. A resubmission overwrites
// the previous one with a fresh submittedAt; the latest write wins, and
// that later timestamp is what tie-breaking sees. The value is accepted
// unvalidated; anything out of range simply ranks poorly.
func (e *Engine) Submit(ctx context.Context, stageID int, playerID, name string, value *float64, meta map[string]float64) error {
	if _, ok := e.catalog.ByID(stageID); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownStage, stageID)
	}
	resp := Response{
		Name:        name,
		Value:       value,
		Meta:        meta,
		SubmittedAt: nowMillis(),
	}
	if err := e.store.Set(ctx, ResponsePath(stageID, playerID), resp); err != nil {
		return fmt.Errorf("submitting response: %w", err)
	}
	return nil
}

// Response reads one player's submission for a stage.
func (e *Engine) Response(ctx context.Context, stageID int, playerID string) (Response, bool, error) {
	var r Response
	ok, err := e.store.Get(ctx, ResponsePath(stageID, playerID), &r)
	if err != nil {
		return Response{}, false, fmt.Errorf("reading response: %w", err)
	}
	return r, ok, nil
}

// Responses returns every submission for a stage keyed by player id.
func (e *Engine) Responses(ctx context.Context, stageID int) (map[string]Response, error) {
	raw, err := e.store.List(ctx, ResponsesPath(stageID))
	if err != nil {
		return nil, fmt.Errorf("listing responses for stage %d: %w", stageID, err)
	}
	responses := make(map[string]Response, len(raw))
	for id, data := range raw {
		var r Response
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decoding response %q: %w", id, err)
		}
		responses[id] = r
	}
	return responses, nil
}
