package game

import (
	"context"
	"fmt"

	"github.com/partysense/sensequiz/internal/store"
)

// ResetAll wipes the session: every score to zero, all responses and
// results gone, state back to stage 1 / waiting. Issued as one multi-path
// write so backends that can apply it transactionally do. Callers gate it
// behind an explicit confirmation.
func (e *Engine) ResetAll(ctx context.Context) error {
	roster, err := e.Roster(ctx)
	if err != nil {
		return err
	}

	writes := make([]store.Write, 0, len(roster)+3)
	for id := range roster {
		writes = append(writes, store.Write{
			Path:   PlayerPath(id),
			Fields: map[string]any{"score": 0},
		})
	}
	writes = append(writes,
		store.Write{Path: responsesPrefix, Delete: true},
		store.Write{Path: resultsPrefix, Delete: true},
		store.Write{Path: StatePath, Value: InitialState()},
	)

	if err := e.store.MultiWrite(ctx, writes); err != nil {
		return fmt.Errorf("resetting session: %w", err)
	}

	e.logger.Info("session reset", "players", len(roster))
	return nil
}
