package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/partysense/sensequiz/internal/catalog"
	"github.com/partysense/sensequiz/internal/store"
)

var ErrUnknownStage = errors.New("unknown stage")

// Engine binds the pure game logic to a store and a stage catalog. It is
// safe for concurrent use; all coordination happens at the store.
type Engine struct {
	store   store.Store
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func NewEngine(st store.Store, cat *catalog.Catalog, logger *slog.Logger) *Engine {
	return &Engine{store: st, catalog: cat, logger: logger}
}

func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

func (e *Engine) Store() store.Store { return e.store }

// State reads the current GameState, defaulting to the initial register
// when nothing has been written yet, and clamping a stray stage index the
// same way every role does.
func (e *Engine) State(ctx context.Context) (GameState, error) {
	state := InitialState()
	if _, err := e.store.Get(ctx, StatePath, &state); err != nil {
		return GameState{}, fmt.Errorf("reading game state: %w", err)
	}
	state.StageIndex = e.clampStage(state.StageIndex)
	if !state.Phase.Valid() {
		state.Phase = PhaseWaiting
	}
	return state, nil
}

// CurrentStage resolves the catalog stage for the live state.
func (e *Engine) CurrentStage(ctx context.Context) (catalog.Stage, GameState, error) {
	state, err := e.State(ctx)
	if err != nil {
		return catalog.Stage{}, GameState{}, err
	}
	stage, ok := e.catalog.ByID(state.StageIndex)
	if !ok {
		return catalog.Stage{}, state, fmt.Errorf("%w: %d", ErrUnknownStage, state.StageIndex)
	}
	return stage, state, nil
}

func (e *Engine) clampStage(index int) int {
	return min(e.catalog.Len(), max(1, index))
}
