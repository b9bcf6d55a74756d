package game

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// RegisterPlayer creates or refreshes a roster record. Registration is
// also the heartbeat: every call bumps lastActive. Score is deliberately
// not touched here; only the awarder writes it.
func (e *Engine) RegisterPlayer(ctx context.Context, playerID, name string) error {
	err := e.store.Merge(ctx, PlayerPath(playerID), map[string]any{
		"id":         playerID,
		"name":       name,
		"lastActive": nowMillis(),
	})
	if err != nil {
		return fmt.Errorf("registering player %q: %w", playerID, err)
	}
	return nil
}

// TouchPlayer refreshes lastActive without changing the name.
func (e *Engine) TouchPlayer(ctx context.Context, playerID string) error {
	err := e.store.Merge(ctx, PlayerPath(playerID), map[string]any{
		"id":         playerID,
		"lastActive": nowMillis(),
	})
	if err != nil {
		return fmt.Errorf("touching player %q: %w", playerID, err)
	}
	return nil
}

// Player reads one roster record.
func (e *Engine) Player(ctx context.Context, playerID string) (Player, bool, error) {
	var p Player
	ok, err := e.store.Get(ctx, PlayerPath(playerID), &p)
	if err != nil {
		return Player{}, false, fmt.Errorf("reading player %q: %w", playerID, err)
	}
	return p, ok, nil
}

// Roster returns every registered player keyed by id.
func (e *Engine) Roster(ctx context.Context) (map[string]Player, error) {
	raw, err := e.store.List(ctx, playersPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	roster := make(map[string]Player, len(raw))
	for id, data := range raw {
		var p Player
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding player %q: %w", id, err)
		}
		if p.ID == "" {
			p.ID = id
		}
		roster[id] = p
	}
	return roster, nil
}

// Scoreboard returns the roster ordered by score descending, then name,
// the order the score table shows between stages.
func (e *Engine) Scoreboard(ctx context.Context) ([]Player, error) {
	roster, err := e.Roster(ctx)
	if err != nil {
		return nil, err
	}
	players := make([]Player, 0, len(roster))
	for _, p := range roster {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].Name < players[j].Name
	})
	return players, nil
}

// RemovePlayer drops a player from the roster. Their past responses stay
// and keep appearing in already-computed results.
func (e *Engine) RemovePlayer(ctx context.Context, playerID string) error {
	if err := e.store.Delete(ctx, PlayerPath(playerID)); err != nil {
		return fmt.Errorf("removing player %q: %w", playerID, err)
	}
	e.logger.Info("player removed", "playerId", playerID)
	return nil
}
