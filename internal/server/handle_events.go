package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/partysense/sensequiz/internal/game"
)

// handleEvents is the reactive channel every role hangs off: one SSE
// stream carrying a typed event per store change. Consumers re-render
// from the payload; they never need to poll.
//
// Event types: "state" (full game state), "players" (scoreboard),
// "responses" (answer count for the changed stage), "results" (the
// changed stage's ResultSet).
func handleEvents(logger *slog.Logger, engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		events, cancel := engine.Store().Subscribe(r.Context(), "")
		defer cancel()

		// Late joiners need the current picture before the first change.
		emitState(w, r, engine)
		emitScoreboard(w, r, engine)
		flusher.Flush()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev, open := <-events:
				if !open {
					return
				}
				if err := emitChange(w, r, engine, ev.Path); err != nil {
					logger.Debug("sse emit failed", "path", ev.Path, "error", err)
					return
				}
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}

func emitChange(w http.ResponseWriter, r *http.Request, engine *game.Engine, path string) error {
	switch {
	case path == game.StatePath:
		return emitState(w, r, engine)
	case strings.HasPrefix(path, "players"):
		return emitScoreboard(w, r, engine)
	case strings.HasPrefix(path, "responses/"):
		return emitResponses(w, r, engine, path)
	case strings.HasPrefix(path, "results/"):
		return emitResults(w, r, engine, path)
	}
	return nil
}

func emitState(w http.ResponseWriter, r *http.Request, engine *game.Engine) error {
	state, err := engine.State(r.Context())
	if err != nil {
		return err
	}
	return emit(w, "state", state)
}

func emitScoreboard(w http.ResponseWriter, r *http.Request, engine *game.Engine) error {
	players, err := engine.Scoreboard(r.Context())
	if err != nil {
		return err
	}
	if players == nil {
		players = []game.Player{}
	}
	return emit(w, "players", players)
}

func emitResponses(w http.ResponseWriter, r *http.Request, engine *game.Engine, path string) error {
	stageID, ok := stageFromPath(path, "responses/")
	if !ok {
		return nil
	}
	responses, err := engine.Responses(r.Context(), stageID)
	if err != nil {
		return err
	}
	return emit(w, "responses", map[string]int{"stageId": stageID, "count": len(responses)})
}

func emitResults(w http.ResponseWriter, r *http.Request, engine *game.Engine, path string) error {
	stageID, ok := stageFromPath(path, "results/")
	if !ok {
		return nil
	}
	rs, found, err := engine.Results(r.Context(), stageID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	return emit(w, "results", rs)
}

func emit(w http.ResponseWriter, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

// stageFromPath pulls the stage id out of "responses/3/p1" or "results/3".
func stageFromPath(path, prefix string) (int, bool) {
	rest := strings.TrimPrefix(path, prefix)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	var id int
	if _, err := fmt.Sscanf(rest, "%d", &id); err != nil {
		return 0, false
	}
	return id, true
}
