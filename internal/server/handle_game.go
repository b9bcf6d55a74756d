package server

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/partysense/sensequiz/internal/catalog"
	"github.com/partysense/sensequiz/internal/game"
)

// GameStateResponse pairs the shared state register with the stage it
// points at, so a role needs one request to render.
type GameStateResponse struct {
	StageIndex int           `json:"stageIndex"`
	Phase      string        `json:"phase"`
	Explain    bool          `json:"explain"`
	StageCount int           `json:"stageCount"`
	Stage      catalog.Stage `json:"stage"`
}

func handleGameState(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stage, state, err := engine.CurrentStage(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, GameStateResponse{
			StageIndex: state.StageIndex,
			Phase:      string(state.Phase),
			Explain:    state.Explain,
			StageCount: engine.Catalog().Len(),
			Stage:      stage,
		})
	}
}

func handleListStages(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, engine.Catalog().Stages())
	}
}

func handleGetStage(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "stageID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid stage id")
			return
		}
		stage, ok := engine.Catalog().ByID(id)
		if !ok {
			writeError(w, http.StatusNotFound, "stage not found")
			return
		}
		writeJSON(w, http.StatusOK, stage)
	}
}

func handleScoreboard(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := engine.Scoreboard(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if players == nil {
			players = []game.Player{}
		}
		writeJSON(w, http.StatusOK, players)
	}
}

// BoardEntry is one cell of the big-screen result grid.
type BoardEntry struct {
	PlayerID string             `json:"playerId"`
	Name     string             `json:"name"`
	Value    *float64           `json:"value"`
	Display  string             `json:"display"`
	Meta     map[string]float64 `json:"meta,omitempty"`
	Rank     int                `json:"rank,omitempty"`
	Points   int                `json:"points"`
}

// BoardResponse feeds the screen role. Entries are populated only in the
// reveal and rank phases, ordered by value descending with non-numeric
// guesses last; MaxRank supports rank shading on the display side.
type BoardResponse struct {
	StageIndex int           `json:"stageIndex"`
	Phase      string        `json:"phase"`
	Explain    bool          `json:"explain"`
	Stage      catalog.Stage `json:"stage"`
	Entries    []BoardEntry  `json:"entries"`
	MaxRank    int           `json:"maxRank"`
}

func handleBoard(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stage, state, err := engine.CurrentStage(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := BoardResponse{
			StageIndex: state.StageIndex,
			Phase:      string(state.Phase),
			Explain:    state.Explain,
			Stage:      stage,
			Entries:    []BoardEntry{},
		}

		if state.Phase == game.PhaseReveal || state.Phase == game.PhaseRank {
			rs, found, err := engine.Results(r.Context(), state.StageIndex)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if found {
				entries := boardEntries(rs, stage)
				if !rs.IncludesAll {
					// Older result sets only held responders; pad the
					// grid with the rest of the roster.
					roster, err := engine.Roster(r.Context())
					if err != nil {
						writeError(w, http.StatusInternalServerError, "internal error")
						return
					}
					entries = padRoster(entries, roster)
				}
				sortForDisplay(entries)
				resp.Entries = entries
				for _, e := range entries {
					resp.MaxRank = max(resp.MaxRank, e.Rank)
				}
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func boardEntries(rs game.ResultSet, stage catalog.Stage) []BoardEntry {
	entries := make([]BoardEntry, 0, len(rs.Ranked))
	for _, e := range rs.Ranked {
		display := "-"
		if e.Value != nil {
			display = stage.FormatValue(*e.Value)
		}
		entries = append(entries, BoardEntry{
			PlayerID: e.PlayerID,
			Name:     e.Name,
			Value:    e.Value,
			Display:  display,
			Meta:     e.Meta,
			Rank:     e.Rank,
			Points:   e.Points,
		})
	}
	return entries
}

func padRoster(entries []BoardEntry, roster map[string]game.Player) []BoardEntry {
	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		present[e.PlayerID] = true
	}
	for id, p := range roster {
		if present[id] {
			continue
		}
		name := p.Name
		if name == "" {
			name = "No Name"
		}
		entries = append(entries, BoardEntry{PlayerID: id, Name: name, Display: "-"})
	}
	return entries
}

// sortForDisplay orders the grid by value descending; entries without a
// numeric value sink to the end, and ties stay deterministic via player id.
func sortForDisplay(entries []BoardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch {
		case a.Value == nil && b.Value == nil:
			return a.PlayerID < b.PlayerID
		case a.Value == nil:
			return false
		case b.Value == nil:
			return true
		default:
			return *a.Value > *b.Value
		}
	})
}
