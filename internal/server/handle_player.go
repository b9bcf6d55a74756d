package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/partysense/sensequiz/internal/game"
)

// RegisterRequest is the request body for PUT /api/players/{playerID}.
type RegisterRequest struct {
	Name string `json:"name"`
}

func handleRegisterPlayer(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := chi.URLParam(r, "playerID")
		if playerID == "" {
			writeError(w, http.StatusBadRequest, "player id required")
			return
		}

		var req RegisterRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		if err := engine.RegisterPlayer(r.Context(), playerID, req.Name); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		p, _, err := engine.Player(r.Context(), playerID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleGetPlayer(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := chi.URLParam(r, "playerID")
		p, found, err := engine.Player(r.Context(), playerID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "player not found")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// SubmitRequest is the request body for POST /api/stages/{stageID}/responses.
// Value stays a pointer so an explicit null survives the trip; the engine
// lets it through and it simply ranks last.
type SubmitRequest struct {
	PlayerID string             `json:"playerId"`
	Name     string             `json:"name"`
	Value    *float64           `json:"value"`
	Meta     map[string]float64 `json:"meta,omitempty"`
}

func handleSubmit(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stageID, err := strconv.Atoi(chi.URLParam(r, "stageID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid stage id")
			return
		}

		var req SubmitRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.PlayerID == "" || req.Name == "" {
			writeError(w, http.StatusBadRequest, "playerId and name are required")
			return
		}

		// Devices only enable the submit button while the stage is open;
		// mirror that gate here for the current stage.
		state, err := engine.State(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if state.StageIndex != stageID {
			writeError(w, http.StatusConflict, "stage is not current")
			return
		}
		if state.Phase != game.PhaseOpen {
			writeError(w, http.StatusConflict, "stage is not open")
			return
		}

		if err := engine.Submit(r.Context(), stageID, req.PlayerID, req.Name, req.Value, req.Meta); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		// Submitting doubles as a heartbeat, like the device clients do.
		if err := engine.TouchPlayer(r.Context(), req.PlayerID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp, _, err := engine.Response(r.Context(), stageID, req.PlayerID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleGetResponse lets a device check whether its guess for a stage made
// it in, e.g. after a reconnect.
func handleGetResponse(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stageID, err := strconv.Atoi(chi.URLParam(r, "stageID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid stage id")
			return
		}
		playerID := chi.URLParam(r, "playerID")

		resp, found, err := engine.Response(r.Context(), stageID, playerID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "no response")
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
