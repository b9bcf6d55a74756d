package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/partysense/sensequiz/internal/game"
)

// MasterLoginRequest is the request body for POST /api/master/login.
type MasterLoginRequest struct {
	Key string `json:"key"`
}

func handleMasterLogin(sessions *masterSessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MasterLoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Key == "" {
			writeError(w, http.StatusBadRequest, "key is required")
			return
		}

		id, err := sessions.login(r.Context(), req.Key, time.Now().UnixMilli())
		if err == errNoMasterSession {
			writeError(w, http.StatusUnauthorized, "invalid key")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     masterCookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   int(24 * time.Hour / time.Second),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleMasterLogout(sessions *masterSessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(masterCookieName); err == nil {
			sessions.logout(r.Context(), cookie.Value)
		}
		http.SetCookie(w, &http.Cookie{
			Name:     masterCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleStageNext(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := engine.AdvanceStage(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func handleStagePrev(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := engine.RetreatStage(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

// PhaseRequest is the request body for POST /api/master/phase.
type PhaseRequest struct {
	Phase string `json:"phase"`
}

func handleSetPhase(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PhaseRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		phase := game.Phase(req.Phase)
		if !phase.Valid() {
			writeError(w, http.StatusBadRequest, "invalid phase")
			return
		}
		if err := engine.SetPhase(r.Context(), phase); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"phase": req.Phase})
	}
}

// ExplainRequest is the request body for POST /api/master/explain.
type ExplainRequest struct {
	Visible bool `json:"visible"`
}

func handleSetExplain(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExplainRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := engine.SetExplain(r.Context(), req.Visible); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"explain": req.Visible})
	}
}

func handleShowResults(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs, err := engine.ShowResults(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "computing results failed")
			return
		}
		writeJSON(w, http.StatusOK, rs)
	}
}

func handleShowRanking(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs, err := engine.ShowRanking(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "awarding points failed")
			return
		}
		writeJSON(w, http.StatusOK, rs)
	}
}

// ResetRequest is the request body for POST /api/master/reset. The reset
// wipes every response, result and score, so it demands an explicit
// confirmation flag.
type ResetRequest struct {
	Confirm bool `json:"confirm"`
}

func handleReset(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResetRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !req.Confirm {
			writeError(w, http.StatusBadRequest, "confirm must be true")
			return
		}
		if err := engine.ResetAll(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "reset failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
	}
}

func handleRemovePlayer(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := chi.URLParam(r, "playerID")
		if playerID == "" {
			writeError(w, http.StatusBadRequest, "player id required")
			return
		}
		_, found, err := engine.Player(r.Context(), playerID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "player not found")
			return
		}
		if err := engine.RemovePlayer(r.Context(), playerID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
	}
}

// MasterSummaryResponse is the console's at-a-glance stage status.
type MasterSummaryResponse struct {
	StageIndex   int    `json:"stageIndex"`
	Phase        string `json:"phase"`
	PlayerCount  int    `json:"playerCount"`
	AnswerCount  int    `json:"answerCount"`
	ResultStatus string `json:"resultStatus"`
}

func handleMasterSummary(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := engine.State(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		roster, err := engine.Roster(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		responses, err := engine.Responses(r.Context(), state.StageIndex)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		status := "unpublished"
		if rs, found, err := engine.Results(r.Context(), state.StageIndex); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		} else if found && rs.Awarded {
			status = "awarded"
		} else if found && len(rs.Ranked) > 0 {
			status = "revealed"
		}

		writeJSON(w, http.StatusOK, MasterSummaryResponse{
			StageIndex:   state.StageIndex,
			Phase:        string(state.Phase),
			PlayerCount:  len(roster),
			AnswerCount:  len(responses),
			ResultStatus: status,
		})
	}
}
