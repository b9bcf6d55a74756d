package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/partysense/sensequiz/internal/catalog"
	"github.com/partysense/sensequiz/internal/game"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "SenseQuiz API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the SenseQuiz party game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the reachability of the realtime store backend.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /ws/state
	getWSState, _ := r.NewOperationContext(http.MethodGet, "/ws/state")
	getWSState.SetSummary("WebSocket game-state stream")
	getWSState.SetDescription("Upgrades to a WebSocket that pushes a GameState snapshot on every change.")
	getWSState.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWSState)

	// GET /api/game/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/game/state")
	getState.SetSummary("Get game state")
	getState.SetDescription("Returns the shared phase register plus the current stage definition.")
	getState.AddRespStructure(GameStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getState)

	// GET /api/game/board
	getBoard, _ := r.NewOperationContext(http.MethodGet, "/api/game/board")
	getBoard.SetSummary("Screen board")
	getBoard.SetDescription("Returns the big-screen result grid for the current stage and phase.")
	getBoard.AddRespStructure(BoardResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getBoard)

	// GET /api/game/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/game/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of state, scoreboard, response-count and result changes.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/scoreboard
	getScores, _ := r.NewOperationContext(http.MethodGet, "/api/scoreboard")
	getScores.SetSummary("Scoreboard")
	getScores.SetDescription("Returns players ordered by score descending, then name.")
	getScores.AddRespStructure([]game.Player{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getScores)

	// GET /api/stages
	listStages, _ := r.NewOperationContext(http.MethodGet, "/api/stages")
	listStages.SetSummary("List stages")
	listStages.SetDescription("Returns the full stage catalog.")
	listStages.AddRespStructure([]catalog.Stage{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listStages)

	// GET /api/stages/{stageID}
	getStage, _ := r.NewOperationContext(http.MethodGet, "/api/stages/{stageID}")
	getStage.SetSummary("Get stage")
	getStage.AddReqStructure(struct {
		StageID int `path:"stageID"`
	}{})
	getStage.AddRespStructure(catalog.Stage{}, openapi.WithHTTPStatus(http.StatusOK))
	getStage.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getStage)

	// PUT /api/players/{playerID}
	putPlayer, _ := r.NewOperationContext(http.MethodPut, "/api/players/{playerID}")
	putPlayer.SetSummary("Register player")
	putPlayer.SetDescription("Creates or refreshes a player record; doubles as the device heartbeat.")
	putPlayer.AddReqStructure(struct {
		PlayerID string `path:"playerID"`
		RegisterRequest
	}{})
	putPlayer.AddRespStructure(game.Player{}, openapi.WithHTTPStatus(http.StatusOK))
	putPlayer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(putPlayer)

	// GET /api/players/{playerID}
	getPlayer, _ := r.NewOperationContext(http.MethodGet, "/api/players/{playerID}")
	getPlayer.SetSummary("Get player")
	getPlayer.AddReqStructure(struct {
		PlayerID string `path:"playerID"`
	}{})
	getPlayer.AddRespStructure(game.Player{}, openapi.WithHTTPStatus(http.StatusOK))
	getPlayer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getPlayer)

	// POST /api/stages/{stageID}/responses
	postResponse, _ := r.NewOperationContext(http.MethodPost, "/api/stages/{stageID}/responses")
	postResponse.SetSummary("Submit response")
	postResponse.SetDescription("Submits or overwrites the player's guess while the stage is open.")
	postResponse.AddReqStructure(struct {
		StageID int `path:"stageID"`
		SubmitRequest
	}{})
	postResponse.AddRespStructure(game.Response{}, openapi.WithHTTPStatus(http.StatusOK))
	postResponse.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postResponse)

	// GET /api/stages/{stageID}/responses/{playerID}
	getResponse, _ := r.NewOperationContext(http.MethodGet, "/api/stages/{stageID}/responses/{playerID}")
	getResponse.SetSummary("Get own response")
	getResponse.SetDescription("Returns the player's stored guess for a stage, for reconnect checks.")
	getResponse.AddReqStructure(struct {
		StageID  int    `path:"stageID"`
		PlayerID string `path:"playerID"`
	}{})
	getResponse.AddRespStructure(game.Response{}, openapi.WithHTTPStatus(http.StatusOK))
	getResponse.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getResponse)

	// POST /api/master/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/master/login")
	postLogin.SetSummary("Master login")
	postLogin.SetDescription("Authenticate with the master key. Sets the master_session cookie.")
	postLogin.AddReqStructure(MasterLoginRequest{})
	postLogin.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/master/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/master/logout")
	postLogout.SetSummary("Master logout")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/master/summary
	getSummary, _ := r.NewOperationContext(http.MethodGet, "/api/master/summary")
	getSummary.SetSummary("Console summary")
	getSummary.AddRespStructure(MasterSummaryResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getSummary.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getSummary)

	// POST /api/master/stage/next
	postNext, _ := r.NewOperationContext(http.MethodPost, "/api/master/stage/next")
	postNext.SetSummary("Advance stage")
	postNext.SetDescription("Moves to the next stage, clamped at the catalog end.")
	postNext.AddRespStructure(game.GameState{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postNext)

	// POST /api/master/stage/prev
	postPrev, _ := r.NewOperationContext(http.MethodPost, "/api/master/stage/prev")
	postPrev.SetSummary("Retreat stage")
	postPrev.AddRespStructure(game.GameState{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postPrev)

	// POST /api/master/phase
	postPhase, _ := r.NewOperationContext(http.MethodPost, "/api/master/phase")
	postPhase.SetSummary("Set phase")
	postPhase.AddReqStructure(PhaseRequest{})
	postPhase.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postPhase.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postPhase)

	// POST /api/master/explain
	postExplain, _ := r.NewOperationContext(http.MethodPost, "/api/master/explain")
	postExplain.SetSummary("Toggle explanation overlay")
	postExplain.AddReqStructure(ExplainRequest{})
	postExplain.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postExplain)

	// POST /api/master/results
	postResults, _ := r.NewOperationContext(http.MethodPost, "/api/master/results")
	postResults.SetSummary("Reveal results")
	postResults.SetDescription("Computes the stage ranking once (existing results are reused) and switches to the reveal phase.")
	postResults.AddRespStructure(game.ResultSet{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postResults)

	// POST /api/master/ranking
	postRanking, _ := r.NewOperationContext(http.MethodPost, "/api/master/ranking")
	postRanking.SetSummary("Award and rank")
	postRanking.SetDescription("Awards the stage's points exactly once and switches to the rank phase.")
	postRanking.AddRespStructure(game.ResultSet{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postRanking)

	// POST /api/master/reset
	postReset, _ := r.NewOperationContext(http.MethodPost, "/api/master/reset")
	postReset.SetSummary("Reset session")
	postReset.SetDescription("Destructive: zeroes scores, deletes all responses and results, returns to stage 1. Requires confirm=true.")
	postReset.AddReqStructure(ResetRequest{})
	postReset.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postReset.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postReset)

	// DELETE /api/master/players/{playerID}
	delPlayer, _ := r.NewOperationContext(http.MethodDelete, "/api/master/players/{playerID}")
	delPlayer.SetSummary("Remove player")
	delPlayer.AddReqStructure(struct {
		PlayerID string `path:"playerID"`
	}{})
	delPlayer.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	delPlayer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(delPlayer)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
