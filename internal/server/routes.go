package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/partysense/sensequiz/internal/game"
)

func addRoutes(r chi.Router, logger *slog.Logger, engine *game.Engine, sessions *masterSessions) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("SenseQuiz API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, engine))
	r.Get("/ws/state", handleWSState(logger, engine))

	// Shared reads, open to every role including the screen.
	r.Route("/api", func(r chi.Router) {
		r.Get("/game/state", handleGameState(engine))
		r.Get("/game/board", handleBoard(engine))
		r.Get("/game/events", handleEvents(logger, engine))
		r.Get("/scoreboard", handleScoreboard(engine))
		r.Get("/stages", handleListStages(engine))
		r.Get("/stages/{stageID}", handleGetStage(engine))

		// Player writes. Identity is the device's self-issued id.
		r.Put("/players/{playerID}", handleRegisterPlayer(engine))
		r.Get("/players/{playerID}", handleGetPlayer(engine))
		r.Post("/stages/{stageID}/responses", handleSubmit(engine))
		r.Get("/stages/{stageID}/responses/{playerID}", handleGetResponse(engine))

		// Master console.
		r.Post("/master/login", handleMasterLogin(sessions))
		r.Post("/master/logout", handleMasterLogout(sessions))
		r.Route("/master", func(r chi.Router) {
			r.Use(masterAuthMiddleware(sessions))
			r.Get("/summary", handleMasterSummary(engine))
			r.Post("/stage/next", handleStageNext(engine))
			r.Post("/stage/prev", handleStagePrev(engine))
			r.Post("/phase", handleSetPhase(engine))
			r.Post("/explain", handleSetExplain(engine))
			r.Post("/results", handleShowResults(engine))
			r.Post("/ranking", handleShowRanking(engine))
			r.Post("/reset", handleReset(engine))
			r.Delete("/players/{playerID}", handleRemovePlayer(engine))
		})
	})
}
