package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/partysense/sensequiz/internal/game"
)

// HealthResponse reports the store backend's reachability.
type HealthResponse struct {
	Store string `json:"store"`
}

func handleHealth(logger *slog.Logger, engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		resp := HealthResponse{Store: "ok"}
		status := http.StatusOK

		if err := engine.Store().Ping(ctx); err != nil {
			logger.Error("health check failed", "name", "store", "error", err)
			resp.Store = "error"
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
	}
}
