package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/partysense/sensequiz/internal/game"
)

// handleWSState streams GameState snapshots over a WebSocket, the screen
// role's alternative to SSE when it wants a plain socket. The current
// state goes out immediately, then one message per state change.
func handleWSState(logger *slog.Logger, engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
		defer cancel()

		events, unsubscribe := engine.Store().Subscribe(ctx, game.StatePath)
		defer unsubscribe()

		if err := writeState(ctx, conn, engine); err != nil {
			logger.Debug("websocket write failed", "error", err)
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case _, open := <-events:
				if !open {
					return
				}
				if err := writeState(ctx, conn, engine); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			}
		}
	}
}

func writeState(ctx context.Context, conn *websocket.Conn, engine *game.Engine) error {
	state, err := engine.State(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
