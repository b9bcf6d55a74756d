package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestEventsStreamSnapshot(t *testing.T) {
	r, engine := testRouter(t)

	if err := engine.RegisterPlayer(context.Background(), "p1", "One"); err != nil {
		t.Fatalf("register: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/game/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, req)
		close(done)
	}()

	// Give the handler a moment to write its initial snapshot, then hang up.
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after client disconnect")
	}

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content-type = %q, want text/event-stream", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: state\n") {
		t.Errorf("body missing initial state event:\n%s", body)
	}
	if !strings.Contains(body, "event: players\n") {
		t.Errorf("body missing initial scoreboard event:\n%s", body)
	}
	if !strings.Contains(body, `"One"`) {
		t.Errorf("scoreboard event missing the registered player:\n%s", body)
	}
}

func TestStageFromPath(t *testing.T) {
	tests := []struct {
		path   string
		prefix string
		want   int
		ok     bool
	}{
		{"responses/3/p1", "responses/", 3, true},
		{"results/10", "results/", 10, true},
		{"results/abc", "results/", 0, false},
		{"results/", "results/", 0, false},
	}
	for _, tt := range tests {
		got, ok := stageFromPath(tt.path, tt.prefix)
		if got != tt.want || ok != tt.ok {
			t.Errorf("stageFromPath(%q, %q) = (%d, %v), want (%d, %v)",
				tt.path, tt.prefix, got, ok, tt.want, tt.ok)
		}
	}
}
