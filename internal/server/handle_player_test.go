package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/partysense/sensequiz/internal/game"
)

func TestRegisterPlayerEndpoint(t *testing.T) {
	r, _ := testRouter(t)

	body, _ := json.Marshal(RegisterRequest{Name: "  Maria  "})
	req := httptest.NewRequest(http.MethodPut, "/api/players/dev-123", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var p game.Player
	json.NewDecoder(w.Body).Decode(&p)
	if p.ID != "dev-123" || p.Name != "Maria" {
		t.Errorf("player = %+v, want id dev-123 and trimmed name Maria", p)
	}
	if p.LastActive == 0 {
		t.Error("lastActive not set on registration")
	}
}

func TestRegisterPlayerRejectsBlankName(t *testing.T) {
	r, _ := testRouter(t)

	body, _ := json.Marshal(RegisterRequest{Name: "   "})
	req := httptest.NewRequest(http.MethodPut, "/api/players/dev-123", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestGetPlayerNotFound(t *testing.T) {
	r, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/players/nobody", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func submitReq(value float64) *bytes.Reader {
	body, _ := json.Marshal(SubmitRequest{PlayerID: "p1", Name: "One", Value: &value})
	return bytes.NewReader(body)
}

func TestSubmitGatedByPhase(t *testing.T) {
	r, engine := testRouter(t)
	ctx := context.Background()

	// Waiting phase: no submissions.
	req := httptest.NewRequest(http.MethodPost, "/api/stages/1/responses", submitReq(7.0))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("waiting phase: expected 409, got %d: %s", w.Code, w.Body.String())
	}

	if err := engine.SetPhase(ctx, game.PhaseOpen); err != nil {
		t.Fatalf("set phase: %v", err)
	}

	// Open, but not the current stage.
	req = httptest.NewRequest(http.MethodPost, "/api/stages/2/responses", submitReq(7.0))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("wrong stage: expected 409, got %d", w.Code)
	}

	// Open and current.
	req = httptest.NewRequest(http.MethodPost, "/api/stages/1/responses", submitReq(7.0))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("open: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp game.Response
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Value == nil || *resp.Value != 7.0 {
		t.Errorf("stored value = %v, want 7", resp.Value)
	}
	if resp.SubmittedAt == 0 {
		t.Error("submittedAt not stamped")
	}
}

func TestGetResponse(t *testing.T) {
	r, engine := testRouter(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/api/stages/1/responses/p1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("before submit: expected 404, got %d", w.Code)
	}

	v := 7.0
	if err := engine.Submit(ctx, 1, "p1", "One", &v, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stages/1/responses/p1", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("after submit: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp game.Response
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Value == nil || *resp.Value != 7.0 {
		t.Errorf("value = %v, want 7", resp.Value)
	}
}

func TestSubmitRequiresIdentity(t *testing.T) {
	r, engine := testRouter(t)
	if err := engine.SetPhase(context.Background(), game.PhaseOpen); err != nil {
		t.Fatalf("set phase: %v", err)
	}

	v := 7.0
	body, _ := json.Marshal(SubmitRequest{Name: "One", Value: &v})
	req := httptest.NewRequest(http.MethodPost, "/api/stages/1/responses", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without playerId, got %d", w.Code)
	}
}

func TestSubmitAcceptsNullValue(t *testing.T) {
	r, engine := testRouter(t)
	if err := engine.SetPhase(context.Background(), game.PhaseOpen); err != nil {
		t.Fatalf("set phase: %v", err)
	}

	body := []byte(`{"playerId":"p1","name":"One","value":null}`)
	req := httptest.NewRequest(http.MethodPost, "/api/stages/1/responses", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp game.Response
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Value != nil {
		t.Errorf("value = %v, want null preserved", *resp.Value)
	}
}
