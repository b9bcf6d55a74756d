package game

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"testing"

	"github.com/partysense/sensequiz/internal/catalog"
	"github.com/partysense/sensequiz/internal/store"
)

func testEngine(t *testing.T) (*Engine, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return NewEngine(mem, catalog.Default(), slog.Default()), mem
}

func TestStateDefaultsAndClamping(t *testing.T) {
	engine, mem := testEngine(t)
	ctx := context.Background()

	state, err := engine.State(ctx)
	if err != nil {
		t.Fatalf("reading state: %v", err)
	}
	if state.StageIndex != 1 || state.Phase != PhaseWaiting || state.Explain {
		t.Errorf("initial state = %+v, want stage 1, waiting, no explain", state)
	}

	// A stray out-of-range index clamps on read.
	if err := mem.Set(ctx, StatePath, GameState{StageIndex: 99, Phase: PhaseOpen}); err != nil {
		t.Fatalf("seeding state: %v", err)
	}
	state, err = engine.State(ctx)
	if err != nil {
		t.Fatalf("reading state: %v", err)
	}
	if state.StageIndex != engine.Catalog().Len() {
		t.Errorf("stageIndex = %d, want clamped to %d", state.StageIndex, engine.Catalog().Len())
	}
}

func TestStageNavigationClampsAtBounds(t *testing.T) {
	engine, _ := testEngine(t)
	ctx := context.Background()

	// Retreat at stage 1 is a no-op.
	if _, err := engine.RetreatStage(ctx); err != nil {
		t.Fatalf("retreat: %v", err)
	}
	state, _ := engine.State(ctx)
	if state.StageIndex != 1 {
		t.Errorf("stageIndex after retreat at 1 = %d, want 1", state.StageIndex)
	}

	last := engine.Catalog().Len()
	for i := 0; i < last+3; i++ {
		if _, err := engine.AdvanceStage(ctx); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	state, _ = engine.State(ctx)
	if state.StageIndex != last {
		t.Errorf("stageIndex after over-advancing = %d, want %d", state.StageIndex, last)
	}
}

func TestSetPhaseRejectsUnknown(t *testing.T) {
	engine, _ := testEngine(t)
	if err := engine.SetPhase(context.Background(), Phase("intermission")); err == nil {
		t.Fatal("SetPhase accepted an unknown phase")
	}
}

func TestSubmitOverwrites(t *testing.T) {
	engine, _ := testEngine(t)
	ctx := context.Background()

	if err := engine.Submit(ctx, 2, "p1", "Pat", fp(40), nil); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	first, _, err := engine.Response(ctx, 2, "p1")
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}

	if err := engine.Submit(ctx, 2, "p1", "Pat", fp(44), nil); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	second, _, err := engine.Response(ctx, 2, "p1")
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}

	if *second.Value != 44 {
		t.Errorf("value = %v, want 44 (last write wins)", *second.Value)
	}
	if second.SubmittedAt < first.SubmittedAt {
		t.Errorf("submittedAt went backwards: %d then %d", first.SubmittedAt, second.SubmittedAt)
	}

	responses, err := engine.Responses(ctx, 2)
	if err != nil {
		t.Fatalf("listing responses: %v", err)
	}
	if len(responses) != 1 {
		t.Errorf("len(responses) = %d, want 1 (overwrite, not append)", len(responses))
	}
}

func TestComputeResultsIsIdempotent(t *testing.T) {
	engine, mem := testEngine(t)
	ctx := context.Background()

	mustRegister(t, engine, "p1", "One")
	mustRegister(t, engine, "p2", "Two")
	mustSubmit(t, engine, 1, "p1", "One", fp(7.3))
	mustSubmit(t, engine, 1, "p2", "Two", fp(9.9))

	first, err := engine.ComputeResults(ctx, 1)
	if err != nil {
		t.Fatalf("first compute: %v", err)
	}

	// New submissions after the fact must not change anything.
	mustSubmit(t, engine, 1, "p2", "Two", fp(7.3))

	second, err := engine.ComputeResults(ctx, 1)
	if err != nil {
		t.Fatalf("second compute: %v", err)
	}

	firstJSON, _ := json.Marshal(first)
	secondJSON, _ := json.Marshal(second)
	if string(firstJSON) != string(secondJSON) {
		t.Errorf("second compute differs:\nfirst:  %s\nsecond: %s", firstJSON, secondJSON)
	}

	// The persisted copy matches too.
	var stored ResultSet
	if ok, err := mem.Get(ctx, ResultPath(1), &stored); err != nil || !ok {
		t.Fatalf("reading stored results: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(stored.Ranked, first.Ranked) {
		t.Error("stored ranked list differs from first computation")
	}
}

func TestAwardIfNeededIsExactlyOnce(t *testing.T) {
	engine, _ := testEngine(t)
	ctx := context.Background()

	mustRegister(t, engine, "p1", "One")
	mustRegister(t, engine, "p2", "Two")
	mustRegister(t, engine, "p3", "Three")
	mustSubmit(t, engine, 1, "p1", "One", fp(7.3))  // diff 0    -> 3 pts
	mustSubmit(t, engine, 1, "p2", "Two", fp(7.0))  // diff 0.3  -> 2 pts
	mustSubmit(t, engine, 1, "p3", "Three", fp(20)) // diff 12.7 -> 1 pt

	if _, err := engine.ComputeResults(ctx, 1); err != nil {
		t.Fatalf("compute: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := engine.AwardIfNeeded(ctx, 1); err != nil {
			t.Fatalf("award #%d: %v", i+1, err)
		}
	}

	wantScores := map[string]int{"p1": 3, "p2": 2, "p3": 1}
	for id, want := range wantScores {
		p, _, err := engine.Player(ctx, id)
		if err != nil {
			t.Fatalf("reading player %q: %v", id, err)
		}
		if p.Score != want {
			t.Errorf("player %q score = %d, want %d (second award must be a no-op)", id, p.Score, want)
		}
	}

	rs, _, err := engine.Results(ctx, 1)
	if err != nil {
		t.Fatalf("reading results: %v", err)
	}
	if !rs.Awarded {
		t.Error("Awarded = false after awarding")
	}
}

func TestShowRankingAwardsAndSetsPhase(t *testing.T) {
	engine, _ := testEngine(t)
	ctx := context.Background()

	mustRegister(t, engine, "p1", "One")
	mustSubmit(t, engine, 1, "p1", "One", fp(7.3))

	rs, err := engine.ShowRanking(ctx)
	if err != nil {
		t.Fatalf("show ranking: %v", err)
	}
	if !rs.Awarded {
		t.Error("Awarded = false, want true")
	}

	state, _ := engine.State(ctx)
	if state.Phase != PhaseRank {
		t.Errorf("phase = %q, want rank", state.Phase)
	}
}

func TestResetAllRoundTrip(t *testing.T) {
	engine, _ := testEngine(t)
	ctx := context.Background()

	play := func() ResultSet {
		mustRegister(t, engine, "p1", "One")
		mustRegister(t, engine, "p2", "Two")
		mustSubmit(t, engine, 1, "p1", "One", fp(7.3))
		mustSubmit(t, engine, 1, "p2", "Two", fp(5.0))
		rs, err := engine.ShowRanking(ctx)
		if err != nil {
			t.Fatalf("show ranking: %v", err)
		}
		return rs
	}

	first := play()

	if err := engine.ResetAll(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	// Everything gone, state back to the initial register.
	state, _ := engine.State(ctx)
	if state.StageIndex != 1 || state.Phase != PhaseWaiting || state.Explain {
		t.Errorf("state after reset = %+v, want initial", state)
	}
	if _, found, _ := engine.Results(ctx, 1); found {
		t.Error("results survived the reset")
	}
	if responses, _ := engine.Responses(ctx, 1); len(responses) != 0 {
		t.Errorf("responses survived the reset: %d", len(responses))
	}
	for _, id := range []string{"p1", "p2"} {
		p, _, err := engine.Player(ctx, id)
		if err != nil {
			t.Fatalf("reading player %q: %v", id, err)
		}
		if p.Score != 0 {
			t.Errorf("player %q score = %d, want 0", id, p.Score)
		}
	}

	// A fresh cycle with identical inputs reproduces the same outcome.
	second := play()
	if !sameOutcome(first, second) {
		t.Errorf("replayed outcome differs:\nfirst:  %+v\nsecond: %+v", first.Ranked, second.Ranked)
	}

	p1, _, _ := engine.Player(ctx, "p1")
	if p1.Score != 3 {
		t.Errorf("p1 score after replay = %d, want 3 (not accumulated across reset)", p1.Score)
	}
}

// sameOutcome compares everything except timestamps.
func sameOutcome(a, b ResultSet) bool {
	if len(a.Ranked) != len(b.Ranked) {
		return false
	}
	for i := range a.Ranked {
		x, y := a.Ranked[i], b.Ranked[i]
		if x.PlayerID != y.PlayerID || x.Rank != y.Rank || x.Points != y.Points {
			return false
		}
	}
	return true
}

func TestRemovePlayer(t *testing.T) {
	engine, _ := testEngine(t)
	ctx := context.Background()

	mustRegister(t, engine, "p1", "One")
	if err := engine.RemovePlayer(ctx, "p1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, found, _ := engine.Player(ctx, "p1"); found {
		t.Error("player still present after removal")
	}
}

func TestScoreboardOrder(t *testing.T) {
	engine, mem := testEngine(t)
	ctx := context.Background()

	seed := []Player{
		{ID: "a", Name: "Zoe", Score: 5},
		{ID: "b", Name: "Abe", Score: 5},
		{ID: "c", Name: "Mia", Score: 9},
	}
	for _, p := range seed {
		if err := mem.Set(ctx, PlayerPath(p.ID), p); err != nil {
			t.Fatalf("seeding player: %v", err)
		}
	}

	players, err := engine.Scoreboard(ctx)
	if err != nil {
		t.Fatalf("scoreboard: %v", err)
	}
	want := []string{"Mia", "Abe", "Zoe"}
	for i, p := range players {
		if p.Name != want[i] {
			t.Errorf("scoreboard[%d] = %q, want %q", i, p.Name, want[i])
		}
	}
}

func mustRegister(t *testing.T, engine *Engine, id, name string) {
	t.Helper()
	if err := engine.RegisterPlayer(context.Background(), id, name); err != nil {
		t.Fatalf("registering %q: %v", id, err)
	}
}

func mustSubmit(t *testing.T, engine *Engine, stageID int, id, name string, value *float64) {
	t.Helper()
	if err := engine.Submit(context.Background(), stageID, id, name, value, nil); err != nil {
		t.Fatalf("submitting for %q: %v", id, err)
	}
}
