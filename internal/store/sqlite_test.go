package store_test

import (
	"context"
	"testing"

	"github.com/partysense/sensequiz/internal/database"
	"github.com/partysense/sensequiz/internal/store"
)

func openSQLite(t *testing.T) *store.SQLite {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := store.NewSQLite(ctx, db)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	return s
}

func TestSQLiteSetGet(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	type record struct {
		Name  string `json:"name"`
		Score int    `json:"score"`
	}

	if err := s.Set(ctx, "players/p1", record{Name: "Pat", Score: 4}); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got record
	found, err := s.Get(ctx, "players/p1", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || got.Name != "Pat" || got.Score != 4 {
		t.Errorf("found=%v got=%+v", found, got)
	}

	// Set overwrites in place.
	if err := s.Set(ctx, "players/p1", record{Name: "Pat", Score: 6}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if _, err := s.Get(ctx, "players/p1", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Score != 6 {
		t.Errorf("score = %d, want 6", got.Score)
	}

	if found, _ := s.Get(ctx, "players/nobody", &got); found {
		t.Error("found = true for a vacant path")
	}
}

func TestSQLiteMergeAndIncrBy(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	if err := s.Merge(ctx, "players/p1", map[string]any{"name": "Pat"}); err != nil {
		t.Fatalf("merge into vacant path: %v", err)
	}

	next, err := s.IncrBy(ctx, "players/p1", "score", 3)
	if err != nil {
		t.Fatalf("incr: %v", err)
	}
	if next != 3 {
		t.Errorf("next = %d, want 3", next)
	}
	next, err = s.IncrBy(ctx, "players/p1", "score", -1)
	if err != nil {
		t.Fatalf("incr: %v", err)
	}
	if next != 2 {
		t.Errorf("next = %d, want 2", next)
	}

	var got map[string]any
	if _, err := s.Get(ctx, "players/p1", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["name"] != "Pat" || got["score"] != float64(2) {
		t.Errorf("record = %+v", got)
	}
}

func TestSQLiteSetNX(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	created, err := s.SetNX(ctx, "results/1", map[string]any{"winner": "p1"})
	if err != nil {
		t.Fatalf("setnx: %v", err)
	}
	if !created {
		t.Fatal("first SetNX did not create")
	}

	created, err = s.SetNX(ctx, "results/1", map[string]any{"winner": "p2"})
	if err != nil {
		t.Fatalf("setnx again: %v", err)
	}
	if created {
		t.Error("second SetNX claimed to create")
	}

	var got map[string]any
	if _, err := s.Get(ctx, "results/1", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["winner"] != "p1" {
		t.Errorf("winner = %v, want the first write kept", got["winner"])
	}
}

func TestSQLiteListAndDelete(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	for _, p := range []string{"responses/3/p1", "responses/3/p2", "responses/4/p1"} {
		if err := s.Set(ctx, p, map[string]any{"value": 1.0}); err != nil {
			t.Fatalf("set %q: %v", p, err)
		}
	}

	children, err := s.List(ctx, "responses/3")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("len(children) = %d, want 2: %v", len(children), children)
	}

	if err := s.Delete(ctx, "responses/3"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	children, err = s.List(ctx, "responses/3")
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(children) != 0 {
		t.Errorf("children after delete = %v, want none", children)
	}

	// Sibling subtree untouched.
	children, err = s.List(ctx, "responses/4")
	if err != nil {
		t.Fatalf("list sibling: %v", err)
	}
	if len(children) != 1 {
		t.Errorf("sibling children = %v, want 1", children)
	}
}

func TestSQLiteMultiWrite(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	if err := s.Set(ctx, "players/p1", map[string]any{"name": "Pat", "score": 9}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "responses/1/p1", map[string]any{"value": 1.0}); err != nil {
		t.Fatalf("set: %v", err)
	}

	writes := []store.Write{
		{Path: "players/p1", Fields: map[string]any{"score": 0}},
		{Path: "responses", Delete: true},
		{Path: "game/state", Value: map[string]any{"phase": "waiting"}},
	}
	if err := s.MultiWrite(ctx, writes); err != nil {
		t.Fatalf("multiwrite: %v", err)
	}

	var player map[string]any
	if _, err := s.Get(ctx, "players/p1", &player); err != nil {
		t.Fatalf("get: %v", err)
	}
	if player["score"] != float64(0) || player["name"] != "Pat" {
		t.Errorf("player after batch = %+v", player)
	}

	var resp map[string]any
	if found, _ := s.Get(ctx, "responses/1/p1", &resp); found {
		t.Error("response survived the batch delete")
	}

	var state map[string]any
	if found, _ := s.Get(ctx, "game/state", &state); !found {
		t.Error("state not written by the batch")
	}
}

func TestSQLiteSubscribe(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	events, cancel := s.Subscribe(ctx, "game")
	defer cancel()

	if err := s.Set(ctx, "game/state", map[string]any{"phase": "open"}); err != nil {
		t.Fatalf("set: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Path != "game/state" {
			t.Errorf("event path = %q, want game/state", ev.Path)
		}
	default:
		t.Error("no event after write")
	}
}
