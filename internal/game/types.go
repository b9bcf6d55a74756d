// Package game implements the synchronized game-phase state machine and the
// ranking/scoring engine. All shared state lives in the realtime store; the
// hard logic (ranking, awarding) is pure and unit-testable without one.
package game

import (
	"fmt"
	"time"
)

// Phase is the visibility/acceptance state of the current stage.
type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhaseOpen    Phase = "open"
	PhaseReveal  Phase = "reveal"
	PhaseRank    Phase = "rank"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseWaiting, PhaseOpen, PhaseReveal, PhaseRank:
		return true
	}
	return false
}

// GameState is the single authoritative register every role watches.
// StageIndex stays within [1, N]; Explain is an overlay toggle independent
// of the phase.
type GameState struct {
	StageIndex int   `json:"stageIndex"`
	Phase      Phase `json:"phase"`
	Explain    bool  `json:"explain"`
}

// InitialState is what a fresh or reset session starts from.
func InitialState() GameState {
	return GameState{StageIndex: 1, Phase: PhaseWaiting}
}

// Player is one registered device identity. The id is self-issued and
// persisted on the device; it is a pseudo-identity, not a credential.
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
	LastActive int64  `json:"lastActive"`
}

// Response is one player's guess for one stage. Value is nil until a
// numeric guess arrives; Meta carries gadget-specific extras (overlay
// offsets and the like) verbatim.
type Response struct {
	Name        string             `json:"name"`
	Value       *float64           `json:"value"`
	Meta        map[string]float64 `json:"meta,omitempty"`
	SubmittedAt int64              `json:"submittedAt"`
}

// RankedEntry is one row of a persisted ResultSet.
type RankedEntry struct {
	PlayerID    string             `json:"playerId"`
	Name        string             `json:"name"`
	Value       *float64           `json:"value"`
	Meta        map[string]float64 `json:"meta,omitempty"`
	SubmittedAt int64              `json:"submittedAt,omitempty"`
	Rank        int                `json:"rank"`
	Points      int                `json:"points"`
}

// ResultSet is the at-most-once-computed ranking outcome for a stage. Once
// created its ranked contents never change; only Awarded and UpdatedAt do.
type ResultSet struct {
	Awarded     bool          `json:"awarded"`
	StageID     int           `json:"stageId"`
	Target      float64       `json:"target"`
	UpdatedAt   int64         `json:"updatedAt"`
	Ranked      []RankedEntry `json:"ranked"`
	IncludesAll bool          `json:"includesAll"`
}

// Store paths shared by every role.
const (
	StatePath       = "game/state"
	playersPrefix   = "players"
	responsesPrefix = "responses"
	resultsPrefix   = "results"
)

func PlayerPath(playerID string) string {
	return fmt.Sprintf("%s/%s", playersPrefix, playerID)
}

func ResponsesPath(stageID int) string {
	return fmt.Sprintf("%s/%d", responsesPrefix, stageID)
}

func ResponsePath(stageID int, playerID string) string {
	return fmt.Sprintf("%s/%d/%s", responsesPrefix, stageID, playerID)
}

func ResultPath(stageID int) string {
	return fmt.Sprintf("%s/%d", resultsPrefix, stageID)
}

// nowMillis matches the wire format the device clients use for timestamps.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}
