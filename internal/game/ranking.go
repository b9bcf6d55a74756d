package game

import (
	"math"
	"sort"

	"github.com/partysense/sensequiz/internal/catalog"
)

// awardTable holds the points for ranks 1..len; any rank past the end
// earns nothing.
var awardTable = [...]int{3, 2, 1}

// Diff is the wrap-aware distance between a submitted value and the
// stage target. Absent or non-numeric values rank last via +Inf. On a
// circular domain the shorter way around counts.
func Diff(value *float64, stage catalog.Stage) float64 {
	if value == nil || math.IsNaN(*value) {
		return math.Inf(1)
	}
	raw := math.Abs(*value - stage.Target)
	if stage.Wrap > 0 {
		return math.Min(raw, stage.Wrap-raw)
	}
	return raw
}

// pointsFor returns the award for a dense competition rank.
func pointsFor(rank int) int {
	if rank < 1 || rank > len(awardTable) {
		return 0
	}
	return awardTable[rank-1]
}

// Rank computes the full ResultSet for a stage from the collected
// responses and the player roster. It is pure: same inputs, same output.
//
// Every known player appears exactly once; those without a response are
// back-filled as null-value entries that sort last. Responses from players
// no longer on the roster are kept verbatim. Entries sort by ascending
// diff, then earlier submission, then player id, and tied diffs share a
// dense competition rank (the next distinct diff takes its 1-based
// position, not the previous rank plus one).
func Rank(stage catalog.Stage, responses map[string]Response, roster map[string]Player, now int64) ResultSet {
	type candidate struct {
		entry       RankedEntry
		diff        float64
		submittedAt float64
	}

	candidates := make([]candidate, 0, len(roster)+len(responses))

	for id, p := range roster {
		name := p.Name
		if name == "" {
			name = "No Name"
		}
		c := candidate{
			entry:       RankedEntry{PlayerID: id, Name: name},
			diff:        math.Inf(1),
			submittedAt: math.Inf(1),
		}
		if r, ok := responses[id]; ok {
			if r.Name != "" {
				c.entry.Name = r.Name
			}
			c.entry.Value = r.Value
			c.entry.Meta = r.Meta
			c.entry.SubmittedAt = r.SubmittedAt
			c.diff = Diff(r.Value, stage)
			c.submittedAt = float64(r.SubmittedAt)
		}
		candidates = append(candidates, c)
	}

	for id, r := range responses {
		if _, known := roster[id]; known {
			continue
		}
		name := r.Name
		if name == "" {
			name = "No Name"
		}
		candidates = append(candidates, candidate{
			entry: RankedEntry{
				PlayerID:    id,
				Name:        name,
				Value:       r.Value,
				Meta:        r.Meta,
				SubmittedAt: r.SubmittedAt,
			},
			diff:        Diff(r.Value, stage),
			submittedAt: float64(r.SubmittedAt),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.diff != b.diff {
			return a.diff < b.diff
		}
		if a.submittedAt != b.submittedAt {
			return a.submittedAt < b.submittedAt
		}
		return a.entry.PlayerID < b.entry.PlayerID
	})

	ranked := make([]RankedEntry, len(candidates))
	for i, c := range candidates {
		rank := i + 1
		if i > 0 && sameDiff(c.diff, candidates[i-1].diff) {
			rank = ranked[i-1].Rank
		}
		c.entry.Rank = rank
		if !math.IsInf(c.diff, 1) {
			// Only real guesses earn points; back-filled and unreadable
			// entries keep their rank for display but score nothing.
			c.entry.Points = pointsFor(rank)
		}
		ranked[i] = c.entry
	}

	return ResultSet{
		Awarded:     false,
		StageID:     stage.ID,
		Target:      stage.Target,
		UpdatedAt:   now,
		Ranked:      ranked,
		IncludesAll: true,
	}
}

// sameDiff treats two infinities as a tie; everything else compares
// exactly, matching how the sort ordered them.
func sameDiff(a, b float64) bool {
	if math.IsInf(a, 1) && math.IsInf(b, 1) {
		return true
	}
	return a == b
}
