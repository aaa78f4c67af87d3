// Package ledger accumulates per-player point totals for one scoring mode.
package ledger

import (
	"sort"

	"github.com/louisbranch/courtside/internal/services/scoring/domain/roster"
)

// Totals maps player id to cumulative points. Absent ids count as zero.
type Totals map[string]int

// Of returns the total for id.
func (t Totals) Of(id string) int {
	return t[id]
}

// Sum adds up every entry.
func (t Totals) Sum() int {
	sum := 0
	for _, v := range t {
		sum += v
	}
	return sum
}

// Clone copies the totals.
func (t Totals) Clone() Totals {
	out := make(Totals, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Apply folds delta into totals additively and returns the new totals.
// Neither argument is modified. Negative deltas are accepted.
func Apply(totals, delta Totals) Totals {
	next := totals.Clone()
	for id, v := range delta {
		next[id] += v
	}
	return next
}

// Reset returns an empty ledger.
func Reset() Totals {
	return Totals{}
}

// Standing is one leaderboard row.
type Standing struct {
	Rank   int    `json:"rank"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Points int    `json:"points"`
}

// Rank lists every roster player by total descending. Ties keep roster order
// and share the rank of the first tied player.
func Rank(players []roster.Player, totals Totals) []Standing {
	rows := make([]Standing, len(players))
	for i, p := range players {
		rows[i] = Standing{ID: p.ID, Name: p.Name, Color: p.Color, Points: totals.Of(p.ID)}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Points > rows[j].Points
	})
	for i := range rows {
		if i > 0 && rows[i].Points == rows[i-1].Points {
			rows[i].Rank = rows[i-1].Rank
			continue
		}
		rows[i].Rank = i + 1
	}
	return rows
}
