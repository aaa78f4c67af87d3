package pairing

import (
	"sort"

	"github.com/louisbranch/courtside/internal/services/scoring/domain/round"
)

// Mexicano balances courts by standing. Players are ranked by total
// descending (ties keep roster order), grouped in fours, and each group plays
// highest+lowest against the middle two. A trailing group of fewer than four
// sits out.
type Mexicano struct{}

// Pair implements Strategy.
func (Mexicano) Pair(in Input) []round.Court {
	courts := CourtCapacity(len(in.PlayerIDs), in.CourtCount)
	if courts == 0 {
		return []round.Court{}
	}

	ranked := make([]string, len(in.PlayerIDs))
	copy(ranked, in.PlayerIDs)
	sort.SliceStable(ranked, func(i, j int) bool {
		return in.Totals.Of(ranked[i]) > in.Totals.Of(ranked[j])
	})

	layout := make([]round.Court, 0, courts)
	for c := 0; c < courts; c++ {
		start := c * PlayersPerCourt
		if start+PlayersPerCourt > len(ranked) {
			break
		}
		g := ranked[start : start+PlayersPerCourt]
		layout = append(layout, round.Court{
			A: round.Team{g[0], g[3]},
			B: round.Team{g[1], g[2]},
		})
	}
	return layout
}
